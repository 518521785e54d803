// Package customers resolves the people and companies invoices are addressed to.
package customers

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

var ErrCustomerNotFound = errors.New("customer not found")

// namespace seeds name-derived customer IDs so they are stable across runs.
var namespace = uuid.MustParse("6f1c4b9e-3d2a-5e8f-9a7b-1c0d2e3f4a5b")

// Customer is an invoice recipient. The ledger knows customers by Name, which
// is the last segment of their billable and receivable accounts.
type Customer struct {
	ID      uuid.UUID `json:"id" yaml:"id"`
	Name    string    `json:"name" yaml:"name"`
	Address string    `json:"address" yaml:"address"`
}

// Directory is the outbound port for customer lookups.
type Directory interface {
	List(ctx context.Context) ([]Customer, error)
	Lookup(ctx context.Context, name string) (Customer, error)
}

// NewID derives the ID a customer gets when its source carries none.
func NewID(name string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(strings.TrimSpace(name)))
}

// Normalize trims fields and fills in a missing ID.
func Normalize(c Customer) Customer {
	c.Name = strings.TrimSpace(c.Name)
	c.Address = strings.TrimSpace(c.Address)
	if c.ID == uuid.Nil {
		c.ID = NewID(c.Name)
	}
	return c
}

// Find returns the customer with the given name, compared case-insensitively.
func Find(list []Customer, name string) (Customer, bool) {
	name = strings.TrimSpace(name)
	for _, c := range list {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Customer{}, false
}
