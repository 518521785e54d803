// Package memory serves customers from a fixed list, usually the one in the
// settings file.
package memory

import (
	"context"
	"fmt"
	"sync"

	"ledgerbilling/internal/customers"
)

// Ensure interface conformance
var _ customers.Directory = (*Directory)(nil)

type Directory struct {
	mu   sync.RWMutex
	list []customers.Customer
}

func New(list []customers.Customer) *Directory {
	d := &Directory{}
	d.Replace(list)
	return d
}

// Replace swaps the served list.
func (d *Directory) Replace(list []customers.Customer) {
	normalized := make([]customers.Customer, 0, len(list))
	for _, c := range list {
		normalized = append(normalized, customers.Normalize(c))
	}
	d.mu.Lock()
	d.list = normalized
	d.mu.Unlock()
}

func (d *Directory) List(ctx context.Context) ([]customers.Customer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]customers.Customer{}, d.list...), nil
}

func (d *Directory) Lookup(ctx context.Context, name string) (customers.Customer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if c, ok := customers.Find(d.list, name); ok {
		return c, nil
	}
	return customers.Customer{}, fmt.Errorf("%w: %s", customers.ErrCustomerNotFound, name)
}
