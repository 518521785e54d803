// Package render turns an assembled invoice into a printable document. The
// typesetting itself happens in an external worker.
package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"ledgerbilling/internal/core"
	"ledgerbilling/internal/customers"
)

var ErrRenderFailed = errors.New("render failed")

// Issuer is the party sending the invoice.
type Issuer struct {
	Name    string `yaml:"name" json:"name"`
	Address string `yaml:"address" json:"address"`
	VatID   string `yaml:"vat_id" json:"vat_id,omitempty"`
	Email   string `yaml:"email" json:"email,omitempty"`
	IBAN    string `yaml:"iban" json:"iban,omitempty"`
}

// Document is everything a renderer needs for one invoice.
type Document struct {
	Code     string                     `json:"code"`
	Date     core.Date                  `json:"date"`
	Currency string                     `json:"currency"`
	Issuer   Issuer                     `json:"issuer"`
	Customer customers.Customer         `json:"customer"`
	Lines    core.InvoiceLines          `json:"lines"`
	Totals   map[string]decimal.Decimal `json:"totals"`
}

type Renderer interface {
	Render(ctx context.Context, doc Document) ([]byte, error)
}

// JSON renders the document as indented JSON, for inspection or for feeding
// another tool.
type JSON struct{}

// Ensure interface conformance
var _ Renderer = JSON{}

func (JSON) Render(ctx context.Context, doc Document) ([]byte, error) {
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return append(out, '\n'), nil
}
