package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Account categories derived from a posting's account path.
const (
	CategoryUnclassified AccountCategory = iota
	CategoryBillable
	CategoryReceivable
	CategoryAsset
	CategoryVatReceived
)

// Transaction types. The zero value is the "no type" result.
const (
	TransactionUnknown TransactionType = iota
	TransactionBillables
	TransactionInvoice
	TransactionPayment
)

type (
	AccountCategory int

	TransactionType int

	Date struct {
		time.Time
	}

	// Posting is one line of a ledger register report. Postings are never
	// modified after decoding; derived values live on the types built from them.
	Posting struct {
		Date    Date   `json:"date"`
		Payee   string `json:"payee"`
		Account string `json:"account"`
		Amount  string `json:"amount"`
		Note    string `json:"note,omitempty"`
		Code    string `json:"code,omitempty"`
	}

	Transaction struct {
		Date     Date
		Payee    string
		Code     string
		Postings []Posting
		Type     TransactionType
	}

	Amount struct {
		Currency string
		Value    decimal.Decimal
	}
)

var (
	ErrNotInvoice     = errors.New("transaction is not an invoice")
	ErrMissingAccount = errors.New("account not configured")
	ErrInvalidDate    = errors.New("invalid date")
	ErrUnknownType    = errors.New("unknown transaction type")
)

var dateLayouts = []string{"2006/01/02", "2006-01-02", "2006/1/2"}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts ledger's native 2006/01/02 form as well as ISO dates.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t}, nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(data))
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (c AccountCategory) String() string {
	switch c {
	case CategoryBillable:
		return "billable"
	case CategoryReceivable:
		return "receivable"
	case CategoryAsset:
		return "asset"
	case CategoryVatReceived:
		return "vat_received"
	default:
		return "unclassified"
	}
}

func (t TransactionType) String() string {
	switch t {
	case TransactionBillables:
		return "billables"
	case TransactionInvoice:
		return "invoice"
	case TransactionPayment:
		return "payment"
	default:
		return "unknown"
	}
}

// ParseTransactionType is the inverse of TransactionType.String.
func ParseTransactionType(s string) (TransactionType, error) {
	for _, t := range []TransactionType{TransactionUnknown, TransactionBillables, TransactionInvoice, TransactionPayment} {
		if strings.EqualFold(strings.TrimSpace(s), t.String()) {
			return t, nil
		}
	}
	return TransactionUnknown, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

func (a Amount) String() string {
	if a.Currency == "" {
		return a.Value.String()
	}
	return a.Value.StringFixed(2) + " " + a.Currency
}
