package core

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	rateAnnotation = regexp.MustCompile(`@(\d+(?:\.\d+)?)`)
	secondsPerHour = decimal.NewFromInt(3600)
)

// InvoiceLine is a posting prepared for an invoice: the display amount has its
// ledger sign removed and the note has lost its rate annotation.
type InvoiceLine struct {
	Posting  Posting
	Amount   string
	Note     string
	Rate     decimal.Decimal
	HasRate  bool
	Hours    decimal.Decimal
	HasHours bool
}

// InvoiceLines holds the three line groups of one invoice, each in posting order.
type InvoiceLines struct {
	Billables []InvoiceLine
	Fees      []InvoiceLine
	Vat       []InvoiceLine
}

// Total returns rate x hours for a rated line and the parsed amount otherwise.
// Unrated time has no monetary value.
func (l InvoiceLine) Total() decimal.Decimal {
	if !l.HasRate && l.HasHours {
		return decimal.Zero
	}
	if l.HasRate {
		hours := decimal.NewFromInt(1)
		if l.HasHours {
			hours = l.Hours
		}
		return l.Rate.Mul(hours)
	}
	return ParseAmount(l.Amount)
}

// Currency is the currency glyph of the display amount. Durations report "s"
// as their unit, which is not a currency.
func (l InvoiceLine) Currency() string {
	if l.HasHours {
		return ""
	}
	return SplitAmount(l.Amount).Currency
}

// ExtractInvoiceLines splits an invoice transaction into billable items,
// computed fees and VAT lines.
func ExtractInvoiceLines(tx Transaction, cfg AccountConfig) (InvoiceLines, error) {
	var lines InvoiceLines
	if tx.Type != TransactionInvoice {
		return lines, ErrNotInvoice
	}
	cfg = cfg.Resolved()

	for _, p := range tx.Postings {
		switch classifyAccount(p.Account, cfg) {
		case CategoryBillable:
			line := billableLine(p)
			if line.HasRate {
				lines.Fees = append(lines.Fees, line)
			} else {
				lines.Billables = append(lines.Billables, line)
			}
		case CategoryVatReceived:
			lines.Vat = append(lines.Vat, InvoiceLine{
				Posting: p,
				Amount:  stripSign(p.Amount),
				Note:    p.Note,
			})
		}
	}
	return lines, nil
}

func billableLine(p Posting) InvoiceLine {
	line := InvoiceLine{
		Posting: p,
		Amount:  stripSign(p.Amount),
		Note:    p.Note,
	}

	if m := rateAnnotation.FindStringSubmatchIndex(line.Note); m != nil {
		if rate, err := decimal.NewFromString(line.Note[m[2]:m[3]]); err == nil {
			line.Rate = rate
			line.HasRate = true
			line.Note = line.Note[:m[0]] + line.Note[m[1]:]
		}
	}

	if strings.HasSuffix(strings.TrimSpace(line.Amount), "s") {
		line.Hours = ParseAmount(line.Amount).Div(secondsPerHour)
		line.HasHours = true
	} else if line.HasRate {
		line.Hours = decimal.NewFromInt(1)
		line.HasHours = true
	}
	return line
}

// stripSign removes a leading minus: billables and VAT are stored negative in
// the ledger but shown positive on an invoice.
func stripSign(amount string) string {
	trimmed := strings.TrimSpace(amount)
	if strings.HasPrefix(trimmed, "-") {
		return strings.TrimSpace(trimmed[1:])
	}
	return trimmed
}

// Totals sums each line group per currency. Fees are expressed in the invoice
// currency; billables and VAT keep the currency of their amounts.
func (l InvoiceLines) Totals(invoiceCurrency string) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, line := range l.Billables {
		if line.HasHours {
			continue
		}
		totals[line.Currency()] = totals[line.Currency()].Add(line.Total())
	}
	for _, line := range l.Fees {
		totals[invoiceCurrency] = totals[invoiceCurrency].Add(line.Total())
	}
	for _, line := range l.Vat {
		totals[line.Currency()] = totals[line.Currency()].Add(line.Total())
	}
	return totals
}

// IsEmpty reports whether no line was extracted.
func (l InvoiceLines) IsEmpty() bool {
	return len(l.Billables) == 0 && len(l.Fees) == 0 && len(l.Vat) == 0
}
