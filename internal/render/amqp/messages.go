package amqp

import (
	"encoding/json"
	"fmt"

	"ledgerbilling/internal/core"
	"ledgerbilling/internal/render"
)

// renderRequest is the body published to the render queue.
type renderRequest struct {
	Code     string            `json:"code"`
	Date     string            `json:"date"`
	Currency string            `json:"currency"`
	Issuer   render.Issuer     `json:"issuer"`
	Customer requestCustomer   `json:"customer"`
	Items    []requestLine     `json:"items"`
	Fees     []requestLine     `json:"fees"`
	Vat      []requestLine     `json:"vat"`
	Totals   map[string]string `json:"totals"`
}

type requestCustomer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type requestLine struct {
	Date   string `json:"date"`
	Note   string `json:"note"`
	Amount string `json:"amount"`
	Rate   string `json:"rate,omitempty"`
	Hours  string `json:"hours,omitempty"`
	Total  string `json:"total"`
}

// renderReply is what the worker sends back on the reply queue.
type renderReply struct {
	OK       bool   `json:"ok"`
	Document []byte `json:"document"`
	Error    string `json:"error"`
}

func newRenderRequest(doc render.Document) renderRequest {
	req := renderRequest{
		Code:     doc.Code,
		Date:     doc.Date.String(),
		Currency: doc.Currency,
		Issuer:   doc.Issuer,
		Customer: requestCustomer{
			ID:      doc.Customer.ID.String(),
			Name:    doc.Customer.Name,
			Address: doc.Customer.Address,
		},
		Items:  toLines(doc.Lines.Billables),
		Fees:   toLines(doc.Lines.Fees),
		Vat:    toLines(doc.Lines.Vat),
		Totals: make(map[string]string, len(doc.Totals)),
	}
	for currency, total := range doc.Totals {
		req.Totals[currency] = total.StringFixed(2)
	}
	return req
}

func toLines(lines []core.InvoiceLine) []requestLine {
	out := make([]requestLine, 0, len(lines))
	for _, l := range lines {
		rl := requestLine{
			Date:   l.Posting.Date.String(),
			Note:   l.Note,
			Amount: l.Amount,
			Total:  l.Total().StringFixed(2),
		}
		if l.HasRate {
			rl.Rate = l.Rate.String()
		}
		if l.HasHours {
			rl.Hours = l.Hours.StringFixed(2)
		}
		out = append(out, rl)
	}
	return out
}

func (r renderRequest) toJSON() ([]byte, error) {
	return json.Marshal(r)
}

func replyFromJSON(data []byte) (renderReply, error) {
	var reply renderReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return renderReply{}, fmt.Errorf("decode render reply: %w", err)
	}
	return reply, nil
}
