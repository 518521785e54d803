package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// AccountBalance is one entry of a balance report, in report order.
type AccountBalance struct {
	Name    string
	Balance string
}

// BalanceReport is the result of a balance query: either a pre-aggregated
// total or an ordered list of per-account balances.
type BalanceReport struct {
	Total    string
	HasTotal bool
	Accounts []AccountBalance
}

// TotalOf returns the report's total. Without a direct total, the first account
// acts as the roll-up total and is dropped from the returned remainder. The
// input report is left untouched.
func TotalOf(report BalanceReport) (string, BalanceReport) {
	rest := BalanceReport{
		Total:    report.Total,
		HasTotal: report.HasTotal,
		Accounts: append([]AccountBalance(nil), report.Accounts...),
	}
	if report.HasTotal {
		return report.Total, rest
	}
	if len(rest.Accounts) == 0 {
		return "", rest
	}
	first := rest.Accounts[0]
	rest.Accounts = rest.Accounts[1:]
	return first.Balance, rest
}

// SumAmounts adds up newline-joined amount blocks per currency.
func SumAmounts(blocks []string) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, block := range blocks {
		for _, line := range strings.Split(block, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			a := SplitAmount(line)
			totals[a.Currency] = totals[a.Currency].Add(a.Value)
		}
	}
	return totals
}

// Currencies returns the keys of a per-currency total in a stable order.
func Currencies(totals map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON writes the report in the ledger-rest shape.
func (r BalanceReport) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if r.HasTotal {
		t, _ := json.Marshal(r.Total)
		buf.WriteString(`"total":`)
		buf.Write(t)
		buf.WriteByte(',')
	}
	buf.WriteString(`"accounts":{`)
	for i, a := range r.Accounts {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(a.Name)
		v, _ := json.Marshal(a.Balance)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes {"total": "...", "accounts": {...}} keeping the order
// of the accounts object, which a Go map would lose.
func (r *BalanceReport) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode balance report: %w", err)
	}
	*r = BalanceReport{}

	if total, ok := raw["total"]; ok && string(total) != "null" {
		if err := json.Unmarshal(total, &r.Total); err != nil {
			return fmt.Errorf("decode balance total: %w", err)
		}
		r.HasTotal = true
	}

	accounts, ok := raw["accounts"]
	if !ok || string(accounts) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(accounts))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode balance accounts: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decode balance accounts: expected object, got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode balance accounts: %w", err)
		}
		name, _ := keyTok.(string)
		var balance string
		if err := dec.Decode(&balance); err != nil {
			return fmt.Errorf("decode balance for %q: %w", name, err)
		}
		r.Accounts = append(r.Accounts, AccountBalance{Name: name, Balance: balance})
	}
	return nil
}
