// Package ledger describes the ledger query service the billing reports are
// built from. The service itself is external; adapters live in subpackages.
package ledger

import (
	"context"
	"fmt"
	"strings"

	"ledgerbilling/internal/core"
)

// Resources exposed by the ledger query service.
const (
	ResourceBalance  = "balance"
	ResourceRegister = "register"
)

// Ports for outbound adapters.
type (
	BalanceReader interface {
		// Balance runs a balance report for a free-text ledger query.
		Balance(ctx context.Context, query string) (core.BalanceReport, error)
	}

	RegisterReader interface {
		// Register returns the postings matching a free-text ledger query, in
		// the order the service reports them.
		Register(ctx context.Context, query string) ([]core.Posting, error)
	}

	Reader interface {
		BalanceReader
		RegisterReader
	}
)

// QueryError reports a failed call to the ledger query service.
type QueryError struct {
	Resource string
	Query    string
	Status   int
	Err      error
}

func (e *QueryError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("ledger %s query %q: status %d: %v", e.Resource, e.Query, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("ledger %s query %q: status %d", e.Resource, e.Query, e.Status)
	default:
		return fmt.Sprintf("ledger %s query %q: %v", e.Resource, e.Query, e.Err)
	}
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// RelatedQuery turns a query into its reverse-side counterpart: the other
// postings of every transaction the original query matches.
func RelatedQuery(query string) string {
	return "--related " + strings.TrimSpace(query)
}

// OrQuery joins account expressions into a single ledger query.
func OrQuery(terms ...string) string {
	var parts []string
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, quoteTerm(t))
		}
	}
	return strings.Join(parts, " or ")
}

// quoteTerm quotes account names containing spaces so ledger reads them as one
// pattern.
func quoteTerm(t string) string {
	if strings.ContainsAny(t, " \t") && !strings.HasPrefix(t, "'") {
		return "'" + t + "'"
	}
	return t
}

// PeriodQuery restricts a query to a ledger period expression such as
// "2024" or "last quarter". An empty period leaves the query unchanged.
func PeriodQuery(query, period string) string {
	period = strings.TrimSpace(period)
	if period == "" {
		return query
	}
	return strings.TrimSpace(query) + " -p " + quoteTerm(period)
}
