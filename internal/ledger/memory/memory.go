// Package memory is a fixture-backed ledger reader. Responses are keyed by the
// exact query string; unknown queries answer with an empty report.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"ledgerbilling/internal/core"
	"ledgerbilling/internal/ledger"
)

// Ensure interface conformance
var _ ledger.Reader = (*Store)(nil)

type Store struct {
	mu       sync.RWMutex
	balances map[string]core.BalanceReport
	register map[string][]core.Posting
	failures map[string]error
}

// fixtureFile is the on-disk layout read by NewFromFile.
type fixtureFile struct {
	Balance  map[string]core.BalanceReport `json:"balance"`
	Register map[string]struct {
		Postings []core.Posting `json:"postings"`
	} `json:"register"`
}

func New() *Store {
	return &Store{
		balances: make(map[string]core.BalanceReport),
		register: make(map[string][]core.Posting),
		failures: make(map[string]error),
	}
}

// NewFromFile loads {"balance": {query: report}, "register": {query: {"postings": [...]}}}.
func NewFromFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ledger fixtures: %w", err)
	}
	var f fixtureFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse ledger fixtures %s: %w", path, err)
	}
	s := New()
	for q, report := range f.Balance {
		s.SetBalance(q, report)
	}
	for q, r := range f.Register {
		s.SetRegister(q, r.Postings)
	}
	return s, nil
}

func key(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

// SetBalance registers the report returned for a balance query.
func (s *Store) SetBalance(query string, report core.BalanceReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[key(query)] = report
}

// SetRegister registers the postings returned for a register query.
func (s *Store) SetRegister(query string, postings []core.Posting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.register[key(query)] = append([]core.Posting(nil), postings...)
}

// Fail makes every call for the given query return err.
func (s *Store) Fail(query string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[key(query)] = err
}

// Balance implements ledger.BalanceReader
func (s *Store) Balance(ctx context.Context, query string) (core.BalanceReport, error) {
	if err := s.check(ctx, ledger.ResourceBalance, query); err != nil {
		return core.BalanceReport{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	report := s.balances[key(query)]
	report.Accounts = append([]core.AccountBalance(nil), report.Accounts...)
	return report, nil
}

// Register implements ledger.RegisterReader
func (s *Store) Register(ctx context.Context, query string) ([]core.Posting, error) {
	if err := s.check(ctx, ledger.ResourceRegister, query); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Posting{}, s.register[key(query)]...), nil
}

func (s *Store) check(ctx context.Context, resource, query string) error {
	if err := ctx.Err(); err != nil {
		return &ledger.QueryError{Resource: resource, Query: query, Err: err}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err, ok := s.failures[key(query)]; ok {
		return &ledger.QueryError{Resource: resource, Query: query, Err: err}
	}
	return nil
}
