// Package services orchestrates the ledger, customer and render collaborators
// around the billing core.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"ledgerbilling/internal/config"
	"ledgerbilling/internal/core"
	"ledgerbilling/internal/customers"
	"ledgerbilling/internal/ledger"
	applog "ledgerbilling/internal/log"
	"ledgerbilling/internal/render"
)

var ErrInvoiceNotFound = errors.New("invoice not found")

// SettingsSource yields the billing settings in effect for one operation.
type SettingsSource interface {
	Settings(ctx context.Context) (config.Settings, error)
}

// CustomerBalance is what a customer has outstanding, per currency.
type CustomerBalance struct {
	Customer   customers.Customer
	Billable   map[string]decimal.Decimal
	Receivable map[string]decimal.Decimal
}

// CustomerTransactions is a customer's ledger history regrouped into
// classified transactions.
type CustomerTransactions struct {
	Customer     customers.Customer
	Transactions []core.Transaction
}

// Invoice is an invoice transaction prepared and rendered.
type Invoice struct {
	Document render.Document
	Output   []byte
}

// TaxReport nets VAT collected on invoices against VAT paid on purchases.
// Positive Net amounts are owed.
type TaxReport struct {
	Period   string
	Received map[string]decimal.Decimal
	Paid     map[string]decimal.Decimal
	Net      map[string]decimal.Decimal
}

type BillingService struct {
	ledger    ledger.Reader
	directory customers.Directory
	renderer  render.Renderer
	settings  SettingsSource
	logger    *applog.Logger
}

func NewBillingService(reader ledger.Reader, directory customers.Directory, renderer render.Renderer, settings SettingsSource, logger *applog.Logger) *BillingService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &BillingService{
		ledger:    reader,
		directory: directory,
		renderer:  renderer,
		settings:  settings,
		logger:    logger.WithComponent(applog.ComponentBilling),
	}
}

func (s *BillingService) Customers(ctx context.Context) ([]customers.Customer, error) {
	list, err := s.directory.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return list, nil
}

// CustomerBalance queries the customer's billable and receivable balances
// concurrently. Either query failing fails the whole call.
func (s *BillingService) CustomerBalance(ctx context.Context, name string) (CustomerBalance, error) {
	start := time.Now()
	settings, customer, err := s.prepare(ctx, name)
	if err != nil {
		return CustomerBalance{}, err
	}
	billableAcct, receivableAcct, err := customerAccounts(customer.Name, settings.Accounts)
	if err != nil {
		return CustomerBalance{}, err
	}

	result := CustomerBalance{Customer: customer}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		totals, err := s.balanceTotals(gctx, billableAcct)
		result.Billable = totals
		return err
	})
	g.Go(func() error {
		totals, err := s.balanceTotals(gctx, receivableAcct)
		result.Receivable = totals
		return err
	})
	if err := g.Wait(); err != nil {
		s.logFailure(ctx, applog.OpBalance, customer.Name, err)
		return CustomerBalance{}, fmt.Errorf("balance for %s: %w", customer.Name, err)
	}

	s.logger.InfoContext(ctx, "Customer balance computed",
		applog.FieldOperation, applog.OpBalance,
		applog.FieldCustomer, customer.Name,
		applog.FieldDuration, time.Since(start).Milliseconds())
	return result, nil
}

// CustomerTransactions fetches both sides of the customer's transactions,
// merges them by date and regroups them.
func (s *BillingService) CustomerTransactions(ctx context.Context, name string) (CustomerTransactions, error) {
	start := time.Now()
	settings, customer, err := s.prepare(ctx, name)
	if err != nil {
		return CustomerTransactions{}, err
	}
	txs, err := s.transactions(ctx, customer.Name, settings.Accounts)
	if err != nil {
		s.logFailure(ctx, applog.OpTransactions, customer.Name, err)
		return CustomerTransactions{}, fmt.Errorf("transactions for %s: %w", customer.Name, err)
	}

	s.logger.InfoContext(ctx, "Customer transactions reconstructed",
		applog.FieldOperation, applog.OpTransactions,
		applog.FieldCustomer, customer.Name,
		applog.FieldCount, len(txs),
		applog.FieldDuration, time.Since(start).Milliseconds())
	return CustomerTransactions{Customer: customer, Transactions: txs}, nil
}

// Invoice locates the customer's invoice transaction with the given code,
// extracts its lines and renders it.
func (s *BillingService) Invoice(ctx context.Context, name, code string) (Invoice, error) {
	settings, customer, err := s.prepare(ctx, name)
	if err != nil {
		return Invoice{}, err
	}
	txs, err := s.transactions(ctx, customer.Name, settings.Accounts)
	if err != nil {
		s.logFailure(ctx, applog.OpInvoice, customer.Name, err)
		return Invoice{}, fmt.Errorf("invoice %s for %s: %w", code, customer.Name, err)
	}

	tx, ok := core.FindByCode(core.Filter(txs, core.TransactionInvoice), strings.TrimSpace(code))
	if !ok {
		return Invoice{}, fmt.Errorf("%w: %s for %s", ErrInvoiceNotFound, code, customer.Name)
	}
	lines, err := core.ExtractInvoiceLines(tx, settings.Accounts)
	if err != nil {
		return Invoice{}, fmt.Errorf("invoice %s: %w", code, err)
	}

	doc := render.Document{
		Code:     tx.Code,
		Date:     tx.Date,
		Currency: settings.Currency,
		Issuer:   settings.Personal,
		Customer: customer,
		Lines:    lines,
		Totals:   lines.Totals(settings.Currency),
	}
	out, err := s.renderer.Render(ctx, doc)
	if err != nil {
		s.logFailure(ctx, applog.OpRender, customer.Name, err)
		return Invoice{}, fmt.Errorf("invoice %s: %w", code, err)
	}

	s.logger.InfoContext(ctx, "Invoice rendered",
		applog.FieldOperation, applog.OpInvoice,
		applog.FieldCustomer, customer.Name,
		applog.FieldCode, tx.Code,
		applog.FieldBytes, len(out))
	return Invoice{Document: doc, Output: out}, nil
}

// TaxReport sums the VAT received and VAT paid accounts over a ledger period.
// An empty period covers the whole ledger.
func (s *BillingService) TaxReport(ctx context.Context, period string) (TaxReport, error) {
	settings, err := s.settings.Settings(ctx)
	if err != nil {
		return TaxReport{}, fmt.Errorf("load settings: %w", err)
	}
	accounts := settings.Accounts
	if err := accounts.Validate(core.RoleVatReceived, core.RoleVatPaid); err != nil {
		return TaxReport{}, fmt.Errorf("tax report: %w", err)
	}
	receivedAcct, _ := accounts.Account(core.RoleVatReceived)
	paidAcct, _ := accounts.Account(core.RoleVatPaid)

	var received, paid map[string]decimal.Decimal
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		received, err = s.balanceTotals(gctx, ledger.PeriodQuery(receivedAcct, period))
		return err
	})
	g.Go(func() error {
		var err error
		paid, err = s.balanceTotals(gctx, ledger.PeriodQuery(paidAcct, period))
		return err
	})
	if err := g.Wait(); err != nil {
		s.logFailure(ctx, applog.OpTaxReport, "", err)
		return TaxReport{}, fmt.Errorf("tax report: %w", err)
	}

	report := TaxReport{
		Period:   strings.TrimSpace(period),
		Received: make(map[string]decimal.Decimal, len(received)),
		Paid:     paid,
		Net:      make(map[string]decimal.Decimal),
	}
	// VAT received is a liability and carries a credit (negative) balance.
	for currency, v := range received {
		report.Received[currency] = v.Neg()
		report.Net[currency] = v.Neg()
	}
	for currency, v := range paid {
		report.Net[currency] = report.Net[currency].Sub(v)
	}

	s.logger.InfoContext(ctx, "Tax report computed",
		applog.FieldOperation, applog.OpTaxReport,
		applog.FieldPeriod, report.Period)
	return report, nil
}

func (s *BillingService) prepare(ctx context.Context, name string) (config.Settings, customers.Customer, error) {
	settings, err := s.settings.Settings(ctx)
	if err != nil {
		return config.Settings{}, customers.Customer{}, fmt.Errorf("load settings: %w", err)
	}
	customer, err := s.directory.Lookup(ctx, name)
	if err != nil {
		return config.Settings{}, customers.Customer{}, fmt.Errorf("lookup customer: %w", err)
	}
	return settings, customer, nil
}

func (s *BillingService) transactions(ctx context.Context, customer string, accounts core.AccountConfig) ([]core.Transaction, error) {
	billableAcct, receivableAcct, err := customerAccounts(customer, accounts)
	if err != nil {
		return nil, err
	}
	query := ledger.OrQuery(billableAcct, receivableAcct)

	var forward, related []core.Posting
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		forward, err = s.ledger.Register(gctx, query)
		return err
	})
	g.Go(func() error {
		var err error
		related, err = s.ledger.Register(gctx, ledger.RelatedQuery(query))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "Register fetched",
		applog.FieldQuery, query,
		applog.FieldPostings, len(forward)+len(related))
	return core.ReconstructTransactions(core.MergePostings(forward, related), accounts), nil
}

func (s *BillingService) balanceTotals(ctx context.Context, query string) (map[string]decimal.Decimal, error) {
	report, err := s.ledger.Balance(ctx, query)
	if err != nil {
		return nil, err
	}
	total, _ := core.TotalOf(report)
	return core.SumAmounts([]string{total}), nil
}

func (s *BillingService) logFailure(ctx context.Context, op, customer string, err error) {
	fields := applog.NewFields().WithOperation(op).WithError(err)
	if customer != "" {
		fields = fields.WithCustomer(customer)
	}
	s.logger.ErrorContext(ctx, "Billing operation failed", fields.ToSlice()...)
}

func customerAccounts(customer string, accounts core.AccountConfig) (string, string, error) {
	billable, err := core.CustomerAccount(core.RoleBillable, customer, accounts)
	if err != nil {
		return "", "", err
	}
	receivable, err := core.CustomerAccount(core.RoleReceivable, customer, accounts)
	if err != nil {
		return "", "", err
	}
	return billable, receivable, nil
}
