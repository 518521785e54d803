package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ledgerbilling/internal/customers"
	applog "ledgerbilling/internal/log"
	"ledgerbilling/internal/services"
)

// Billing is the service surface the commands drive.
type Billing interface {
	Customers(ctx context.Context) ([]customers.Customer, error)
	CustomerBalance(ctx context.Context, name string) (services.CustomerBalance, error)
	CustomerTransactions(ctx context.Context, name string) (services.CustomerTransactions, error)
	Invoice(ctx context.Context, name, code string) (services.Invoice, error)
	TaxReport(ctx context.Context, period string) (services.TaxReport, error)
}

// Ensure interface conformance
var _ Billing = (*services.BillingService)(nil)

type app struct {
	opts    Options
	build   Builder
	billing Billing
	cleanup func() error
}

// NewRootCommand creates the ledger-billing command tree. The service is built
// lazily so that --help works without configuration.
func NewRootCommand(build Builder) *cobra.Command {
	a := &app{build: build}

	root := &cobra.Command{
		Use:   "ledger-billing",
		Short: "Customer balances, invoices and VAT reports from a ledger",
		Long: `ledger-billing reads postings from a ledger query service and turns them
into per-customer balances, transaction histories, rendered invoices and
VAT reports.

Accounts, currency and customers come from ledger-billing.yml; adapters are
selected through environment variables (see .env.example).

Example:
  ledger-billing customers
  ledger-billing balance Acme
  ledger-billing invoice Acme 42 -o acme-42.pdf
  ledger-billing tax --period 2024`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(applog.WithRunID(cmd.Context(), applog.NewRunID()))
			billing, cleanup, err := a.build(cmd.Context(), a.opts)
			if err != nil {
				return fmt.Errorf("initialize: %w", err)
			}
			a.billing = billing
			a.cleanup = cleanup
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.opts.EnvFile, "env-file", "", "env file to load (default .env when present)")
	root.PersistentFlags().StringVar(&a.opts.SettingsFile, "settings", "", "settings file (default ledger-billing.yml)")
	root.PersistentFlags().BoolVar(&a.opts.Debug, "debug", false, "enable debug logging")

	root.AddCommand(
		a.customersCommand(),
		a.balanceCommand(),
		a.transactionsCommand(),
		a.invoiceCommand(),
		a.taxCommand(),
	)
	return root
}

// runE releases the collaborators once the command body returns, whether or
// not it failed.
func (a *app) runE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if a.cleanup == nil {
				return
			}
			if cerr := a.cleanup(); cerr != nil && err == nil {
				err = fmt.Errorf("cleanup: %w", cerr)
			}
			a.cleanup = nil
		}()
		return fn(cmd, args)
	}
}

// Execute runs the command line until completion or an interrupt.
func Execute() error {
	ctx, stop := SignalContext()
	defer stop()
	return NewRootCommand(DefaultBuilder).ExecuteContext(ctx)
}
