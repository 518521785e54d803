package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerbilling/internal/config"
	"ledgerbilling/internal/core"
	"ledgerbilling/internal/customers"
	custmemory "ledgerbilling/internal/customers/memory"
	"ledgerbilling/internal/ledger"
	ledgermemory "ledgerbilling/internal/ledger/memory"
	applog "ledgerbilling/internal/log"
	"ledgerbilling/internal/render"
	"ledgerbilling/internal/services"
)

func testBuilder(t *testing.T) (Builder, *bool) {
	t.Helper()
	settings := config.Settings{
		Currency: "EUR",
		Accounts: core.AccountConfig{
			Billable:    "Assets:Billable",
			Receivable:  "Assets:Receivable",
			Asset:       "Assets:Bank",
			VatReceived: "Liabilities:VAT",
			VatPaid:     "Assets:VAT",
		},
	}

	day := core.NewDate(2024, 5, 2)
	query := ledger.OrQuery("Assets:Billable:Acme", "Assets:Receivable:Acme")
	store := ledgermemory.New()
	store.SetRegister(query, []core.Posting{
		{Date: day, Payee: "Acme", Account: "Assets:Billable:Acme", Amount: "-100 EUR", Note: "design", Code: "7"},
		{Date: day, Payee: "Acme", Account: "Assets:Receivable:Acme", Amount: "100 EUR", Code: "7"},
	})
	store.SetBalance("Assets:Billable:Acme", core.BalanceReport{Total: "-100 EUR", HasTotal: true})
	store.SetBalance("Assets:Receivable:Acme", core.BalanceReport{Total: "100 EUR", HasTotal: true})
	store.SetBalance("Liabilities:VAT", core.BalanceReport{Total: "-22 EUR", HasTotal: true})
	store.SetBalance("Assets:VAT", core.BalanceReport{Total: "2 EUR", HasTotal: true})

	directory := custmemory.New([]customers.Customer{{Name: "Acme", Address: "1 Road\nTown"}})
	cleaned := false
	build := func(ctx context.Context, opts Options) (Billing, func() error, error) {
		svc := services.NewBillingService(store, directory, render.JSON{}, config.StaticSource{Value: settings}, applog.Discard())
		return svc, func() error { cleaned = true; return nil }, nil
	}
	return build, &cleaned
}

func run(t *testing.T, build Builder, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(build)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCustomersCommand(t *testing.T) {
	build, cleaned := testBuilder(t)
	out, err := run(t, build, "customers")
	require.NoError(t, err)
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "1 Road, Town")
	assert.Contains(t, out, customers.NewID("Acme").String())
	assert.True(t, *cleaned)
}

func TestBalanceCommand(t *testing.T) {
	build, _ := testBuilder(t)
	out, err := run(t, build, "balance", "acme")
	require.NoError(t, err)
	assert.Contains(t, out, "-100.00 EUR")
	assert.Contains(t, out, "100.00 EUR")

	_, err = run(t, build, "balance", "Initech")
	assert.ErrorIs(t, err, customers.ErrCustomerNotFound)

	_, err = run(t, build, "balance")
	assert.Error(t, err)
}

func TestTransactionsCommand(t *testing.T) {
	build, _ := testBuilder(t)
	out, err := run(t, build, "transactions", "Acme")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-05-02")
	assert.Contains(t, out, "invoice")
	assert.Contains(t, out, "design")

	out, err = run(t, build, "transactions", "Acme", "--type", "payment")
	require.NoError(t, err)
	assert.NotContains(t, out, "design")

	_, err = run(t, build, "transactions", "Acme", "--type", "refund")
	assert.ErrorIs(t, err, core.ErrUnknownType)
}

func TestInvoiceCommand(t *testing.T) {
	build, _ := testBuilder(t)
	out, err := run(t, build, "invoice", "Acme", "7")
	require.NoError(t, err)
	assert.Contains(t, out, `"code": "7"`)

	path := filepath.Join(t.TempDir(), "invoice.json")
	out, err = run(t, build, "invoice", "Acme", "7", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "written to "+path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"currency": "EUR"`)

	_, err = run(t, build, "invoice", "Acme", "8")
	assert.ErrorIs(t, err, services.ErrInvoiceNotFound)
}

func TestTaxCommand(t *testing.T) {
	build, _ := testBuilder(t)
	out, err := run(t, build, "tax")
	require.NoError(t, err)
	assert.Contains(t, out, "22.00 EUR")
	assert.Contains(t, out, "20.00 EUR")
}

func TestBuilderError(t *testing.T) {
	boom := errors.New("no settings")
	build := func(ctx context.Context, opts Options) (Billing, func() error, error) {
		return nil, nil, boom
	}
	_, err := run(t, build, "customers")
	assert.ErrorIs(t, err, boom)
}

func TestGlobalFlagsReachBuilder(t *testing.T) {
	var got Options
	build := func(ctx context.Context, opts Options) (Billing, func() error, error) {
		got = opts
		return nil, nil, errors.New("stop")
	}
	_, _ = run(t, build, "--settings", "custom.yml", "--env-file", "prod.env", "--debug", "tax")
	assert.Equal(t, Options{EnvFile: "prod.env", SettingsFile: "custom.yml", Debug: true}, got)
}

func TestCommandContextCarriesRunID(t *testing.T) {
	var runID string
	build := func(ctx context.Context, opts Options) (Billing, func() error, error) {
		runID = applog.RunID(ctx)
		return nil, nil, errors.New("stop")
	}
	_, _ = run(t, build, "customers")
	assert.NotEmpty(t, runID)
}
