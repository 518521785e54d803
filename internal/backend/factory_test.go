package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerbilling/internal/config"
	"ledgerbilling/internal/customers"
	custmemory "ledgerbilling/internal/customers/memory"
	ledgermemory "ledgerbilling/internal/ledger/memory"
	"ledgerbilling/internal/ledger/rest"
	applog "ledgerbilling/internal/log"
	"ledgerbilling/internal/render"
)

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{
		LedgerBackend:    "rest",
		CustomersBackend: "memory",
		RenderBackend:    "json",
		LedgerTimeout:    time.Second,
	}
	settings := config.Settings{
		LedgerRestURI: "http://ledger.local/rest",
		Customers:     []customers.Customer{{Name: "Acme"}},
	}

	cfg, err := FromAppConfig(app, settings)
	require.NoError(t, err)
	assert.Equal(t, RESTBackend, cfg.Ledger)
	assert.Equal(t, "http://ledger.local/rest", cfg.LedgerURL)
	assert.Len(t, cfg.SeedCustomers, 1)

	app.LedgerURL = "http://override/rest"
	cfg, err = FromAppConfig(app, settings)
	require.NoError(t, err)
	assert.Equal(t, "http://override/rest", cfg.LedgerURL)

	cfg, err = FromAppConfig(&config.Config{LedgerBackend: "rest", CustomersBackend: "memory", RenderBackend: "json"}, config.Settings{})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultLedgerURL, cfg.LedgerURL)

	_, err = FromAppConfig(nil, settings)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	err := Config{Ledger: "sqlite", Customers: "csv", Renderer: "pdf"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid ledger backend: sqlite")
	assert.Contains(t, err.Error(), "invalid customers backend: csv")
	assert.Contains(t, err.Error(), "invalid render backend: pdf")

	err = Config{Ledger: MemoryBackend, Customers: SheetsBackend, Renderer: AMQPBackend}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixtures")
	assert.Contains(t, err.Error(), "Spreadsheet ID")
	assert.Contains(t, err.Error(), "AMQP URL")
}

func TestFactory_CreateMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"balance":{},"register":{}}`), 0o644))

	backends, err := NewFactory(applog.Discard()).Create(context.Background(), Config{
		Ledger:         MemoryBackend,
		LedgerFixtures: path,
		Customers:      MemoryBackend,
		SeedCustomers:  []customers.Customer{{Name: "Acme"}},
		Renderer:       JSONBackend,
	})
	require.NoError(t, err)
	defer backends.Cleanup()

	assert.IsType(t, &ledgermemory.Store{}, backends.Ledger)
	assert.IsType(t, &custmemory.Directory{}, backends.Customers)
	assert.IsType(t, render.JSON{}, backends.Renderer)

	c, err := backends.Customers.Lookup(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, customers.NewID("Acme"), c.ID)
}

func TestFactory_CreateREST(t *testing.T) {
	backends, err := NewFactory(applog.Discard()).Create(context.Background(), Config{
		Ledger:    RESTBackend,
		LedgerURL: "http://127.0.0.1:9292/rest",
		Customers: MemoryBackend,
		Renderer:  JSONBackend,
	})
	require.NoError(t, err)
	assert.IsType(t, &rest.Client{}, backends.Ledger)
	assert.NoError(t, backends.Cleanup())
}

func TestFactory_CreateErrors(t *testing.T) {
	f := NewFactory(applog.Discard())

	_, err := f.Create(context.Background(), Config{
		Ledger:         MemoryBackend,
		LedgerFixtures: filepath.Join(t.TempDir(), "missing.json"),
		Customers:      MemoryBackend,
		Renderer:       JSONBackend,
	})
	assert.Error(t, err)

	_, err = f.Create(context.Background(), Config{
		Ledger:    RESTBackend,
		LedgerURL: "ftp://ledger",
		Customers: MemoryBackend,
		Renderer:  JSONBackend,
	})
	assert.Error(t, err)
}
