package backend

import (
	"context"
	"errors"
	"fmt"

	"ledgerbilling/internal/customers"
	custgoogle "ledgerbilling/internal/customers/google"
	custmemory "ledgerbilling/internal/customers/memory"
	"ledgerbilling/internal/ledger"
	ledgermemory "ledgerbilling/internal/ledger/memory"
	"ledgerbilling/internal/ledger/rest"
	applog "ledgerbilling/internal/log"
	"ledgerbilling/internal/render"
	renderamqp "ledgerbilling/internal/render/amqp"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(applog.ComponentBackend)}
}

// Create builds every collaborator. If one fails, those already built are
// released before returning.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Backends, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var cleanups []CleanupFunc
	cleanup := func() error {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			errs = append(errs, cleanups[i]())
		}
		return errors.Join(errs...)
	}

	ledgerReader, err := f.createLedger(config)
	if err != nil {
		return nil, err
	}
	directory, err := f.createCustomers(ctx, config)
	if err != nil {
		return nil, err
	}
	renderer, closeRenderer, err := f.createRenderer(ctx, config)
	if err != nil {
		return nil, err
	}
	if closeRenderer != nil {
		cleanups = append(cleanups, closeRenderer)
	}

	return &Backends{
		Ledger:    ledgerReader,
		Customers: directory,
		Renderer:  renderer,
		Cleanup:   cleanup,
	}, nil
}

func (f *DefaultFactory) createLedger(config Config) (ledger.Reader, error) {
	switch config.Ledger {
	case RESTBackend:
		client, err := rest.NewClient(config.LedgerURL, rest.Options{
			Timeout:           config.LedgerTimeout,
			MaxRedirects:      config.LedgerMaxRedirects,
			RequestsPerSecond: config.LedgerRateLimit,
			Logger:            f.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ledger client: %w", err)
		}
		f.logger.Info("Initialized REST ledger backend", applog.FieldURL, config.LedgerURL)
		return client, nil
	case MemoryBackend:
		store, err := ledgermemory.NewFromFile(config.LedgerFixtures)
		if err != nil {
			return nil, fmt.Errorf("failed to load ledger fixtures: %w", err)
		}
		f.logger.Info("Initialized memory ledger backend", "fixtures", config.LedgerFixtures)
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported ledger backend: %s", config.Ledger)
	}
}

func (f *DefaultFactory) createCustomers(ctx context.Context, config Config) (customers.Directory, error) {
	switch config.Customers {
	case MemoryBackend:
		f.logger.Info("Initialized memory customers backend", applog.FieldCount, len(config.SeedCustomers))
		return custmemory.New(config.SeedCustomers), nil
	case SheetsBackend:
		dir, err := custgoogle.New(ctx, custgoogle.Options{
			SpreadsheetID:   config.GoogleSpreadsheetID,
			SheetName:       config.GoogleSheetName,
			CredentialsFile: config.GoogleCredentialsFile,
			CredentialsJSON: config.GoogleCredentialsJSON,
			CacheTTL:        config.CustomersCacheTTL,
			Logger:          f.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets customers: %w", err)
		}
		f.logger.Info("Initialized Google Sheets customers backend")
		return dir, nil
	default:
		return nil, fmt.Errorf("unsupported customers backend: %s", config.Customers)
	}
}

func (f *DefaultFactory) createRenderer(ctx context.Context, config Config) (render.Renderer, CleanupFunc, error) {
	switch config.Renderer {
	case JSONBackend:
		return render.JSON{}, nil, nil
	case AMQPBackend:
		r, err := renderamqp.NewRenderer(ctx, config.AMQPURL, renderamqp.Options{
			Queue:        config.RenderQueue,
			Timeout:      config.RenderTimeout,
			DialAttempts: 3,
			Logger:       f.logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize AMQP renderer: %w", err)
		}
		f.logger.Info("Initialized AMQP renderer", applog.FieldQueue, config.RenderQueue)
		return r, r.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported render backend: %s", config.Renderer)
	}
}
