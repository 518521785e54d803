// Package cli wires configuration, collaborators and the billing service into
// the ledger-billing command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ledgerbilling/internal/backend"
	"ledgerbilling/internal/config"
	applog "ledgerbilling/internal/log"
	"ledgerbilling/internal/services"
)

// Options are the global flags shared by every subcommand.
type Options struct {
	EnvFile      string
	SettingsFile string
	Debug        bool
}

// Builder assembles the billing service for one command run. The returned
// cleanup releases collaborator resources.
type Builder func(ctx context.Context, opts Options) (Billing, func() error, error)

// SetupLogger builds the process logger from configuration and makes it the
// slog default.
func SetupLogger(cfg *config.Config, debug bool) *applog.Logger {
	if debug {
		cfg.LogLevel = "debug"
	}
	logger := cfg.Logger()
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig reads the environment, with the env file applied
// first, and validates the result.
func LoadAndValidateConfig(opts Options) (*config.Config, error) {
	var files []string
	if opts.EnvFile != "" {
		files = append(files, opts.EnvFile)
	}
	if err := config.LoadEnvFile(files...); err != nil {
		return nil, err
	}
	cfg := config.Load()
	if opts.SettingsFile != "" {
		cfg.SettingsFile = opts.SettingsFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultBuilder builds the service from the environment and the settings file.
func DefaultBuilder(ctx context.Context, opts Options) (Billing, func() error, error) {
	cfg, err := LoadAndValidateConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	logger := SetupLogger(cfg, opts.Debug)

	settings, err := config.LoadSettings(cfg.SettingsFile)
	if err != nil {
		return nil, nil, err
	}
	backendCfg, err := backend.FromAppConfig(cfg, settings)
	if err != nil {
		return nil, nil, err
	}
	backends, err := backend.NewFactory(logger).Create(ctx, backendCfg)
	if err != nil {
		return nil, nil, err
	}

	svc := services.NewBillingService(
		backends.Ledger,
		backends.Customers,
		backends.Renderer,
		config.FileSource{Path: cfg.SettingsFile},
		logger,
	)
	logger.WithComponent(applog.ComponentCLI).Debug("Billing service ready",
		applog.FieldBackend, fmt.Sprintf("%s/%s/%s", backendCfg.Ledger, backendCfg.Customers, backendCfg.Renderer))
	return svc, backends.Cleanup, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
