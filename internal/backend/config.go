package backend

import (
	"errors"
	"fmt"
	"strings"

	"ledgerbilling/internal/config"
)

// FromAppConfig combines the environment configuration with the settings
// file. An explicit LEDGER_REST_URI wins over the settings' ledger_rest_uri.
func FromAppConfig(appConfig *config.Config, settings config.Settings) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	ledgerURL := appConfig.LedgerURL
	if ledgerURL == "" {
		ledgerURL = settings.LedgerRestURI
	}
	if ledgerURL == "" {
		ledgerURL = config.DefaultLedgerURL
	}

	cfg := Config{
		Ledger:             BackendType(appConfig.LedgerBackend),
		LedgerURL:          ledgerURL,
		LedgerFixtures:     appConfig.LedgerFixtures,
		LedgerTimeout:      appConfig.LedgerTimeout,
		LedgerMaxRedirects: appConfig.LedgerMaxRedirects,
		LedgerRateLimit:    appConfig.LedgerRateLimit,

		Customers:             BackendType(appConfig.CustomersBackend),
		SeedCustomers:         settings.Customers,
		GoogleSpreadsheetID:   appConfig.GoogleSpreadsheetID,
		GoogleSheetName:       appConfig.GoogleSheetName,
		GoogleCredentialsFile: appConfig.GoogleCredentialsFile,
		GoogleCredentialsJSON: appConfig.GoogleCredentialsJSON,
		CustomersCacheTTL:     appConfig.CustomersCacheTTL,

		Renderer:      BackendType(appConfig.RenderBackend),
		AMQPURL:       appConfig.AMQPURL,
		RenderQueue:   appConfig.RenderQueue,
		RenderTimeout: appConfig.RenderTimeout,
	}
	return cfg, cfg.Validate()
}

// Validate checks the adapter selection and what each selected adapter needs.
func (c Config) Validate() error {
	var problems []string

	if !isOneOf(c.Ledger, ledgerBackends) {
		problems = append(problems, fmt.Sprintf("invalid ledger backend: %s", c.Ledger))
	}
	if c.Ledger == RESTBackend && c.LedgerURL == "" {
		problems = append(problems, "ledger URL is required for rest ledger backend")
	}
	if c.Ledger == MemoryBackend && c.LedgerFixtures == "" {
		problems = append(problems, "ledger fixtures file is required for memory ledger backend")
	}

	if !isOneOf(c.Customers, customerBackends) {
		problems = append(problems, fmt.Sprintf("invalid customers backend: %s", c.Customers))
	}
	if c.Customers == SheetsBackend && c.GoogleSpreadsheetID == "" {
		problems = append(problems, "Google Spreadsheet ID is required for sheets customers backend")
	}

	if !isOneOf(c.Renderer, renderBackends) {
		problems = append(problems, fmt.Sprintf("invalid render backend: %s", c.Renderer))
	}
	if c.Renderer == AMQPBackend && c.AMQPURL == "" {
		problems = append(problems, "AMQP URL is required for amqp render backend")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid backend configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
