package backend

import (
	"context"
	"time"

	"ledgerbilling/internal/customers"
	"ledgerbilling/internal/ledger"
	"ledgerbilling/internal/render"
)

// CleanupFunc releases resources held by the created collaborators.
type CleanupFunc func() error

// Backends holds one adapter per outbound port.
type Backends struct {
	Ledger    ledger.Reader
	Customers customers.Directory
	Renderer  render.Renderer
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	Create(ctx context.Context, config Config) (*Backends, error)
}

// Config selects and configures the adapter for each port.
type Config struct {
	Ledger             BackendType
	LedgerURL          string
	LedgerFixtures     string
	LedgerTimeout      time.Duration
	LedgerMaxRedirects int
	LedgerRateLimit    float64

	Customers             BackendType
	SeedCustomers         []customers.Customer
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string
	CustomersCacheTTL     time.Duration

	Renderer      BackendType
	AMQPURL       string
	RenderQueue   string
	RenderTimeout time.Duration
}

// BackendType names an adapter implementation.
type BackendType string

const (
	RESTBackend   BackendType = "rest"
	MemoryBackend BackendType = "memory"
	SheetsBackend BackendType = "sheets"
	JSONBackend   BackendType = "json"
	AMQPBackend   BackendType = "amqp"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

var (
	ledgerBackends   = []BackendType{RESTBackend, MemoryBackend}
	customerBackends = []BackendType{MemoryBackend, SheetsBackend}
	renderBackends   = []BackendType{JSONBackend, AMQPBackend}
)

func isOneOf(bt BackendType, valid []BackendType) bool {
	for _, v := range valid {
		if bt == v {
			return true
		}
	}
	return false
}
