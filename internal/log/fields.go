package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldDuration   = "duration_ms"
	FieldResource   = "resource"
	FieldQuery      = "query"
	FieldURL        = "url"
	FieldStatusCode = "status_code"
	FieldRedirects  = "redirects"
	FieldCustomer   = "customer"
	FieldCode       = "code"
	FieldPostings   = "postings"
	FieldCount      = "count"
	FieldBackend    = "backend"
	FieldQueue      = "queue"
	FieldCorrID     = "correlation_id"
	FieldBytes      = "bytes"
	FieldPeriod     = "period"
	FieldRunID      = "run_id"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentCLI       = "cli"
	ComponentLedger    = "ledger"
	ComponentBilling   = "billing"
	ComponentCustomers = "customers"
	ComponentRender    = "render"
	ComponentConfig    = "config"
	ComponentBackend   = "backend"
)

// Operations defines standard operation names
const (
	OpBalance      = "balance"
	OpRegister     = "register"
	OpTransactions = "transactions"
	OpInvoice      = "invoice"
	OpTaxReport    = "tax_report"
	OpRender       = "render"
	OpLookup       = "lookup"
	OpList         = "list"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithQuery adds the ledger resource and query
func (f LogFields) WithQuery(resource, query string) LogFields {
	f[FieldResource] = resource
	f[FieldQuery] = query
	return f
}

// WithCustomer adds customer field
func (f LogFields) WithCustomer(name string) LogFields {
	f[FieldCustomer] = name
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
