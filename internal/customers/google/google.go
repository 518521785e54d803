// Package google reads the customer directory from a Google Sheets tab laid
// out as Name | Address | ID with a header row.
package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"ledgerbilling/internal/cache"
	"ledgerbilling/internal/customers"
	applog "ledgerbilling/internal/log"
)

const (
	DefaultSheetName = "Customers"
	DefaultCacheTTL  = 5 * time.Minute
	listKey          = "customers"
)

// Ensure interface conformance
var _ customers.Directory = (*Directory)(nil)

// Options configure the sheet location and credentials. One of
// CredentialsJSON or CredentialsFile is required; GOOGLE_APPLICATION_CREDENTIALS
// is used as a fallback file path.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
	CacheTTL        time.Duration
	Logger          *applog.Logger
}

// valuesFetcher returns the raw cell matrix of an A1 range.
type valuesFetcher func(ctx context.Context, rng string) ([][]interface{}, error)

type Directory struct {
	fetch     valuesFetcher
	sheetName string
	cache     cache.Cache[[]customers.Customer]
	logger    *applog.Logger
}

// New connects to the Sheets API with service account credentials.
func New(ctx context.Context, opts Options) (*Directory, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	fetch := func(ctx context.Context, rng string) ([][]interface{}, error) {
		resp, err := svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
		if err != nil {
			return nil, err
		}
		return resp.Values, nil
	}
	return newDirectory(fetch, opts), nil
}

func newDirectory(fetch valuesFetcher, opts Options) *Directory {
	if strings.TrimSpace(opts.SheetName) == "" {
		opts.SheetName = DefaultSheetName
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	return &Directory{
		fetch:     fetch,
		sheetName: strings.TrimSpace(opts.SheetName),
		cache:     cache.NewLRUCache[[]customers.Customer](1, opts.CacheTTL),
		logger:    opts.Logger.WithComponent(applog.ComponentCustomers),
	}
}

func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	credentialsJSON := []byte(strings.TrimSpace(opts.CredentialsJSON))
	if len(credentialsJSON) == 0 {
		path := strings.TrimSpace(opts.CredentialsFile)
		if path == "" {
			path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
		}
		if path == "" {
			return nil, errors.New("missing service account credentials")
		}
		var err error
		credentialsJSON, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	}

	return gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope),
		goption.WithHTTPClient(newHTTPClient()))
}

func newHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

func (d *Directory) List(ctx context.Context) ([]customers.Customer, error) {
	if list, ok := d.cache.Get(listKey); ok {
		return append([]customers.Customer{}, list...), nil
	}

	rng := fmt.Sprintf("%s!A:C", d.sheetName)
	start := time.Now()
	values, err := d.fetch(ctx, rng)
	if err != nil {
		d.logger.ErrorContext(ctx, "Customer sheet read failed", applog.FieldError, err)
		return nil, fmt.Errorf("read customers sheet %q: %w", d.sheetName, err)
	}
	list, err := parseCustomers(values)
	if err != nil {
		return nil, fmt.Errorf("parse customers sheet %q: %w", d.sheetName, err)
	}
	d.logger.InfoContext(ctx, "Customer sheet loaded",
		applog.FieldCount, len(list),
		applog.FieldDuration, time.Since(start).Milliseconds())

	d.cache.Set(listKey, list)
	return append([]customers.Customer{}, list...), nil
}

func (d *Directory) Lookup(ctx context.Context, name string) (customers.Customer, error) {
	list, err := d.List(ctx)
	if err != nil {
		return customers.Customer{}, err
	}
	if c, ok := customers.Find(list, name); ok {
		return c, nil
	}
	return customers.Customer{}, fmt.Errorf("%w: %s", customers.ErrCustomerNotFound, name)
}

// Invalidate drops the cached sheet so the next call reads it again.
func (d *Directory) Invalidate() {
	d.cache.Delete(listKey)
}
