package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"ledgerbilling/internal/core"
	"ledgerbilling/internal/customers"
	"ledgerbilling/internal/render"
)

var ErrNoSettings = errors.New("settings file not found")

// Settings is the billing configuration kept in ledger-billing.yml.
type Settings struct {
	LedgerRestURI string               `yaml:"ledger_rest_uri"`
	Currency      string               `yaml:"currency"`
	Accounts      core.AccountConfig   `yaml:"accounts"`
	Personal      render.Issuer        `yaml:"personal"`
	Customers     []customers.Customer `yaml:"customers"`
}

// ParseSettings decodes settings YAML and fills defaults.
func ParseSettings(data []byte) (Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	if strings.TrimSpace(s.LedgerRestURI) == "" {
		s.LedgerRestURI = DefaultLedgerURL
	}
	s.Currency = strings.TrimSpace(s.Currency)
	return s, nil
}

// LoadSettings reads and validates the settings file at path.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, fmt.Errorf("%w: %s", ErrNoSettings, path)
		}
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	s, err := ParseSettings(data)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Validate checks what every billing operation needs. Operation-specific roles
// (VAT accounts for the tax report) are checked where they are used.
func (s Settings) Validate() error {
	var problems []string
	if s.Currency == "" {
		problems = append(problems, "currency is required")
	}
	if err := s.Accounts.Validate(core.RoleBillable, core.RoleReceivable); err != nil {
		problems = append(problems, err.Error())
	}
	for i, c := range s.Customers {
		if strings.TrimSpace(c.Name) == "" {
			problems = append(problems, fmt.Sprintf("customer %d has no name", i+1))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid settings:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// FileSource reads the settings file on every call, so edits apply to the
// next operation without a restart.
type FileSource struct {
	Path string
}

func (f FileSource) Settings(ctx context.Context) (Settings, error) {
	if err := ctx.Err(); err != nil {
		return Settings{}, err
	}
	return LoadSettings(f.Path)
}

// StaticSource always returns the same settings.
type StaticSource struct {
	Value Settings
}

func (s StaticSource) Settings(ctx context.Context) (Settings, error) {
	return s.Value, nil
}
