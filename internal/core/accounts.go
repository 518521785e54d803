package core

import (
	"fmt"
	"strings"
)

// Account roles as named in the settings file.
const (
	RoleBillable    = "billable"
	RoleReceivable  = "receivable"
	RolePrefix      = "prefix"
	RoleVatReceived = "vat_received"
	RoleVatPaid     = "vat_paid"
	RoleAsset       = "asset"
)

// AccountConfig maps each logical role to an account-path fragment. Fragments
// starting with ":" are relative to Prefix. An empty fragment never matches.
type AccountConfig struct {
	Billable    string `yaml:"billable" json:"billable"`
	Receivable  string `yaml:"receivable" json:"receivable"`
	Prefix      string `yaml:"prefix" json:"prefix"`
	VatReceived string `yaml:"vat_received" json:"vat_received"`
	VatPaid     string `yaml:"vat_paid" json:"vat_paid"`
	Asset       string `yaml:"asset" json:"asset"`
}

// ConstructAccountName expands a fragment relative to the configured prefix.
func ConstructAccountName(fragment string, cfg AccountConfig) string {
	if strings.HasPrefix(fragment, ":") {
		return cfg.Prefix + fragment
	}
	return fragment
}

// Role returns the raw fragment configured for a role.
func (c AccountConfig) Role(role string) string {
	switch role {
	case RoleBillable:
		return c.Billable
	case RoleReceivable:
		return c.Receivable
	case RolePrefix:
		return c.Prefix
	case RoleVatReceived:
		return c.VatReceived
	case RoleVatPaid:
		return c.VatPaid
	case RoleAsset:
		return c.Asset
	}
	return ""
}

// Account returns the expanded account name for a role, or ErrMissingAccount.
func (c AccountConfig) Account(role string) (string, error) {
	fragment := c.Role(role)
	if fragment == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingAccount, role)
	}
	return ConstructAccountName(fragment, c), nil
}

// Validate checks that every listed role is configured.
func (c AccountConfig) Validate(roles ...string) error {
	var missing []string
	for _, role := range roles {
		if strings.TrimSpace(c.Role(role)) == "" {
			missing = append(missing, role)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingAccount, strings.Join(missing, ", "))
	}
	return nil
}

// Resolved returns a copy with every relative fragment expanded.
func (c AccountConfig) Resolved() AccountConfig {
	expand := func(fragment string) string {
		if fragment == "" {
			return ""
		}
		return ConstructAccountName(fragment, c)
	}
	return AccountConfig{
		Billable:    expand(c.Billable),
		Receivable:  expand(c.Receivable),
		Prefix:      c.Prefix,
		VatReceived: expand(c.VatReceived),
		VatPaid:     expand(c.VatPaid),
		Asset:       expand(c.Asset),
	}
}

// CustomerAccount builds the per-customer account below a role's account,
// e.g. "Assets:Billable:Acme".
func CustomerAccount(role, customer string, cfg AccountConfig) (string, error) {
	base, err := cfg.Account(role)
	if err != nil {
		return "", err
	}
	return base + ":" + customer, nil
}

// ClassifyPosting maps a posting to its account category.
//
// Matching is substring containment, not path-prefix matching, and roles are
// tested in the order billable, receivable, asset, vat_received. An account
// such as "Assets:Receivables" therefore also matches a "Receivable" fragment.
func ClassifyPosting(p Posting, cfg AccountConfig) AccountCategory {
	cfg = cfg.Resolved()
	return classifyAccount(p.Account, cfg)
}

// classifyAccount expects an already resolved config.
func classifyAccount(account string, cfg AccountConfig) AccountCategory {
	rules := [...]struct {
		fragment string
		category AccountCategory
	}{
		{cfg.Billable, CategoryBillable},
		{cfg.Receivable, CategoryReceivable},
		{cfg.Asset, CategoryAsset},
		{cfg.VatReceived, CategoryVatReceived},
	}
	for _, rule := range rules {
		if rule.fragment != "" && strings.Contains(account, rule.fragment) {
			return rule.category
		}
	}
	return CategoryUnclassified
}
