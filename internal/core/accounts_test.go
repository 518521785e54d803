package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAccounts() AccountConfig {
	return AccountConfig{
		Prefix:      "Assets:Business",
		Billable:    ":Billable",
		Receivable:  ":Receivable",
		Asset:       "Assets:Bank",
		VatReceived: "Liabilities:VAT:Received",
		VatPaid:     "Assets:VAT:Paid",
	}
}

func posting(date Date, payee, account, amount string) Posting {
	return Posting{Date: date, Payee: payee, Account: account, Amount: amount}
}

func TestConstructAccountName(t *testing.T) {
	cfg := testAccounts()
	assert.Equal(t, "Assets:Business:Billable", ConstructAccountName(":Billable", cfg))
	assert.Equal(t, "Assets:Bank", ConstructAccountName("Assets:Bank", cfg))
	assert.Equal(t, ":Billable", ConstructAccountName(":Billable", AccountConfig{}))
}

func TestClassifyPosting(t *testing.T) {
	cfg := testAccounts()
	d := NewDate(2024, 1, 1)

	cases := []struct {
		account string
		want    AccountCategory
	}{
		{"Assets:Business:Billable:Acme", CategoryBillable},
		{"Assets:Business:Receivable:Acme", CategoryReceivable},
		{"Assets:Bank:Checking", CategoryAsset},
		{"Liabilities:VAT:Received", CategoryVatReceived},
		{"Assets:VAT:Paid", CategoryUnclassified},
		{"Income:Consulting", CategoryUnclassified},
		// substring containment, not path-prefix matching
		{"Archive:Assets:Business:Receivables", CategoryReceivable},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyPosting(posting(d, "Acme", tc.account, "1 USD"), cfg), tc.account)
	}
}

func TestClassifyPosting_PriorityOrder(t *testing.T) {
	// an account matching both the billable and the asset fragment is billable
	cfg := AccountConfig{Billable: "Assets:Work", Asset: "Assets"}
	p := posting(NewDate(2024, 1, 1), "Acme", "Assets:Work:Acme", "-1 USD")
	assert.Equal(t, CategoryBillable, ClassifyPosting(p, cfg))
}

func TestClassifyPosting_MissingFragmentNeverMatches(t *testing.T) {
	p := posting(NewDate(2024, 1, 1), "Acme", "Assets:Business:Billable:Acme", "-1 USD")
	assert.Equal(t, CategoryUnclassified, ClassifyPosting(p, AccountConfig{}))
	assert.Equal(t, CategoryAsset, ClassifyPosting(p, AccountConfig{Asset: "Assets"}))
}

func TestAccountConfig_Account(t *testing.T) {
	cfg := testAccounts()

	name, err := cfg.Account(RoleReceivable)
	require.NoError(t, err)
	assert.Equal(t, "Assets:Business:Receivable", name)

	_, err = AccountConfig{}.Account(RoleBillable)
	assert.ErrorIs(t, err, ErrMissingAccount)

	acct, err := CustomerAccount(RoleBillable, "Acme Corp", cfg)
	require.NoError(t, err)
	assert.Equal(t, "Assets:Business:Billable:Acme Corp", acct)
}

func TestAccountConfig_Validate(t *testing.T) {
	assert.NoError(t, testAccounts().Validate(RoleBillable, RoleReceivable, RoleAsset))

	err := AccountConfig{Billable: "x"}.Validate(RoleBillable, RoleReceivable, RoleVatPaid)
	require.ErrorIs(t, err, ErrMissingAccount)
	assert.Contains(t, err.Error(), "receivable, vat_paid")
}

func TestAccountConfig_Resolved(t *testing.T) {
	r := testAccounts().Resolved()
	assert.Equal(t, "Assets:Business:Billable", r.Billable)
	assert.Equal(t, "Assets:Bank", r.Asset)
	assert.Equal(t, r, r.Resolved())
}
