package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelatedQuery(t *testing.T) {
	assert.Equal(t, "--related Assets:Billable:Acme", RelatedQuery(" Assets:Billable:Acme "))
}

func TestOrQuery(t *testing.T) {
	assert.Equal(t, "A:B or 'A:Acme Corp'", OrQuery("A:B", "", "A:Acme Corp"))
	assert.Equal(t, "", OrQuery())
}

func TestQueryError(t *testing.T) {
	cause := errors.New("boom")
	err := &QueryError{Resource: ResourceBalance, Query: "Assets", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, `ledger balance query "Assets": boom`, err.Error())

	err = &QueryError{Resource: ResourceRegister, Query: "x", Status: 502}
	assert.Equal(t, `ledger register query "x": status 502`, err.Error())
}

func TestPeriodQuery(t *testing.T) {
	assert.Equal(t, "Assets:VAT", PeriodQuery("Assets:VAT", " "))
	assert.Equal(t, "Assets:VAT -p 2024", PeriodQuery("Assets:VAT", "2024"))
	assert.Equal(t, "Assets:VAT -p 'last quarter'", PeriodQuery("Assets:VAT ", "last quarter"))
}
