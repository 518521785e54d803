package customers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewIDIsStable(t *testing.T) {
	assert.Equal(t, NewID("Acme"), NewID(" Acme "))
	assert.NotEqual(t, NewID("Acme"), NewID("Globex"))
	assert.Equal(t, uuid.Version(5), NewID("Acme").Version())
}

func TestNormalize(t *testing.T) {
	c := Normalize(Customer{Name: " Acme ", Address: "  Main St 1\n"})
	assert.Equal(t, "Acme", c.Name)
	assert.Equal(t, "Main St 1", c.Address)
	assert.Equal(t, NewID("Acme"), c.ID)

	id := uuid.New()
	assert.Equal(t, id, Normalize(Customer{ID: id, Name: "Acme"}).ID)
}

func TestFind(t *testing.T) {
	list := []Customer{{Name: "Acme"}, {Name: "Globex"}}

	c, ok := Find(list, "globex")
	assert.True(t, ok)
	assert.Equal(t, "Globex", c.Name)

	_, ok = Find(list, "Initech")
	assert.False(t, ok)
}
