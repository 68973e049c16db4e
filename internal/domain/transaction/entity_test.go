package transaction

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestExcluding(t *testing.T) {
	user := uuid.New()
	a := NewTransaction(user, decimal.NewFromInt(10), "USD", time.Now())
	b := NewTransaction(user, decimal.NewFromInt(20), "USD", time.Now())
	history := []*Transaction{a, b}

	assert.Equal(t, []*Transaction{b}, Excluding(history, a.ID))
	assert.Equal(t, []*Transaction{a, b}, Excluding(history, uuid.New()))
	assert.Empty(t, Excluding(nil, a.ID))
	assert.Equal(t, []*Transaction{a, b}, history, "input is left untouched")
}
