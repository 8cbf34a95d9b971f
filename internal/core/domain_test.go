package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestNewRecordDefaults(t *testing.T) {
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	r := NewRecord(1, RecordInput{Amount: decimal.RequireFromString("12.50")}, nil, now)
	assert.Equal(t, now, r.Date)
	assert.Equal(t, UnknownUserName, r.UserName)
	assert.Nil(t, r.CardAmount)
	assert.Nil(t, r.Km)
	assert.Nil(t, r.FuelCost)

	active := &Identity{Name: "Ala"}
	r = NewRecord(2, RecordInput{Amount: decimal.NewFromInt(1)}, active, now)
	assert.Equal(t, "Ala", r.UserName)

	r = NewRecord(3, RecordInput{Amount: decimal.NewFromInt(1), UserName: " Ola "}, active, now)
	assert.Equal(t, "Ola", r.UserName)
}

func TestNewRecordFuelCostFrozen(t *testing.T) {
	now := time.Now()
	r := NewRecord(1, RecordInput{Amount: decimal.NewFromInt(10), Km: dec("12.3")}, nil, now)
	require.NotNil(t, r.FuelCost)
	assert.Equal(t, "6.15", FormatMoney(*r.FuelCost))

	// editing km afterwards does not touch the stored fuel cost
	r.Km = dec("100")
	assert.Equal(t, "6.15", FormatMoney(*r.FuelCost))
}

func TestRecordValidate(t *testing.T) {
	good := Record{ID: 1, Amount: decimal.NewFromInt(1), Date: time.Now()}
	require.NoError(t, good.Validate())

	assert.ErrorIs(t, Record{Date: time.Now()}.Validate(), ErrInvalidID)
	assert.ErrorIs(t, Record{ID: 1}.Validate(), ErrInvalidDate)
}

func TestRecordCloneIsDeep(t *testing.T) {
	r := Record{ID: 1, CardAmount: dec("1.00")}
	c := r.Clone()
	*c.CardAmount = decimal.NewFromInt(99)
	assert.Equal(t, "1.00", FormatOptionalMoney(r.CardAmount))
}

func TestIdentityIsPrivileged(t *testing.T) {
	assert.True(t, Identity{Name: "User"}.IsPrivileged())
	assert.False(t, Identity{Name: "user"}.IsPrivileged())
	assert.False(t, Identity{Name: "Ala"}.IsPrivileged())
}

func TestIDSourceMonotonic(t *testing.T) {
	fixed := time.UnixMilli(1000)
	src := NewIDSource(func() time.Time { return fixed })

	assert.Equal(t, int64(1000), src.Next())
	assert.Equal(t, int64(1001), src.Next())

	src.Observe(5000)
	assert.Equal(t, int64(5001), src.Next())

	src.Observe(10) // older ids never move the counter back
	assert.Equal(t, int64(5002), src.Next())
}

func TestErrorTaxonomy(t *testing.T) {
	var dup error = &DuplicateIDError{ID: 7}
	assert.ErrorIs(t, dup, ErrDuplicateID)
	assert.Contains(t, dup.Error(), "7")

	cause := errors.New("bad json")
	var corrupt error = &CorruptStateError{Key: "recordsStore", Err: cause}
	assert.ErrorIs(t, corrupt, ErrCorruptState)
	assert.ErrorIs(t, corrupt, cause)

	var ce *CorruptStateError
	require.ErrorAs(t, corrupt, &ce)
	assert.Equal(t, "recordsStore", ce.Key)

	assert.ErrorIs(t, &RenderError{Renderer: "pdf", Err: cause}, ErrRender)
	assert.ErrorIs(t, &IOError{Op: "save", Key: "k", Err: cause}, ErrIO)
}
