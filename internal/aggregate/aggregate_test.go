package aggregate

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sumator/internal/core"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func scenario() []core.Record {
	return []core.Record{
		{ID: 1, Amount: decimal.RequireFromString("100.00"), UserName: "Ala", Date: day(2024, 1, 1, 0)},
		{ID: 2, Amount: decimal.RequireFromString("50.50"), UserName: "User", Date: day(2024, 1, 2, 0)},
	}
}

func TestSumScenario(t *testing.T) {
	got, err := Sum(scenario(), core.FieldAmount)
	require.NoError(t, err)
	assert.Equal(t, "150.50", core.FormatMoney(got))
}

func TestSumOptionalAbsentCountsAsZero(t *testing.T) {
	records := []core.Record{
		{ID: 1, Amount: decimal.NewFromInt(1), CardAmount: dec("2.25"), Km: dec("10.5"), FuelCost: dec("5.25")},
		{ID: 2, Amount: decimal.NewFromInt(1)},
	}
	card, err := Sum(records, core.FieldCardAmount)
	require.NoError(t, err)
	assert.Equal(t, "2.25", core.FormatMoney(card))

	km, err := Sum(records, core.FieldKm)
	require.NoError(t, err)
	assert.Equal(t, "10.5", core.FormatDistance(km))

	fuel, err := Sum(records, core.FieldFuelCost)
	require.NoError(t, err)
	assert.Equal(t, "5.25", core.FormatMoney(fuel))

	_, err = Sum(records, core.Field("bogus"))
	assert.Error(t, err)
}

func TestSumKeepsFullPrecision(t *testing.T) {
	// each amount alone rounds to 0.00
	records := []core.Record{
		{ID: 1, Amount: decimal.RequireFromString("0.004")},
		{ID: 2, Amount: decimal.RequireFromString("0.004")},
	}
	got, err := Sum(records, core.FieldAmount)
	require.NoError(t, err)
	assert.Equal(t, "0.01", core.FormatMoney(got))
}

func TestSumOrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	records := make([]core.Record, 40)
	for i := range records {
		cents := rng.Int63n(200000) - 100000
		records[i] = core.Record{ID: int64(i + 1), Amount: decimal.New(cents, -2)}
	}
	want, err := Sum(records, core.FieldAmount)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		shuffled := append([]core.Record(nil), records...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got, err := Sum(shuffled, core.FieldAmount)
		require.NoError(t, err)
		assert.True(t, want.Equal(got))
	}
}

func TestCompute(t *testing.T) {
	records := []core.Record{
		{ID: 1, Amount: decimal.NewFromInt(10), Km: dec("4.0"), FuelCost: dec("2.00")},
		{ID: 2, Amount: decimal.NewFromInt(-3)},
	}
	got := Compute(records)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, "7.00", core.FormatMoney(got.Amount))
	assert.False(t, got.HasCard)
	assert.True(t, got.HasKm)
	assert.True(t, got.HasFuelCost)
	assert.Equal(t, "4.0", core.FormatDistance(got.Km))

	empty := Compute(nil)
	assert.Equal(t, 0, empty.Count)
	assert.True(t, empty.Amount.IsZero())
}

func TestGroupByDayScenario(t *testing.T) {
	got := GroupByDay(scenario())
	require.Len(t, got, 2)
	assert.Equal(t, "2024-01-01", got[0].Key())
	assert.Equal(t, "100.00", core.FormatMoney(got[0].Amount))
	assert.Equal(t, "2024-01-02", got[1].Key())
	assert.Equal(t, "50.50", core.FormatMoney(got[1].Amount))
}

func TestGroupByDayBucketsAndSorts(t *testing.T) {
	records := []core.Record{
		{ID: 1, Amount: decimal.NewFromInt(5), Date: day(2024, 3, 10, 23)},
		{ID: 2, Amount: decimal.NewFromInt(1), Date: day(2023, 12, 31, 8)},
		{ID: 3, Amount: decimal.NewFromInt(2), Date: day(2024, 3, 10, 1)},
		{ID: 4, Amount: decimal.NewFromInt(4), Date: day(2024, 2, 1, 12)},
	}
	got := GroupByDay(records)
	require.Len(t, got, 3)

	keys := make([]string, len(got))
	for i, d := range got {
		keys[i] = d.Key()
	}
	assert.Equal(t, []string{"2023-12-31", "2024-02-01", "2024-03-10"}, keys)
	assert.Equal(t, "7.00", core.FormatMoney(got[2].Amount))

	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].Key(), got[i].Key(), "days must be strictly ascending")
	}
}

func TestGroupByDayUsesRecordsOwnZone(t *testing.T) {
	warsaw := time.FixedZone("CET", 3600)
	// 00:30 local on Jan 2 is still Jan 1 in UTC; the local day wins
	records := []core.Record{{ID: 1, Amount: decimal.NewFromInt(1), Date: time.Date(2024, 1, 2, 0, 30, 0, 0, warsaw)}}
	got := GroupByDay(records)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-01-02", got[0].Key())
}

func TestGroupByDayEmpty(t *testing.T) {
	assert.Empty(t, GroupByDay(nil))
}

func TestMonthTotal(t *testing.T) {
	records := []core.Record{
		{ID: 1, Amount: decimal.NewFromInt(10), UserName: "Ala", Date: day(2024, 5, 1, 0)},
		{ID: 2, Amount: decimal.NewFromInt(20), UserName: "Ala", Date: day(2024, 5, 31, 0)},
		{ID: 3, Amount: decimal.NewFromInt(40), UserName: "Ala", Date: day(2024, 6, 1, 0)},
		{ID: 4, Amount: decimal.NewFromInt(80), UserName: "User", Date: day(2024, 5, 2, 0)},
	}
	assert.Equal(t, "30.00", core.FormatMoney(MonthTotal(records, "Ala", 2024, time.May)))
	assert.Equal(t, "80.00", core.FormatMoney(MonthTotal(records, "User", 2024, time.May)))
	assert.True(t, MonthTotal(records, "Ola", 2024, time.May).IsZero())
}
