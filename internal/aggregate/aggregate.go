// Package aggregate computes totals and daily trends over record subsets.
//
// All sums are exact and unrounded; callers round when formatting.
package aggregate

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"sumator/internal/core"
)

// Sum totals one numeric field across records. Absent optional values count as zero.
func Sum(records []core.Record, field core.Field) (decimal.Decimal, error) {
	get, err := accessor(field)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(get(r))
	}
	return total, nil
}

// Compute returns every sum in one pass.
func Compute(records []core.Record) core.Totals {
	t := core.Totals{
		Count:      len(records),
		Amount:     decimal.Zero,
		CardAmount: decimal.Zero,
		Km:         decimal.Zero,
		FuelCost:   decimal.Zero,
	}
	for _, r := range records {
		t.Amount = t.Amount.Add(r.Amount)
		if r.CardAmount != nil {
			t.HasCard = true
			t.CardAmount = t.CardAmount.Add(*r.CardAmount)
		}
		if r.Km != nil {
			t.HasKm = true
			t.Km = t.Km.Add(*r.Km)
		}
		if r.FuelCost != nil {
			t.HasFuelCost = true
			t.FuelCost = t.FuelCost.Add(*r.FuelCost)
		}
	}
	return t
}

// GroupByDay sums amounts per local calendar day of each record's own date and
// returns the buckets ascending. Days without records are omitted.
func GroupByDay(records []core.Record) []core.DayTotal {
	index := make(map[string]int)
	var out []core.DayTotal
	for _, r := range records {
		day := truncateDay(r.Date)
		key := day.Format(time.DateOnly)
		if i, ok := index[key]; ok {
			out[i].Amount = out[i].Amount.Add(r.Amount)
			continue
		}
		index[key] = len(out)
		out = append(out, core.DayTotal{Day: day, Amount: r.Amount})
	}
	slices.SortFunc(out, func(a, b core.DayTotal) int {
		return compareDay(a.Day, b.Day)
	})
	return out
}

// MonthTotal sums the amounts a single user recorded in the given month.
func MonthTotal(records []core.Record, userName string, year int, month time.Month) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		if r.UserName != userName {
			continue
		}
		if r.Date.Year() == year && r.Date.Month() == month {
			total = total.Add(r.Amount)
		}
	}
	return total
}

func accessor(field core.Field) (func(core.Record) decimal.Decimal, error) {
	switch field {
	case core.FieldAmount:
		return func(r core.Record) decimal.Decimal { return r.Amount }, nil
	case core.FieldCardAmount:
		return func(r core.Record) decimal.Decimal { return core.ValueOrZero(r.CardAmount) }, nil
	case core.FieldKm:
		return func(r core.Record) decimal.Decimal { return core.ValueOrZero(r.Km) }, nil
	case core.FieldFuelCost:
		return func(r core.Record) decimal.Decimal { return core.ValueOrZero(r.FuelCost) }, nil
	default:
		return nil, fmt.Errorf("unknown field %q", field)
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// compareDay orders by calendar date; records in different zones that fall on
// the same calendar day share a bucket, so comparison ignores the instant.
func compareDay(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	switch {
	case ay != by:
		return ay - by
	case am != bm:
		return int(am) - int(bm)
	default:
		return ad - bd
	}
}
