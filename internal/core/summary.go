package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Field names a numeric record field that can be summed.
type Field string

const (
	FieldAmount     Field = "amount"
	FieldCardAmount Field = "cardAmount"
	FieldKm         Field = "km"
	FieldFuelCost   Field = "fuelCost"
)

// DayTotal is the amount summed over one local calendar day.
type DayTotal struct {
	Day    time.Time // midnight in the records' own location
	Amount decimal.Decimal
}

// Key returns the day as YYYY-MM-DD.
func (d DayTotal) Key() string {
	return d.Day.Format(time.DateOnly)
}

// Totals holds full-precision sums over a record subset. The Has* flags report
// whether any record carried the optional field at all.
type Totals struct {
	Count       int
	Amount      decimal.Decimal
	CardAmount  decimal.Decimal
	Km          decimal.Decimal
	FuelCost    decimal.Decimal
	HasCard     bool
	HasKm       bool
	HasFuelCost bool
}
