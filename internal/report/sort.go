package report

import (
	"fmt"
	"slices"
	"strings"

	"sumator/internal/core"
)

// Order is the date ordering of report rows.
type Order int

const (
	Descending Order = iota
	Ascending
)

func (o Order) String() string {
	if o == Ascending {
		return "asc"
	}
	return "desc"
}

// ParseOrder accepts "asc" or "desc" (case-insensitive); empty means Descending.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc", "descending":
		return Descending, nil
	case "asc", "ascending":
		return Ascending, nil
	default:
		return Descending, fmt.Errorf("unknown order %q", s)
	}
}

// SortByDate returns a copy of records ordered by date. Records with equal
// dates keep their relative input order.
func SortByDate(records []core.Record, order Order) []core.Record {
	out := core.CloneRecords(records)
	slices.SortStableFunc(out, func(a, b core.Record) int {
		c := a.Date.Compare(b.Date)
		if order == Descending {
			return -c
		}
		return c
	})
	return out
}
