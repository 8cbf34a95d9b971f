package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// PrivilegedName is the identity name that sees every record and whose tag
	// makes a record visible to everyone.
	PrivilegedName = "User"

	// UnknownUserName tags records created while no identity is selected.
	UnknownUserName = "nieznany"
)

const (
	EventInserted        EventType = "inserted"
	EventRemoved         EventType = "removed"
	EventCleared         EventType = "cleared"
	EventIdentityChanged EventType = "identity_changed"
)

type (
	EventType string

	// Record is a single transaction entry.
	Record struct {
		ID         int64            `json:"id"`
		Amount     decimal.Decimal  `json:"amount"`
		CardAmount *decimal.Decimal `json:"cardAmount,omitempty"`
		Km         *decimal.Decimal `json:"km,omitempty"`
		FuelCost   *decimal.Decimal `json:"fuelCost,omitempty"` // km/2, frozen at creation
		Date       time.Time        `json:"date"`
		UserName   string           `json:"user_name"`
	}

	// Identity is the locally selected acting user. Not a security principal.
	Identity struct {
		Name  string `json:"name"`
		Image string `json:"image"`
	}

	// Event describes a completed store mutation.
	Event struct {
		Type      EventType `json:"type"`
		RecordID  int64     `json:"record_id,omitempty"`
		UserName  string    `json:"user_name,omitempty"`
		Revision  uint64    `json:"revision"`
		Timestamp time.Time `json:"timestamp"`
	}

	// RecordInput carries the user-entered values for a new record.
	RecordInput struct {
		Amount     decimal.Decimal
		CardAmount *decimal.Decimal
		Km         *decimal.Decimal
		Date       time.Time
		UserName   string
	}
)

// NewRecord builds a record from input, filling defaults the way the entry
// form does: date falls back to now, user name to the active identity or
// UnknownUserName. FuelCost is derived from Km once and stored.
func NewRecord(id int64, in RecordInput, active *Identity, now time.Time) Record {
	r := Record{
		ID:         id,
		Amount:     in.Amount,
		CardAmount: in.CardAmount,
		Km:         in.Km,
		Date:       in.Date,
		UserName:   strings.TrimSpace(in.UserName),
	}
	if r.Date.IsZero() {
		r.Date = now
	}
	if r.UserName == "" {
		if active != nil && active.Name != "" {
			r.UserName = active.Name
		} else {
			r.UserName = UnknownUserName
		}
	}
	if r.Km != nil {
		fuel := r.Km.Div(decimal.NewFromInt(2))
		r.FuelCost = &fuel
	}
	return r
}

// Validate checks the invariants a persisted record must hold.
func (r Record) Validate() error {
	if r.ID == 0 {
		return ErrInvalidID
	}
	if r.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Clone returns a deep copy; optional fields get their own storage.
func (r Record) Clone() Record {
	c := r
	c.CardAmount = cloneDecimal(r.CardAmount)
	c.Km = cloneDecimal(r.Km)
	c.FuelCost = cloneDecimal(r.FuelCost)
	return c
}

// IsPrivileged reports whether the identity sees every record.
func (i Identity) IsPrivileged() bool {
	return i.Name == PrivilegedName
}

// CloneRecords copies a record slice, never returning the caller's backing array.
func CloneRecords(in []Record) []Record {
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
