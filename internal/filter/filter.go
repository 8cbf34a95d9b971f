// Package filter selects which records an identity may see.
package filter

import (
	"slices"

	"sumator/internal/core"
)

// IsVisible reports whether r is visible to the active identity. A record is
// visible when ANY of these hold:
//
//   - the identity is the privileged name ("User"), which sees everything;
//   - the record is tagged with the privileged name, which everyone sees;
//   - the record belongs to the identity.
//
// This is deliberately not a plain "my records" equality filter.
func IsVisible(r core.Record, active core.Identity) bool {
	return active.Name == core.PrivilegedName ||
		r.UserName == core.PrivilegedName ||
		r.UserName == active.Name
}

// Visible returns the visible subset in input order. The result never aliases
// the input slice.
func Visible(records []core.Record, active core.Identity) []core.Record {
	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		if IsVisible(r, active) {
			out = append(out, r.Clone())
		}
	}
	return out
}

// ByUser narrows records to a single user tag (strict equality). An empty
// name keeps everything.
func ByUser(records []core.Record, name string) []core.Record {
	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		if name == "" || r.UserName == name {
			out = append(out, r.Clone())
		}
	}
	return out
}

// Users returns the distinct user tags present in records, sorted.
func Users(records []core.Record) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0)
	for _, r := range records {
		if _, ok := seen[r.UserName]; ok {
			continue
		}
		seen[r.UserName] = struct{}{}
		out = append(out, r.UserName)
	}
	slices.Sort(out)
	return out
}
