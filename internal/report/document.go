// Package report compiles record subsets into a paginated document model that
// is independent of any rendering technology.
package report

import "fmt"

// Kind classifies a document line.
type Kind int

const (
	KindTitle Kind = iota
	KindMeta
	KindSeparator
	KindHeader
	KindRow
	KindSummary
	KindFooter
)

func (k Kind) String() string {
	switch k {
	case KindTitle:
		return "title"
	case KindMeta:
		return "meta"
	case KindSeparator:
		return "separator"
	case KindHeader:
		return "header"
	case KindRow:
		return "row"
	case KindSummary:
		return "summary"
	case KindFooter:
		return "footer"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type (
	// Line is one vertical slot on a page. Header and row lines carry Cells
	// aligned with Document.Columns; the rest carry Text.
	Line struct {
		Kind   Kind
		Height float64
		Text   string
		Cells  []string
	}

	// Page is a numbered, bounded sequence of lines. The footer, once stamped,
	// is the last line and sits in the bottom margin with zero height.
	Page struct {
		Number int
		Lines  []Line
	}

	// Column describes a table column; Width is in layout units.
	Column struct {
		Label string
		Width float64
		Right bool // right-aligned numeric column
	}

	// Document is the compiled report.
	Document struct {
		Title   string
		Columns []Column
		Layout  Layout
		Pages   []Page
	}
)

// TotalPages returns the final page count.
func (d *Document) TotalPages() int {
	return len(d.Pages)
}

// Footer returns the stamped footer line of a page, if any.
func (p Page) Footer() (Line, bool) {
	if n := len(p.Lines); n > 0 && p.Lines[n-1].Kind == KindFooter {
		return p.Lines[n-1], true
	}
	return Line{}, false
}

// Used returns the vertical space consumed by the page body.
func (p Page) Used() float64 {
	var h float64
	for _, l := range p.Lines {
		h += l.Height
	}
	return h
}

// Columns used by every report, in display order.
var Columns = []Column{
	{Label: "No.", Width: 12},
	{Label: "Date", Width: 25},
	{Label: "User", Width: 40},
	{Label: "Amount", Width: 30, Right: true},
	{Label: "Card", Width: 25, Right: true},
	{Label: "Km", Width: 18, Right: true},
	{Label: "Fuel", Width: 20, Right: true},
}
