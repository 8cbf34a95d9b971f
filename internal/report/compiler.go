package report

import (
	"fmt"
	"strconv"
	"time"

	"sumator/internal/aggregate"
	"sumator/internal/core"
)

const (
	DateFormat      = "02.01.2006"
	TimestampFormat = "02.01.2006 15:04:05"
	AllUsersLabel   = "All users"
)

// Options controls the heading and formatting of a compiled report.
type Options struct {
	Title             string
	IncludeTimestamp  bool
	SelectedUserLabel string    // empty means AllUsersLabel
	Currency          string    // suffix for money values, e.g. "PLN"
	GeneratedAt       time.Time // zero means time.Now
	Layout            *Layout   // nil means DefaultLayout
}

// compiler carries the running layout state while lines are placed.
type compiler struct {
	layout    Layout
	currency  string
	pages     []Page
	current   Page
	remaining float64
}

// Compile lays records out into pages in the order given. Callers pass a
// filtered, sorted snapshot; the input slice is not retained.
func Compile(records []core.Record, opts Options) (*Document, error) {
	if len(records) == 0 {
		return nil, core.ErrEmptyExport
	}
	layout := DefaultLayout()
	if opts.Layout != nil {
		layout = *opts.Layout
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	generatedAt := opts.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}
	userLabel := opts.SelectedUserLabel
	if userLabel == "" {
		userLabel = AllUsersLabel
	}

	c := &compiler{layout: layout, currency: opts.Currency}
	c.startPage()

	c.emit(Line{Kind: KindTitle, Height: layout.TitleHeight, Text: opts.Title})
	if opts.IncludeTimestamp {
		c.emit(Line{Kind: KindMeta, Height: layout.MetaHeight, Text: "Generated: " + generatedAt.Format(TimestampFormat)})
		c.emit(Line{Kind: KindMeta, Height: layout.MetaHeight, Text: "User: " + userLabel})
	}
	c.separator()
	c.emit(Line{Kind: KindHeader, Height: layout.HeaderHeight, Cells: headerCells()})
	c.separator()

	for i, r := range records {
		c.ensure(layout.RowHeight)
		c.emit(Line{Kind: KindRow, Height: layout.RowHeight, Cells: c.rowCells(i+1, r)})
	}

	summary := c.summaryLines(aggregate.Compute(records))
	c.ensure(layout.summaryHeight(len(summary)))
	c.separator()
	for _, text := range summary {
		c.emit(Line{Kind: KindSummary, Height: layout.SummaryHeight, Text: text})
	}

	c.pages = append(c.pages, c.current)
	total := len(c.pages)
	for i := range c.pages {
		c.pages[i].Lines = append(c.pages[i].Lines, Line{
			Kind: KindFooter,
			Text: FooterText(c.pages[i].Number, total),
		})
	}

	return &Document{
		Title:   opts.Title,
		Columns: append([]Column(nil), Columns...),
		Layout:  layout,
		Pages:   c.pages,
	}, nil
}

// FooterText is the pagination label stamped on every page.
func FooterText(page, total int) string {
	return fmt.Sprintf("Page %d of %d", page, total)
}

func (c *compiler) startPage() {
	c.current = Page{Number: len(c.pages) + 1}
	c.remaining = c.layout.Usable()
}

// ensure breaks the page when fewer than h units remain.
func (c *compiler) ensure(h float64) {
	if c.remaining < h {
		c.pages = append(c.pages, c.current)
		c.startPage()
	}
}

func (c *compiler) emit(l Line) {
	c.current.Lines = append(c.current.Lines, l)
	c.remaining -= l.Height
}

func (c *compiler) separator() {
	c.emit(Line{Kind: KindSeparator, Height: c.layout.SeparatorHeight})
}

func headerCells() []string {
	cells := make([]string, len(Columns))
	for i, col := range Columns {
		cells[i] = col.Label
	}
	return cells
}

func (c *compiler) rowCells(n int, r core.Record) []string {
	return []string{
		strconv.Itoa(n) + ".",
		r.Date.Format(DateFormat),
		r.UserName,
		c.money(core.FormatMoney(r.Amount)),
		c.money(core.FormatOptionalMoney(r.CardAmount)),
		core.FormatOptionalDistance(r.Km),
		c.money(core.FormatOptionalMoney(r.FuelCost)),
	}
}

func (c *compiler) summaryLines(t core.Totals) []string {
	lines := []string{"Total amount: " + c.money(core.FormatMoney(t.Amount))}
	if t.HasCard {
		lines = append(lines, "Total card amount: "+c.money(core.FormatMoney(t.CardAmount)))
	}
	if t.HasKm {
		lines = append(lines, "Total distance: "+core.FormatDistance(t.Km)+" km")
	}
	if t.HasFuelCost {
		lines = append(lines, "Total fuel cost: "+c.money(core.FormatMoney(t.FuelCost)))
	}
	return lines
}

func (c *compiler) money(s string) string {
	if c.currency == "" {
		return s
	}
	return s + " " + c.currency
}
