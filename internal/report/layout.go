package report

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Layout holds the page geometry and fixed line heights, in millimetres for
// the default A4 layout.
type Layout struct {
	PageHeight   float64
	PageWidth    float64
	TopMargin    float64
	BottomMargin float64
	SideMargin   float64

	TitleHeight     float64
	MetaHeight      float64
	SeparatorHeight float64
	HeaderHeight    float64
	RowHeight       float64
	SummaryHeight   float64
}

// DefaultLayout is an A4 portrait page with 20mm margins.
func DefaultLayout() Layout {
	return Layout{
		PageHeight:   297,
		PageWidth:    210,
		TopMargin:    20,
		BottomMargin: 20,
		SideMargin:   20,

		TitleHeight:     10,
		MetaHeight:      7,
		SeparatorHeight: 5,
		HeaderHeight:    10,
		RowHeight:       8,
		SummaryHeight:   10,
	}
}

// Usable returns the vertical capacity of a page body.
func (l Layout) Usable() float64 {
	return l.PageHeight - l.TopMargin - l.BottomMargin
}

// headingHeight is the space taken by title, optional meta lines and the table header.
func (l Layout) headingHeight(withMeta bool) float64 {
	h := l.TitleHeight + 2*l.SeparatorHeight + l.HeaderHeight
	if withMeta {
		h += 2 * l.MetaHeight
	}
	return h
}

// summaryHeight is the space taken by a summary block with n metric lines.
func (l Layout) summaryHeight(n int) float64 {
	return l.SeparatorHeight + float64(n)*l.SummaryHeight
}

// Validate rejects geometries the page-break loop cannot honour.
func (l Layout) Validate() error {
	var problems []string
	for name, v := range map[string]float64{
		"page height":      l.PageHeight,
		"title height":     l.TitleHeight,
		"meta height":      l.MetaHeight,
		"separator height": l.SeparatorHeight,
		"header height":    l.HeaderHeight,
		"row height":       l.RowHeight,
		"summary height":   l.SummaryHeight,
	} {
		if v <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive", name))
		}
	}
	if l.TopMargin < 0 || l.BottomMargin < 0 {
		problems = append(problems, "margins cannot be negative")
	}
	usable := l.Usable()
	if l.headingHeight(true)+l.RowHeight > usable {
		problems = append(problems, "heading and one row do not fit on a page")
	}
	if l.summaryHeight(4) > usable {
		problems = append(problems, "summary block does not fit on a page")
	}
	if len(problems) > 0 {
		slices.Sort(problems)
		return errors.New("invalid layout: " + strings.Join(problems, "; "))
	}
	return nil
}
