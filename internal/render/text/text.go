// Package text renders report documents as aligned plain text, one block per
// page separated by form feeds.
package text

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"sumator/internal/report"
)

const pageBreak = "\f\n"

type Renderer struct {
	w       io.Writer
	columns []report.Column
	pages   [][]report.Line
}

// New returns a renderer that writes to w on Finish.
func New(w io.Writer, columns []report.Column) *Renderer {
	return &Renderer{w: w, columns: columns}
}

func (r *Renderer) Name() string { return "text" }

func (r *Renderer) StartPage(n int) error {
	if n != len(r.pages)+1 {
		return fmt.Errorf("page %d out of order", n)
	}
	r.pages = append(r.pages, nil)
	return nil
}

func (r *Renderer) WriteLine(line report.Line) error {
	if len(r.pages) == 0 {
		return fmt.Errorf("%s line before first page", line.Kind)
	}
	if (line.Kind == report.KindHeader || line.Kind == report.KindRow) && len(line.Cells) != len(r.columns) {
		return fmt.Errorf("%s has %d cells, want %d", line.Kind, len(line.Cells), len(r.columns))
	}
	i := len(r.pages) - 1
	r.pages[i] = append(r.pages[i], line)
	return nil
}

// Finish lays out all buffered pages with column widths shared across the
// whole document, then writes them in one call.
func (r *Renderer) Finish(ctx context.Context, totalPages int) error {
	if totalPages != len(r.pages) {
		return fmt.Errorf("got %d pages, expected %d", len(r.pages), totalPages)
	}
	widths := r.widths()
	total := len(widths) - 1
	for _, w := range widths {
		total += w
	}

	var buf bytes.Buffer
	for i, page := range r.pages {
		if i > 0 {
			buf.WriteString(pageBreak)
		}
		for _, line := range page {
			switch line.Kind {
			case report.KindSeparator:
				buf.WriteString(strings.Repeat("-", total))
			case report.KindHeader, report.KindRow:
				buf.WriteString(r.formatCells(line.Cells, widths))
			case report.KindFooter:
				buf.WriteString("\n" + pad(line.Text, total, true))
			default:
				buf.WriteString(line.Text)
			}
			buf.WriteByte('\n')
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := r.w.Write(buf.Bytes())
	return err
}

func (r *Renderer) widths() []int {
	widths := make([]int, len(r.columns))
	for i, c := range r.columns {
		widths[i] = utf8.RuneCountInString(c.Label)
	}
	for _, page := range r.pages {
		for _, line := range page {
			for i, cell := range line.Cells {
				if n := utf8.RuneCountInString(cell); n > widths[i] {
					widths[i] = n
				}
			}
		}
	}
	return widths
}

func (r *Renderer) formatCells(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = pad(cell, widths[i], r.columns[i].Right)
	}
	return strings.TrimRight(strings.Join(parts, " "), " ")
}

func pad(s string, width int, right bool) string {
	n := width - utf8.RuneCountInString(s)
	if n <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", n) + s
	}
	return s + strings.Repeat(" ", n)
}
