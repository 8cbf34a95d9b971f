// Package pdf renders report documents to PDF. Core fonts only cover cp1252,
// so text outside it needs a TrueType font passed with WithUTF8Font.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"sumator/internal/report"
)

const (
	fontFamily   = "Helvetica"
	utf8Family   = "ReportSans"
	footerOffset = 10 // footer baseline distance from the bottom edge
)

type fontSpec struct {
	style string
	size  float64
}

var fonts = map[report.Kind]fontSpec{
	report.KindTitle:   {"B", 16},
	report.KindMeta:    {"", 10},
	report.KindHeader:  {"B", 10},
	report.KindRow:     {"", 9},
	report.KindSummary: {"B", 11},
	report.KindFooter:  {"", 8},
}

type Renderer struct {
	w       io.Writer
	doc     *fpdf.Fpdf
	layout  report.Layout
	columns []report.Column
	family  string
	tr      func(string) string
	y       float64
}

// Option adjusts the renderer before the first page.
type Option func(*Renderer)

// WithCreationDate pins the PDF creation date, making output reproducible.
func WithCreationDate(t time.Time) Option {
	return func(r *Renderer) {
		r.doc.SetCreationDate(t)
		r.doc.SetModificationDate(t)
	}
}

// WithoutCompression leaves page streams readable.
func WithoutCompression() Option {
	return func(r *Renderer) { r.doc.SetCompression(false) }
}

// WithUTF8Font embeds ttf and writes every line with it, so names outside
// cp1252 (Ł, ś, ż) keep their glyphs. The same face serves bold lines.
func WithUTF8Font(ttf []byte) Option {
	return func(r *Renderer) {
		if !isTrueType(ttf) {
			r.doc.SetError(errors.New("font is not a TrueType file"))
			return
		}
		r.doc.AddUTF8FontFromBytes(utf8Family, "", ttf)
		r.doc.AddUTF8FontFromBytes(utf8Family, "B", ttf)
		r.family = utf8Family
		r.tr = func(s string) string { return s }
	}
}

func isTrueType(b []byte) bool {
	if len(b) < 12 {
		return false
	}
	tag := string(b[:4])
	return tag == "\x00\x01\x00\x00" || tag == "true"
}

// New returns a renderer for the given page geometry that writes to w on Finish.
func New(w io.Writer, layout report.Layout, columns []report.Column, opts ...Option) *Renderer {
	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: layout.PageWidth, Ht: layout.PageHeight},
	})
	doc.SetMargins(layout.SideMargin, layout.TopMargin, layout.SideMargin)
	// page breaks are decided by the compiler
	doc.SetAutoPageBreak(false, layout.BottomMargin)
	doc.SetCatalogSort(true)
	r := &Renderer{
		w:       w,
		doc:     doc,
		layout:  layout,
		columns: columns,
		family:  fontFamily,
		tr:      doc.UnicodeTranslatorFromDescriptor(""),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) Name() string { return "pdf" }

func (r *Renderer) StartPage(n int) error {
	if n != r.doc.PageNo()+1 {
		return fmt.Errorf("page %d out of order", n)
	}
	r.doc.AddPage()
	r.y = r.layout.TopMargin
	return r.doc.Error()
}

func (r *Renderer) WriteLine(line report.Line) error {
	if r.doc.PageNo() == 0 {
		return fmt.Errorf("%s line before first page", line.Kind)
	}
	if f, ok := fonts[line.Kind]; ok {
		r.doc.SetFont(r.family, f.style, f.size)
	}
	left := r.layout.SideMargin
	width := r.layout.PageWidth - 2*r.layout.SideMargin

	switch line.Kind {
	case report.KindSeparator:
		mid := r.y + line.Height/2
		r.doc.SetLineWidth(0.2)
		r.doc.Line(left, mid, left+width, mid)
	case report.KindHeader, report.KindRow:
		if len(line.Cells) != len(r.columns) {
			return fmt.Errorf("%s has %d cells, want %d", line.Kind, len(line.Cells), len(r.columns))
		}
		x := left
		for i, cell := range line.Cells {
			align := "L"
			if r.columns[i].Right {
				align = "R"
			}
			r.doc.SetXY(x, r.y)
			r.doc.CellFormat(r.columns[i].Width, line.Height, r.tr(cell), "", 0, align+"M", false, 0, "")
			x += r.columns[i].Width
		}
	case report.KindFooter:
		r.doc.SetXY(left, r.layout.PageHeight-footerOffset-2)
		r.doc.CellFormat(width, 4, r.tr(line.Text), "", 0, "CM", false, 0, "")
	default:
		r.doc.SetXY(left, r.y)
		r.doc.CellFormat(width, line.Height, r.tr(line.Text), "", 0, "LM", false, 0, "")
	}
	r.y += line.Height
	return r.doc.Error()
}

// Finish serializes the document. Nothing reaches the writer unless every page
// was produced and the context is still live.
func (r *Renderer) Finish(ctx context.Context, totalPages int) error {
	if err := r.doc.Error(); err != nil {
		return err
	}
	if got := r.doc.PageNo(); got != totalPages {
		return fmt.Errorf("got %d pages, expected %d", got, totalPages)
	}
	if totalPages == 0 {
		return errors.New("empty document")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.doc.Output(r.w)
}
