package text

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sumator/internal/core"
	"sumator/internal/render"
	"sumator/internal/report"
)

func compile(t *testing.T, n int) *report.Document {
	t.Helper()
	records := make([]core.Record, n)
	for i := range records {
		records[i] = core.Record{
			ID:       int64(i + 1),
			Amount:   decimal.RequireFromString("12.5"),
			Date:     time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			UserName: "Ala",
		}
	}
	doc, err := report.Compile(records, report.Options{Title: "Transactions", Currency: "PLN"})
	require.NoError(t, err)
	return doc
}

func TestRenderSinglePage(t *testing.T) {
	doc := compile(t, 2)
	var buf bytes.Buffer

	require.NoError(t, render.Emit(context.Background(), doc, New(&buf, doc.Columns)))

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal(t, "Transactions", lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "No. Date"), lines[2])
	assert.Contains(t, out, "1.  02.01.2024 Ala  12.50 PLN")
	assert.Contains(t, out, "Total amount: 25.00 PLN")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "Page 1 of 1"))
	assert.NotContains(t, out, "\f")
}

func TestRenderPageBreaks(t *testing.T) {
	doc := compile(t, 80)
	var buf bytes.Buffer

	require.NoError(t, render.Emit(context.Background(), doc, New(&buf, doc.Columns)))

	pages := strings.Split(buf.String(), pageBreak)
	require.Len(t, pages, doc.TotalPages())
	for i, p := range pages {
		assert.Contains(t, p, report.FooterText(i+1, len(pages)))
	}
}

func TestRenderWritesNothingWhenCancelled(t *testing.T) {
	doc := compile(t, 3)
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := render.Emit(ctx, doc, New(&buf, doc.Columns))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}

func TestFinishRejectsPageMismatch(t *testing.T) {
	r := New(&bytes.Buffer{}, report.Columns)
	require.NoError(t, r.StartPage(1))
	assert.Error(t, r.Finish(context.Background(), 2))
}

func TestWriteLineRejectsShortRow(t *testing.T) {
	r := New(&bytes.Buffer{}, report.Columns)
	require.NoError(t, r.StartPage(1))
	assert.Error(t, r.WriteLine(report.Line{Kind: report.KindRow, Cells: []string{"1."}}))
}
