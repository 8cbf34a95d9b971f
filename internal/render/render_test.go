package render

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sumator/internal/core"
	"sumator/internal/report"
)

type recorder struct {
	pages    []int
	lines    []report.Line
	finished int
	failLine report.Kind
	failWith error
	onPage   func(n int)
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) StartPage(n int) error {
	r.pages = append(r.pages, n)
	if r.onPage != nil {
		r.onPage(n)
	}
	return nil
}

func (r *recorder) WriteLine(l report.Line) error {
	if r.failWith != nil && l.Kind == r.failLine {
		return r.failWith
	}
	r.lines = append(r.lines, l)
	return nil
}

func (r *recorder) Finish(_ context.Context, total int) error {
	r.finished = total
	return nil
}

func compile(t *testing.T, n int) *report.Document {
	t.Helper()
	records := make([]core.Record, n)
	for i := range records {
		records[i] = core.Record{
			ID:       int64(i + 1),
			Amount:   decimal.NewFromInt(10),
			Date:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			UserName: "Ala",
		}
	}
	doc, err := report.Compile(records, report.Options{Title: "T"})
	require.NoError(t, err)
	return doc
}

func TestEmitDrivesEveryPage(t *testing.T) {
	doc := compile(t, 80)
	rec := &recorder{}

	require.NoError(t, Emit(context.Background(), doc, rec))
	assert.Equal(t, []int{1, 2, 3}, rec.pages)
	assert.Equal(t, doc.TotalPages(), rec.finished)

	footers := 0
	for _, l := range rec.lines {
		if l.Kind == report.KindFooter {
			footers++
		}
	}
	assert.Equal(t, 3, footers)
}

func TestEmitCancelledBeforeFinish(t *testing.T) {
	doc := compile(t, 80)
	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{onPage: func(n int) {
		if n == 2 {
			cancel()
		}
	}}

	err := Emit(ctx, doc, rec)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, core.ErrRender)
	assert.Zero(t, rec.finished, "finish must not run")
}

func TestEmitWrapsRendererFailure(t *testing.T) {
	boom := errors.New("boom")
	rec := &recorder{failLine: report.KindSummary, failWith: boom}

	err := Emit(context.Background(), compile(t, 1), rec)
	var rerr *core.RenderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "recorder", rerr.Renderer)
	assert.ErrorIs(t, err, boom)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")

	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "hello")
		return err
	})
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestWriteFileAtomicFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")
	boom := errors.New("boom")

	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteFileAtomicKeepsPreviousFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	err := WriteFileAtomic(path, func(io.Writer) error { return errors.New("nope") })
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}
