package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sumator/internal/config"
	"sumator/internal/core"
	"sumator/internal/log"
	"sumator/internal/render"
	"sumator/internal/report"
	"sumator/internal/storage/memory"
	"sumator/internal/store"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

var testNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

type countingRecorder struct {
	renderers []string
	errs      []error
}

func (r *countingRecorder) ExportDone(renderer string, _ int, err error) {
	r.renderers = append(r.renderers, renderer)
	r.errs = append(r.errs, err)
}

type captureRenderer struct {
	lines    []report.Line
	finished bool
}

func (r *captureRenderer) Name() string                      { return "sheets" }
func (r *captureRenderer) StartPage(int) error               { return nil }
func (r *captureRenderer) Finish(context.Context, int) error { r.finished = true; return nil }

func (r *captureRenderer) WriteLine(l report.Line) error {
	r.lines = append(r.lines, l)
	return nil
}

type harness struct {
	t        *testing.T
	backend  *memory.Backend
	dir      string
	recorder *countingRecorder
	sheets   *captureRenderer
	pdfFont  string
	opens    int
	cleanups int
}

func newHarness(t *testing.T) *harness {
	return &harness{
		t:        t,
		backend:  memory.New(),
		dir:      t.TempDir(),
		recorder: &countingRecorder{},
		sheets:   &captureRenderer{},
	}
}

func (h *harness) open(ctx context.Context) (*App, error) {
	h.opens++
	roster, err := store.ParseRoster("User,Ala,Ola")
	if err != nil {
		return nil, err
	}
	s := store.New(h.backend,
		store.WithRoster(roster),
		store.WithClock(func() time.Time { return testNow }))
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return &App{
		Config: &config.Config{
			ReportTitle:     "Transaction report",
			ReportCurrency:  "PLN",
			ExportDir:       h.dir,
			GoogleSheetName: "Report",
			PDFFontFile:     h.pdfFont,
		},
		Logger:   log.Discard(),
		Store:    s,
		Recorder: h.recorder,
		Sheets: func(context.Context, time.Time) (render.Renderer, error) {
			return h.sheets, nil
		},
		Now: func() time.Time { return testNow },
		Cleanup: func() error {
			h.cleanups++
			return nil
		},
	}, nil
}

func (h *harness) run(args ...string) (string, error) {
	var out, errOut bytes.Buffer
	err := Run(context.Background(), h.open, args, &out, &errOut)
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "sumator %s", strings.Join(args, " "))
	return out
}

func TestAddAndList(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("add", "12,345", "--user", "Ala", "--km", "21", "--card", "4.5", "--date", "2024-03-01")
	assert.Contains(t, out, "12.35 for Ala")

	out = h.mustRun("list")
	assert.Contains(t, out, "01.03.2024")
	assert.Contains(t, out, "12.35")
	assert.Contains(t, out, "21.0")
	assert.Contains(t, out, "10.50")
	assert.Contains(t, out, "4.50")

	assert.Equal(t, h.opens, h.cleanups)
}

func TestAddDefaultsAndErrors(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("add", "5")
	assert.Contains(t, out, "for "+core.UnknownUserName)

	_, err := h.run("add", "abc")
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = h.run("add", "1", "--km", "-3")
	assert.ErrorIs(t, err, core.ErrInvalidDistance)

	_, err = h.run("add", "1", "--date", "yesterday")
	assert.ErrorIs(t, err, core.ErrInvalidDate)
}

func TestListJSONAndVisibility(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "100.00", "--user", "Ala", "--date", "2024-01-01")
	h.mustRun("add", "50.50", "--user", "User", "--date", "2024-01-02")
	h.mustRun("add", "7", "--user", "Ola", "--date", "2024-01-03")
	h.mustRun("user", "Ala")

	out := h.mustRun("list", "--json", "--order", "asc")
	var records []core.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "Ala", records[0].UserName)
	assert.Equal(t, "User", records[1].UserName)

	out = h.mustRun("totals", "--month", "2024-01")
	assert.Contains(t, out, "Totals for Ala (2 records)")
	assert.Contains(t, out, "150.50 PLN")
	assert.Contains(t, out, "January 2024:  100.00 PLN")
	assert.NotContains(t, out, "Card:")

	out = h.mustRun("trend")
	assert.Contains(t, out, "2024-01-01")
	assert.Contains(t, out, "2024-01-02")
	assert.NotContains(t, out, "2024-01-03")
}

func TestRemoveAndClear(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("add", "1", "--user", "Ala")
	id := strings.TrimSuffix(strings.Fields(out)[2], ":")

	assert.Contains(t, h.mustRun("rm", id), "Removed record "+id)
	assert.Contains(t, h.mustRun("rm", id), "No record "+id)

	_, err := h.run("rm", "x")
	assert.ErrorIs(t, err, core.ErrInvalidID)

	h.mustRun("add", "2")
	_, err = h.run("clear")
	assert.Error(t, err)
	h.mustRun("clear", "--yes")
	assert.Contains(t, h.mustRun("list"), "No records")
}

func TestUserCommands(t *testing.T) {
	h := newHarness(t)

	assert.Contains(t, h.mustRun("user"), "No identity selected, acting as User")
	assert.Contains(t, h.mustRun("user", "next"), "Active identity: User")
	assert.Contains(t, h.mustRun("user", "next"), "Active identity: Ala")
	assert.Equal(t, "Ala\n", h.mustRun("user"))

	_, err := h.run("user", "Bogdan")
	assert.ErrorIs(t, err, core.ErrUnknownIdentity)

	h.mustRun("add", "3", "--user", "Ola")
	out := h.mustRun("users")
	assert.Contains(t, out, "* Ala")
	assert.Contains(t, out, "  Ola")
	assert.Contains(t, out, "(none)")
}

func TestExportText(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "10", "--user", "Ala", "--date", "2024-03-01")
	h.mustRun("add", "20", "--user", "Ola", "--date", "2024-03-02")

	out := h.mustRun("export", "--format", "text", "--title", "March")
	path := filepath.Join(h.dir, ExportFileName("", testNow, "txt"))
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(data)
	assert.Contains(t, body, "March")
	assert.Contains(t, body, "User: All users")
	assert.Contains(t, body, "Total amount: 30.00 PLN")
	assert.Contains(t, body, "Page 1 of 1")
	assert.Equal(t, []string{"text"}, h.recorder.renderers)
}

func TestExportPDFForOneUser(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "10", "--user", "Ala")
	h.mustRun("add", "20", "--user", "Ola")

	h.mustRun("export", "--user", "Ala", "--no-timestamp")
	data, err := os.ReadFile(filepath.Join(h.dir, "report_Ala_"+strconvMillis(testNow)+".pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestExportPDFMissingFont(t *testing.T) {
	h := newHarness(t)
	h.pdfFont = filepath.Join(h.dir, "missing.ttf")
	h.mustRun("add", "10", "--user", "Ala")

	_, err := h.run("export")
	require.ErrorIs(t, err, core.ErrIO)
	assert.ErrorContains(t, err, "missing.ttf")

	entries, err := os.ReadDir(h.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func strconvMillis(t time.Time) string {
	return strings.TrimSuffix(strings.TrimPrefix(ExportFileName("x", t, "e"), "report_x_"), ".e")
}

func TestExportEmptyWritesNothing(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("export", "--format", "text")
	assert.ErrorIs(t, err, core.ErrEmptyExport)

	entries, err := os.ReadDir(h.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, h.recorder.renderers)
}

func TestExportSheets(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "10", "--user", "Ala")

	out := h.mustRun("export", "--format", "sheets")
	assert.Contains(t, out, `published to sheet "Report"`)
	assert.True(t, h.sheets.finished)
	assert.NotEmpty(t, h.sheets.lines)
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "10")
	_, err := h.run("export", "--format", "docx")
	assert.Error(t, err)
}

func TestExportFileName(t *testing.T) {
	assert.Equal(t, "report_all_1710498600000.pdf", ExportFileName("", testNow, "pdf"))
	assert.Equal(t, "report_Jan_Kowalski_1710498600000.txt", ExportFileName("Jan Kowalski", testNow, "txt"))
}
