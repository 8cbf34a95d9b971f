package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sumator/internal/core"
	"sumator/internal/filter"
	"sumator/internal/log"
	"sumator/internal/render"
	"sumator/internal/render/pdf"
	"sumator/internal/render/text"
	"sumator/internal/report"
)

// Export formats.
const (
	FormatPDF    = "pdf"
	FormatText   = "text"
	FormatSheets = "sheets"
)

type exportOptions struct {
	format      string
	outDir      string
	title       string
	noTimestamp bool
	user        string
	order       string
}

func newExportCommand(get appGetter) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the visible records as a paginated report",
		Long: `Compile the records visible to the active identity, optionally narrowed to
one user, into a paginated report and write it as PDF, plain text or to the
configured Google Sheet.

Files are named report_<user>_<unix-ms>.<ext> and appear only once fully
written.`,
		Args: cobra.NoArgs,
		RunE: withApp(get, func(cmd *cobra.Command, app *App, _ []string) error {
			path, err := runExport(cmd.Context(), app, opts)
			if err != nil {
				return err
			}
			if path == "" {
				okColor.Fprintf(cmd.OutOrStdout(), "Report published to sheet %q\n", app.Config.GoogleSheetName)
				return nil
			}
			okColor.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", path)
			return nil
		}),
	}

	f := cmd.Flags()
	f.StringVar(&opts.format, "format", FormatPDF, "output format: pdf, text or sheets")
	f.StringVar(&opts.outDir, "out", "", "output directory (default: EXPORT_DIR)")
	f.StringVar(&opts.title, "title", "", "report title (default: REPORT_TITLE)")
	f.BoolVar(&opts.noTimestamp, "no-timestamp", false, "omit the generated-at and user lines")
	f.StringVar(&opts.user, "user", "", "only include records of this user")
	f.StringVar(&opts.order, "order", "desc", "date order, asc or desc")
	return cmd
}

// runExport compiles and emits a report. It returns the written file path,
// or an empty path for the sheets format.
func runExport(ctx context.Context, app *App, opts exportOptions) (path string, err error) {
	start := time.Now()
	order, err := report.ParseOrder(opts.order)
	if err != nil {
		return "", err
	}
	ext, ok := map[string]string{FormatPDF: "pdf", FormatText: "txt", FormatSheets: ""}[opts.format]
	if !ok {
		return "", fmt.Errorf("unknown export format %q", opts.format)
	}

	records := filter.Visible(app.Store.Snapshot(), app.identity())
	label := report.AllUsersLabel
	if opts.user != "" {
		records = filter.ByUser(records, opts.user)
		label = opts.user
	}
	records = report.SortByDate(records, order)

	title := opts.title
	if title == "" {
		title = app.Config.ReportTitle
	}
	now := app.now()
	doc, err := report.Compile(records, report.Options{
		Title:             title,
		IncludeTimestamp:  !opts.noTimestamp,
		SelectedUserLabel: label,
		Currency:          app.Config.ReportCurrency,
		GeneratedAt:       now,
	})
	if err != nil {
		return "", err
	}

	rendererName := opts.format
	defer func() {
		app.Recorder.ExportDone(rendererName, doc.TotalPages(), err)
		if err == nil {
			log.NewStructuredLogger(app.Logger).
				LogExportCompleted(ctx, rendererName, doc.TotalPages(), len(records), time.Since(start))
		}
	}()

	if opts.format == FormatSheets {
		if app.Sheets == nil {
			return "", errors.New("sheets export is not configured")
		}
		r, err := app.Sheets(ctx, now)
		if err != nil {
			return "", err
		}
		return "", render.Emit(ctx, doc, r)
	}

	dir := opts.outDir
	if dir == "" {
		dir = app.Config.ExportDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &core.IOError{Op: "mkdir", Key: dir, Err: err}
	}
	pdfOpts := []pdf.Option{pdf.WithCreationDate(now)}
	if font := app.Config.PDFFontFile; font != "" && opts.format == FormatPDF {
		ttf, err := os.ReadFile(font)
		if err != nil {
			return "", &core.IOError{Op: "read font", Key: font, Err: err}
		}
		pdfOpts = append(pdfOpts, pdf.WithUTF8Font(ttf))
	}

	path = filepath.Join(dir, ExportFileName(opts.user, now, ext))
	err = render.WriteFileAtomic(path, func(w io.Writer) error {
		var r render.Renderer
		if opts.format == FormatPDF {
			r = pdf.New(w, doc.Layout, doc.Columns, pdfOpts...)
		} else {
			r = text.New(w, doc.Columns)
		}
		return render.Emit(ctx, doc, r)
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// ExportFileName returns report_<user>_<unix-ms>.<ext>, with "all" standing in
// for no selected user.
func ExportFileName(user string, now time.Time, ext string) string {
	if user == "" {
		user = "all"
	}
	user = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' || r == filepath.Separator {
			return '_'
		}
		return r
	}, user)
	return fmt.Sprintf("report_%s_%d.%s", user, now.UnixMilli(), ext)
}
