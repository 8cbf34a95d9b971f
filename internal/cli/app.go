package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sumator/internal/config"
	"sumator/internal/core"
	"sumator/internal/log"
	"sumator/internal/render"
	"sumator/internal/render/sheets"
	"sumator/internal/store"
)

// SheetsFunc returns a renderer targeting the configured spreadsheet.
type SheetsFunc func(ctx context.Context, now time.Time) (render.Renderer, error)

// ExportRecorder receives export outcomes.
type ExportRecorder interface {
	ExportDone(renderer string, pages int, err error)
}

// App is everything a command needs. It is built once per invocation.
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	Store    *store.Store
	Sheets   SheetsFunc
	Recorder ExportRecorder
	Now      func() time.Time
	Cleanup  func() error
}

// Opener builds the App once flags are parsed.
type Opener func(ctx context.Context) (*App, error)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	headColor = color.New(color.Bold)
)

// identity returns the active identity, falling back to the first roster
// entry when none has been selected yet.
func (a *App) identity() core.Identity {
	if id, ok := a.Store.ActiveIdentity(); ok {
		return id
	}
	return a.Store.Roster()[0]
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

// Run executes the command line in args. The App is opened lazily by the first
// command that needs it and released before Run returns.
func Run(ctx context.Context, open Opener, args []string, stdout, stderr io.Writer) (err error) {
	var app *App
	get := func(cmd *cobra.Command) (*App, error) {
		if app != nil {
			return app, nil
		}
		a, err := open(cmd.Context())
		if err != nil {
			return nil, err
		}
		if a.Recorder == nil {
			a.Recorder = nopRecorder{}
		}
		app = a
		return app, nil
	}
	defer func() {
		if app != nil && app.Cleanup != nil {
			err = errors.Join(err, app.Cleanup())
		}
	}()

	root := newRootCommand(get)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

type nopRecorder struct{}

func (nopRecorder) ExportDone(string, int, error) {}

type appGetter func(cmd *cobra.Command) (*App, error)

// withApp adapts a command body that needs the App to cobra's RunE.
func withApp(get appGetter, run func(cmd *cobra.Command, app *App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := get(cmd)
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		return run(cmd, app, args)
	}
}

func newRootCommand(get appGetter) *cobra.Command {
	root := &cobra.Command{
		Use:   "sumator",
		Short: "Track transaction records and export reports",
		Long: `sumator keeps a local collection of transaction records per user,
shows totals and daily trends, and exports paginated reports as PDF, plain
text or to a Google Sheet.

Configuration is read from the environment and an optional .env file:

` + config.Usage(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newAddCommand(get),
		newRemoveCommand(get),
		newClearCommand(get),
		newListCommand(get),
		newTotalsCommand(get),
		newTrendCommand(get),
		newUsersCommand(get),
		newUserCommand(get),
		newExportCommand(get),
	)
	return root
}

// NewSheetsFunc returns a SheetsFunc for the configured spreadsheet. The tab
// name is year-prefixed from the export time.
func NewSheetsFunc(cfg *config.Config) SheetsFunc {
	return func(ctx context.Context, now time.Time) (render.Renderer, error) {
		if err := cfg.ValidateSheets(); err != nil {
			return nil, err
		}
		svc, err := sheets.NewService(ctx, sheets.Credentials{
			JSON: cfg.GoogleServiceAccountJSON,
			File: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			return nil, err
		}
		return sheets.New(svc, cfg.GoogleSpreadsheetID, sheets.SheetName(cfg.GoogleSheetName, now.Year())), nil
	}
}
