package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"sumator/internal/amqp"
	"sumator/internal/backend"
	"sumator/internal/cli"
	"sumator/internal/metrics"
	"sumator/internal/render"
	"sumator/internal/render/sheets"
	"sumator/internal/report"
	"sumator/internal/store"
	"sumator/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sumator-worker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger, err := cli.SetupLogger(cfg, os.Stdout)
	if err != nil {
		return err
	}
	logger.Info("Starting sumator-worker")

	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required for the worker")
	}
	if err := cfg.ValidateSheets(); err != nil {
		return err
	}

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	collectors := metrics.New()

	// The worker only reads state, so its store gets no notifier.
	amqpURL := cfg.AMQPURL
	cfg.AMQPURL = ""
	st, err := cli.InitStore(ctx, cfg, backend.NewFactory(logger), logger, store.WithObserver(collectors))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Cleanup()

	svc, err := sheets.NewService(ctx, sheets.Credentials{
		JSON: cfg.GoogleServiceAccountJSON,
		File: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	events, err := amqp.NewClient(amqpURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer events.Close()

	w := worker.New(st.Store,
		func(now time.Time) render.Renderer {
			return sheets.New(svc, cfg.GoogleSpreadsheetID, sheets.SheetName(cfg.GoogleSheetName, now.Year()))
		},
		worker.WithLogger(logger),
		worker.WithRecorder(collectors),
		worker.WithReportOptions(report.Options{
			Title:            cfg.ReportTitle,
			Currency:         cfg.ReportCurrency,
			IncludeTimestamp: true,
		}),
	)

	var services []func(context.Context) error
	if cfg.MetricsAddr != "" {
		services = append(services, func(ctx context.Context) error {
			return collectors.Serve(ctx, cfg.MetricsAddr, logger)
		})
	}

	if err := w.Run(ctx, events, services...); err != nil {
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}
