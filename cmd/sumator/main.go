package main

import (
	"context"
	"fmt"
	"os"

	"sumator/internal/backend"
	"sumator/internal/cli"
	"sumator/internal/log"
)

func main() {
	ctx, cancel := cli.SignalContext(context.Background(), log.Discard())
	defer cancel()

	if err := cli.Run(ctx, open, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func open(ctx context.Context) (*cli.App, error) {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	logger, err := cli.SetupLogger(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}

	st, err := cli.InitStore(ctx, cfg, backend.NewFactory(logger), logger)
	if err != nil {
		return nil, err
	}

	return &cli.App{
		Config:  cfg,
		Logger:  logger,
		Store:   st.Store,
		Sheets:  cli.NewSheetsFunc(cfg),
		Cleanup: st.Cleanup,
	}, nil
}
