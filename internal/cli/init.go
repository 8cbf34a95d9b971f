// Package cli provides common process initialization utilities shared by
// cmd/sumator and cmd/sumator-worker.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"sumator/internal/backend"
	"sumator/internal/config"
	"sumator/internal/core"
	"sumator/internal/log"
	"sumator/internal/store"
)

// SetupLogger builds the process logger from config and sets it as the
// default logger.
func SetupLogger(cfg *config.Config, out io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Output:    out,
		Component: log.ComponentApp,
	})
	log.SetDefault(logger)
	return logger, nil
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// StoreResult is an opened store and the function releasing its backend.
type StoreResult struct {
	Store   *store.Store
	Cleanup backend.CleanupFunc
}

// InitStore creates the configured backend and restores the store from it.
// Undecodable state is logged and the store starts from the defaults; any
// other load failure is returned.
func InitStore(ctx context.Context, cfg *config.Config, factory backend.Factory, logger *log.Logger, opts ...store.Option) (*StoreResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := factory.CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	roster, err := store.ParseRoster(cfg.Roster)
	if err != nil {
		_ = res.Cleanup()
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	base := []store.Option{store.WithLogger(logger), store.WithRoster(roster)}
	if res.Notifier != nil {
		base = append(base, store.WithNotifier(res.Notifier))
	}
	s := store.New(res.Backend, append(base, opts...)...)

	if err := s.Load(ctx); err != nil {
		if errors.Is(err, core.ErrIO) || !errors.Is(err, core.ErrCorruptState) {
			_ = res.Cleanup()
			return nil, err
		}
		logger.WarnContext(ctx, "Discarded undecodable saved state", log.FieldError, err)
	}
	return &StoreResult{Store: s, Cleanup: res.Cleanup}, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
