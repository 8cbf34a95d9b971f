// Package worker republishes the full report whenever the store changes.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"sumator/internal/amqp"
	"sumator/internal/core"
	"sumator/internal/log"
	"sumator/internal/render"
	"sumator/internal/report"
	"sumator/internal/storage"
)

// Source is the state the worker reports on. *store.Store satisfies it.
type Source interface {
	Load(ctx context.Context) error
	Snapshot() []core.Record
}

// EventSource delivers change events until ctx ends. *amqp.Client satisfies it.
type EventSource interface {
	ConsumeWithRetry(ctx context.Context, handler amqp.Handler) error
}

// Recorder receives worker outcomes. *metrics.Collectors satisfies it.
type Recorder interface {
	ExportDone(renderer string, pages int, err error)
	EventHandled(t core.EventType, err error)
	Published(revision uint64)
}

// RendererFunc returns a fresh renderer for one publish run.
type RendererFunc func(now time.Time) render.Renderer

type nopRecorder struct{}

func (nopRecorder) ExportDone(string, int, error)      {}
func (nopRecorder) EventHandled(core.EventType, error) {}
func (nopRecorder) Published(uint64)                   {}

// ReportWorker reloads the store on every event and replaces the published
// report with one compiled from every record.
type ReportWorker struct {
	source      Source
	newRenderer RendererFunc
	options     report.Options
	order       report.Order
	recorder    Recorder
	logger      *log.Logger
	structured  *log.StructuredLogger
	now         func() time.Time
}

type Option func(*ReportWorker)

func WithRecorder(r Recorder) Option { return func(w *ReportWorker) { w.recorder = r } }

func WithLogger(l *log.Logger) Option {
	return func(w *ReportWorker) { w.logger = l.WithComponent(log.ComponentWorker) }
}

func WithReportOptions(o report.Options) Option { return func(w *ReportWorker) { w.options = o } }

func WithOrder(o report.Order) Option { return func(w *ReportWorker) { w.order = o } }

func WithClock(now func() time.Time) Option { return func(w *ReportWorker) { w.now = now } }

func New(source Source, newRenderer RendererFunc, opts ...Option) *ReportWorker {
	w := &ReportWorker{
		source:      source,
		newRenderer: newRenderer,
		options:     report.Options{IncludeTimestamp: true},
		order:       report.Descending,
		recorder:    nopRecorder{},
		logger:      log.Discard().WithComponent(log.ComponentWorker),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.structured = log.NewStructuredLogger(w.logger)
	return w
}

// HandleEvent processes one change event. Persistence failures are returned so
// the event is redelivered; undecodable state is logged and the event dropped,
// since retrying cannot repair it and publishing would overwrite a good report.
func (w *ReportWorker) HandleEvent(ctx context.Context, msg *amqp.EventMessage) error {
	w.logger.InfoContext(ctx, "Processing store event",
		log.FieldMessageID, msg.ID,
		log.FieldEventType, string(msg.Type),
		log.FieldRevision, msg.Revision)

	err := w.Publish(ctx)
	if err == nil {
		w.recorder.Published(msg.Revision)
	} else if errors.Is(err, core.ErrCorruptState) && !errors.Is(err, core.ErrIO) {
		w.structured.LogError(ctx, "Skipping publish of undecodable state", err, log.OpConsume,
			log.NewFields().WithErrorType(log.ErrorTypeCorrupt))
		err = nil
	}
	w.recorder.EventHandled(msg.Type, err)
	return err
}

// Publish reloads the source and replaces the published report. An empty
// store publishes nothing.
func (w *ReportWorker) Publish(ctx context.Context) error {
	start := time.Now()
	if err := w.source.Load(ctx); err != nil {
		// the report covers every user, so a bad saved selection does not matter
		if !identityOnly(err) {
			return fmt.Errorf("reload store: %w", err)
		}
		w.logger.WarnContext(ctx, "Ignoring undecodable identity",
			log.NewFields().WithOperation(log.OpConsume).WithError(err).ToSlice()...)
	}

	records := report.SortByDate(w.source.Snapshot(), w.order)
	opts := w.options
	now := w.now()
	opts.GeneratedAt = now
	opts.SelectedUserLabel = report.AllUsersLabel

	doc, err := report.Compile(records, opts)
	if errors.Is(err, core.ErrEmptyExport) {
		w.logger.InfoContext(ctx, "Store is empty, nothing to publish")
		return nil
	}
	if err != nil {
		return fmt.Errorf("compile report: %w", err)
	}

	r := w.newRenderer(now)
	err = render.Emit(ctx, doc, r)
	w.recorder.ExportDone(r.Name(), doc.TotalPages(), err)
	if err != nil {
		return err
	}
	w.structured.LogExportCompleted(ctx, r.Name(), doc.TotalPages(), len(records), time.Since(start))
	return nil
}

// Run publishes once, then consumes events alongside any extra services
// (such as the metrics server) until ctx ends or one of them fails.
func (w *ReportWorker) Run(ctx context.Context, events EventSource, services ...func(ctx context.Context) error) error {
	if err := w.Publish(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Startup publish failed", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return events.ConsumeWithRetry(gctx, w.HandleEvent)
	})
	for _, svc := range services {
		g.Go(func() error { return svc(gctx) })
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// identityOnly reports whether err holds nothing but corrupt identity state.
func identityOnly(err error) bool {
	switch e := err.(type) {
	case *core.CorruptStateError:
		return e.Key == storage.IdentityKey
	case interface{ Unwrap() []error }:
		errs := e.Unwrap()
		if len(errs) == 0 {
			return false
		}
		for _, inner := range errs {
			if !identityOnly(inner) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
