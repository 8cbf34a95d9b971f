package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// WithContext returns a context carrying logger.
func WithContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok && logger != nil {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: ComponentApp,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

// Middleware tags each request with an id (taken from RequestIDHeader or
// generated), adds a logger carrying it to the request context, and logs the
// request at debug level, or warn/error for failing status codes.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			reqLogger := logger.With(FieldRequestID, requestID)
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			ctx := WithContext(r.Context(), reqLogger)
			next.ServeHTTP(rec, r.WithContext(ctx))

			level := slog.LevelDebug
			switch {
			case rec.status >= 500:
				level = slog.LevelError
			case rec.status >= 400:
				level = slog.LevelWarn
			}
			reqLogger.Logger.Log(ctx, level, "HTTP request completed", reqLogger.args([]any{
				FieldPath, r.URL.Path,
				"status_code", rec.status,
				FieldDuration, time.Since(start).Milliseconds(),
			})...)
		})
	}
}

// StructuredLogger provides domain logging helpers with context awareness
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogRecordInserted logs a successful insert
func (sl *StructuredLogger) LogRecordInserted(ctx context.Context, id int64, userName string, amount decimal.Decimal, revision uint64) {
	fields := NewFields().
		WithRecord(id, userName, amount).
		WithOperation(OpInsert)
	fields[FieldRevision] = revision

	sl.logger.InfoContext(ctx, "Record inserted", fields.ToSlice()...)
}

// LogExportCompleted logs a finished export
func (sl *StructuredLogger) LogExportCompleted(ctx context.Context, renderer string, pages, records int, duration time.Duration) {
	fields := NewFields().
		WithExport(renderer, pages).
		WithOperation(OpExport)
	fields[FieldCount] = records
	fields[FieldDuration] = duration.Milliseconds()

	sl.logger.InfoContext(ctx, "Report exported", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation)

	sl.logger.ErrorContext(ctx, msg, allFields.ToSlice()...)
}
