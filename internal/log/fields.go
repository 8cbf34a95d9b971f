package log

import "github.com/shopspring/decimal"

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldErrorType = "error_type"
	FieldDuration  = "duration_ms"
	FieldRecordID  = "record_id"
	FieldUserName  = "user_name"
	FieldAmount    = "amount"
	FieldCount     = "count"
	FieldKey       = "key"
	FieldRevision  = "revision"
	FieldEventType = "event_type"
	FieldRenderer  = "renderer"
	FieldPages     = "pages"
	FieldPath      = "path"
	FieldMessageID = "message_id"
	FieldRequestID = "request_id"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentStore   = "store"
	ComponentStorage = "storage"
	ComponentBackend = "backend"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentRender  = "render"
	ComponentMetrics = "metrics"
	ComponentCLI     = "cli"
)

// Operations defines standard operation names
const (
	OpInsert   = "insert"
	OpRemove   = "remove"
	OpClear    = "clear"
	OpLoad     = "load"
	OpSave     = "save"
	OpIdentity = "identity"
	OpExport   = "export"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeCorrupt       = "corrupt_state"
	ErrorTypeRender        = "render_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorType adds the error category
func (f LogFields) WithErrorType(t string) LogFields {
	f[FieldErrorType] = t
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithRecord adds record-related fields
func (f LogFields) WithRecord(id int64, userName string, amount decimal.Decimal) LogFields {
	f[FieldRecordID] = id
	f[FieldUserName] = userName
	f[FieldAmount] = amount.String()
	return f
}

// WithExport adds export fields
func (f LogFields) WithExport(renderer string, pages int) LogFields {
	f[FieldRenderer] = renderer
	f[FieldPages] = pages
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
