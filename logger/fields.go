package logger

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldOperation  = "operation"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldKey        = "key"
	FieldRecordID   = "record_id"
	FieldArqueoID   = "arqueo_id"
	FieldPeriod     = "period"
	FieldRange      = "range"
	FieldCount      = "count"
	FieldSource     = "source"
)

// Component names
const (
	ComponentApp    = "app"
	ComponentHTTP   = "http"
	ComponentStore  = "store"
	ComponentLedger = "ledger"
	ComponentEngine = "engine"
)

// Operation names
const (
	OpLoad     = "load"
	OpAdd      = "add"
	OpDelete   = "delete"
	OpSet      = "set"
	OpSave     = "save"
	OpExport   = "export"
	OpReset    = "reset"
	OpMigrate  = "migrate"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
