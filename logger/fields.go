package logger

// Field keys shared across packages so log queries can rely on them.
const (
	FieldService   = "service"
	FieldComponent = "component"
	FieldTraceID   = "trace_id"
	FieldSpanID    = "span_id"
	FieldRequestID = "request_id"
	FieldBatchID   = "batch_id"
	FieldJobID     = "job_id"
	FieldStage     = "stage"
	FieldOperation = "operation"
	FieldStatus    = "status"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
)

// Fields builds a field map from alternating keys and values. Pairs with a
// non-string key and a trailing odd value are dropped.
//
//	log.Info("stage done", logger.Fields(logger.FieldStage, "diarize", "segments", 42))
func Fields(kvs ...any) map[string]any {
	m := make(map[string]any, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields describes a failed operation.
func ErrorFields(op string, err error) map[string]any {
	m := map[string]any{FieldOperation: op}
	if err != nil {
		m[FieldError] = err.Error()
	}
	return m
}
