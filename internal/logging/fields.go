package logging

// Standardized field keys. Negotiation code should use these constants rather
// than ad hoc strings so log lines stay greppable across components.
const (
	// FieldComponent identifies the emitting component (negotiator, binder, ...).
	FieldComponent = "component"
	// FieldEventType is a stable machine-readable event tag.
	FieldEventType = "event_type"
	// FieldKeySystem carries the key-system identifier a log line concerns.
	FieldKeySystem = "key_system"
	// FieldStep names the negotiation step (access, module, session, attach).
	FieldStep = "step"
	// FieldRequestID correlates all lines of one negotiation request.
	FieldRequestID = "request_id"
	// FieldErrorHint suggests a next step to whoever reads the log.
	FieldErrorHint = "error_hint"
)
