// Package apierror provides the response envelope shared by every endpoint.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// Envelope is the canonical JSON body for success and failure responses.
type Envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Meta    any               `json:"meta,omitempty"`
}

// OK wraps a successful payload.
func OK(msg string, data any) *Envelope {
	return &Envelope{Success: true, Message: msg, Data: data}
}

// Page wraps a paginated payload.
func Page(msg string, data, meta any) *Envelope {
	return &Envelope{Success: true, Message: msg, Data: data, Meta: meta}
}

// New builds a failure envelope with no field detail.
func New(msg string) *Envelope {
	return &Envelope{Success: false, Message: msg}
}

// NewValidation wraps per-field rule violations.
func NewValidation(fields map[string]string) *Envelope {
	return &Envelope{Success: false, Message: "Validation failed", Errors: fields}
}
