package llm

import "errors"

// Error code constants for standardized error handling across providers.
// Providers map their native errors to one of these codes; the relay maps
// the codes to HTTP error payloads without inspecting provider internals.
const (
	ErrCodeInvalidRequest = "bad_request"          // caller-supplied data failed validation
	ErrCodeTimeout        = "upstream_timeout"     // adapter call exceeded its deadline
	ErrCodeUnavailable    = "upstream_unavailable" // connection/transport failure to the provider
	ErrCodeProtocol       = "upstream_protocol"    // 2xx with an uninterpretable body, or an explicit upstream error field
)

// ProviderError represents a typed error from a chat completion backend.
// Use the IsXxx helpers below to classify errors without inspecting fields.
type ProviderError struct {
	Code    string // One of the ErrCode* constants.
	Message string // Human-readable description; safe to surface to clients.
	Err     error  // Underlying error (may be nil).
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a typed provider error.
func NewProviderError(code, message string, err error) *ProviderError {
	return &ProviderError{Code: code, Message: message, Err: err}
}

// IsInvalidRequestError reports whether err is a request validation failure.
func IsInvalidRequestError(err error) bool {
	return hasCode(err, ErrCodeInvalidRequest)
}

// IsTimeoutError reports whether err is an upstream timeout.
func IsTimeoutError(err error) bool {
	return hasCode(err, ErrCodeTimeout)
}

// IsUnavailableError reports whether err is a transport failure to the provider.
func IsUnavailableError(err error) bool {
	return hasCode(err, ErrCodeUnavailable)
}

// IsProtocolError reports whether err indicates an uninterpretable or
// explicitly erroneous upstream response.
func IsProtocolError(err error) bool {
	return hasCode(err, ErrCodeProtocol)
}

// Code returns the machine-readable error code for err, or an empty string
// if err carries no ProviderError.
func Code(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

func hasCode(err error, code string) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == code
}
