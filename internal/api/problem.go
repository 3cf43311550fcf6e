// Package api holds the wire-level conventions shared by every HTTP handler
// package: the RFC 7807 problem response with a stable machine-readable kind,
// and the translation from internal error values to HTTP statuses.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/whuclubsynapse/synapse-ai/internal/extract"
	"github.com/whuclubsynapse/synapse-ai/pkg/llm"
)

// Problem types for RFC 7807 Problem Details responses.
const (
	ProblemTypeNotFound    = "https://synapse.whuclub.com/problems/not-found"
	ProblemTypeBadRequest  = "https://synapse.whuclub.com/problems/bad-request"
	ProblemTypeInternal    = "https://synapse.whuclub.com/problems/internal-error"
	ProblemTypeUpstream    = "https://synapse.whuclub.com/problems/upstream-error"
	ProblemTypeExtraction  = "https://synapse.whuclub.com/problems/extraction-error"
	ProblemTypeRateLimited = "https://synapse.whuclub.com/problems/rate-limited"
)

// Error kinds carried in every problem response. Clients branch on Kind, not
// on Detail text, so these values are part of the API contract.
const (
	KindBadRequest       = "bad_request"
	KindTimeout          = "upstream_timeout"
	KindUnavailable      = "upstream_unavailable"
	KindProtocol         = "upstream_protocol"
	KindUnparsableOutput = "unparsable_output"
	KindSchemaViolation  = "schema_violation"
	KindNotFound         = "not_found"
	KindRateLimited      = "rate_limited"
	KindInternal         = "internal"
)

// Problem is an RFC 7807 Problem Details response extended with Kind.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Kind     string `json:"kind"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// WriteProblem writes an RFC 7807 Problem Details JSON response.
func WriteProblem(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// NotFound writes a 404 problem response.
func NotFound(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Kind:     KindNotFound,
		Detail:   detail,
		Instance: instance,
	})
}

// BadRequest writes a 400 problem response.
func BadRequest(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeBadRequest,
		Title:    "Bad Request",
		Status:   http.StatusBadRequest,
		Kind:     KindBadRequest,
		Detail:   detail,
		Instance: instance,
	})
}

// InternalError writes a 500 problem response.
func InternalError(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Kind:     KindInternal,
		Detail:   detail,
		Instance: instance,
	})
}

// RateLimited writes a 429 problem response.
func RateLimited(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeRateLimited,
		Title:    "Too Many Requests",
		Status:   http.StatusTooManyRequests,
		Kind:     KindRateLimited,
		Detail:   detail,
		Instance: instance,
	})
}

// Classify maps an internal error value to the problem kind and HTTP status
// it should surface as.
func Classify(err error) (kind string, status int) {
	var se *extract.SchemaError
	switch {
	case llm.IsInvalidRequestError(err):
		return KindBadRequest, http.StatusBadRequest
	case llm.IsTimeoutError(err):
		return KindTimeout, http.StatusGatewayTimeout
	case llm.IsUnavailableError(err):
		return KindUnavailable, http.StatusBadGateway
	case llm.IsProtocolError(err):
		return KindProtocol, http.StatusBadGateway
	case errors.Is(err, extract.ErrUnparsable):
		return KindUnparsableOutput, http.StatusBadGateway
	case errors.As(err, &se):
		return KindSchemaViolation, http.StatusBadGateway
	default:
		return KindInternal, http.StatusInternalServerError
	}
}

// WriteError classifies err and writes the matching problem response.
func WriteError(w http.ResponseWriter, err error, instance string) {
	kind, status := Classify(err)

	p := Problem{
		Status:   status,
		Kind:     kind,
		Detail:   err.Error(),
		Instance: instance,
	}
	switch kind {
	case KindBadRequest:
		p.Type = ProblemTypeBadRequest
		p.Title = "Bad Request"
	case KindUnparsableOutput, KindSchemaViolation:
		p.Type = ProblemTypeExtraction
		p.Title = "Bad Gateway"
	case KindTimeout:
		p.Type = ProblemTypeUpstream
		p.Title = "Gateway Timeout"
	case KindUnavailable, KindProtocol:
		p.Type = ProblemTypeUpstream
		p.Title = "Bad Gateway"
	default:
		p.Type = ProblemTypeInternal
		p.Title = "Internal Server Error"
		// Internal detail stays in the logs, not on the wire.
		p.Detail = "an unexpected error occurred"
	}

	WriteProblem(w, p)
}

// RespondJSON writes v as a JSON response with the given status.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
