// Package types defines the gateway error taxonomy and response shapes
// shared across the admission, proxy and recording pipeline.
package types

import (
	"encoding/json"
	"net/http"
	"time"
)

// TimestampLayout is the UTC timestamp format used in every error body
// and usage record.
const TimestampLayout = "2006-01-02 15:04:05"

// ErrorKind classifies a pipeline failure.
type ErrorKind string

const (
	KindAuthentication    ErrorKind = "authentication"
	KindValidation        ErrorKind = "validation"
	KindQuotaExceeded     ErrorKind = "quota_exceeded"
	KindRateLimited       ErrorKind = "rate_limited"
	KindUpstreamTransport ErrorKind = "upstream_transport"
	KindUpstreamTimeout   ErrorKind = "upstream_timeout"
	KindUpstreamResponse  ErrorKind = "upstream_response"
)

// GatewayError is a pipeline failure with enough structured context for the
// boundary layer to render a response. No failure is retried automatically.
type GatewayError struct {
	Kind    ErrorKind
	Message string

	// Context fields, populated per kind.
	WPUserID          string              // auth, rate limit, upstream failures
	RemainingTokens   int64               // quota
	EstimatedRequired int64               // quota
	Details           map[string][]string // validation

	// UpstreamStatus carries a status read off a failed upstream exchange.
	// Zero means no upstream status is available.
	UpstreamStatus int
}

func (e *GatewayError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// HTTPStatus maps the error kind to the response status code.
func (e *GatewayError) HTTPStatus() int {
	switch e.Kind {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindQuotaExceeded:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUpstreamTransport, KindUpstreamTimeout, KindUpstreamResponse:
		if e.UpstreamStatus >= 400 {
			return e.UpstreamStatus
		}
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// ErrAuthentication creates an authentication error (401).
func ErrAuthentication(message string) *GatewayError {
	return &GatewayError{Kind: KindAuthentication, Message: message}
}

// ErrValidation creates a validation error (422) with field-level details.
func ErrValidation(message string, details map[string][]string) *GatewayError {
	return &GatewayError{Kind: KindValidation, Message: message, Details: details}
}

// ErrQuotaExceeded creates a quota error (403) carrying the remaining budget
// and the estimate that exceeded it.
func ErrQuotaExceeded(remaining, estimated int64) *GatewayError {
	return &GatewayError{
		Kind:              KindQuotaExceeded,
		Message:           "Insufficient tokens",
		RemainingTokens:   remaining,
		EstimatedRequired: estimated,
	}
}

// ErrRateLimited creates a rate limit error (429).
func ErrRateLimited() *GatewayError {
	return &GatewayError{Kind: KindRateLimited, Message: "Rate limit exceeded"}
}

// ErrUpstreamTransport creates a transport failure error.
func ErrUpstreamTransport(message string) *GatewayError {
	return &GatewayError{Kind: KindUpstreamTransport, Message: message}
}

// ErrUpstreamTimeout creates a timeout error, distinct from generic
// transport failure.
func ErrUpstreamTimeout(message string) *GatewayError {
	return &GatewayError{Kind: KindUpstreamTimeout, Message: message}
}

// ErrUpstreamResponse creates an invalid-upstream-body error.
func ErrUpstreamResponse(message string) *GatewayError {
	return &GatewayError{Kind: KindUpstreamResponse, Message: message}
}

// WriteError renders a GatewayError as the shared JSON error body:
// {"error": ..., "timestamp_utc": ..., <context fields>}.
func WriteError(w http.ResponseWriter, e *GatewayError) {
	body := map[string]any{
		"error":         e.Message,
		"timestamp_utc": time.Now().UTC().Format(TimestampLayout),
	}

	switch e.Kind {
	case KindQuotaExceeded:
		body["remaining_tokens"] = e.RemainingTokens
		body["estimated_required"] = e.EstimatedRequired
	case KindValidation:
		if e.Details != nil {
			body["details"] = e.Details
		}
	}
	if e.WPUserID != "" && e.Kind != KindQuotaExceeded && e.Kind != KindValidation {
		body["wp_user_id"] = e.WPUserID
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.HTTPStatus())
	_ = json.NewEncoder(w).Encode(body)
}

// WriteInternalError renders an unclassified failure as a 500 with the
// shared error body shape.
func WriteInternalError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":         message,
		"timestamp_utc": time.Now().UTC().Format(TimestampLayout),
	})
}
