// Package apperr defines the typed domain errors surfaced by the comparison
// pipeline. Every error carries a stable machine-readable code and a details
// map with field-specific context, so callers can branch without string
// matching.
package apperr

import (
	"errors"
	"fmt"
)

// Code is a stable machine-readable error code.
type Code string

const (
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeBusinessData     Code = "BUSINESS_DATA_ERROR"
	CodeExternalAPI      Code = "EXTERNAL_API_ERROR"
	CodeLLMService       Code = "LLM_SERVICE_ERROR"
	CodeRateLimit        Code = "RATE_LIMIT_ERROR"
	CodeInsufficientData Code = "INSUFFICIENT_DATA"
)

// Error is a typed domain error.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches two Errors by code so errors.Is(err, &Error{Code: ...}) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// As extracts an *Error from err's chain, or nil if none is present.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// HasCode reports whether err's chain contains an *Error with the given code.
func HasCode(err error, code Code) bool {
	e := As(err)
	return e != nil && e.Code == code
}

// Validation builds a validation error for a named input field.
func Validation(field, message string) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: fmt.Sprintf("validation error for %s: %s", field, message),
		Details: map[string]any{"field": field},
	}
}

// BusinessData wraps a provider failure for a given business identifier.
func BusinessData(identifier string, cause error) *Error {
	return &Error{
		Code:    CodeBusinessData,
		Message: fmt.Sprintf("could not fetch business data for %q: %v", identifier, cause),
		Details: map[string]any{"identifier": identifier},
		cause:   cause,
	}
}

// ExternalAPI marks a failure from an external data backend.
func ExternalAPI(provider, message string) *Error {
	return &Error{
		Code:    CodeExternalAPI,
		Message: fmt.Sprintf("external API error from %s: %s", provider, message),
		Details: map[string]any{"provider": provider},
	}
}

// LLMService wraps an outright generative-backend failure. Parse failures
// never reach here; those degrade inside the LLM provider.
func LLMService(provider string, cause error) *Error {
	return &Error{
		Code:    CodeLLMService,
		Message: fmt.Sprintf("LLM service error from %s: %v", provider, cause),
		Details: map[string]any{"provider": provider},
		cause:   cause,
	}
}

// RateLimit marks upstream throttling. The transport layer may retry it;
// once retries exhaust it surfaces wrapped in an LLMService or ExternalAPI
// error.
func RateLimit(provider string) *Error {
	return &Error{
		Code:    CodeRateLimit,
		Message: fmt.Sprintf("rate limit exceeded for %s", provider),
		Details: map[string]any{"provider": provider},
	}
}

// InsufficientData is reserved for comparisons with too few competitors to
// be meaningful. Nothing raises it automatically yet; it exists so callers
// can branch on the code.
func InsufficientData(message string, minCompetitors int) *Error {
	return &Error{
		Code:    CodeInsufficientData,
		Message: message,
		Details: map[string]any{"min_competitors": minCompetitors},
	}
}
