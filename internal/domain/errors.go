package domain

import "errors"

// Failure kinds surfaced to callers as structured results.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrCaseNotFound = errors.New("case not found")
	ErrNotTriaged   = errors.New("case not triaged")
	ErrNoRoute      = errors.New("no route")
)

// Error codes reported in failure results.
const (
	CodeInvalidInput  = "INVALID_INPUT"
	CodeCaseNotFound  = "CASE_NOT_FOUND"
	CodeNotTriaged    = "NOT_TRIAGED"
	CodeNoRoute       = "NO_ROUTE"
	CodeInternalError = "INTERNAL_ERROR"
)

// Code maps an error to its failure code.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrCaseNotFound):
		return CodeCaseNotFound
	case errors.Is(err, ErrNotTriaged):
		return CodeNotTriaged
	case errors.Is(err, ErrNoRoute):
		return CodeNoRoute
	default:
		return CodeInternalError
	}
}

// Outcome is embedded in every operation result.
type Outcome struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

// OK returns a successful outcome.
func OK() Outcome {
	return Outcome{Success: true}
}

// Failure converts an error into a failure outcome.
func Failure(err error) Outcome {
	return Outcome{
		Success:   false,
		Error:     err.Error(),
		ErrorCode: Code(err),
	}
}
