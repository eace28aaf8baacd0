package exchange

import (
	"errors"
	"fmt"
)

// FailureKind buckets submission failures for exit-code mapping and logging.
type FailureKind string

const (
	FailureValidation FailureKind = "VALIDATION"
	FailureNetwork    FailureKind = "NETWORK"
	FailureAPI        FailureKind = "API"
	FailureUnexpected FailureKind = "UNEXPECTED"
)

// Failure is the typed error surfaced by the submission pipeline.
type Failure struct {
	Kind       FailureKind
	Message    string
	StatusCode int   // HTTP status, 0 when not applicable
	Code       int64 // exchange error code, 0 when absent
	Attempts   int   // attempts performed before giving up
	Exhausted  bool  // true when the retry budget was spent
}

func (f *Failure) Error() string {
	switch {
	case f.StatusCode != 0 && f.Code != 0:
		return fmt.Sprintf("HTTP %d code %d: %s", f.StatusCode, f.Code, f.Message)
	case f.StatusCode != 0:
		return fmt.Sprintf("HTTP %d: %s", f.StatusCode, f.Message)
	default:
		return f.Message
	}
}

// Validationf builds a validation failure.
func Validationf(format string, a ...any) *Failure {
	return &Failure{Kind: FailureValidation, Message: fmt.Sprintf(format, a...)}
}

// Unexpectedf builds a failure for conditions the pipeline cannot classify.
func Unexpectedf(format string, a ...any) *Failure {
	return &Failure{Kind: FailureUnexpected, Message: fmt.Sprintf(format, a...)}
}

// AsFailure unwraps err to a *Failure when the chain contains one.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
