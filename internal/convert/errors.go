package convert

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-stable failure category reported to clients.
type ErrorKind string

const (
	KindValidation          ErrorKind = "validation_error"
	KindNotFound            ErrorKind = "not_found"
	KindLaunch              ErrorKind = "launch_error"
	KindExecution           ErrorKind = "execution_error"
	KindTimeout             ErrorKind = "timeout"
	KindArtifactNotProduced ErrorKind = "artifact_not_produced"
)

// ConversionError is a phase-aware error with a stable failure category.
// Phase identifies the conversion step that failed; the underlying cause
// is preserved for errors.Is / errors.As.
type ConversionError struct {
	Kind    ErrorKind
	Phase   string
	Message string
	Err     error
}

// Error formats conversion failures with the phase prefix.
func (e *ConversionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Phase, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Phase, e.Message, e.Err)
}

// Unwrap exposes the underlying error.
func (e *ConversionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf extracts the failure category from an error chain, defaulting to
// execution_error for untyped failures.
func KindOf(err error) ErrorKind {
	var convErr *ConversionError
	if errors.As(err, &convErr) {
		return convErr.Kind
	}
	return KindExecution
}
