// Package errs defines the structured failure shape shared by all domain-level
// errors in lattice.
//
// Failures fall into three families:
//
//   - Usage: caller misuse (missing id, nil query). Reported as *Error with
//     status 400 before any I/O happens.
//   - Domain: validation failures and not-found. Reported as *Error with
//     status 400/404 and field-level sub-errors.
//   - Infrastructure: store and driver faults. These propagate unwrapped in
//     whatever shape the driver produced; callers must branch with errors.As
//     rather than assume one shape.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotInitialized is returned by GetHandle when Initialize was never called.
	ErrNotInitialized = errors.New("lattice: not initialized")

	// ErrUnknownCollection is returned when no schema was registered under the
	// requested collection name.
	ErrUnknownCollection = errors.New("lattice: unknown collection")
)

// SubError carries field-level detail of a domain failure.
//
// Validation failures from Save populate PropertyPath; validation failures
// from Patch populate Params. Both shapes are part of the contract and
// downstream consumers key off them, so neither may be collapsed into the
// other.
type SubError struct {
	Message      string         `json:"message"`
	PropertyPath string         `json:"propertyPath,omitempty"`
	Params       map[string]any `json:"params,omitempty"`
}

// Error is the uniform domain failure: status code, status message and zero
// or more sub-errors.
type Error struct {
	StatusCode    int        `json:"statusCode"`
	StatusMessage string     `json:"statusMessage"`
	SubErrors     []SubError `json:"subErrors"`
}

func (e *Error) Error() string {
	if len(e.SubErrors) == 0 {
		return fmt.Sprintf("%d %s", e.StatusCode, e.StatusMessage)
	}
	return fmt.Sprintf("%d %s (%d sub-errors)", e.StatusCode, e.StatusMessage, len(e.SubErrors))
}

// BadRequest reports caller misuse.
func BadRequest(msg string) *Error {
	return &Error{StatusCode: http.StatusBadRequest, StatusMessage: msg}
}

// NotFound reports that no document matched the operation's filter.
func NotFound(msg string) *Error {
	return &Error{StatusCode: http.StatusNotFound, StatusMessage: msg}
}

// Validation reports one or more schema violations.
func Validation(msg string, subs []SubError) *Error {
	return &Error{StatusCode: http.StatusBadRequest, StatusMessage: msg, SubErrors: subs}
}

// AsDomain returns the *Error inside err, or nil when err belongs to the
// infrastructure family.
func AsDomain(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
