package ir

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeInvalidIdentity indicates a judge name that normalizes to nothing usable.
	ErrCodeInvalidIdentity ErrorCode = "INVALID_IDENTITY"

	// ErrCodeUnknownEntry indicates an entry ID missing from the catalog.
	ErrCodeUnknownEntry ErrorCode = "UNKNOWN_ENTRY"

	// ErrCodeInvalidScore indicates an unknown criterion or a score outside [1,5].
	ErrCodeInvalidScore ErrorCode = "INVALID_SCORE"

	// ErrCodeIncomplete indicates a final submission with unscored entries.
	ErrCodeIncomplete ErrorCode = "INCOMPLETE_EVALUATION"

	// ErrCodeStorageIO indicates the persistence layer failed. Data may not be durable.
	ErrCodeStorageIO ErrorCode = "STORAGE_IO"
)

// Error is the typed error returned by engine operations.
//
// Validation codes mean the caller must fix its input. ErrCodeStorageIO means
// the operation may be retried; the engine itself never retries.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Judge, EntryID and CriterionID locate the failure when known.
	Judge       string
	EntryID     int
	CriterionID string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Judge != "" {
		msg += fmt.Sprintf(" (judge=%s", e.Judge)
		if e.EntryID != 0 {
			msg += fmt.Sprintf(", entry=%d", e.EntryID)
		}
		msg += ")"
	} else if e.EntryID != 0 {
		msg += fmt.Sprintf(" (entry=%d)", e.EntryID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Locate fills in judge and entry on the first *Error in err's chain and
// returns err. Other errors are returned unchanged.
func Locate(err error, judge string, entryID int) error {
	var e *Error
	if errors.As(err, &e) {
		e.Judge = judge
		e.EntryID = entryID
	}
	return err
}

// IsValidation reports whether err is an input error the caller must fix.
func IsValidation(err error) bool {
	switch CodeOf(err) {
	case ErrCodeInvalidIdentity, ErrCodeUnknownEntry, ErrCodeInvalidScore, ErrCodeIncomplete:
		return true
	}
	return false
}

// IsStorage reports whether err is a persistence failure.
func IsStorage(err error) bool {
	return CodeOf(err) == ErrCodeStorageIO
}

// NewInvalidIdentity creates an Error for a rejected judge name.
func NewInvalidIdentity(raw, reason string) *Error {
	return &Error{
		Code:    ErrCodeInvalidIdentity,
		Message: fmt.Sprintf("invalid judge name %q: %s", raw, reason),
	}
}

// NewUnknownEntry creates an Error for an entry ID not in the catalog.
func NewUnknownEntry(judge string, entryID int) *Error {
	return &Error{
		Code:    ErrCodeUnknownEntry,
		Message: fmt.Sprintf("entry %d is not in the catalog", entryID),
		Judge:   judge,
		EntryID: entryID,
	}
}

// NewInvalidScore creates an Error for a bad criterion key or score value.
func NewInvalidScore(criterionID string, score int, reason string) *Error {
	return &Error{
		Code:        ErrCodeInvalidScore,
		Message:     fmt.Sprintf("%s=%d: %s", criterionID, score, reason),
		CriterionID: criterionID,
	}
}

// NewIncomplete creates an Error for a premature final submission.
func NewIncomplete(p Progress) *Error {
	return &Error{
		Code:    ErrCodeIncomplete,
		Message: fmt.Sprintf("%d of %d entries complete", p.Completed, p.Total),
		Judge:   p.Judge,
	}
}

// WrapStorage wraps a persistence failure. Returns nil if err is nil.
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    ErrCodeStorageIO,
		Message: op,
		Err:     err,
	}
}
