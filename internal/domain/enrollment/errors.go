package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain error for the transport layer.
type ErrorKind string

const (
	KindNotFound       ErrorKind = "NOT_FOUND"
	KindConflict       ErrorKind = "CONFLICT"
	KindInfrastructure ErrorKind = "INFRASTRUCTURE"
)

// ErrorReason names the specific rule a submission violated.
type ErrorReason string

const (
	ReasonNoCohortBinding    ErrorReason = "no_cohort_binding"
	ReasonWindowClosed       ErrorReason = "window_closed"
	ReasonUnknownOffering    ErrorReason = "unknown_offering"
	ReasonDuplicateClassType ErrorReason = "duplicate_class_type"
	ReasonScheduleClash      ErrorReason = "schedule_clash"
	ReasonCapacityFull       ErrorReason = "capacity_full"
	ReasonStorage            ErrorReason = "storage"
)

// Error is the typed result for every expected rejection. OfferingIDs names
// the offending submitted offerings so a caller can highlight exactly what
// to fix without re-deriving the reason.
type Error struct {
	Kind        ErrorKind   `json:"kind"`
	Reason      ErrorReason `json:"reason"`
	Message     string      `json:"message"`
	OfferingIDs []int64     `json:"offering_ids,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NewNotFound builds a NOT_FOUND rejection.
func NewNotFound(reason ErrorReason, message string, offeringIDs ...int64) *Error {
	return &Error{Kind: KindNotFound, Reason: reason, Message: message, OfferingIDs: offeringIDs}
}

// NewConflict builds a CONFLICT rejection.
func NewConflict(reason ErrorReason, message string, offeringIDs ...int64) *Error {
	return &Error{Kind: KindConflict, Reason: reason, Message: message, OfferingIDs: offeringIDs}
}

// NewInfrastructure wraps a storage or environment fault. These are
// retryable by the caller and never carry structured offering detail.
func NewInfrastructure(message string, cause error) *Error {
	return &Error{Kind: KindInfrastructure, Reason: ReasonStorage, Message: message, cause: cause}
}

// AsError extracts a domain error from an error chain.
func AsError(err error) (*Error, bool) {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}

// IsNotFound reports whether err is a NOT_FOUND domain error.
func IsNotFound(err error) bool {
	if domainErr, ok := AsError(err); ok {
		return domainErr.Kind == KindNotFound
	}
	return false
}

// IsConflict reports whether err is a CONFLICT domain error.
func IsConflict(err error) bool {
	if domainErr, ok := AsError(err); ok {
		return domainErr.Kind == KindConflict
	}
	return false
}
