package errors

import (
	stderrors "errors"
	"fmt"
)

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stderrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	var nfe *NotFoundError
	if stderrors.As(err, &nfe) {
		return nfe, true
	}
	return nil, false
}

// DuplicateKeyError is returned when a create loses to an existing order with the same key.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("order %q already exists", e.Key)
}

func NewDuplicateKeyError(key string) *DuplicateKeyError {
	return &DuplicateKeyError{Key: key}
}

func IsDuplicateKeyError(err error) (*DuplicateKeyError, bool) {
	var de *DuplicateKeyError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

type TransitionRejectedError struct {
	From   string
	To     string
	Reason string
}

func (e *TransitionRejectedError) Error() string {
	return fmt.Sprintf("transition %s -> %s rejected: %s", e.From, e.To, e.Reason)
}

func NewTransitionRejectedError(from, to, reason string) *TransitionRejectedError {
	return &TransitionRejectedError{From: from, To: to, Reason: reason}
}

func IsTransitionRejectedError(err error) (*TransitionRejectedError, bool) {
	var te *TransitionRejectedError
	if stderrors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// ClassificationFailedError marks extractor output that could not be turned into a document.
type ClassificationFailedError struct {
	Message string
	Cause   error
}

func (e *ClassificationFailedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("classification failed: %s: %v", e.Message, e.Cause)
	}
	return "classification failed: " + e.Message
}

func (e *ClassificationFailedError) Unwrap() error {
	return e.Cause
}

func NewClassificationFailedError(message string, cause error) *ClassificationFailedError {
	return &ClassificationFailedError{Message: message, Cause: cause}
}

func IsClassificationFailedError(err error) (*ClassificationFailedError, bool) {
	var ce *ClassificationFailedError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// TransientIOError wraps failures to reach a collaborator (network, timeout).
// Callers may retry the same input later.
type TransientIOError struct {
	Message string
	Cause   error
}

func (e *TransientIOError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *TransientIOError) Unwrap() error {
	return e.Cause
}

func NewTransientIOError(message string, cause error) *TransientIOError {
	return &TransientIOError{Message: message, Cause: cause}
}

func IsTransientIOError(err error) (*TransientIOError, bool) {
	var te *TransientIOError
	if stderrors.As(err, &te) {
		return te, true
	}
	return nil, false
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}
