// domain/errors.go
package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrNotFound               = errors.New("not found")
	ErrNotReady               = errors.New("video is not ready to be published")
	ErrPublishFailed          = errors.New("publish failed")
	ErrUpstream               = errors.New("upstream provider error")
	ErrVersionConflict        = errors.New("record version conflict")
	ErrTranscriptNotCompleted = errors.New("transcription not completed")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrUnauthorized           = errors.New("unauthorized")
)

// StoreError is the only error kind returned by record store implementations.
type StoreError struct {
	Op         string
	Table      string
	UUID       string
	StatusCode int
	Err        error
}

func (e *StoreError) Error() string {
	msg := fmt.Sprintf("failed to %s record in %s", e.Op, e.Table)
	if e.UUID != "" {
		msg += " with UUID " + e.UUID
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrVersionConflict:
		return e.StatusCode == http.StatusPreconditionFailed
	case ErrUpstream:
		return true
	}
	return false
}

// Validationf builds an ErrValidation carrying a client-facing message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
