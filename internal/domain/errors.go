package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrNotFound               = errors.New("not found")
	ErrValidation             = errors.New("validation failed")
	ErrConflict               = errors.New("time slot conflict")
	ErrEditLock               = errors.New("booking is locked for schedule changes")
	ErrStateLock              = errors.New("booking is in a terminal state")
	ErrInternal               = errors.New("internal error")
)

func IsErrNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsErrValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsErrConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// Validationf wraps ErrValidation with a formatted reason.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// ConflictKind tells what a candidate slot collided with.
type ConflictKind string

const (
	ConflictWithBooking ConflictKind = "booking"
	ConflictWithBlock   ConflictKind = "block"
)

// Conflict describes one rejected instant.
type Conflict struct {
	Start     time.Time    `json:"start"`
	Kind      ConflictKind `json:"kind"`
	BookingID int64        `json:"booking_id,omitempty"`
	BlockID   int64        `json:"block_id,omitempty"`
	Title     string       `json:"title,omitempty"`
}

// ConflictError carries every conflicting instant of a mutation.
type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, c.Start.UTC().Format(time.RFC3339))
	}
	return fmt.Sprintf("%s: %s", ErrConflict, strings.Join(parts, ", "))
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// Instants returns the conflicting start times in order of detection.
func (e *ConflictError) Instants() []time.Time {
	out := make([]time.Time, len(e.Conflicts))
	for i, c := range e.Conflicts {
		out[i] = c.Start
	}
	return out
}
