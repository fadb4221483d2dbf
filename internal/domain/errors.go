package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStaleEntitlement marks a missing or unparsable premium expiry.
	// It is always treated as expired.
	ErrStaleEntitlement = errors.New("stale entitlement")
	ErrReminderNotFound = errors.New("reminder not found")
	ErrAlreadyDelivered = errors.New("reminder already delivered")
)

// ReasonNotFuture is the ValidationError reason for a moment that is not
// strictly after now.
const ReasonNotFuture = "not in the future"

// ValidationError is malformed or out-of-range user input. The dialog
// re-prompts and keeps its state.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CapacityExceededError is a quota or cap refusal shown to the user.
type CapacityExceededError struct {
	Feature Feature
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("free limit reached for %s", e.Feature)
}

// CorruptStoreError is returned when persisted records cannot be decoded.
type CorruptStoreError struct {
	IDs []string
	Err error
}

func (e *CorruptStoreError) Error() string {
	if len(e.IDs) == 0 {
		return fmt.Sprintf("corrupt store: %v", e.Err)
	}
	return fmt.Sprintf("corrupt store (records %s): %v", strings.Join(e.IDs, ","), e.Err)
}

func (e *CorruptStoreError) Unwrap() error { return e.Err }

// PersistenceError wraps a failed snapshot write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }
