/*
errors.go - Centralized error types for the rotation engine

PURPOSE:
  All core error values in one place. Rejected operations return these and
  leave group state untouched; the API layer maps them to HTTP statuses.

ERROR CATEGORIES:
  1. Configuration errors - Invalid schedule input at the boundary
  2. Rejection errors - Locked schedules and already-closed turns
  3. Data errors - Malformed persisted groups

USAGE:
  if errors.Is(err, rotation.ErrScheduleLocked) {
      // surface as a user-facing refusal, not a crash
  }

SEE ALSO:
  - assignment.go: Returns the rejection errors
  - store.go: Returns ErrGroupNotFound
*/
package rotation

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidConfiguration is returned for schedule settings that fail
	// boundary validation (negative quota, unknown frequency, turn < 1).
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrScheduleLocked is returned when a structural turn operation is
	// attempted while the schedule order is locked. State is unchanged.
	ErrScheduleLocked = errors.New("schedule order is locked")

	// ErrTurnClosed is returned when an operation targets a turn that has
	// already passed (turn number below the current turn). Closed turns are
	// history and cannot be reordered, reassigned, or deleted.
	ErrTurnClosed = errors.New("turn already closed")

	// ErrShuffleUnavailable is returned when shuffling after the rotation has
	// started. Shuffle is only meaningful while the current turn is 1.
	ErrShuffleUnavailable = errors.New("shuffle unavailable once rotation started")

	// ErrEntityNotFound is returned when a participant ID is not in the group.
	ErrEntityNotFound = errors.New("participant not found")

	// ErrGroupNotFound is returned by stores for unknown group IDs.
	ErrGroupNotFound = errors.New("group not found")

	// ErrInvalidTurn is returned for turn numbers outside 1..N.
	ErrInvalidTurn = errors.New("turn number out of range")

	// ErrMemberIndexOutOfRange is returned for per-member payment toggles
	// addressing a member the entity does not have.
	ErrMemberIndexOutOfRange = errors.New("member index out of range")

	// ErrMalformedEntity is returned when persisted data violates the
	// type/member-count pairing (e.g., a "shared" entity with one member).
	ErrMalformedEntity = errors.New("malformed participant data")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ClosedTurnError reports which turn blocked a structural operation.
type ClosedTurnError struct {
	EntityID    string
	TurnNumber  int
	CurrentTurn int
}

func (e *ClosedTurnError) Error() string {
	return fmt.Sprintf("turn %d for participant %s already closed (current turn %d)",
		e.TurnNumber, e.EntityID, e.CurrentTurn)
}

func (e *ClosedTurnError) Unwrap() error { return ErrTurnClosed }

// ContiguityError reports a broken turn-number permutation in loaded data.
type ContiguityError struct {
	GroupID string
	Turns   []int
}

func (e *ContiguityError) Error() string {
	return fmt.Sprintf("group %s turn numbers %v are not a contiguous 1..N permutation", e.GroupID, e.Turns)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRejection reports whether the error is a policy refusal (locked schedule,
// closed turn, shuffle after start) rather than a failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrScheduleLocked) ||
		errors.Is(err, ErrTurnClosed) ||
		errors.Is(err, ErrShuffleUnavailable)
}

// IsNotFound reports whether the error indicates a missing group or participant.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrGroupNotFound) || errors.Is(err, ErrEntityNotFound)
}
