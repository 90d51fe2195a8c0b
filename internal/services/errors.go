// Package services defines the business logic of the record lifecycle
// engine. This file centralizes common service-level error values so that
// they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing messages or HTTP status codes is performed at
// the handler layer. None of them is retriable: callers must resubmit with
// corrected data. Storage-level failures are passed through untouched and
// are the only kind a caller should consider retrying.
package services

import (
	"errors"
	"fmt"

	"github.com/tbourn/go-demonlist-backend/internal/domain"
)

var (
	// ErrRecordNotFound indicates that the requested record does not exist.
	ErrRecordNotFound = errors.New("record not found")

	// ErrDemonNotFound indicates that the referenced demon is not on the list.
	// Demons are never created implicitly by a submission.
	ErrDemonNotFound = errors.New("demon not found")

	// ErrPlayerNameEmpty is returned when a submission carries no player name
	// after normalization.
	ErrPlayerNameEmpty = errors.New("player name must not be empty")

	// ErrPlayerBanned is returned when the target player is banned and may
	// not receive new records.
	ErrPlayerBanned = errors.New("player is banned")

	// ErrSubmitterBanned is returned when the submitting client is banned.
	ErrSubmitterBanned = errors.New("submitter is banned")

	// ErrInvalidProgress is returned when progress lies outside
	// [demon.Requirement, 100].
	ErrInvalidProgress = errors.New("progress must lie between the demon's requirement and 100")

	// ErrInvalidStatus is returned when a request names an unknown record
	// status.
	ErrInvalidStatus = errors.New("unknown record status")

	// ErrStatusNotPermitted is returned when the caller's privilege level
	// does not allow the requested status (creating anything but "submitted",
	// or moving a record between buckets, requires moderator privileges).
	ErrStatusNotPermitted = errors.New("setting this status requires moderator privileges")

	// ErrVideoRequired is returned when an ordinary submission carries no
	// video. Only moderator-originated records may omit the proof link.
	ErrVideoRequired = errors.New("submissions must include a video")

	// ErrLegacyDemon is returned when an ordinary caller submits onto a
	// demon that has fallen off the extended list.
	ErrLegacyDemon = errors.New("the legacy list does not accept new records")

	// ErrExtendedRequires100 is returned when an ordinary caller submits a
	// partial completion onto an extended-list demon.
	ErrExtendedRequires100 = errors.New("only 100% records are accepted on the extended list")
)

// DuplicateSubmissionError reports that the dedup scan matched an existing
// record: same video, a rejected (player, demon) pairing, or a non-dominated
// record in a conflicting bucket. It carries the existing record so the
// caller can point at what blocked them (the caller submitted it, so this
// leaks nothing).
type DuplicateSubmissionError struct {
	ExistingID     int
	ExistingStatus domain.RecordStatus
}

// Error implements the error interface.
func (e *DuplicateSubmissionError) Error() string {
	return fmt.Sprintf("a record for this player and demon already exists (id %d, status %q)",
		e.ExistingID, e.ExistingStatus)
}
