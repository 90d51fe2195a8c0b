// Submission and status policies. Status is an open enum; which values a
// caller may set is privilege-dependent and kept here as small, separately
// testable functions rather than baked into the type.
package services

import (
	"strings"

	"github.com/tbourn/go-demonlist-backend/internal/domain"
)

// CanCreateWithStatus reports whether a caller may create a record directly
// in the given status. Ordinary submitters always start in "submitted";
// moderators may add records out-of-band in any state.
func CanCreateWithStatus(privileged bool, status domain.RecordStatus) bool {
	if !status.Valid() {
		return false
	}
	return privileged || status == domain.StatusSubmitted
}

// CanSetStatus reports whether a caller may move a record from one status to
// another via patch. Any transition is open to moderators; ordinary callers
// may not change the bucket at all.
func CanSetStatus(privileged bool, from, to domain.RecordStatus) bool {
	if !to.Valid() {
		return false
	}
	return privileged || from == to
}

// checkSubmissionPolicy applies the tier gates that are independent of
// dedup. Ordering matters: these run after the banned/requirement checks and
// before the dedup scan.
func (s *RecordService) checkSubmissionPolicy(demon *domain.Demon, progress int, hasVideo, privileged bool) error {
	if !hasVideo && !privileged {
		return ErrVideoRequired
	}
	if demon.Position > s.ExtendedListSize && !privileged {
		return ErrLegacyDemon
	}
	if demon.Position > s.ListSize && progress != 100 && !privileged {
		return ErrExtendedRequires100
	}
	return nil
}

// normalizeName trims a submitted name and collapses internal whitespace so
// lookups treat " Alice  B " and "Alice B" as the same identity.
func normalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
