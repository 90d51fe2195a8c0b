// Record status enum. The set of values is closed, but which transitions are
// legal depends on caller privilege and lives in the services policy layer,
// not here.
package domain

// RecordStatus is the lifecycle state of a record. It is stored as its
// lowercase string form.
type RecordStatus string

// The four record states. There is no structural transition table; a
// privileged patch may set any of them.
const (
	StatusSubmitted          RecordStatus = "submitted"
	StatusUnderConsideration RecordStatus = "under consideration"
	StatusApproved           RecordStatus = "approved"
	StatusRejected           RecordStatus = "rejected"
)

// Valid reports whether s is one of the four known states.
func (s RecordStatus) Valid() bool {
	switch s {
	case StatusSubmitted, StatusUnderConsideration, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ParseRecordStatus maps a request string onto a RecordStatus, reporting
// whether the value was recognized. The empty string is not a status; callers
// apply their own default.
func ParseRecordStatus(s string) (RecordStatus, bool) {
	st := RecordStatus(s)
	return st, st.Valid()
}
