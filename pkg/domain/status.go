package domain

import "fmt"

// RecordStatus is the lifecycle state of a record. Transitions are monotone:
// draft -> classified -> {approved, rejected}. Approved and rejected are
// terminal; rejection is a status, never a deletion, because the audit trail
// must survive the statutory retention period.
type RecordStatus string

const (
	StatusDraft      RecordStatus = "draft"
	StatusClassified RecordStatus = "classified"
	StatusApproved   RecordStatus = "approved"
	StatusRejected   RecordStatus = "rejected"
)

var statusTransitions = map[RecordStatus][]RecordStatus{
	StatusDraft:      {StatusClassified, StatusRejected},
	StatusClassified: {StatusApproved, StatusRejected},
	StatusApproved:   {},
	StatusRejected:   {},
}

// ParseRecordStatus validates a status string against the known set.
func ParseRecordStatus(s string) (RecordStatus, error) {
	st := RecordStatus(s)
	if _, ok := statusTransitions[st]; !ok {
		return "", fmt.Errorf("unknown record status: %q", s)
	}
	return st, nil
}

// CanTransitionTo reports whether the ordered state machine permits moving
// from the receiver to the target status.
func (s RecordStatus) CanTransitionTo(to RecordStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are permitted.
func (s RecordStatus) Terminal() bool {
	return len(statusTransitions[s]) == 0
}

func (s RecordStatus) String() string { return string(s) }
