package models

// State is the allocation state of a PIN. Values match the integers persisted
// by the original data store and must not be renumbered.
type State int

const (
	StateUnallocated State = 0
	StateAllocated   State = 1
	StateNotAllowed  State = 2
)

func (s State) String() string {
	switch s {
	case StateUnallocated:
		return "unallocated"
	case StateAllocated:
		return "allocated"
	case StateNotAllowed:
		return "not_allowed"
	default:
		return "unknown"
	}
}

func (s State) IsValid() bool {
	return s == StateUnallocated || s == StateAllocated || s == StateNotAllowed
}

// CanTransitionTo encodes the record state machine:
//
//	Unallocated -> Allocated    (served to a requester)
//	Allocated   -> Unallocated  (rollover)
//	Unallocated -> NotAllowed   (one-time classification)
//
// NotAllowed is terminal.
func (s State) CanTransitionTo(next State) bool {
	switch s {
	case StateUnallocated:
		return next == StateAllocated || next == StateNotAllowed
	case StateAllocated:
		return next == StateUnallocated
	default:
		return false
	}
}
