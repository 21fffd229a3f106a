package models

import "time"

// PoolStats summarizes the persisted universe by state.
type PoolStats struct {
	Total       int `json:"total"`
	Unallocated int `json:"unallocated"`
	Allocated   int `json:"allocated"`
	NotAllowed  int `json:"not_allowed"`
	// AllowedPool is every code that can ever be served (Total - NotAllowed).
	AllowedPool int `json:"allowed_pool"`
}

// CountStates tallies pins by state.
func CountStates(pins []*PIN) PoolStats {
	var st PoolStats
	for _, p := range pins {
		st.Total++
		switch p.State {
		case StateUnallocated:
			st.Unallocated++
		case StateAllocated:
			st.Allocated++
		case StateNotAllowed:
			st.NotAllowed++
		}
	}
	st.AllowedPool = st.Total - st.NotAllowed
	return st
}

// BootstrapReport records what session start-up had to do.
type BootstrapReport struct {
	Inserted    int       `json:"inserted"`
	Classified  int       `json:"classified"`
	Skipped     bool      `json:"classification_skipped"`
	AllowedPool int       `json:"allowed_pool"`
	CompletedAt time.Time `json:"completed_at"`
}
