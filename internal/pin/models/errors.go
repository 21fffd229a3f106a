package models

import "fmt"

// StoreError is the failure shape reported by the allocation state store.
// The orchestrator treats it as opaque beyond its message.
type StoreError struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
	Code    string `json:"code,omitempty"`
	Err     error  `json:"-"`
}

func (e *StoreError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (code %s)", e.Message, e.Code)
	}
	return e.Message
}

func (e *StoreError) Unwrap() error { return e.Err }
