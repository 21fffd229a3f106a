package models

import (
	"fmt"
	"strconv"
)

// CodeLength is the fixed width of every PIN code.
const CodeLength = 4

// Code is a 4-digit PIN, always left-zero-padded ("0007").
type Code string

// ParseCode validates s as exactly four ASCII digits.
func ParseCode(s string) (Code, error) {
	if len(s) != CodeLength {
		return "", fmt.Errorf("pin code must be %d digits, got %q", CodeLength, s)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return "", fmt.Errorf("pin code must contain only digits, got %q", s)
		}
	}
	return Code(s), nil
}

// CodeFromInt formats n (0..9999) as a zero-padded code.
func CodeFromInt(n int) (Code, error) {
	if n < 0 || n > 9999 {
		return "", fmt.Errorf("pin value %d out of range", n)
	}
	return Code(fmt.Sprintf("%04d", n)), nil
}

// Digits returns the numeric value of each position.
// The code must already be valid.
func (c Code) Digits() [CodeLength]int {
	var d [CodeLength]int
	for i := 0; i < CodeLength; i++ {
		d[i] = int(c[i] - '0')
	}
	return d
}

// Int returns the numeric value of the code.
func (c Code) Int() int {
	n, _ := strconv.Atoi(string(c))
	return n
}

func (c Code) String() string { return string(c) }

// PIN is one record of the universe.
//
// Invariants:
//   - Code is unique across the store and exactly CodeLength digits
//   - ID is assigned by the store on insert and never changes
//   - State follows the transitions encoded in State.CanTransitionTo
type PIN struct {
	ID    string `json:"id,omitempty"`
	Code  Code   `json:"pin"`
	State State  `json:"state"`
}

// Clone returns an independent copy, used by stores that must not leak
// internal pointers.
func (p *PIN) Clone() *PIN {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// Codes extracts codes from pins, preserving order.
func Codes(pins []*PIN) []Code {
	out := make([]Code, 0, len(pins))
	for _, p := range pins {
		out = append(out, p.Code)
	}
	return out
}
