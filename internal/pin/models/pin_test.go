package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCode(t *testing.T) {
	valid := []string{"0000", "0007", "1234", "9999"}
	for _, s := range valid {
		c, err := ParseCode(s)
		require.NoError(t, err, s)
		assert.Equal(t, Code(s), c)
	}

	invalid := []string{"", "123", "12345", "12a4", " 123", "-123", "١٢٣٤"}
	for _, s := range invalid {
		_, err := ParseCode(s)
		assert.Error(t, err, "%q should be rejected", s)
	}
}

func TestCodeFromInt(t *testing.T) {
	c, err := CodeFromInt(7)
	require.NoError(t, err)
	assert.Equal(t, Code("0007"), c)
	assert.Equal(t, 7, c.Int())
	assert.Equal(t, [CodeLength]int{0, 0, 0, 7}, c.Digits())

	_, err = CodeFromInt(10000)
	assert.Error(t, err)
	_, err = CodeFromInt(-1)
	assert.Error(t, err)
}

func TestStateTransitions(t *testing.T) {
	assert.True(t, StateUnallocated.CanTransitionTo(StateAllocated))
	assert.True(t, StateUnallocated.CanTransitionTo(StateNotAllowed))
	assert.True(t, StateAllocated.CanTransitionTo(StateUnallocated))

	assert.False(t, StateAllocated.CanTransitionTo(StateNotAllowed))
	assert.False(t, StateNotAllowed.CanTransitionTo(StateUnallocated))
	assert.False(t, StateNotAllowed.CanTransitionTo(StateAllocated))
	assert.False(t, State(9).IsValid())
	assert.Equal(t, "not_allowed", StateNotAllowed.String())
}

func TestCountStates(t *testing.T) {
	pins := []*PIN{
		{Code: "1111", State: StateNotAllowed},
		{Code: "3759", State: StateAllocated},
		{Code: "3760", State: StateUnallocated},
		{Code: "3761", State: StateUnallocated},
	}
	st := CountStates(pins)
	assert.Equal(t, PoolStats{Total: 4, Unallocated: 2, Allocated: 1, NotAllowed: 1, AllowedPool: 3}, st)
}

func TestGenerateRequestDefault(t *testing.T) {
	var req GenerateRequest
	assert.Equal(t, 1, req.QuantityOrDefault())
	n := 25
	req.Quantity = &n
	assert.Equal(t, 25, req.QuantityOrDefault())
}
