package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	t.Run("nil error stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeStore, "ignored"))
	})

	t.Run("keeps cause in chain", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeStore, "failed to load pins")

		assert.ErrorIs(t, err, cause)
		assert.True(t, HasCode(err, CodeStore))
		assert.Equal(t, "failed to load pins: connection refused", err.Error())
		assert.Equal(t, "failed to load pins", MessageOf(err))
	})
}

func TestHasCode(t *testing.T) {
	inner := New(CodeCapacityExceeded, "pool exhausted")
	outer := fmt.Errorf("request pins: %w", Wrap(inner, CodeStore, "store failed"))

	assert.True(t, HasCode(outer, CodeStore))
	assert.True(t, HasCode(outer, CodeCapacityExceeded))
	assert.False(t, HasCode(outer, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeInvalidArgument, CodeOf(New(CodeInvalidArgument, "quantity must be positive")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}
