package universe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinpool/internal/pin/models"
)

func TestGenerate(t *testing.T) {
	pins := Generate()
	require.Len(t, pins, Size)

	seen := make(map[models.Code]struct{}, Size)
	for i, p := range pins {
		_, err := models.ParseCode(string(p.Code))
		require.NoError(t, err)
		assert.Equal(t, i, p.Code.Int(), "codes must be ascending")
		assert.Equal(t, models.StateUnallocated, p.State)
		assert.Empty(t, p.ID)
		seen[p.Code] = struct{}{}
	}
	assert.Len(t, seen, Size, "codes must be unique")
	assert.Equal(t, models.Code("0000"), pins[0].Code)
	assert.Equal(t, models.Code("9999"), pins[Size-1].Code)
}

func TestGenerateReturnsFreshRecords(t *testing.T) {
	a := Generate()
	a[0].State = models.StateAllocated
	b := Generate()
	assert.Equal(t, models.StateUnallocated, b[0].State)
}
