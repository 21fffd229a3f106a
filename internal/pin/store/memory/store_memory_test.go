package memory

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"pinpool/internal/pin/models"
	"pinpool/internal/pin/ports"
	"pinpool/internal/pin/store/storetest"
	"pinpool/internal/pin/universe"
	"pinpool/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	storetest.ContractSuite
}

func TestInMemoryStoreSuite(t *testing.T) {
	s := new(InMemoryStoreSuite)
	s.Fresh = func() ports.Store { return New() }
	suite.Run(t, s)
}

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("same seed picks the same codes", func(t *testing.T) {
		pick := func() []models.Code {
			s := New(WithRand(rand.New(rand.NewPCG(7, 11))))
			_, err := s.BulkInsert(ctx, universe.Generate())
			require.NoError(t, err)
			picked, err := s.SelectRandomUnallocated(ctx, 5)
			require.NoError(t, err)
			return models.Codes(picked)
		}
		assert.Equal(t, pick(), pick())
	})

	t.Run("invalid state is rejected with sentinel", func(t *testing.T) {
		s := New()
		_, err := s.BulkInsert(ctx, []*models.PIN{{Code: "0001", State: models.State(9)}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, sentinel.ErrInvalidState))
	})

	t.Run("duplicate insert wraps conflict sentinel", func(t *testing.T) {
		s := New()
		_, err := s.BulkInsert(ctx, []*models.PIN{{Code: "0001"}, {Code: "0001"}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, sentinel.ErrConflict))
	})

	t.Run("returned records are copies", func(t *testing.T) {
		s := New()
		inserted, err := s.BulkInsert(ctx, []*models.PIN{{Code: "0001"}})
		require.NoError(t, err)
		inserted[0].State = models.StateNotAllowed

		pins, _, err := s.SelectAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.StateUnallocated, pins[0].State)
	})

	t.Run("cancelled context fails fast", func(t *testing.T) {
		s := New()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.SelectRandomUnallocated(cctx, 1)
		assert.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, s.ResetAllocation(cctx), context.Canceled)
	})
}
