// Package storetest holds the behaviour every ports.Store adapter must share.
// Adapter test files embed ContractSuite and supply a fresh store per test.
package storetest

import (
	"context"
	"errors"
	"sync"

	"github.com/stretchr/testify/suite"

	"pinpool/internal/pin/models"
	"pinpool/internal/pin/ports"
	"pinpool/internal/pin/universe"
)

type ContractSuite struct {
	suite.Suite

	// Fresh returns an empty store. Called before every test.
	Fresh func() ports.Store

	store ports.Store
}

func (s *ContractSuite) SetupTest() {
	s.Require().NotNil(s.Fresh, "embedding suite must set Fresh")
	s.store = s.Fresh()
}

// Store exposes the store under test to embedding suites.
func (s *ContractSuite) Store() ports.Store {
	return s.store
}

func seed(n int) []*models.PIN {
	all := universe.Generate()
	return all[:n]
}

func (s *ContractSuite) TestSelectAllEmpty() {
	pins, count, err := s.store.SelectAll(context.Background())
	s.Require().NoError(err)
	s.Equal(0, count)
	s.Empty(pins)
}

func (s *ContractSuite) TestBulkInsertUniverse() {
	ctx := context.Background()

	inserted, err := s.store.BulkInsert(ctx, universe.Generate())
	s.Require().NoError(err)
	s.Require().Len(inserted, universe.Size)

	pins, count, err := s.store.SelectAll(ctx)
	s.Require().NoError(err)
	s.Equal(universe.Size, count)
	s.Require().Len(pins, universe.Size)

	ids := make(map[string]struct{}, count)
	for i, p := range pins {
		expected, _ := models.CodeFromInt(i)
		s.Equal(expected, p.Code, "SelectAll orders by code")
		s.Equal(models.StateUnallocated, p.State)
		s.NotEmpty(p.ID, "store assigns ids")
		ids[p.ID] = struct{}{}
	}
	s.Len(ids, universe.Size, "ids are unique")
}

func (s *ContractSuite) TestBulkInsertRejectsDuplicateCode() {
	ctx := context.Background()
	_, err := s.store.BulkInsert(ctx, seed(10))
	s.Require().NoError(err)

	_, err = s.store.BulkInsert(ctx, []*models.PIN{{Code: "0003", State: models.StateUnallocated}})
	s.Require().Error(err)

	var storeErr *models.StoreError
	s.Require().True(errors.As(err, &storeErr), "expected StoreError, got %T", err)
	s.NotEmpty(storeErr.Message)

	_, count, err := s.store.SelectAll(ctx)
	s.Require().NoError(err)
	s.Equal(10, count, "failed insert leaves no partial rows")
}

func (s *ContractSuite) TestBulkUpsertWritesState() {
	ctx := context.Background()
	_, err := s.store.BulkInsert(ctx, seed(20))
	s.Require().NoError(err)

	updated, err := s.store.BulkUpsert(ctx, []*models.PIN{
		{Code: "0005", State: models.StateNotAllowed},
		{Code: "0011", State: models.StateAllocated},
	})
	s.Require().NoError(err)
	s.Require().Len(updated, 2)
	for _, p := range updated {
		s.NotEmpty(p.ID)
	}

	stats := s.stats()
	s.Equal(20, stats.Total)
	s.Equal(1, stats.NotAllowed)
	s.Equal(1, stats.Allocated)
	s.Equal(18, stats.Unallocated)
}

func (s *ContractSuite) TestBulkUpsertEmptyIsNoop() {
	updated, err := s.store.BulkUpsert(context.Background(), nil)
	s.Require().NoError(err)
	s.Empty(updated)
}

func (s *ContractSuite) TestSelectRandomUnallocatedMarksAllocated() {
	ctx := context.Background()
	_, err := s.store.BulkInsert(ctx, seed(50))
	s.Require().NoError(err)

	picked, err := s.store.SelectRandomUnallocated(ctx, 7)
	s.Require().NoError(err)
	s.Require().Len(picked, 7)

	codes := make(map[models.Code]struct{})
	for _, p := range picked {
		s.Equal(models.StateAllocated, p.State)
		codes[p.Code] = struct{}{}
	}
	s.Len(codes, 7, "no duplicates within one call")

	stats := s.stats()
	s.Equal(7, stats.Allocated)
	s.Equal(43, stats.Unallocated)
}

func (s *ContractSuite) TestSelectRandomUnallocatedSkipsOtherStates() {
	ctx := context.Background()
	_, err := s.store.BulkInsert(ctx, seed(10))
	s.Require().NoError(err)
	_, err = s.store.BulkUpsert(ctx, []*models.PIN{
		{Code: "0000", State: models.StateNotAllowed},
		{Code: "0001", State: models.StateNotAllowed},
		{Code: "0002", State: models.StateAllocated},
	})
	s.Require().NoError(err)

	picked, err := s.store.SelectRandomUnallocated(ctx, 100)
	s.Require().NoError(err)
	s.Len(picked, 7, "returns fewer than asked when the pool is short")
	for _, p := range picked {
		s.NotContains([]models.Code{"0000", "0001", "0002"}, p.Code)
	}

	again, err := s.store.SelectRandomUnallocated(ctx, 3)
	s.Require().NoError(err)
	s.Empty(again)
}

func (s *ContractSuite) TestResetAllocationLeavesNotAllowed() {
	ctx := context.Background()
	_, err := s.store.BulkInsert(ctx, seed(10))
	s.Require().NoError(err)
	_, err = s.store.BulkUpsert(ctx, []*models.PIN{{Code: "0004", State: models.StateNotAllowed}})
	s.Require().NoError(err)
	_, err = s.store.SelectRandomUnallocated(ctx, 9)
	s.Require().NoError(err)

	s.Require().NoError(s.store.ResetAllocation(ctx))

	stats := s.stats()
	s.Equal(0, stats.Allocated)
	s.Equal(9, stats.Unallocated)
	s.Equal(1, stats.NotAllowed)
}

func (s *ContractSuite) TestConcurrentSelectionIsExclusive() {
	ctx := context.Background()
	_, err := s.store.BulkInsert(ctx, seed(200))
	s.Require().NoError(err)

	const workers = 20
	const each = 10

	var mu sync.Mutex
	var wg sync.WaitGroup
	seen := make(map[models.Code]int)
	errs := make(chan error, workers)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			picked, err := s.store.SelectRandomUnallocated(ctx, each)
			if err != nil {
				errs <- err
				return
			}
			mu.Lock()
			for _, p := range picked {
				seen[p.Code]++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	s.Len(seen, workers*each)
	for code, n := range seen {
		s.Equal(1, n, "code %s handed out more than once", code)
	}
}

func (s *ContractSuite) stats() models.PoolStats {
	pins, _, err := s.store.SelectAll(context.Background())
	s.Require().NoError(err)
	return models.CountStates(pins)
}
