package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"pinpool/internal/pin/models"
	"pinpool/internal/pin/ports"
	"pinpool/internal/pin/store/sqlite"
	"pinpool/internal/pin/store/storetest"
	"pinpool/internal/platform/database"
	"pinpool/pkg/platform/sentinel"
)

type SQLiteStoreSuite struct {
	storetest.ContractSuite
	n int
}

func TestSQLiteStoreSuite(t *testing.T) {
	dir := t.TempDir()
	s := new(SQLiteStoreSuite)
	s.Fresh = func() ports.Store {
		s.n++
		return open(s.T(), filepath.Join(dir, fmt.Sprintf("pins-%d.db", s.n)))
	}
	suite.Run(t, s)
}

func open(t *testing.T, path string) *sqlite.SQLiteStore {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := sqlite.New(ctx, db, sqlite.WithTable("PIN"))
	require.NoError(t, err)
	return store
}

func TestSQLiteStore_ErrorMapping(t *testing.T) {
	ctx := context.Background()
	store := open(t, filepath.Join(t.TempDir(), "pins.db"))

	_, err := store.BulkInsert(ctx, []*models.PIN{{Code: "0420"}})
	require.NoError(t, err)

	t.Run("duplicate code is a conflict", func(t *testing.T) {
		_, err := store.BulkInsert(ctx, []*models.PIN{{Code: "0420"}})
		require.Error(t, err)
		var storeErr *models.StoreError
		require.True(t, errors.As(err, &storeErr))
		assert.NotEmpty(t, storeErr.Message)
		assert.True(t, errors.Is(err, sentinel.ErrConflict))
	})

	t.Run("non digit code violates check", func(t *testing.T) {
		_, err := store.BulkInsert(ctx, []*models.PIN{{Code: "04x0"}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, sentinel.ErrInvalidState))
	})
}

func TestSQLiteStore_ReopenKeepsState(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pins.db")

	first := open(t, path)
	_, err := first.BulkInsert(ctx, []*models.PIN{{Code: "0001"}, {Code: "0002", State: models.StateNotAllowed}})
	require.NoError(t, err)

	second := open(t, path)
	pins, count, err := second.SelectAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, models.StateNotAllowed, pins[1].State)
}
