package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"pinpool/internal/pin/models"
	"pinpool/pkg/platform/sentinel"
)

// DefaultTable matches the postgres adapter so both share one schema shape.
const DefaultTable = "pins"

// SQLiteStore persists allocation state in a local SQLite file. The handle
// must be limited to a single open connection; every statement then runs
// serialized and the UPDATE ... RETURNING allocation is atomic.
type SQLiteStore struct {
	db    *sql.DB
	ident string
}

// Option configures a SQLiteStore.
type Option func(*sqliteOptions)

type sqliteOptions struct {
	table string
}

func WithTable(name string) Option {
	return func(o *sqliteOptions) {
		if name != "" {
			o.table = name
		}
	}
}

// New wraps an open database handle and creates the schema if needed.
func New(ctx context.Context, db *sql.DB, opts ...Option) (*SQLiteStore, error) {
	o := sqliteOptions{table: DefaultTable}
	for _, opt := range opts {
		opt(&o)
	}
	s := &SQLiteStore{db: db, ident: pq.QuoteIdentifier(o.table)}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id      TEXT PRIMARY KEY,
		"PIN"   TEXT NOT NULL UNIQUE CHECK ("PIN" GLOB '[0-9][0-9][0-9][0-9]'),
		"State" INTEGER NOT NULL DEFAULT 0 CHECK ("State" IN (0, 1, 2))
	)`, s.ident)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, storeError("create pin table", err)
	}
	index := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s ("State")`,
		pq.QuoteIdentifier(o.table+"_state_idx"), s.ident)
	if _, err := db.ExecContext(ctx, index); err != nil {
		return nil, storeError("create pin state index", err)
	}
	return s, nil
}

func (s *SQLiteStore) SelectAll(ctx context.Context) ([]*models.PIN, int, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT id, "PIN", "State" FROM %s ORDER BY "PIN"`, s.ident))
	if err != nil {
		return nil, 0, storeError("select pins", err)
	}
	pins, err := scanPINs(rows)
	if err != nil {
		return nil, 0, storeError("scan pins", err)
	}
	return pins, len(pins), nil
}

func (s *SQLiteStore) BulkInsert(ctx context.Context, pins []*models.PIN) ([]*models.PIN, error) {
	out := make([]*models.PIN, 0, len(pins))
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (id, "PIN", "State") VALUES (?, ?, ?)`, s.ident))
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()

		for _, p := range pins {
			stored := p.Clone()
			if stored.ID == "" {
				stored.ID = uuid.NewString()
			}
			if _, err := stmt.ExecContext(ctx, stored.ID, stored.Code.String(), int(stored.State)); err != nil {
				return err
			}
			out = append(out, stored)
		}
		return nil
	})
	if err != nil {
		return nil, storeError("insert pins", err)
	}
	sortByCode(out)
	return out, nil
}

func (s *SQLiteStore) BulkUpsert(ctx context.Context, pins []*models.PIN) ([]*models.PIN, error) {
	out := make([]*models.PIN, 0, len(pins))
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
			INSERT INTO %s (id, "PIN", "State") VALUES (?, ?, ?)
			ON CONFLICT ("PIN") DO UPDATE SET "State" = excluded."State"
			RETURNING id, "PIN", "State"`, s.ident))
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()

		for _, p := range pins {
			id := p.ID
			if id == "" {
				id = uuid.NewString()
			}
			stored, err := scanPIN(stmt.QueryRowContext(ctx, id, p.Code.String(), int(p.State)))
			if err != nil {
				return err
			}
			out = append(out, stored)
		}
		return nil
	})
	if err != nil {
		return nil, storeError("upsert pins", err)
	}
	sortByCode(out)
	return out, nil
}

func (s *SQLiteStore) SelectRandomUnallocated(ctx context.Context, quantity int) ([]*models.PIN, error) {
	if quantity <= 0 {
		return []*models.PIN{}, nil
	}
	query := fmt.Sprintf(`
		UPDATE %[1]s SET "State" = ?
		WHERE id IN (
			SELECT id FROM %[1]s WHERE "State" = ? ORDER BY random() LIMIT ?
		)
		RETURNING id, "PIN", "State"`, s.ident)
	rows, err := s.db.QueryContext(ctx, query, int(models.StateAllocated), int(models.StateUnallocated), quantity)
	if err != nil {
		return nil, storeError("select random unallocated pins", err)
	}
	pins, err := scanPINs(rows)
	if err != nil {
		return nil, storeError("select random unallocated pins", err)
	}
	return pins, nil
}

func (s *SQLiteStore) ResetAllocation(ctx context.Context) error {
	query := fmt.Sprintf(`UPDATE %s SET "State" = ? WHERE "State" = ?`, s.ident)
	if _, err := s.db.ExecContext(ctx, query, int(models.StateUnallocated), int(models.StateAllocated)); err != nil {
		return storeError("reset pin allocation", err)
	}
	return nil
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPIN(row rowScanner) (*models.PIN, error) {
	var (
		p     models.PIN
		code  string
		state int
	)
	if err := row.Scan(&p.ID, &code, &state); err != nil {
		return nil, err
	}
	p.Code = models.Code(code)
	p.State = models.State(state)
	return &p, nil
}

func scanPINs(rows *sql.Rows) ([]*models.PIN, error) {
	defer func() { _ = rows.Close() }()
	pins := make([]*models.PIN, 0)
	for rows.Next() {
		p, err := scanPIN(rows)
		if err != nil {
			return nil, err
		}
		pins = append(pins, p)
	}
	return pins, rows.Err()
}

func sortByCode(pins []*models.PIN) {
	sort.Slice(pins, func(i, j int) bool { return pins[i].Code < pins[j].Code })
}

func storeError(op string, err error) error {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		se := &models.StoreError{
			Message: liteErr.Error(),
			Details: op,
			Code:    fmt.Sprintf("%d", liteErr.Code()),
			Err:     err,
		}
		code, msg := liteErr.Code(), liteErr.Error()
		base := code & 0xff
		switch {
		case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY,
			base == sqlite3.SQLITE_CONSTRAINT && strings.Contains(msg, "UNIQUE"):
			se.Err = errors.Join(sentinel.ErrConflict, err)
		case code == sqlite3.SQLITE_CONSTRAINT_CHECK,
			base == sqlite3.SQLITE_CONSTRAINT && strings.Contains(msg, "CHECK"):
			se.Err = errors.Join(sentinel.ErrInvalidState, err)
		case base == sqlite3.SQLITE_BUSY, base == sqlite3.SQLITE_LOCKED:
			se.Err = errors.Join(sentinel.ErrUnavailable, err)
		}
		return se
	}
	return &models.StoreError{Message: fmt.Sprintf("%s: %v", op, err), Err: err}
}
