package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"pinpool/internal/pin/models"
	"pinpool/pkg/platform/sentinel"
)

// DefaultTable is the table the store reads and writes unless WithTable is set.
const DefaultTable = "pins"

const uniqueViolation = "23505"

// PostgresStore persists allocation state in a single PostgreSQL table with
// columns id, "PIN" and "State".
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
	ident string
}

// Option configures a PostgresStore.
type Option func(*PostgresStore)

// WithTable sets the table name. The name is quoted, so mixed case names
// such as "PIN" are used verbatim.
func WithTable(name string) Option {
	return func(s *PostgresStore) {
		if name != "" {
			s.table = name
		}
	}
}

// NewPostgres constructs a PostgreSQL-backed PIN store.
func NewPostgres(pool *pgxpool.Pool, opts ...Option) *PostgresStore {
	s := &PostgresStore{pool: pool, table: DefaultTable}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.ident = pq.QuoteIdentifier(s.table)
	return s
}

// Table returns the unquoted table name.
func (s *PostgresStore) Table() string {
	return s.table
}

// EnsureSchema creates the table and its state index when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id      uuid PRIMARY KEY,
			"PIN"   text NOT NULL UNIQUE CHECK ("PIN" ~ '^[0-9]{4}$'),
			"State" smallint NOT NULL DEFAULT 0 CHECK ("State" IN (0, 1, 2))
		)`, s.ident)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return storeError("create pin table", err)
	}
	index := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s ("State")`,
		pq.QuoteIdentifier(s.table+"_state_idx"), s.ident)
	if _, err := s.pool.Exec(ctx, index); err != nil {
		return storeError("create pin state index", err)
	}
	return nil
}

func (s *PostgresStore) SelectAll(ctx context.Context) ([]*models.PIN, int, error) {
	query := fmt.Sprintf(`SELECT id::text, "PIN", "State" FROM %s ORDER BY "PIN"`, s.ident)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, 0, storeError("select pins", err)
	}
	pins, err := pgx.CollectRows(rows, scanPIN)
	if err != nil {
		return nil, 0, storeError("scan pins", err)
	}
	return pins, len(pins), nil
}

func (s *PostgresStore) BulkInsert(ctx context.Context, pins []*models.PIN) ([]*models.PIN, error) {
	if len(pins) == 0 {
		return []*models.PIN{}, nil
	}
	ids, codes, states := columns(pins)
	query := fmt.Sprintf(`
		INSERT INTO %s (id, "PIN", "State")
		SELECT u.id::uuid, u.pin, u.state
		FROM unnest($1::text[], $2::text[], $3::smallint[]) AS u(id, pin, state)
		RETURNING id::text, "PIN", "State"`, s.ident)
	rows, err := s.pool.Query(ctx, query, ids, codes, states)
	if err != nil {
		return nil, storeError("insert pins", err)
	}
	out, err := pgx.CollectRows(rows, scanPIN)
	if err != nil {
		return nil, storeError("insert pins", err)
	}
	sortByCode(out)
	return out, nil
}

func (s *PostgresStore) BulkUpsert(ctx context.Context, pins []*models.PIN) ([]*models.PIN, error) {
	if len(pins) == 0 {
		return []*models.PIN{}, nil
	}
	ids, codes, states := columns(pins)
	query := fmt.Sprintf(`
		INSERT INTO %s (id, "PIN", "State")
		SELECT u.id::uuid, u.pin, u.state
		FROM unnest($1::text[], $2::text[], $3::smallint[]) AS u(id, pin, state)
		ON CONFLICT ("PIN") DO UPDATE SET "State" = EXCLUDED."State"
		RETURNING id::text, "PIN", "State"`, s.ident)
	rows, err := s.pool.Query(ctx, query, ids, codes, states)
	if err != nil {
		return nil, storeError("upsert pins", err)
	}
	out, err := pgx.CollectRows(rows, scanPIN)
	if err != nil {
		return nil, storeError("upsert pins", err)
	}
	sortByCode(out)
	return out, nil
}

// SelectRandomUnallocated locks a random sample of Unallocated rows, skipping
// rows other sessions hold, and flips them to Allocated in one statement.
func (s *PostgresStore) SelectRandomUnallocated(ctx context.Context, quantity int) ([]*models.PIN, error) {
	if quantity <= 0 {
		return []*models.PIN{}, nil
	}
	query := fmt.Sprintf(`
		UPDATE %[1]s SET "State" = $2
		WHERE "State" = $3 AND id IN (
			SELECT id FROM %[1]s
			WHERE "State" = $3
			ORDER BY random()
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id::text, "PIN", "State"`, s.ident)
	rows, err := s.pool.Query(ctx, query, quantity, int16(models.StateAllocated), int16(models.StateUnallocated))
	if err != nil {
		return nil, storeError("select random unallocated pins", err)
	}
	out, err := pgx.CollectRows(rows, scanPIN)
	if err != nil {
		return nil, storeError("select random unallocated pins", err)
	}
	return out, nil
}

func (s *PostgresStore) ResetAllocation(ctx context.Context) error {
	query := fmt.Sprintf(`UPDATE %s SET "State" = $1 WHERE "State" = $2`, s.ident)
	if _, err := s.pool.Exec(ctx, query, int16(models.StateUnallocated), int16(models.StateAllocated)); err != nil {
		return storeError("reset pin allocation", err)
	}
	return nil
}

func scanPIN(row pgx.CollectableRow) (*models.PIN, error) {
	var (
		p     models.PIN
		code  string
		state int16
	)
	if err := row.Scan(&p.ID, &code, &state); err != nil {
		return nil, err
	}
	p.Code = models.Code(code)
	p.State = models.State(state)
	return &p, nil
}

func columns(pins []*models.PIN) ([]string, []string, []int16) {
	ids := make([]string, len(pins))
	codes := make([]string, len(pins))
	states := make([]int16, len(pins))
	for i, p := range pins {
		ids[i] = p.ID
		if ids[i] == "" {
			ids[i] = uuid.NewString()
		}
		codes[i] = p.Code.String()
		states[i] = int16(p.State)
	}
	return ids, codes, states
}

func sortByCode(pins []*models.PIN) {
	sort.Slice(pins, func(i, j int) bool { return pins[i].Code < pins[j].Code })
}

// storeError maps driver failures onto models.StoreError, carrying the
// server's message, detail, hint and SQLSTATE when available.
func storeError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		se := &models.StoreError{
			Message: pgErr.Message,
			Details: pgErr.Detail,
			Hint:    pgErr.Hint,
			Code:    pgErr.Code,
			Err:     err,
		}
		switch pgErr.Code {
		case uniqueViolation:
			se.Err = errors.Join(sentinel.ErrConflict, err)
		case "23514", "22P02":
			se.Err = errors.Join(sentinel.ErrInvalidState, err)
		}
		return se
	}
	if pgconn.SafeToRetry(err) || errors.Is(err, pgx.ErrTxClosed) {
		return &models.StoreError{Message: fmt.Sprintf("%s: %v", op, err), Err: errors.Join(sentinel.ErrUnavailable, err)}
	}
	return &models.StoreError{Message: fmt.Sprintf("%s: %v", op, err), Err: err}
}
