// Package postgres implements store.Store on top of pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/restaurant-pos/internal/store"
)

// DB is the subset of pgxpool.Pool and pgx.Tx the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Store struct {
	db   DB
	inTx bool
}

var _ store.Store = (*Store)(nil)

func New(db DB) *Store {
	return &Store{db: db}
}

func (s *Store) Select(ctx context.Context, q store.Query) ([]store.Row, error) {
	stmt, err := buildSelect(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("postgres: select from %s: %w", q.Table, err)
	}
	return rows, nil
}

func (s *Store) Insert(ctx context.Context, table string, row store.Row) (store.Row, error) {
	rows, err := s.query(ctx, buildInsert(table, row))
	if err != nil {
		return nil, fmt.Errorf("postgres: insert into %s: %w", table, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("postgres: insert into %s returned no row", table)
	}
	return rows[0], nil
}

func (s *Store) Update(ctx context.Context, table string, set store.Row, filters ...store.Filter) ([]store.Row, error) {
	stmt, err := buildUpdate(table, set, filters)
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("postgres: update %s: %w", table, err)
	}
	return rows, nil
}

func (s *Store) Delete(ctx context.Context, table string, filters ...store.Filter) (int64, error) {
	stmt, err := buildDelete(table, filters)
	if err != nil {
		return 0, err
	}
	tag, err := s.db.Exec(ctx, stmt.sql, stmt.args...)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete from %s: %w", table, classify(err))
	}
	return tag.RowsAffected(), nil
}

func (s *Store) InTx(ctx context.Context, fn func(tx store.Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic_value", p).Msg("store: panic recovered inside transaction, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("store: failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Error().Err(rbErr).Msg("store: failed to rollback transaction")
			}
		} else if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("postgres: commit transaction: %w", classify(commitErr))
		}
	}()

	return fn(&Store{db: tx, inTx: true})
}

func (s *Store) query(ctx context.Context, stmt statement) ([]store.Row, error) {
	log.Debug().Str("sql", stmt.sql).Int("args", len(stmt.args)).Msg("store: query")

	rows, err := s.db.Query(ctx, stmt.sql, stmt.args...)
	if err != nil {
		return nil, classify(err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, classify(err)
	}

	out := make([]store.Row, len(maps))
	for i, m := range maps {
		row := make(store.Row, len(m))
		for k, v := range m {
			row[k] = normalize(v)
		}
		out[i] = row
	}
	return out, nil
}

// normalize converts pgx decoded values into the plain Go values the row
// accessors understand.
func normalize(v any) any {
	switch t := v.(type) {
	case [16]byte:
		return uuid.UUID(t).String()
	case pgtype.Numeric:
		f, err := t.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case pgtype.Time:
		if !t.Valid {
			return nil
		}
		us := t.Microseconds
		return fmt.Sprintf("%02d:%02d", us/3_600_000_000, (us/60_000_000)%60)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	default:
		return v
	}
}

// classify tags postgres integrity errors with store sentinels while keeping
// the original error in the chain for logging.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case pgErr.Code == pgerrcode.UniqueViolation:
		return fmt.Errorf("%w: %w", store.ErrConflict, err)
	case pgerrcode.IsIntegrityConstraintViolation(pgErr.Code):
		return fmt.Errorf("%w: %w", store.ErrConstraint, err)
	default:
		return err
	}
}
