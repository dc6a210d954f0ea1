package store

import (
	"context"
	"errors"
)

var (
	// ErrConflict is reported when a write violates a uniqueness rule.
	ErrConflict = errors.New("store: conflicting row")
	// ErrConstraint is reported for foreign key, check and not-null violations.
	ErrConstraint = errors.New("store: constraint violation")
	// ErrUnknownTable is reported by stores that only know a fixed set of tables.
	ErrUnknownTable = errors.New("store: unknown table")
)

// Row is one storage row keyed by column name.
type Row map[string]any

// Store is the data access collaborator every procedure talks to.
type Store interface {
	Select(ctx context.Context, q Query) ([]Row, error)
	// Insert stores row and returns it as persisted, including the
	// identity and defaults assigned by the store.
	Insert(ctx context.Context, table string, row Row) (Row, error)
	// Update applies set to every row matching filters and returns the
	// updated rows.
	Update(ctx context.Context, table string, set Row, filters ...Filter) ([]Row, error)
	Delete(ctx context.Context, table string, filters ...Filter) (int64, error)
	// InTx runs fn against a store bound to a single transaction. The
	// transaction is committed when fn returns nil and rolled back otherwise.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

// First returns the first row of q, or nil when nothing matches.
func First(ctx context.Context, s Store, q Query) (Row, error) {
	rows, err := s.Select(ctx, q.Limit(1))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Column collects the values of column across rows, skipping nulls and
// duplicates. Useful to build In filters for a second query.
func Column(rows []Row, column string) []any {
	seen := make(map[any]bool, len(rows))
	values := make([]any, 0, len(rows))
	for _, r := range rows {
		v, ok := r[column]
		if !ok || v == nil || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return values
}

// Index groups rows by the string form of column.
func Index(rows []Row, column string) map[string]Row {
	out := make(map[string]Row, len(rows))
	for _, r := range rows {
		out[r.String(column)] = r
	}
	return out
}
