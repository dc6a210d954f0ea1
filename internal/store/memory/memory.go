// Package memory is an in-process implementation of store.Store. It keeps
// rows in insertion order and is meant for tests and local demos.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"github.com/vasiliy-maslov/restaurant-pos/internal/store"
)

// Operation names a Store method for fault injection.
type Operation string

const (
	OpSelect Operation = "select"
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

type fault struct {
	op    Operation
	table string
	err   error
}

// Store is safe for concurrent use. Transactions are implemented as
// snapshot/restore; every call outside a transaction waits until the open
// transaction, if any, has committed or rolled back.
type Store struct {
	mu     sync.RWMutex
	txMu   sync.Mutex
	tables map[string][]store.Row
	keys   map[string]string
	faults []fault
	now    func() time.Time
}

type Option func(*Store)

// WithClock sets the clock used for created_at defaults.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithKey declares column as the identity of table. Tables default to "id",
// which is generated on insert when absent.
func WithKey(table, column string) Option {
	return func(s *Store) { s.keys[table] = column }
}

func New(opts ...Option) *Store {
	s := &Store{
		tables: make(map[string][]store.Row),
		keys:   map[string]string{"restaurant_tables": "number"},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed appends rows to table as given, without defaults. Views can be
// simulated by seeding their rows.
func (s *Store) Seed(table string, rows ...store.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		s.tables[table] = append(s.tables[table], r.Clone())
	}
}

// Rows returns a copy of every row of table in insertion order.
func (s *Store) Rows(table string) []store.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRows(s.tables[table])
}

// FailOn makes every op on table return err until ClearFaults is called.
// An empty table matches every table.
func (s *Store) FailOn(op Operation, table string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, fault{op: op, table: table, err: err})
}

func (s *Store) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = nil
}

func (s *Store) Select(ctx context.Context, q store.Query) ([]store.Row, error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return s.selectRows(ctx, q)
}

func (s *Store) Insert(ctx context.Context, table string, row store.Row) (store.Row, error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return s.insert(ctx, table, row)
}

func (s *Store) Update(ctx context.Context, table string, set store.Row, filters ...store.Filter) ([]store.Row, error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return s.update(ctx, table, set, filters)
}

func (s *Store) Delete(ctx context.Context, table string, filters ...store.Filter) (int64, error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return s.deleteRows(ctx, table, filters)
}

func (s *Store) selectRows(ctx context.Context, q store.Query) ([]store.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.faultFor(OpSelect, q.Table); err != nil {
		return nil, err
	}

	matched := make([]store.Row, 0)
	for _, r := range s.tables[q.Table] {
		if matchAll(r, q.Filters) {
			matched = append(matched, r)
		}
	}

	if len(q.Orders) > 0 {
		slices.SortStableFunc(matched, func(a, b store.Row) int {
			for _, o := range q.Orders {
				c := store.Compare(a[o.Column], b[o.Column])
				if o.Desc {
					c = -c
				}
				if c != 0 {
					return c
				}
			}
			return 0
		})
	}

	if q.Max > 0 && len(matched) > q.Max {
		matched = matched[:q.Max]
	}
	return cloneRows(matched), nil
}

func (s *Store) insert(ctx context.Context, table string, row store.Row) (store.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.faultFor(OpInsert, table); err != nil {
		return nil, err
	}

	stored := row.Clone()
	key := s.keyOf(table)
	if !stored.Has(key) {
		if key != "id" {
			return nil, fmt.Errorf("memory: insert into %s: %w: %s is required", table, store.ErrConstraint, key)
		}
		id, err := uuid.NewV4()
		if err != nil {
			return nil, fmt.Errorf("memory: generate id: %w", err)
		}
		stored[key] = id.String()
	}
	for _, existing := range s.tables[table] {
		if store.Compare(existing[key], stored[key]) == 0 {
			return nil, fmt.Errorf("memory: insert into %s: %w", table, store.ErrConflict)
		}
	}
	if !stored.Has("created_at") {
		stored["created_at"] = s.now().UTC()
	}

	s.tables[table] = append(s.tables[table], stored)
	return stored.Clone(), nil
}

func (s *Store) update(ctx context.Context, table string, set store.Row, filters []store.Filter) ([]store.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.faultFor(OpUpdate, table); err != nil {
		return nil, err
	}

	updated := make([]store.Row, 0)
	for _, r := range s.tables[table] {
		if !matchAll(r, filters) {
			continue
		}
		for k, v := range set {
			r[k] = v
		}
		updated = append(updated, r.Clone())
	}
	return updated, nil
}

func (s *Store) deleteRows(ctx context.Context, table string, filters []store.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.faultFor(OpDelete, table); err != nil {
		return 0, err
	}

	kept := s.tables[table][:0]
	var deleted int64
	for _, r := range s.tables[table] {
		if matchAll(r, filters) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	s.tables[table] = kept
	return deleted, nil
}

func (s *Store) InTx(ctx context.Context, fn func(tx store.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snapshot := s.snapshot()
	if err := fn(txStore{s: s}); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

// txStore is the view of an open transaction. It already holds txMu, and
// nested InTx calls run inside the enclosing transaction.
type txStore struct {
	s *Store
}

func (t txStore) Select(ctx context.Context, q store.Query) ([]store.Row, error) {
	return t.s.selectRows(ctx, q)
}

func (t txStore) Insert(ctx context.Context, table string, row store.Row) (store.Row, error) {
	return t.s.insert(ctx, table, row)
}

func (t txStore) Update(ctx context.Context, table string, set store.Row, filters ...store.Filter) ([]store.Row, error) {
	return t.s.update(ctx, table, set, filters)
}

func (t txStore) Delete(ctx context.Context, table string, filters ...store.Filter) (int64, error) {
	return t.s.deleteRows(ctx, table, filters)
}

func (t txStore) InTx(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(t)
}

func (s *Store) snapshot() map[string][]store.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]store.Row, len(s.tables))
	for table, rows := range s.tables {
		out[table] = cloneRows(rows)
	}
	return out
}

func (s *Store) restore(snapshot map[string][]store.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = snapshot
}

func (s *Store) keyOf(table string) string {
	if k, ok := s.keys[table]; ok {
		return k
	}
	return "id"
}

func (s *Store) faultFor(op Operation, table string) error {
	for _, f := range s.faults {
		if f.op == op && (f.table == "" || f.table == table) {
			return f.err
		}
	}
	return nil
}

func matchAll(r store.Row, filters []store.Filter) bool {
	for _, f := range filters {
		if !match(r, f) {
			return false
		}
	}
	return true
}

func match(r store.Row, f store.Filter) bool {
	v := r[f.Column]
	switch f.Op {
	case store.OpIsNull:
		return v == nil
	case store.OpNotNull:
		return v != nil
	case store.OpIn:
		if v == nil {
			return false
		}
		for _, candidate := range f.Values() {
			if candidate != nil && store.Compare(v, candidate) == 0 {
				return true
			}
		}
		return false
	}

	// SQL semantics: comparisons with NULL never match.
	if v == nil || f.Value == nil {
		return false
	}
	c := store.Compare(v, f.Value)
	switch f.Op {
	case store.OpEq:
		return c == 0
	case store.OpNeq:
		return c != 0
	case store.OpGt:
		return c > 0
	case store.OpGte:
		return c >= 0
	case store.OpLt:
		return c < 0
	case store.OpLte:
		return c <= 0
	default:
		return false
	}
}

func cloneRows(rows []store.Row) []store.Row {
	out := make([]store.Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
