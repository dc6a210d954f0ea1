package store

import (
	"context"
	"time"
)

type timeoutStore struct {
	next    Store
	timeout time.Duration
}

// WithTimeout bounds every call made to s by d. A non-positive d returns s
// unchanged. Calls inside InTx share the deadline of the transaction.
func WithTimeout(s Store, d time.Duration) Store {
	if d <= 0 {
		return s
	}
	return &timeoutStore{next: s, timeout: d}
}

func (s *timeoutStore) Select(ctx context.Context, q Query) ([]Row, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Select(ctx, q)
}

func (s *timeoutStore) Insert(ctx context.Context, table string, row Row) (Row, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Insert(ctx, table, row)
}

func (s *timeoutStore) Update(ctx context.Context, table string, set Row, filters ...Filter) ([]Row, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Update(ctx, table, set, filters...)
}

func (s *timeoutStore) Delete(ctx context.Context, table string, filters ...Filter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Delete(ctx, table, filters...)
}

func (s *timeoutStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.InTx(ctx, fn)
}
