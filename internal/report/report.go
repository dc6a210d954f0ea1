// Package report exposes the reporting views as read-only procedures. Rows
// are returned as stored, only ordered.
package report

import (
	"context"
	"fmt"

	"github.com/vasiliy-maslov/restaurant-pos/internal/rpc"
	"github.com/vasiliy-maslov/restaurant-pos/internal/store"
)

const (
	ActiveTablesView     = "active_tables"
	ItemSalesSummaryView = "item_sales_summary"
	SalesDailyView       = "sales_daily"
	SalesWeeklyView      = "sales_weekly"
	SalesMonthlyView     = "sales_monthly"
	SalesSummaryView     = "sales_summary"
)

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

func (s *Service) Register(r *rpc.Registry) {
	rpc.Query(r, "reports.activeTables", s.view(store.From(ActiveTablesView).OrderBy(store.Asc("table_number"))))
	rpc.Query(r, "reports.itemSalesSummary", s.view(store.From(ItemSalesSummaryView).OrderBy(store.Desc("total_quantity"))))
	rpc.Query(r, "reports.salesDaily", s.view(store.From(SalesDailyView).OrderBy(store.Desc("day"))))
	rpc.Query(r, "reports.salesWeekly", s.view(store.From(SalesWeeklyView).OrderBy(store.Desc("week"))))
	rpc.Query(r, "reports.salesMonthly", s.view(store.From(SalesMonthlyView).OrderBy(store.Desc("month"))))
	rpc.Query(r, "reports.salesSummary", s.SalesSummary)
}

func (s *Service) view(q store.Query) func(context.Context, rpc.Empty) ([]store.Row, error) {
	return func(ctx context.Context, _ rpc.Empty) ([]store.Row, error) {
		rows, err := s.store.Select(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("service: failed to read view %s: %w", q.Table, err)
		}
		if rows == nil {
			rows = []store.Row{}
		}
		return rows, nil
	}
}

// SalesSummary returns the single summary row, or nil when there are no
// sales yet.
func (s *Service) SalesSummary(ctx context.Context, _ rpc.Empty) (store.Row, error) {
	row, err := store.First(ctx, s.store, store.From(SalesSummaryView))
	if err != nil {
		return nil, fmt.Errorf("service: failed to read view %s: %w", SalesSummaryView, err)
	}
	return row, nil
}
