package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/restaurant-pos/internal/rpc"
	"github.com/vasiliy-maslov/restaurant-pos/internal/store"
)

const (
	TableName = "customer_order_history"
	// MaxEntries caps how many history entries a table read returns.
	MaxEntries = 10
)

type ItemSnapshot struct {
	MenuItemID string  `json:"menuItemId" validate:"required,uuid"`
	Name       string  `json:"name" validate:"required,min=1,max=200"`
	Quantity   int     `json:"quantity" validate:"required,min=1"`
	Price      float64 `json:"price" validate:"gte=0"`
}

type Snapshot struct {
	Items []ItemSnapshot `json:"items"`
	Total float64        `json:"total"`
}

type Entry struct {
	ID          string    `json:"id"`
	TableNumber int       `json:"tableNumber"`
	OrderID     string    `json:"orderId"`
	OrderData   any       `json:"orderData"`
	CreatedAt   time.Time `json:"createdAt"`
}

type SaveInput struct {
	TableNumber int            `json:"tableNumber" validate:"required,min=1"`
	OrderID     string         `json:"orderId" validate:"required,uuid"`
	Items       []ItemSnapshot `json:"items" validate:"required,min=1,dive"`
	Total       *float64       `json:"total" validate:"required,gte=0"`
}

type SaveResult struct {
	HistoryID string `json:"historyId"`
	Success   bool   `json:"success"`
}

type GetByTableInput struct {
	TableNumber int `json:"tableNumber" validate:"required,min=1"`
}

type Service struct {
	store store.Store
	now   func() time.Time
}

func NewService(st store.Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: st, now: now}
}

func (s *Service) Register(r *rpc.Registry) {
	rpc.Mutation(r, "customerHistory.save", s.Save)
	rpc.Query(r, "customerHistory.getByTable", s.GetByTable)
}

// Save stores a write-once snapshot of an order's contents.
func (s *Service) Save(ctx context.Context, in SaveInput) (SaveResult, error) {
	data, err := json.Marshal(Snapshot{Items: in.Items, Total: *in.Total})
	if err != nil {
		return SaveResult{}, fmt.Errorf("service: failed to encode order snapshot: %w", err)
	}

	created, err := s.store.Insert(ctx, TableName, store.Row{
		"table_number": in.TableNumber,
		"order_id":     in.OrderID,
		"order_data":   string(data),
		"created_at":   s.now().UTC(),
	})
	if err != nil {
		return SaveResult{}, fmt.Errorf("service: failed to save order history: %w", err)
	}

	log.Info().Str("history_id", created.String("id")).Str("order_id", in.OrderID).Msg("service: order history saved")
	return SaveResult{HistoryID: created.String("id"), Success: true}, nil
}

func (s *Service) GetByTable(ctx context.Context, in GetByTableInput) ([]Entry, error) {
	rows, err := s.store.Select(ctx, store.From(TableName).
		Where(store.Eq("table_number", in.TableNumber)).
		OrderBy(store.Desc("created_at")).
		Limit(MaxEntries))
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch order history for table %d: %w", in.TableNumber, err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, Entry{
			ID:          r.String("id"),
			TableNumber: r.Int("table_number"),
			OrderID:     r.String("order_id"),
			OrderData:   r.JSON("order_data"),
			CreatedAt:   r.Time("created_at"),
		})
	}
	return entries, nil
}
