package table

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/restaurant-pos/internal/cascade"
	"github.com/vasiliy-maslov/restaurant-pos/internal/events"
	"github.com/vasiliy-maslov/restaurant-pos/internal/rpc"
	"github.com/vasiliy-maslov/restaurant-pos/internal/store"
)

type UpdateStatusInput struct {
	TableNumber int     `json:"tableNumber" validate:"required,min=1"`
	Status      Status  `json:"status" validate:"required,oneof=available occupied reserved needs-cleaning"`
	ReservedBy  *string `json:"reservedBy" validate:"omitempty,min=1,max=100"`
}

type StatusChangedEvent struct {
	TableNumber int    `json:"tableNumber"`
	Status      Status `json:"status"`
}

type Service struct {
	store     store.Store
	publisher events.Publisher
	now       func() time.Time
}

func NewService(st store.Store, publisher events.Publisher, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{store: st, publisher: publisher, now: now}
}

func (s *Service) Register(r *rpc.Registry) {
	rpc.Query(r, "tables.getAll", s.GetAll)
	rpc.Mutation(r, "tables.updateStatus", s.UpdateStatus)
}

func (s *Service) GetAll(ctx context.Context, _ rpc.Empty) ([]Table, error) {
	rows, err := s.store.Select(ctx, store.From(TableName).OrderBy(store.Asc("number")))
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch tables: %w", err)
	}

	tables := make([]Table, 0, len(rows))
	for _, r := range rows {
		tables = append(tables, FromRow(r))
	}
	return tables, nil
}

// UpdateStatus sets the table status. Making a table available stamps its
// last cleaning time and drops any reservation holder.
func (s *Service) UpdateStatus(ctx context.Context, in UpdateStatusInput) (rpc.Success, error) {
	now := s.now().UTC()
	set := store.Row{
		"status":     string(in.Status),
		"updated_at": now,
	}
	switch in.Status {
	case StatusAvailable:
		set["last_cleaned_at"] = now
		set["reserved_by"] = nil
	case StatusReserved:
		if in.ReservedBy != nil {
			set["reserved_by"] = *in.ReservedBy
		}
	}

	rows, err := s.store.Update(ctx, TableName, set, store.Eq("number", in.TableNumber))
	if err != nil {
		return rpc.Success{}, fmt.Errorf("service: failed to update table %d status: %w", in.TableNumber, err)
	}
	if len(rows) == 0 {
		return rpc.Success{}, rpc.Precondition("table %d not found", in.TableNumber)
	}

	log.Info().Int("table_number", in.TableNumber).Stringer("status", in.Status).Msg("service: table status updated")
	events.Notify(ctx, s.publisher, events.SubjectTableStatusChanged, StatusChangedEvent{TableNumber: in.TableNumber, Status: in.Status})

	return rpc.Done(), nil
}

// NeedsCleaning is the side effect of an order being paid: the table waits
// for cleaning and no longer points at an order. Only a table still pointing
// at orderID is touched; a newer order opened at the same table keeps it.
func NeedsCleaning(number int, orderID string, now time.Time) cascade.Write {
	return cascade.Write{
		Name: "mark table needs-cleaning",
		Apply: func(ctx context.Context, st store.Store) error {
			rows, err := st.Update(ctx, TableName, store.Row{
				"status":           string(StatusNeedsCleaning),
				"current_order_id": nil,
				"updated_at":       now.UTC(),
			}, store.Eq("number", number), store.Eq("current_order_id", orderID))
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				log.Info().Int("table_number", number).Str("order_id", orderID).Msg("service: table no longer serves the paid order, left as is")
			}
			return nil
		},
	}
}

// Occupy points the table at a newly opened order. Orders may be opened for
// tables that are not registered; that is logged and skipped.
func Occupy(number int, orderID string, now time.Time) cascade.Write {
	return cascade.Write{
		Name: "mark table occupied",
		Apply: func(ctx context.Context, st store.Store) error {
			rows, err := st.Update(ctx, TableName, store.Row{
				"status":           string(StatusOccupied),
				"current_order_id": orderID,
				"updated_at":       now.UTC(),
			}, store.Eq("number", number))
			if err != nil {
				return fmt.Errorf("service: failed to occupy table %d: %w", number, err)
			}
			if len(rows) == 0 {
				log.Warn().Int("table_number", number).Str("order_id", orderID).Msg("service: order opened for an unknown table")
			}
			return nil
		},
	}
}
