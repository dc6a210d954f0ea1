package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/restaurant-pos/internal/cascade"
	"github.com/vasiliy-maslov/restaurant-pos/internal/events"
	"github.com/vasiliy-maslov/restaurant-pos/internal/menu"
	"github.com/vasiliy-maslov/restaurant-pos/internal/rpc"
	"github.com/vasiliy-maslov/restaurant-pos/internal/store"
	"github.com/vasiliy-maslov/restaurant-pos/internal/table"
)

var allowedTransitions = map[Status]map[Status]bool{
	StatusNew: {
		StatusPreparing: true,
		StatusReady:     true,
		StatusServed:    true,
		StatusPaid:      true,
	},
	StatusPreparing: {
		StatusReady:  true,
		StatusServed: true,
		StatusPaid:   true,
	},
	StatusReady: {
		StatusServed: true,
		StatusPaid:   true,
	},
	StatusServed: {
		StatusPaid: true,
	},
	StatusPaid: {},
}

type GetAllInput struct {
	Status *Status `json:"status" validate:"omitempty,oneof=new preparing ready served paid"`
}

type GetByTableInput struct {
	TableNumber int `json:"tableNumber" validate:"required,min=1"`
}

type CreateItemInput struct {
	MenuItemID string  `json:"menuItemId" validate:"required,uuid"`
	Quantity   int     `json:"quantity" validate:"required,min=1,max=100"`
	Notes      *string `json:"notes" validate:"omitempty,max=500"`
}

type CreateInput struct {
	TableNumber int               `json:"tableNumber" validate:"required,min=1"`
	Items       []CreateItemInput `json:"items" validate:"required,min=1,dive"`
}

type UpdateStatusInput struct {
	OrderID string `json:"orderId" validate:"required,uuid"`
	Status  Status `json:"status" validate:"required,oneof=new preparing ready served paid"`
}

type SplitBillInput struct {
	OrderID string `json:"orderId" validate:"required,uuid"`
	People  int    `json:"people" validate:"required,min=2,max=50"`
}

type StatusChangedEvent struct {
	OrderID     string `json:"orderId"`
	TableNumber int    `json:"tableNumber"`
	OldStatus   Status `json:"oldStatus"`
	NewStatus   Status `json:"newStatus"`
}

type Service struct {
	store     store.Store
	publisher events.Publisher
	mode      cascade.Mode
	now       func() time.Time
}

func NewService(st store.Store, publisher events.Publisher, mode cascade.Mode, now func() time.Time) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if mode == "" {
		mode = cascade.Transactional
	}
	if now == nil {
		now = time.Now
	}
	return &Service{store: st, publisher: publisher, mode: mode, now: now}
}

func (s *Service) Register(r *rpc.Registry) {
	rpc.Query(r, "orders.getAll", s.GetAll)
	rpc.Query(r, "orders.getByTable", s.GetByTable)
	rpc.Mutation(r, "orders.create", s.Create)
	rpc.Mutation(r, "orders.updateStatus", s.UpdateStatus)
	rpc.Mutation(r, "orders.splitBill", s.SplitBill)
}

func (s *Service) GetAll(ctx context.Context, in GetAllInput) ([]Order, error) {
	q := store.From(TableName).OrderBy(store.Desc("created_at"))
	if in.Status != nil {
		q = q.Where(store.Eq("status", string(*in.Status)))
	}

	rows, err := s.store.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch orders: %w", err)
	}
	return s.shape(ctx, s.store, rows)
}

// GetByTable returns the newest active order of the table, or nil.
func (s *Service) GetByTable(ctx context.Context, in GetByTableInput) (*Order, error) {
	row, err := activeOrder(ctx, s.store, in.TableNumber)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch active order for table %d: %w", in.TableNumber, err)
	}
	if row == nil {
		return nil, nil
	}

	orders, err := s.shape(ctx, s.store, []store.Row{row})
	if err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// Create opens an order at a table. The total is computed from the current
// menu prices and the table is marked occupied in the same transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (Order, error) {
	ids := make([]string, 0, len(in.Items))
	for _, item := range in.Items {
		ids = append(ids, item.MenuItemID)
	}
	menuRows, err := s.store.Select(ctx, store.From(menu.ItemsTable).Where(store.InStrings("id", ids...)))
	if err != nil {
		return Order{}, fmt.Errorf("service: failed to fetch menu items: %w", err)
	}
	menuItems := store.Index(menuRows, "id")

	total := decimal.Zero
	for _, item := range in.Items {
		m, ok := menuItems[item.MenuItemID]
		if !ok {
			return Order{}, rpc.Precondition("menu item %s not found", item.MenuItemID)
		}
		if !m.Bool("is_available") {
			return Order{}, rpc.Precondition("menu item %s is not available", item.MenuItemID)
		}
		total = total.Add(decimal.NewFromFloat(m.Float("price")).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	var created store.Row
	now := s.now().UTC()
	err = s.store.InTx(ctx, func(tx store.Store) error {
		active, err := activeOrder(ctx, tx, in.TableNumber)
		if err != nil {
			return fmt.Errorf("service: failed to check active order: %w", err)
		}
		if active != nil {
			return rpc.Precondition("table %d already has an active order", in.TableNumber)
		}

		created, err = tx.Insert(ctx, TableName, store.Row{
			"table_number": in.TableNumber,
			"status":       string(StatusNew),
			"total":        total.Round(2).InexactFloat64(),
			"created_at":   now,
		})
		if err != nil {
			return fmt.Errorf("service: failed to insert order: %w", err)
		}

		for i, item := range in.Items {
			row := store.Row{
				"order_id":     created.String("id"),
				"menu_item_id": item.MenuItemID,
				"quantity":     item.Quantity,
				"position":     i,
				"created_at":   now,
			}
			if item.Notes != nil {
				row["notes"] = *item.Notes
			}
			if _, err := tx.Insert(ctx, ItemsTableName, row); err != nil {
				return fmt.Errorf("service: failed to insert order item: %w", err)
			}
		}

		return table.Occupy(in.TableNumber, created.String("id"), now).Apply(ctx, tx)
	})
	if errors.Is(err, store.ErrConflict) {
		return Order{}, rpc.Precondition("table %d already has an active order", in.TableNumber)
	}
	if err != nil {
		return Order{}, err
	}

	log.Info().
		Str("order_id", created.String("id")).
		Int("table_number", in.TableNumber).
		Str("total", total.StringFixed(2)).
		Msg("service: order created")

	orders, err := s.shape(ctx, s.store, []store.Row{created})
	if err != nil {
		return Order{}, err
	}
	return orders[0], nil
}

// UpdateStatus moves an order forward. Paying an order also frees its table
// for cleaning, under the configured cascade mode.
func (s *Service) UpdateStatus(ctx context.Context, in UpdateStatusInput) (rpc.Success, error) {
	current, err := store.First(ctx, s.store, store.From(TableName).Where(store.Eq("id", in.OrderID)))
	if err != nil {
		return rpc.Success{}, fmt.Errorf("service: failed to get order for status update: %w", err)
	}
	if current == nil {
		return rpc.Success{}, rpc.Precondition("order not found")
	}

	oldStatus := Status(current.String("status"))
	if oldStatus == in.Status {
		log.Info().Str("order_id", in.OrderID).Stringer("status", in.Status).Msg("service: order status is already the same, no update needed")
		return rpc.Done(), nil
	}
	if !allowedTransitions[oldStatus][in.Status] {
		log.Warn().
			Str("order_id", in.OrderID).
			Stringer("current_status", oldStatus).
			Stringer("new_status", in.Status).
			Msg("service: invalid status transition attempt")
		return rpc.Success{}, rpc.Precondition("cannot change order status from %s to %s", oldStatus, in.Status)
	}

	now := s.now().UTC()
	tableNumber := current.Int("table_number")
	transition := cascade.Transition{
		Name: "order " + in.Status.String(),
		Primary: cascade.Write{
			Name: "update order status",
			Apply: func(ctx context.Context, st store.Store) error {
				rows, err := st.Update(ctx, TableName, store.Row{
					"status":     string(in.Status),
					"updated_at": now,
				}, store.Eq("id", in.OrderID))
				if err != nil {
					return err
				}
				if len(rows) == 0 {
					return rpc.Precondition("order not found")
				}
				return nil
			},
		},
	}
	if in.Status == StatusPaid {
		transition.Effects = append(transition.Effects, table.NeedsCleaning(tableNumber, in.OrderID, now))
	}

	if err := cascade.Apply(ctx, s.store, s.mode, transition); err != nil {
		return rpc.Success{}, err
	}

	log.Info().
		Str("order_id", in.OrderID).
		Stringer("old_status", oldStatus).
		Stringer("new_status", in.Status).
		Msg("service: order status updated")
	events.Notify(ctx, s.publisher, events.SubjectOrderStatusChanged, StatusChangedEvent{
		OrderID:     in.OrderID,
		TableNumber: tableNumber,
		OldStatus:   oldStatus,
		NewStatus:   in.Status,
	})

	return rpc.Done(), nil
}

// SplitBill divides the order total evenly, rounding the per-person amount
// half-up to cents.
func (s *Service) SplitBill(ctx context.Context, in SplitBillInput) (Order, error) {
	current, err := store.First(ctx, s.store, store.From(TableName).Where(store.Eq("id", in.OrderID)))
	if err != nil {
		return Order{}, fmt.Errorf("service: failed to get order for bill split: %w", err)
	}
	if current == nil {
		return Order{}, rpc.Precondition("order not found")
	}

	perPerson := decimal.NewFromFloat(current.Float("total")).
		DivRound(decimal.NewFromInt(int64(in.People)), 2)

	rows, err := s.store.Update(ctx, TableName, store.Row{
		"split_people": in.People,
		"split_amount": perPerson.InexactFloat64(),
		"updated_at":   s.now().UTC(),
	}, store.Eq("id", in.OrderID))
	if err != nil {
		return Order{}, fmt.Errorf("service: failed to split bill of order %s: %w", in.OrderID, err)
	}
	if len(rows) == 0 {
		return Order{}, rpc.Precondition("order not found")
	}

	log.Info().Str("order_id", in.OrderID).Int("people", in.People).Str("per_person", perPerson.StringFixed(2)).Msg("service: bill split")

	orders, err := s.shape(ctx, s.store, rows[:1])
	if err != nil {
		return Order{}, err
	}
	return orders[0], nil
}

func activeOrder(ctx context.Context, st store.Store, tableNumber int) (store.Row, error) {
	statuses := make([]string, len(ActiveStatuses))
	for i, s := range ActiveStatuses {
		statuses[i] = string(s)
	}
	return store.First(ctx, st, store.From(TableName).
		Where(store.Eq("table_number", tableNumber), store.InStrings("status", statuses...)).
		OrderBy(store.Desc("created_at")))
}

// shape attaches items and their menu item summaries to order rows.
func (s *Service) shape(ctx context.Context, st store.Store, rows []store.Row) ([]Order, error) {
	orders := make([]Order, 0, len(rows))
	if len(rows) == 0 {
		return orders, nil
	}

	itemRows, err := st.Select(ctx, store.From(ItemsTableName).
		Where(store.In("order_id", store.Column(rows, "id"))).
		OrderBy(store.Asc("position")))
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch order items: %w", err)
	}

	menuItems := map[string]store.Row{}
	if ids := store.Column(itemRows, "menu_item_id"); len(ids) > 0 {
		menuRows, err := st.Select(ctx, store.From(menu.ItemsTable).Where(store.In("id", ids)))
		if err != nil {
			return nil, fmt.Errorf("service: failed to fetch menu items for orders: %w", err)
		}
		menuItems = store.Index(menuRows, "id")
	}

	itemsByOrder := make(map[string][]Item, len(rows))
	for _, r := range itemRows {
		orderID := r.String("order_id")
		itemsByOrder[orderID] = append(itemsByOrder[orderID], ItemFromRow(r, menuItems[r.String("menu_item_id")]))
	}

	for _, r := range rows {
		orders = append(orders, FromRow(r, itemsByOrder[r.String("id")]))
	}
	return orders, nil
}
