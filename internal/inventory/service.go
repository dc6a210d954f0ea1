package inventory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/restaurant-pos/internal/rpc"
	"github.com/vasiliy-maslov/restaurant-pos/internal/store"
	"github.com/vasiliy-maslov/restaurant-pos/internal/supplier"
)

const defaultMovementsLimit = 100

type CreateInput struct {
	Name         string   `json:"name" validate:"required,min=1,max=200"`
	CurrentStock *float64 `json:"currentStock" validate:"required,gte=0"`
	MinimumStock *float64 `json:"minimumStock" validate:"required,gte=0"`
	Unit         string   `json:"unit" validate:"required,min=1,max=32"`
	SupplierID   *string  `json:"supplierId" validate:"omitempty,uuid"`
}

type GetMovementsInput struct {
	InventoryItemID *string `json:"inventoryItemId" validate:"omitempty,uuid"`
	Limit           int     `json:"limit" validate:"omitempty,min=1,max=500"`
}

type AdjustStockInput struct {
	InventoryItemID string   `json:"inventoryItemId" validate:"required,uuid"`
	Quantity        *float64 `json:"quantity" validate:"required,ne=0"`
	Reason          *string  `json:"reason" validate:"omitempty,max=200"`
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
	rpc.Query(r, "inventory.getAll", s.GetAll)
	rpc.Mutation(r, "inventory.create", s.Create)
	rpc.Query(r, "inventory.getLowStock", s.GetLowStock)
	rpc.Query(r, "inventory.getMovements", s.GetMovements)
	rpc.Mutation(r, "inventory.adjustStock", s.AdjustStock)
}

func (s *Service) GetAll(ctx context.Context, _ rpc.Empty) ([]Item, error) {
	rows, err := s.store.Select(ctx, store.From(ItemsTable).OrderBy(store.Asc("name")))
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch inventory items: %w", err)
	}
	return s.shape(ctx, rows)
}

// GetLowStock filters items below their minimum stock and sorts them by
// current stock, lowest first.
func (s *Service) GetLowStock(ctx context.Context, _ rpc.Empty) ([]Item, error) {
	rows, err := s.store.Select(ctx, store.From(ItemsTable).OrderBy(store.Asc("name")))
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch inventory items: %w", err)
	}

	low := make([]store.Row, 0)
	for _, r := range rows {
		if IsLow(r) {
			low = append(low, r)
		}
	}
	slices.SortStableFunc(low, func(a, b store.Row) int {
		return store.Compare(a["current_stock"], b["current_stock"])
	})

	return s.shape(ctx, low)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Item, error) {
	if in.SupplierID != nil {
		ok, err := supplier.Exists(ctx, s.store, *in.SupplierID)
		if err != nil {
			return Item{}, fmt.Errorf("service: failed to check supplier: %w", err)
		}
		if !ok {
			return Item{}, rpc.Precondition("supplier not found")
		}
	}

	row := store.Row{
		"name":          in.Name,
		"current_stock": *in.CurrentStock,
		"minimum_stock": *in.MinimumStock,
		"unit":          in.Unit,
	}
	if in.SupplierID != nil {
		row["supplier_id"] = *in.SupplierID
	}

	created, err := s.store.Insert(ctx, ItemsTable, row)
	if err != nil {
		return Item{}, fmt.Errorf("service: failed to create inventory item: %w", err)
	}
	log.Info().Str("inventory_item_id", created.String("id")).Msg("service: inventory item created")

	items, err := s.shape(ctx, []store.Row{created})
	if err != nil {
		return Item{}, err
	}
	return items[0], nil
}

func (s *Service) GetMovements(ctx context.Context, in GetMovementsInput) ([]Movement, error) {
	limit := in.Limit
	if limit == 0 {
		limit = defaultMovementsLimit
	}

	q := store.From(MovementsTable).OrderBy(store.Desc("created_at")).Limit(limit)
	if in.InventoryItemID != nil {
		q = q.Where(store.Eq("inventory_item_id", *in.InventoryItemID))
	}

	rows, err := s.store.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch stock movements: %w", err)
	}
	movements := make([]Movement, 0, len(rows))
	for _, r := range rows {
		movements = append(movements, MovementFromRow(r))
	}
	return movements, nil
}

// AdjustStock records a stock movement and applies it to the item in one
// transaction. Stock never goes below zero.
func (s *Service) AdjustStock(ctx context.Context, in AdjustStockInput) (Item, error) {
	var updated store.Row
	now := s.now().UTC()

	err := s.store.InTx(ctx, func(tx store.Store) error {
		current, err := store.First(ctx, tx, store.From(ItemsTable).Where(store.Eq("id", in.InventoryItemID)))
		if err != nil {
			return fmt.Errorf("service: failed to fetch inventory item: %w", err)
		}
		if current == nil {
			return rpc.Precondition("inventory item not found")
		}

		stock := decimal.NewFromFloat(current.Float("current_stock")).Add(decimal.NewFromFloat(*in.Quantity))
		if stock.IsNegative() {
			return rpc.Precondition("not enough stock: %s %s available", decimal.NewFromFloat(current.Float("current_stock")).String(), current.String("unit"))
		}

		movement := store.Row{
			"inventory_item_id": in.InventoryItemID,
			"quantity":          *in.Quantity,
			"created_at":        now,
		}
		if in.Reason != nil {
			movement["reason"] = *in.Reason
		}
		if _, err := tx.Insert(ctx, MovementsTable, movement); err != nil {
			return fmt.Errorf("service: failed to record stock movement: %w", err)
		}

		rows, err := tx.Update(ctx, ItemsTable, store.Row{
			"current_stock": stock.InexactFloat64(),
			"updated_at":    now,
		}, store.Eq("id", in.InventoryItemID))
		if err != nil {
			return fmt.Errorf("service: failed to update stock: %w", err)
		}
		if len(rows) == 0 {
			return rpc.Precondition("inventory item not found")
		}
		updated = rows[0]
		return nil
	})
	if err != nil {
		return Item{}, err
	}

	log.Info().Str("inventory_item_id", in.InventoryItemID).Float64("quantity", *in.Quantity).Msg("service: stock adjusted")

	items, err := s.shape(ctx, []store.Row{updated})
	if err != nil {
		return Item{}, err
	}
	return items[0], nil
}

func (s *Service) shape(ctx context.Context, rows []store.Row) ([]Item, error) {
	suppliers := map[string]store.Row{}
	if ids := store.Column(rows, "supplier_id"); len(ids) > 0 {
		supplierRows, err := s.store.Select(ctx, store.From(supplier.TableName).Where(store.In("id", ids)))
		if err != nil {
			return nil, fmt.Errorf("service: failed to fetch suppliers: %w", err)
		}
		suppliers = store.Index(supplierRows, "id")
	}

	items := make([]Item, 0, len(rows))
	for _, r := range rows {
		var sup store.Row
		if r.Has("supplier_id") {
			sup = suppliers[r.String("supplier_id")]
		}
		items = append(items, ItemFromRow(r, sup))
	}
	return items, nil
}
