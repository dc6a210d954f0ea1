package inventory

import (
	"time"

	"github.com/vasiliy-maslov/restaurant-pos/internal/store"
)

const (
	ItemsTable     = "inventory_items"
	MovementsTable = "stock_movements"
)

type SupplierRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Item struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	CurrentStock float64      `json:"currentStock"`
	MinimumStock float64      `json:"minimumStock"`
	Unit         string       `json:"unit"`
	SupplierID   *string      `json:"supplierId,omitempty"`
	Supplier     *SupplierRef `json:"supplier"`
	IsLowStock   bool         `json:"isLowStock"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    *time.Time   `json:"updatedAt,omitempty"`
}

// Ref is the inventory item as embedded in other resources.
type Ref struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Unit         string  `json:"unit"`
	CurrentStock float64 `json:"currentStock"`
}

type Movement struct {
	ID              string    `json:"id"`
	InventoryItemID string    `json:"inventoryItemId"`
	Quantity        float64   `json:"quantity"`
	Reason          *string   `json:"reason,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// IsLow reports whether the current stock is below the minimum stock.
func IsLow(r store.Row) bool {
	return r.Float("current_stock") < r.Float("minimum_stock")
}

// ItemFromRow shapes an inventory row; supplier is nil when the item has no
// supplier or the supplier row is missing.
func ItemFromRow(r store.Row, supplier store.Row) Item {
	item := Item{
		ID:           r.String("id"),
		Name:         r.String("name"),
		CurrentStock: r.Float("current_stock"),
		MinimumStock: r.Float("minimum_stock"),
		Unit:         r.String("unit"),
		SupplierID:   r.StringPtr("supplier_id"),
		IsLowStock:   IsLow(r),
		CreatedAt:    r.Time("created_at"),
		UpdatedAt:    r.TimePtr("updated_at"),
	}
	if supplier != nil {
		item.Supplier = &SupplierRef{ID: supplier.String("id"), Name: supplier.String("name")}
	}
	return item
}

func RefFromRow(r store.Row) *Ref {
	if r == nil {
		return nil
	}
	return &Ref{
		ID:           r.String("id"),
		Name:         r.String("name"),
		Unit:         r.String("unit"),
		CurrentStock: r.Float("current_stock"),
	}
}

func MovementFromRow(r store.Row) Movement {
	return Movement{
		ID:              r.String("id"),
		InventoryItemID: r.String("inventory_item_id"),
		Quantity:        r.Float("quantity"),
		Reason:          r.StringPtr("reason"),
		CreatedAt:       r.Time("created_at"),
	}
}
