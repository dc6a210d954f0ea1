package order

import (
	"time"

	"github.com/vasiliy-maslov/restaurant-pos/internal/menu"
	"github.com/vasiliy-maslov/restaurant-pos/internal/store"
)

const (
	TableName      = "orders"
	ItemsTableName = "order_items"
)

type Status string

const (
	StatusNew       Status = "new"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusServed    Status = "served"
	StatusPaid      Status = "paid"
)

func (s Status) String() string {
	return string(s)
}

// ActiveStatuses are the statuses of an order still open at its table.
var ActiveStatuses = []Status{StatusNew, StatusPreparing, StatusReady}

type Item struct {
	ID         string        `json:"id"`
	MenuItemID string        `json:"menuItemId"`
	Quantity   int           `json:"quantity"`
	Notes      *string       `json:"notes,omitempty"`
	MenuItem   *menu.Summary `json:"menuItem"`
}

type SplitBill struct {
	People    int     `json:"people"`
	PerPerson float64 `json:"perPerson"`
}

type Order struct {
	ID          string     `json:"id"`
	TableNumber int        `json:"tableNumber"`
	Items       []Item     `json:"items"`
	Status      Status     `json:"status"`
	Total       float64    `json:"total"`
	SplitBill   *SplitBill `json:"splitBill,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

func ItemFromRow(r store.Row, menuItem store.Row) Item {
	return Item{
		ID:         r.String("id"),
		MenuItemID: r.String("menu_item_id"),
		Quantity:   r.Int("quantity"),
		Notes:      r.StringPtr("notes"),
		MenuItem:   menu.SummaryFromRow(menuItem),
	}
}

func FromRow(r store.Row, items []Item) Order {
	if items == nil {
		items = []Item{}
	}
	o := Order{
		ID:          r.String("id"),
		TableNumber: r.Int("table_number"),
		Items:       items,
		Status:      Status(r.String("status")),
		Total:       r.Float("total"),
		CreatedAt:   r.Time("created_at"),
		UpdatedAt:   r.TimePtr("updated_at"),
	}
	if r.Has("split_people") {
		o.SplitBill = &SplitBill{
			People:    r.Int("split_people"),
			PerPerson: r.Float("split_amount"),
		}
	}
	return o
}
