package table

import (
	"time"

	"github.com/vasiliy-maslov/restaurant-pos/internal/store"
)

// TableName is the storage table holding dining tables.
const TableName = "restaurant_tables"

type Status string

const (
	StatusAvailable     Status = "available"
	StatusOccupied      Status = "occupied"
	StatusReserved      Status = "reserved"
	StatusNeedsCleaning Status = "needs-cleaning"
)

func (s Status) String() string {
	return string(s)
}

type Table struct {
	Number         int        `json:"number"`
	Status         Status     `json:"status"`
	Capacity       int        `json:"capacity"`
	CurrentOrderID *string    `json:"currentOrderId,omitempty"`
	ReservedBy     *string    `json:"reservedBy,omitempty"`
	LastCleanedAt  *time.Time `json:"lastCleanedAt,omitempty"`
}

func FromRow(r store.Row) Table {
	return Table{
		Number:         r.Int("number"),
		Status:         Status(r.String("status")),
		Capacity:       r.Int("capacity"),
		CurrentOrderID: r.StringPtr("current_order_id"),
		ReservedBy:     r.StringPtr("reserved_by"),
		LastCleanedAt:  r.TimePtr("last_cleaned_at"),
	}
}
