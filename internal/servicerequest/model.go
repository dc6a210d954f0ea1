package servicerequest

import (
	"time"

	"github.com/vasiliy-maslov/restaurant-pos/internal/store"
)

const TableName = "service_requests"

type Type string

const (
	TypeWaiter     Type = "waiter"
	TypeBill       Type = "bill"
	TypeWrongOrder Type = "wrong-order"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
)

func (s Status) String() string {
	return string(s)
}

var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusInProgress: true,
		StatusResolved:   true,
	},
	StatusInProgress: {
		StatusResolved: true,
	},
	StatusResolved: {},
}

type ServiceRequest struct {
	ID          string     `json:"id"`
	TableNumber int        `json:"tableNumber"`
	RequestType Type       `json:"requestType"`
	Status      Status     `json:"status"`
	Message     *string    `json:"message,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	ResolvedAt  *time.Time `json:"resolvedAt"`
	ResolvedBy  *string    `json:"resolvedBy"`
}

func FromRow(r store.Row) ServiceRequest {
	return ServiceRequest{
		ID:          r.String("id"),
		TableNumber: r.Int("table_number"),
		RequestType: Type(r.String("request_type")),
		Status:      Status(r.String("status")),
		Message:     r.StringPtr("message"),
		CreatedAt:   r.Time("created_at"),
		ResolvedAt:  r.TimePtr("resolved_at"),
		ResolvedBy:  r.StringPtr("resolved_by"),
	}
}

// Event is published when a request is created or changes status.
type Event struct {
	RequestID   string `json:"requestId"`
	TableNumber int    `json:"tableNumber"`
	RequestType Type   `json:"requestType"`
	Status      Status `json:"status"`
}

func eventOf(r ServiceRequest) Event {
	return Event{
		RequestID:   r.ID,
		TableNumber: r.TableNumber,
		RequestType: r.RequestType,
		Status:      r.Status,
	}
}
