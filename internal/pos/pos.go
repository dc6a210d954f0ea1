// Package pos assembles every resource service into one procedure registry.
package pos

import (
	"time"

	"github.com/vasiliy-maslov/restaurant-pos/internal/cascade"
	"github.com/vasiliy-maslov/restaurant-pos/internal/employee"
	"github.com/vasiliy-maslov/restaurant-pos/internal/events"
	"github.com/vasiliy-maslov/restaurant-pos/internal/history"
	"github.com/vasiliy-maslov/restaurant-pos/internal/inventory"
	"github.com/vasiliy-maslov/restaurant-pos/internal/menu"
	"github.com/vasiliy-maslov/restaurant-pos/internal/order"
	"github.com/vasiliy-maslov/restaurant-pos/internal/rating"
	"github.com/vasiliy-maslov/restaurant-pos/internal/report"
	"github.com/vasiliy-maslov/restaurant-pos/internal/rpc"
	"github.com/vasiliy-maslov/restaurant-pos/internal/servicerequest"
	"github.com/vasiliy-maslov/restaurant-pos/internal/store"
	"github.com/vasiliy-maslov/restaurant-pos/internal/supplier"
	"github.com/vasiliy-maslov/restaurant-pos/internal/table"
)

type Deps struct {
	Store       store.Store
	Publisher   events.Publisher
	CascadeMode cascade.Mode
	Now         func() time.Time
}

type registrar interface {
	Register(r *rpc.Registry)
}

// NewRegistry returns a registry holding every POS procedure.
func NewRegistry(d Deps) *rpc.Registry {
	r := rpc.NewRegistry()
	Register(r, d)
	return r
}

func Register(r *rpc.Registry, d Deps) {
	services := []registrar{
		menu.NewService(d.Store, d.Now),
		order.NewService(d.Store, d.Publisher, d.CascadeMode, d.Now),
		table.NewService(d.Store, d.Publisher, d.Now),
		employee.NewService(d.Store, d.Now),
		inventory.NewService(d.Store, d.Now),
		supplier.NewService(d.Store),
		rating.NewService(d.Store),
		servicerequest.NewService(d.Store, d.Publisher, d.Now),
		history.NewService(d.Store, d.Now),
		report.NewService(d.Store),
	}
	for _, s := range services {
		s.Register(r)
	}
}
