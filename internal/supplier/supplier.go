package supplier

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/restaurant-pos/internal/rpc"
	"github.com/vasiliy-maslov/restaurant-pos/internal/store"
)

const TableName = "suppliers"

type Supplier struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContactName *string   `json:"contactName,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Email       *string   `json:"email,omitempty"`
	Address     *string   `json:"address,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func FromRow(r store.Row) Supplier {
	return Supplier{
		ID:          r.String("id"),
		Name:        r.String("name"),
		ContactName: r.StringPtr("contact_name"),
		Phone:       r.StringPtr("phone"),
		Email:       r.StringPtr("email"),
		Address:     r.StringPtr("address"),
		CreatedAt:   r.Time("created_at"),
	}
}

type CreateInput struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	ContactName *string `json:"contactName" validate:"omitempty,max=200"`
	Phone       *string `json:"phone" validate:"omitempty,min=3,max=32"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Address     *string `json:"address" validate:"omitempty,max=500"`
}

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

func (s *Service) Register(r *rpc.Registry) {
	rpc.Query(r, "suppliers.getAll", s.GetAll)
	rpc.Mutation(r, "suppliers.create", s.Create)
}

func (s *Service) GetAll(ctx context.Context, _ rpc.Empty) ([]Supplier, error) {
	rows, err := s.store.Select(ctx, store.From(TableName).OrderBy(store.Asc("name")))
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch suppliers: %w", err)
	}
	suppliers := make([]Supplier, 0, len(rows))
	for _, r := range rows {
		suppliers = append(suppliers, FromRow(r))
	}
	return suppliers, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Supplier, error) {
	row := store.Row{"name": in.Name}
	putString(row, "contact_name", in.ContactName)
	putString(row, "phone", in.Phone)
	putString(row, "email", in.Email)
	putString(row, "address", in.Address)

	created, err := s.store.Insert(ctx, TableName, row)
	if err != nil {
		return Supplier{}, fmt.Errorf("service: failed to create supplier: %w", err)
	}

	log.Info().Str("supplier_id", created.String("id")).Msg("service: supplier created")
	return FromRow(created), nil
}

// Exists reports whether a supplier with id is stored.
func Exists(ctx context.Context, st store.Store, id string) (bool, error) {
	row, err := store.First(ctx, st, store.From(TableName).Where(store.Eq("id", id)))
	if err != nil {
		return false, err
	}
	return row != nil, nil
}

func putString(row store.Row, column string, v *string) {
	if v != nil {
		row[column] = *v
	}
}
