package employee

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/restaurant-pos/internal/rpc"
	"github.com/vasiliy-maslov/restaurant-pos/internal/store"
)

type GetAllInput struct {
	Status *Status `json:"status" validate:"omitempty,oneof=active inactive"`
}

type CreateInput struct {
	Name       string   `json:"name" validate:"required,min=1,max=200"`
	Role       Role     `json:"role" validate:"required,oneof=manager waiter chef bartender cashier host cleaner"`
	Phone      *string  `json:"phone" validate:"omitempty,min=3,max=32"`
	Email      *string  `json:"email" validate:"omitempty,email"`
	HourlyRate *float64 `json:"hourlyRate" validate:"required,gte=0"`
}

type UpdateInput struct {
	ID         string                `json:"id" validate:"required,uuid"`
	Name       rpc.Optional[string]  `json:"name" validate:"omitempty,min=1,max=200"`
	Role       rpc.Optional[string]  `json:"role" validate:"omitempty,oneof=manager waiter chef bartender cashier host cleaner"`
	Phone      rpc.Optional[string]  `json:"phone" validate:"omitempty,min=3,max=32"`
	Email      rpc.Optional[string]  `json:"email" validate:"omitempty,email"`
	HourlyRate rpc.Optional[float64] `json:"hourlyRate" validate:"omitempty,gte=0"`
	Status     rpc.Optional[string]  `json:"status" validate:"omitempty,oneof=active inactive"`
}

type IDInput struct {
	ID string `json:"id" validate:"required,uuid"`
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
	rpc.Query(r, "employees.getAll", s.GetAll)
	rpc.Mutation(r, "employees.create", s.Create)
	rpc.Mutation(r, "employees.update", s.Update)
	rpc.Mutation(r, "employees.delete", s.Delete)

	rpc.Mutation(r, "employees.clockIn", s.ClockIn)
	rpc.Mutation(r, "employees.clockOut", s.ClockOut)
	rpc.Query(r, "employees.getActiveClock", s.GetActiveClock)
	rpc.Query(r, "employees.getClockRecords", s.GetClockRecords)

	rpc.Mutation(r, "employees.createShift", s.CreateShift)
	rpc.Query(r, "employees.getShifts", s.GetShifts)
}

func (s *Service) GetAll(ctx context.Context, in GetAllInput) ([]Employee, error) {
	q := store.From(TableName).OrderBy(store.Asc("name"))
	if in.Status != nil {
		q = q.Where(store.Eq("status", string(*in.Status)))
	}

	rows, err := s.store.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch employees: %w", err)
	}
	employees := make([]Employee, 0, len(rows))
	for _, r := range rows {
		employees = append(employees, FromRow(r))
	}
	return employees, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Employee, error) {
	row := store.Row{
		"name":        in.Name,
		"role":        string(in.Role),
		"hourly_rate": *in.HourlyRate,
		"status":      string(StatusActive),
	}
	if in.Phone != nil {
		row["phone"] = *in.Phone
	}
	if in.Email != nil {
		row["email"] = *in.Email
	}

	created, err := s.store.Insert(ctx, TableName, row)
	if err != nil {
		return Employee{}, fmt.Errorf("service: failed to create employee: %w", err)
	}

	log.Info().Str("employee_id", created.String("id")).Str("role", string(in.Role)).Msg("service: employee created")
	return FromRow(created), nil
}

// Update applies a partial update. Phone and email are cleared by null;
// the other fields reject null.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Employee, error) {
	var nulls []rpc.FieldError
	for _, f := range []struct {
		name string
		null bool
	}{
		{"name", in.Name.Null},
		{"role", in.Role.Null},
		{"hourlyRate", in.HourlyRate.Null},
		{"status", in.Status.Null},
	} {
		if f.null {
			nulls = append(nulls, rpc.FieldError{Field: f.name, Reason: "cannot be null"})
		}
	}
	if len(nulls) > 0 {
		return Employee{}, rpc.Validation(nulls...)
	}

	set := store.Row{}
	in.Name.Put(set, "name")
	in.Role.Put(set, "role")
	in.Phone.Put(set, "phone")
	in.Email.Put(set, "email")
	in.HourlyRate.Put(set, "hourly_rate")
	in.Status.Put(set, "status")
	if len(set) == 0 {
		return Employee{}, rpc.InvalidField("input", "no fields to update")
	}
	set["updated_at"] = s.now().UTC()

	rows, err := s.store.Update(ctx, TableName, set, store.Eq("id", in.ID))
	if err != nil {
		return Employee{}, fmt.Errorf("service: failed to update employee %s: %w", in.ID, err)
	}
	if len(rows) == 0 {
		return Employee{}, rpc.Precondition("employee not found")
	}

	log.Info().Str("employee_id", in.ID).Msg("service: employee updated")
	return FromRow(rows[0]), nil
}

func (s *Service) Delete(ctx context.Context, in IDInput) (rpc.Success, error) {
	deleted, err := s.store.Delete(ctx, TableName, store.Eq("id", in.ID))
	if err != nil {
		return rpc.Success{}, fmt.Errorf("service: failed to delete employee %s: %w", in.ID, err)
	}
	if deleted == 0 {
		return rpc.Success{}, rpc.Precondition("employee not found")
	}

	log.Info().Str("employee_id", in.ID).Msg("service: employee deleted")
	return rpc.Done(), nil
}

func (s *Service) employee(ctx context.Context, st store.Store, id string) (store.Row, error) {
	row, err := store.First(ctx, st, store.From(TableName).Where(store.Eq("id", id)))
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch employee %s: %w", id, err)
	}
	return row, nil
}

// employeesByID fetches the employees referenced by rows in one query.
func (s *Service) employeesByID(ctx context.Context, rows []store.Row) (map[string]store.Row, error) {
	ids := store.Column(rows, "employee_id")
	if len(ids) == 0 {
		return map[string]store.Row{}, nil
	}
	employees, err := s.store.Select(ctx, store.From(TableName).Where(store.In("id", ids)))
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch employees: %w", err)
	}
	return store.Index(employees, "id"), nil
}
