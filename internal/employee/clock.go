package employee

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/restaurant-pos/internal/rpc"
	"github.com/vasiliy-maslov/restaurant-pos/internal/store"
)

const defaultClockRecordsLimit = 100

type ClockInInput struct {
	EmployeeID string `json:"employeeId" validate:"required,uuid"`
}

type ClockOutInput struct {
	EmployeeID   string `json:"employeeId" validate:"required,uuid"`
	BreakMinutes *int   `json:"breakMinutes" validate:"omitempty,min=0,max=600"`
}

type EmployeeInput struct {
	EmployeeID string `json:"employeeId" validate:"required,uuid"`
}

type GetClockRecordsInput struct {
	EmployeeID *string `json:"employeeId" validate:"omitempty,uuid"`
	Limit      int     `json:"limit" validate:"omitempty,min=1,max=500"`
}

type CreateShiftInput struct {
	EmployeeID string  `json:"employeeId" validate:"required,uuid"`
	Date       string  `json:"date" validate:"required,isodate"`
	StartTime  string  `json:"startTime" validate:"required,hhmm"`
	EndTime    string  `json:"endTime" validate:"required,hhmm"`
	Notes      *string `json:"notes" validate:"omitempty,max=500"`
}

type GetShiftsInput struct {
	EmployeeID *string `json:"employeeId" validate:"omitempty,uuid"`
	StartDate  *string `json:"startDate" validate:"omitempty,isodate"`
	EndDate    *string `json:"endDate" validate:"omitempty,isodate"`
}

func openRecord(ctx context.Context, st store.Store, employeeID string) (store.Row, error) {
	return store.First(ctx, st, store.From(ClockRecordTable).
		Where(store.Eq("employee_id", employeeID), store.IsNull("clock_out")).
		OrderBy(store.Desc("clock_in")))
}

// ClockIn opens a clock record. An employee has at most one open record.
func (s *Service) ClockIn(ctx context.Context, in ClockInInput) (ClockRecord, error) {
	emp, err := s.employee(ctx, s.store, in.EmployeeID)
	if err != nil {
		return ClockRecord{}, err
	}
	if emp == nil {
		return ClockRecord{}, rpc.Precondition("employee not found")
	}

	open, err := openRecord(ctx, s.store, in.EmployeeID)
	if err != nil {
		return ClockRecord{}, fmt.Errorf("service: failed to check open clock record: %w", err)
	}
	if open != nil {
		return ClockRecord{}, rpc.Precondition("already clocked in")
	}

	created, err := s.store.Insert(ctx, ClockRecordTable, store.Row{
		"employee_id":   in.EmployeeID,
		"clock_in":      s.now().UTC(),
		"break_minutes": 0,
	})
	if errors.Is(err, store.ErrConflict) {
		// a concurrent clock-in won the open-record index
		return ClockRecord{}, rpc.Precondition("already clocked in")
	}
	if err != nil {
		return ClockRecord{}, fmt.Errorf("service: failed to clock in employee %s: %w", in.EmployeeID, err)
	}

	log.Info().Str("employee_id", in.EmployeeID).Msg("service: employee clocked in")
	return ClockRecordFromRow(created, emp), nil
}

func (s *Service) ClockOut(ctx context.Context, in ClockOutInput) (ClockRecord, error) {
	open, err := openRecord(ctx, s.store, in.EmployeeID)
	if err != nil {
		return ClockRecord{}, fmt.Errorf("service: failed to check open clock record: %w", err)
	}
	if open == nil {
		return ClockRecord{}, rpc.Precondition("not clocked in")
	}

	set := store.Row{"clock_out": s.now().UTC()}
	if in.BreakMinutes != nil {
		set["break_minutes"] = *in.BreakMinutes
	}
	rows, err := s.store.Update(ctx, ClockRecordTable, set, store.Eq("id", open.String("id")))
	if err != nil {
		return ClockRecord{}, fmt.Errorf("service: failed to clock out employee %s: %w", in.EmployeeID, err)
	}
	if len(rows) == 0 {
		return ClockRecord{}, rpc.Precondition("not clocked in")
	}

	emp, err := s.employee(ctx, s.store, in.EmployeeID)
	if err != nil {
		return ClockRecord{}, err
	}

	log.Info().Str("employee_id", in.EmployeeID).Msg("service: employee clocked out")
	return ClockRecordFromRow(rows[0], emp), nil
}

// GetActiveClock returns the open clock record of the employee, or nil.
func (s *Service) GetActiveClock(ctx context.Context, in EmployeeInput) (*ClockRecord, error) {
	open, err := openRecord(ctx, s.store, in.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch active clock record: %w", err)
	}
	if open == nil {
		return nil, nil
	}

	emp, err := s.employee(ctx, s.store, in.EmployeeID)
	if err != nil {
		return nil, err
	}
	rec := ClockRecordFromRow(open, emp)
	return &rec, nil
}

func (s *Service) GetClockRecords(ctx context.Context, in GetClockRecordsInput) ([]ClockRecord, error) {
	limit := in.Limit
	if limit == 0 {
		limit = defaultClockRecordsLimit
	}
	q := store.From(ClockRecordTable).OrderBy(store.Desc("clock_in")).Limit(limit)
	if in.EmployeeID != nil {
		q = q.Where(store.Eq("employee_id", *in.EmployeeID))
	}

	rows, err := s.store.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch clock records: %w", err)
	}
	employees, err := s.employeesByID(ctx, rows)
	if err != nil {
		return nil, err
	}

	records := make([]ClockRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, ClockRecordFromRow(r, employees[r.String("employee_id")]))
	}
	return records, nil
}

// CreateShift schedules a shift. Times are zero-padded HH:MM, so they
// compare lexically.
func (s *Service) CreateShift(ctx context.Context, in CreateShiftInput) (Shift, error) {
	if in.EndTime <= in.StartTime {
		return Shift{}, rpc.InvalidField("endTime", "must be after startTime")
	}

	emp, err := s.employee(ctx, s.store, in.EmployeeID)
	if err != nil {
		return Shift{}, err
	}
	if emp == nil {
		return Shift{}, rpc.Precondition("employee not found")
	}

	row := store.Row{
		"employee_id": in.EmployeeID,
		"date":        in.Date,
		"start_time":  in.StartTime,
		"end_time":    in.EndTime,
	}
	if in.Notes != nil {
		row["notes"] = *in.Notes
	}
	created, err := s.store.Insert(ctx, ShiftTable, row)
	if err != nil {
		return Shift{}, fmt.Errorf("service: failed to create shift: %w", err)
	}

	log.Info().Str("employee_id", in.EmployeeID).Str("date", in.Date).Msg("service: shift created")
	return ShiftFromRow(created, emp), nil
}

func (s *Service) GetShifts(ctx context.Context, in GetShiftsInput) ([]Shift, error) {
	q := store.From(ShiftTable).OrderBy(store.Asc("date"), store.Asc("start_time"))
	if in.EmployeeID != nil {
		q = q.Where(store.Eq("employee_id", *in.EmployeeID))
	}
	if in.StartDate != nil {
		q = q.Where(store.Gte("date", *in.StartDate))
	}
	if in.EndDate != nil {
		q = q.Where(store.Lte("date", *in.EndDate))
	}

	rows, err := s.store.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch shifts: %w", err)
	}
	employees, err := s.employeesByID(ctx, rows)
	if err != nil {
		return nil, err
	}

	shifts := make([]Shift, 0, len(rows))
	for _, r := range rows {
		shifts = append(shifts, ShiftFromRow(r, employees[r.String("employee_id")]))
	}
	return shifts, nil
}
