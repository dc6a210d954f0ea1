package employee

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/restaurant-pos/internal/store"
)

const (
	TableName        = "employees"
	ClockRecordTable = "clock_records"
	ShiftTable       = "shifts"
)

type Role string

const (
	RoleManager   Role = "manager"
	RoleWaiter    Role = "waiter"
	RoleChef      Role = "chef"
	RoleBartender Role = "bartender"
	RoleCashier   Role = "cashier"
	RoleHost      Role = "host"
	RoleCleaner   Role = "cleaner"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type Employee struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Role       Role       `json:"role"`
	Phone      *string    `json:"phone"`
	Email      *string    `json:"email"`
	HourlyRate float64    `json:"hourlyRate"`
	Status     Status     `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

type ClockRecord struct {
	ID           string     `json:"id"`
	EmployeeID   string     `json:"employeeId"`
	EmployeeName *string    `json:"employeeName"`
	ClockIn      time.Time  `json:"clockIn"`
	ClockOut     *time.Time `json:"clockOut"`
	BreakMinutes int        `json:"breakMinutes"`
	HoursWorked  *float64   `json:"hoursWorked"`
}

type Shift struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employeeId"`
	EmployeeName *string `json:"employeeName"`
	EmployeeRole *Role   `json:"employeeRole"`
	Date         string  `json:"date"`
	StartTime    string  `json:"startTime"`
	EndTime      string  `json:"endTime"`
	Notes        *string `json:"notes,omitempty"`
}

func FromRow(r store.Row) Employee {
	return Employee{
		ID:         r.String("id"),
		Name:       r.String("name"),
		Role:       Role(r.String("role")),
		Phone:      r.StringPtr("phone"),
		Email:      r.StringPtr("email"),
		HourlyRate: r.Float("hourly_rate"),
		Status:     Status(r.String("status")),
		CreatedAt:  r.Time("created_at"),
		UpdatedAt:  r.TimePtr("updated_at"),
	}
}

// ClockRecordFromRow shapes a clock record; employee may be nil.
func ClockRecordFromRow(r store.Row, employee store.Row) ClockRecord {
	rec := ClockRecord{
		ID:           r.String("id"),
		EmployeeID:   r.String("employee_id"),
		ClockIn:      r.Time("clock_in"),
		ClockOut:     r.TimePtr("clock_out"),
		BreakMinutes: r.Int("break_minutes"),
	}
	if employee != nil {
		rec.EmployeeName = employee.StringPtr("name")
	}
	if rec.ClockOut != nil {
		h := hoursWorked(rec.ClockIn, *rec.ClockOut, rec.BreakMinutes)
		rec.HoursWorked = &h
	}
	return rec
}

// ShiftFromRow shapes a shift; employee may be nil.
func ShiftFromRow(r store.Row, employee store.Row) Shift {
	s := Shift{
		ID:         r.String("id"),
		EmployeeID: r.String("employee_id"),
		Date:       r.Date("date"),
		StartTime:  r.String("start_time"),
		EndTime:    r.String("end_time"),
		Notes:      r.StringPtr("notes"),
	}
	if employee != nil {
		s.EmployeeName = employee.StringPtr("name")
		role := Role(employee.String("role"))
		s.EmployeeRole = &role
	}
	return s
}

func hoursWorked(in, out time.Time, breakMinutes int) float64 {
	worked := out.Sub(in) - time.Duration(breakMinutes)*time.Minute
	if worked < 0 {
		return 0
	}
	return decimal.NewFromFloat(worked.Hours()).Round(2).InexactFloat64()
}
