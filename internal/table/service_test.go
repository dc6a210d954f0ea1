package table

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/restaurant-pos/internal/events"
	"github.com/vasiliy-maslov/restaurant-pos/internal/rpc"
	"github.com/vasiliy-maslov/restaurant-pos/internal/store"
	"github.com/vasiliy-maslov/restaurant-pos/internal/store/memory"
)

var fixedNow = time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Select(ctx context.Context, q store.Query) ([]store.Row, error) {
	args := m.Called(ctx, q)
	rows, _ := args.Get(0).([]store.Row)
	return rows, args.Error(1)
}

func (m *MockStore) Insert(ctx context.Context, table string, row store.Row) (store.Row, error) {
	args := m.Called(ctx, table, row)
	r, _ := args.Get(0).(store.Row)
	return r, args.Error(1)
}

func (m *MockStore) Update(ctx context.Context, table string, set store.Row, filters ...store.Filter) ([]store.Row, error) {
	args := m.Called(ctx, table, set, filters)
	rows, _ := args.Get(0).([]store.Row)
	return rows, args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, table string, filters ...store.Filter) (int64, error) {
	args := m.Called(ctx, table, filters)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) InTx(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func seedTables(s *memory.Store) {
	s.Seed(TableName,
		store.Row{"number": 2, "status": "available", "capacity": 4},
		store.Row{"number": 1, "status": "occupied", "capacity": 2, "current_order_id": "o1"},
	)
}

func TestService_GetAll(t *testing.T) {
	s := memory.New()
	seedTables(s)
	svc := NewService(s, nil, clock)

	tables, err := svc.GetAll(context.Background(), rpc.Empty{})
	require.NoError(t, err)

	require.Len(t, tables, 2)
	assert.Equal(t, 1, tables[0].Number)
	assert.Equal(t, StatusOccupied, tables[0].Status)
	require.NotNil(t, tables[0].CurrentOrderID)
	assert.Equal(t, "o1", *tables[0].CurrentOrderID)
	assert.Nil(t, tables[1].CurrentOrderID)
}

func TestService_UpdateStatus(t *testing.T) {
	guest := "Smith"

	tests := []struct {
		name       string
		input      UpdateStatusInput
		wantErr    string
		wantStatus string
		check      func(t *testing.T, row store.Row)
	}{
		{
			name:       "available stamps cleaning time",
			input:      UpdateStatusInput{TableNumber: 1, Status: StatusAvailable},
			wantStatus: "available",
			check: func(t *testing.T, row store.Row) {
				assert.Equal(t, fixedNow, row.Time("last_cleaned_at"))
				assert.Nil(t, row["reserved_by"])
			},
		},
		{
			name:       "reserved records holder",
			input:      UpdateStatusInput{TableNumber: 1, Status: StatusReserved, ReservedBy: &guest},
			wantStatus: "reserved",
			check: func(t *testing.T, row store.Row) {
				assert.Equal(t, "Smith", row.String("reserved_by"))
			},
		},
		{
			name:    "unknown table",
			input:   UpdateStatusInput{TableNumber: 42, Status: StatusOccupied},
			wantErr: "table 42 not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := memory.New()
			seedTables(s)
			rec := &events.Recorder{}
			svc := NewService(s, rec, clock)

			got, err := svc.UpdateStatus(context.Background(), tt.input)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, rpc.IsPrecondition(err))
				assert.EqualError(t, err, tt.wantErr)
				assert.Empty(t, rec.Subjects())
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Success)

			rows, err := s.Select(context.Background(), store.From(TableName).Where(store.Eq("number", tt.input.TableNumber)))
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, tt.wantStatus, rows[0].String("status"))
			tt.check(t, rows[0])
			assert.Equal(t, []string{events.SubjectTableStatusChanged}, rec.Subjects())
		})
	}
}

func TestService_UpdateStatus_StoreError(t *testing.T) {
	ms := new(MockStore)
	dbErr := errors.New("connection reset")
	ms.On("Update", mock.Anything, TableName, mock.AnythingOfType("store.Row"), []store.Filter{store.Eq("number", 3)}).
		Return(nil, dbErr).Once()

	svc := NewService(ms, nil, clock)
	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{TableNumber: 3, Status: StatusOccupied})

	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.False(t, rpc.IsPrecondition(err))
	ms.AssertExpectations(t)
}

func TestNeedsCleaningAndOccupy(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	seedTables(s)

	require.NoError(t, Occupy(2, "o9", fixedNow).Apply(ctx, s))
	rows := s.Rows(TableName)
	assert.Equal(t, "occupied", rows[0].String("status"))
	assert.Equal(t, "o9", rows[0].String("current_order_id"))

	require.NoError(t, NeedsCleaning(2, "o8", fixedNow).Apply(ctx, s))
	rows = s.Rows(TableName)
	assert.Equal(t, "occupied", rows[0].String("status"), "table serves another order")
	assert.Equal(t, "o9", rows[0].String("current_order_id"))

	require.NoError(t, NeedsCleaning(2, "o9", fixedNow).Apply(ctx, s))
	rows = s.Rows(TableName)
	assert.Equal(t, "needs-cleaning", rows[0].String("status"))
	assert.Nil(t, rows[0]["current_order_id"])

	assert.NoError(t, Occupy(99, "o10", fixedNow).Apply(ctx, s), "unknown tables are skipped")
	assert.NoError(t, NeedsCleaning(99, "o10", fixedNow).Apply(ctx, s))
}
