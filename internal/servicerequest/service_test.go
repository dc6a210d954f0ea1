package servicerequest

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/restaurant-pos/internal/events"
	"github.com/vasiliy-maslov/restaurant-pos/internal/rpc"
	"github.com/vasiliy-maslov/restaurant-pos/internal/store/memory"
)

type ticker struct{ t time.Time }

func (c *ticker) now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func setup(t *testing.T) (*Service, *memory.Store, *events.Recorder, *ticker) {
	t.Helper()
	clk := &ticker{t: time.Date(2024, 6, 1, 19, 0, 0, 0, time.UTC)}
	s := memory.New()
	rec := &events.Recorder{}
	return NewService(s, rec, clk.now), s, rec, clk
}

func create(t *testing.T, svc *Service, table int, typ Type) ServiceRequest {
	t.Helper()
	req, err := svc.Create(context.Background(), CreateInput{TableNumber: table, RequestType: typ})
	require.NoError(t, err)
	return req
}

func TestService_Create(t *testing.T) {
	svc, s, rec, _ := setup(t)
	msg := "extra napkins"

	req, err := svc.Create(context.Background(), CreateInput{TableNumber: 4, RequestType: TypeWaiter, Message: &msg})
	require.NoError(t, err)

	assert.NotEmpty(t, req.ID)
	assert.Equal(t, StatusPending, req.Status)
	assert.Nil(t, req.ResolvedAt)
	assert.Nil(t, req.ResolvedBy)
	assert.Len(t, s.Rows(TableName), 1)

	evts := rec.Events()
	require.Len(t, evts, 1)
	assert.Equal(t, events.SubjectServiceRequestCreated, evts[0].Subject)
	assert.Equal(t, Event{RequestID: req.ID, TableNumber: 4, RequestType: TypeWaiter, Status: StatusPending}, evts[0].Data)
}

func TestService_CreateSurvivesBrokerOutage(t *testing.T) {
	svc, s, rec, _ := setup(t)
	rec.Err = assert.AnError

	_, err := svc.Create(context.Background(), CreateInput{TableNumber: 1, RequestType: TypeBill})

	require.NoError(t, err)
	assert.Len(t, s.Rows(TableName), 1)
}

func TestService_UpdateStatus(t *testing.T) {
	waiter := "Aruzhan"

	tests := []struct {
		name       string
		path       []Status
		to         Status
		wantErr    string
		wantStatus Status
		wantEvents int
	}{
		{name: "pending to in-progress", to: StatusInProgress, wantStatus: StatusInProgress, wantEvents: 1},
		{name: "pending straight to resolved", to: StatusResolved, wantStatus: StatusResolved, wantEvents: 1},
		{name: "in-progress to resolved", path: []Status{StatusInProgress}, to: StatusResolved, wantStatus: StatusResolved, wantEvents: 2},
		{name: "same status returns current", to: StatusPending, wantStatus: StatusPending},
		{name: "backwards is rejected", path: []Status{StatusInProgress}, to: StatusPending, wantErr: "cannot change service request status from in-progress to pending", wantStatus: StatusInProgress, wantEvents: 1},
		{name: "resolved is final", path: []Status{StatusResolved}, to: StatusResolved, wantErr: "service request is already resolved", wantStatus: StatusResolved, wantEvents: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, s, rec, _ := setup(t)
			ctx := context.Background()
			req := create(t, svc, 2, TypeBill)
			for _, st := range tt.path {
				_, err := svc.UpdateStatus(ctx, UpdateStatusInput{RequestID: req.ID, Status: st})
				require.NoError(t, err)
			}

			got, err := svc.UpdateStatus(ctx, UpdateStatusInput{RequestID: req.ID, Status: tt.to, ResolvedBy: &waiter})

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, rpc.IsPrecondition(err))
				assert.EqualError(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantStatus, got.Status)
			}
			assert.Equal(t, string(tt.wantStatus), s.Rows(TableName)[0].String("status"))
			assert.Len(t, rec.Events(), 1+tt.wantEvents, "create event plus status changes")
		})
	}
}

func TestService_ResolveStampsResolution(t *testing.T) {
	svc, _, _, clk := setup(t)
	req := create(t, svc, 7, TypeWrongOrder)
	who := "Nurlan"

	got, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{RequestID: req.ID, Status: StatusResolved, ResolvedBy: &who})
	require.NoError(t, err)

	require.NotNil(t, got.ResolvedAt)
	assert.Equal(t, clk.t, *got.ResolvedAt)
	require.NotNil(t, got.ResolvedBy)
	assert.Equal(t, "Nurlan", *got.ResolvedBy)
}

func TestService_Listing(t *testing.T) {
	svc, _, _, _ := setup(t)
	ctx := context.Background()
	first := create(t, svc, 1, TypeWaiter)
	second := create(t, svc, 2, TypeBill)
	third := create(t, svc, 3, TypeWaiter)

	_, err := svc.UpdateStatus(ctx, UpdateStatusInput{RequestID: second.ID, Status: StatusInProgress})
	require.NoError(t, err)
	res, err := svc.Complete(ctx, CompleteInput{RequestID: third.ID})
	require.NoError(t, err)
	assert.True(t, res.Success)

	all, err := svc.GetAll(ctx, GetAllInput{})
	require.NoError(t, err)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, ids(all))

	resolved := StatusResolved
	done, err := svc.GetAll(ctx, GetAllInput{Status: &resolved})
	require.NoError(t, err)
	assert.Equal(t, []string{third.ID}, ids(done))

	open, err := svc.GetOpen(ctx, rpc.Empty{})
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, second.ID}, ids(open))

	_, err = svc.Complete(ctx, CompleteInput{RequestID: third.ID})
	assert.EqualError(t, err, "service request is already resolved")

	_, err = svc.Complete(ctx, CompleteInput{RequestID: uuid.Must(uuid.NewV4()).String()})
	assert.EqualError(t, err, "service request not found")
}

func ids(reqs []ServiceRequest) []string {
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.ID
	}
	return out
}
