package servicerequest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/restaurant-pos/internal/events"
	"github.com/vasiliy-maslov/restaurant-pos/internal/rpc"
	"github.com/vasiliy-maslov/restaurant-pos/internal/store"
)

type CreateInput struct {
	TableNumber int     `json:"tableNumber" validate:"required,min=1"`
	RequestType Type    `json:"requestType" validate:"required,oneof=waiter bill wrong-order"`
	Message     *string `json:"message" validate:"omitempty,max=500"`
}

type GetAllInput struct {
	Status *Status `json:"status" validate:"omitempty,oneof=pending in-progress resolved"`
}

type UpdateStatusInput struct {
	RequestID  string  `json:"requestId" validate:"required,uuid"`
	Status     Status  `json:"status" validate:"required,oneof=pending in-progress resolved"`
	ResolvedBy *string `json:"resolvedBy" validate:"omitempty,min=1,max=100"`
}

type CompleteInput struct {
	RequestID  string  `json:"requestId" validate:"required,uuid"`
	ResolvedBy *string `json:"resolvedBy" validate:"omitempty,min=1,max=100"`
}

type Service struct {
	store     store.Store
	publisher events.Publisher
	now       func() time.Time
}

func NewService(st store.Store, publisher events.Publisher, now func() time.Time) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if now == nil {
		now = time.Now
	}
	return &Service{store: st, publisher: publisher, now: now}
}

func (s *Service) Register(r *rpc.Registry) {
	rpc.Mutation(r, "serviceRequests.create", s.Create)
	rpc.Query(r, "serviceRequests.getAll", s.GetAll)
	rpc.Mutation(r, "serviceRequests.updateStatus", s.UpdateStatus)

	rpc.Query(r, "waiter.getRequests", s.GetOpen)
	rpc.Mutation(r, "waiter.completeRequest", s.Complete)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (ServiceRequest, error) {
	row := store.Row{
		"table_number": in.TableNumber,
		"request_type": string(in.RequestType),
		"status":       string(StatusPending),
		"created_at":   s.now().UTC(),
	}
	if in.Message != nil {
		row["message"] = *in.Message
	}

	created, err := s.store.Insert(ctx, TableName, row)
	if err != nil {
		return ServiceRequest{}, fmt.Errorf("service: failed to create service request: %w", err)
	}
	req := FromRow(created)

	log.Info().Str("request_id", req.ID).Int("table_number", in.TableNumber).Str("type", string(in.RequestType)).Msg("service: service request created")
	events.Notify(ctx, s.publisher, events.SubjectServiceRequestCreated, eventOf(req))
	return req, nil
}

func (s *Service) GetAll(ctx context.Context, in GetAllInput) ([]ServiceRequest, error) {
	q := store.From(TableName).OrderBy(store.Desc("created_at"))
	if in.Status != nil {
		q = q.Where(store.Eq("status", string(*in.Status)))
	}
	return s.list(ctx, q)
}

// GetOpen lists requests still waiting for staff, oldest first.
func (s *Service) GetOpen(ctx context.Context, _ rpc.Empty) ([]ServiceRequest, error) {
	return s.list(ctx, store.From(TableName).
		Where(store.InStrings("status", string(StatusPending), string(StatusInProgress))).
		OrderBy(store.Asc("created_at")))
}

func (s *Service) UpdateStatus(ctx context.Context, in UpdateStatusInput) (ServiceRequest, error) {
	return s.transition(ctx, in.RequestID, in.Status, in.ResolvedBy)
}

func (s *Service) Complete(ctx context.Context, in CompleteInput) (rpc.Success, error) {
	if _, err := s.transition(ctx, in.RequestID, StatusResolved, in.ResolvedBy); err != nil {
		return rpc.Success{}, err
	}
	return rpc.Done(), nil
}

// transition moves a request forward. Resolving stamps the resolution time
// and the resolver.
func (s *Service) transition(ctx context.Context, id string, status Status, resolvedBy *string) (ServiceRequest, error) {
	current, err := store.First(ctx, s.store, store.From(TableName).Where(store.Eq("id", id)))
	if err != nil {
		return ServiceRequest{}, fmt.Errorf("service: failed to get service request %s: %w", id, err)
	}
	if current == nil {
		return ServiceRequest{}, rpc.Precondition("service request not found")
	}

	oldStatus := Status(current.String("status"))
	if oldStatus == StatusResolved {
		return ServiceRequest{}, rpc.Precondition("service request is already resolved")
	}
	if oldStatus == status {
		return FromRow(current), nil
	}
	if !allowedTransitions[oldStatus][status] {
		log.Warn().
			Str("request_id", id).
			Stringer("current_status", oldStatus).
			Stringer("new_status", status).
			Msg("service: invalid service request transition attempt")
		return ServiceRequest{}, rpc.Precondition("cannot change service request status from %s to %s", oldStatus, status)
	}

	set := store.Row{"status": string(status)}
	if status == StatusResolved {
		set["resolved_at"] = s.now().UTC()
		if resolvedBy != nil {
			set["resolved_by"] = *resolvedBy
		}
	}
	rows, err := s.store.Update(ctx, TableName, set, store.Eq("id", id))
	if err != nil {
		return ServiceRequest{}, fmt.Errorf("service: failed to update service request %s: %w", id, err)
	}
	if len(rows) == 0 {
		return ServiceRequest{}, rpc.Precondition("service request not found")
	}
	req := FromRow(rows[0])

	log.Info().Str("request_id", id).Stringer("old_status", oldStatus).Stringer("new_status", status).Msg("service: service request status updated")
	events.Notify(ctx, s.publisher, events.SubjectServiceRequestStatusChanged, eventOf(req))
	return req, nil
}

func (s *Service) list(ctx context.Context, q store.Query) ([]ServiceRequest, error) {
	rows, err := s.store.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch service requests: %w", err)
	}
	requests := make([]ServiceRequest, 0, len(rows))
	for _, r := range rows {
		requests = append(requests, FromRow(r))
	}
	return requests, nil
}
