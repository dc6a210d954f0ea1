// Package events publishes domain events after committed writes so waiter
// and kitchen screens can refresh without polling.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	SubjectOrderStatusChanged          = "pos.orders.status_changed"
	SubjectTableStatusChanged          = "pos.tables.status_changed"
	SubjectServiceRequestCreated       = "pos.service_requests.created"
	SubjectServiceRequestStatusChanged = "pos.service_requests.status_changed"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
	Close() error
}

// Envelope is the wire format of every event.
type Envelope struct {
	Subject    string    `json:"subject"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

func encode(subject string, payload any) ([]byte, error) {
	body, err := json.Marshal(Envelope{Subject: subject, OccurredAt: time.Now().UTC(), Data: payload})
	if err != nil {
		return nil, fmt.Errorf("events: encode %s: %w", subject, err)
	}
	return body, nil
}

// Notify publishes and logs a failure instead of returning it. Events are
// emitted after the write they describe has been committed, so a broker
// outage must not turn a successful procedure into a failed one.
func Notify(ctx context.Context, p Publisher, subject string, payload any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, subject, payload); err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("events: failed to publish")
	}
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }
func (Noop) Close() error                               { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Envelope
	Err    error
}

func (r *Recorder) Publish(_ context.Context, subject string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, Envelope{Subject: subject, OccurredAt: time.Now().UTC(), Data: payload})
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of what was published so far.
func (r *Recorder) Events() []Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Envelope(nil), r.events...)
}

// Subjects lists published subjects in order.
func (r *Recorder) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Subject
	}
	return out
}
