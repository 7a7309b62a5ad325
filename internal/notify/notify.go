// Package notify models outbound notifications as events handed to an
// external delivery service. Publishing is best effort: callers log failures
// and never roll back the state change that produced the event.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type EventType string

const (
	EventRequestCreated       EventType = "dispatch_request.created"
	EventRequestStatusChanged EventType = "dispatch_request.status_changed"
	EventTripStarted          EventType = "trip.started"
	EventTripCompleted        EventType = "trip.completed"
	EventVehicleAlert         EventType = "vehicle.alert"
)

// Event is the stable wire schema shared with the notifier service.
type Event struct {
	Type        EventType  `json:"type"`
	RecipientID uuid.UUID  `json:"recipient_id"`
	RequestID   *uuid.UUID `json:"request_id,omitempty"`
	TripID      *uuid.UUID `json:"trip_id,omitempty"`
	VehicleID   *uuid.UUID `json:"vehicle_id,omitempty"`
	DriverID    *uuid.UUID `json:"driver_id,omitempty"`
	Status      string     `json:"status,omitempty"`
	Message     string     `json:"message,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// LogPublisher is the fallback used when no broker is configured.
type LogPublisher struct {
	Log zerolog.Logger
}

func (p LogPublisher) Publish(_ context.Context, event Event) error {
	p.Log.Info().
		Str("event", string(event.Type)).
		Str("recipient", event.RecipientID.String()).
		Str("status", event.Status).
		Msg("notification (log only)")
	return nil
}
