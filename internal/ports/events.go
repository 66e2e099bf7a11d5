package ports

import (
	"context"
	"time"
)

const (
	EventInterventionCreated       = "created"
	EventInterventionStatusChanged = "status_changed"
)

type InterventionEvent struct {
	Type           string    `json:"type"`
	InterventionID string    `json:"intervention_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event InterventionEvent) error
}
