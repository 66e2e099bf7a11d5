package ports

import (
	"context"
	"errors"
	"time"

	"maintrack/internal/domain/intervention"
)

var (
	ErrInterventionNotFound = errors.New("intervention not found")
	// ErrStaleStatus is returned by UpdateInterventionStatus when the stored
	// status no longer equals Transition.From.
	ErrStaleStatus = errors.New("intervention status changed concurrently")
)

type InterventionFilter struct {
	Status       string
	MachineID    string
	TechnicianID string
	Limit        int
}

type InterventionReadRepository interface {
	GetIntervention(ctx context.Context, id string) (intervention.Intervention, error)
	ListInterventions(ctx context.Context, filter InterventionFilter) ([]intervention.Intervention, error)
}

// InterventionRepository is the store's mutation surface for interventions.
// Updates are partial-field patches keyed by id; each one is a single statement.
// Status updates are additionally conditioned on the status they were planned from.
type InterventionRepository interface {
	InterventionReadRepository
	CreateIntervention(ctx context.Context, iv intervention.Intervention) (intervention.Intervention, error)
	UpdateInterventionStatus(ctx context.Context, transition intervention.Transition) error
	UpdateInterventionDetails(ctx context.Context, id string, patch intervention.DetailsPatch, updatedAt time.Time) error
}
