package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"maintrack/internal/bootstrap/logging"
	"maintrack/internal/domain/intake"
	"maintrack/internal/domain/intervention"
	"maintrack/internal/errs"
	"maintrack/internal/ports"
)

const (
	defaultCacheSize = 256
	// A status write conditioned on a stale read is replanned from a fresh
	// read at most this many times.
	maxTransitionAttempts = 3
)

type Options struct {
	// StrictTransitions rejects any move outside the lifecycle table.
	StrictTransitions bool
	CacheSize         int
}

// Manager owns every write to a persisted intervention after creation and keeps
// a bounded set of local copies that are overwritten only after a successful
// store write.
type Manager struct {
	repo   ports.InterventionRepository
	events ports.EventPublisher
	copies *lru.Cache[string, intervention.Intervention]
	strict bool
	now    func() time.Time
	newID  func() string
}

func NewManager(repo ports.InterventionRepository, events ports.EventPublisher, opts Options) (*Manager, error) {
	if repo == nil {
		return nil, errors.New("intervention repository is required")
	}
	size := opts.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	copies, err := lru.New[string, intervention.Intervention](size)
	if err != nil {
		return nil, errs.Wrap(err, "create lifecycle cache")
	}
	return &Manager{
		repo:   repo,
		events: events,
		copies: copies,
		strict: opts.StrictTransitions,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}, nil
}

func (m *Manager) Strict() bool {
	return m.strict
}

// Create commits an intake draft as a new pending/medium intervention. A draft
// missing required fields fails with *intake.ValidationError before any store call.
func (m *Manager) Create(ctx context.Context, draft intervention.Draft) (intervention.Intervention, error) {
	if ctx == nil {
		return intervention.Intervention{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return intervention.Intervention{}, errs.Wrap(err, "check context")
	}
	if missing := draft.MissingFields(); len(missing) > 0 {
		return intervention.Intervention{}, &intake.ValidationError{Missing: missing}
	}

	logCtx := logging.WithComponent(ctx, "usecase.lifecycle")
	record := intervention.NewFromDraft(m.newID(), draft, m.now())
	created, err := m.repo.CreateIntervention(ctx, record)
	if err != nil {
		logging.Error(logCtx, "create intervention failed", slog.Any("err", errs.Loggable(err)))
		return intervention.Intervention{}, &intervention.PersistenceError{Op: "create intervention", Err: errs.WithStack(err)}
	}

	m.copies.Add(created.ID, created)
	logging.Info(logCtx, "intervention created",
		slog.String("intervention_id", created.ID),
		slog.String("machine_id", derefString(created.MachineID)),
		slog.String("technician_id", derefString(created.TechnicianID)),
	)
	m.publish(logCtx, ports.InterventionEvent{
		Type:           ports.EventInterventionCreated,
		InterventionID: created.ID,
		Status:         string(created.Status),
		OccurredAt:     created.CreatedAt,
	})
	return created, nil
}

// Transition moves an intervention to target. The current record is read from
// the store and the write only lands if the row still holds the status that
// was read; otherwise the transition is replanned, so a concurrent move into a
// terminal status surfaces as ErrTerminalStatus.
func (m *Manager) Transition(ctx context.Context, id string, target intervention.Status) (intervention.Intervention, error) {
	if ctx == nil {
		return intervention.Intervention{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return intervention.Intervention{}, errs.Wrap(err, "check context")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return intervention.Intervention{}, intervention.ErrIDRequired
	}
	target, err := intervention.ParseStatus(string(target))
	if err != nil {
		return intervention.Intervention{}, err
	}

	for attempt := 1; ; attempt++ {
		current, err := m.repo.GetIntervention(ctx, id)
		if err != nil {
			return intervention.Intervention{}, err
		}
		next, err := m.apply(ctx, current, target)
		if !errors.Is(err, ports.ErrStaleStatus) {
			return next, err
		}
		if attempt == maxTransitionAttempts {
			return current, &intervention.PersistenceError{Op: "update intervention status", Err: err}
		}
		logging.Info(logging.WithComponent(ctx, "usecase.lifecycle"), "status changed underneath, replanning",
			slog.String("intervention_id", id),
			slog.Int("attempt", attempt),
		)
	}
}

func (m *Manager) apply(ctx context.Context, current intervention.Intervention, target intervention.Status) (intervention.Intervention, error) {
	logCtx := logging.WithComponent(ctx, "usecase.lifecycle")

	plan, err := intervention.PlanTransition(current, target, m.now(), m.strict)
	if err != nil {
		logging.Warn(logCtx, "status transition rejected",
			slog.String("intervention_id", current.ID),
			slog.String("from", string(current.Status)),
			slog.String("to", string(target)),
			slog.Any("err", errs.Loggable(err)),
		)
		return current, err
	}
	if plan.Noop {
		m.copies.Add(current.ID, current)
		return current, nil
	}

	if err := m.repo.UpdateInterventionStatus(ctx, plan); err != nil {
		if errors.Is(err, ports.ErrInterventionNotFound) {
			m.copies.Remove(current.ID)
			return intervention.Intervention{}, err
		}
		if errors.Is(err, ports.ErrStaleStatus) {
			return current, err
		}
		logging.Error(logCtx, "status write failed",
			slog.String("intervention_id", current.ID),
			slog.Any("err", errs.Loggable(err)),
		)
		return current, &intervention.PersistenceError{Op: "update intervention status", Err: errs.WithStack(err)}
	}

	next := plan.Apply(current)
	m.copies.Add(next.ID, next)
	logging.Info(logCtx, "intervention status changed",
		slog.String("intervention_id", next.ID),
		slog.String("from", string(plan.From)),
		slog.String("to", string(plan.To)),
	)
	m.publish(logCtx, ports.InterventionEvent{
		Type:           ports.EventInterventionStatusChanged,
		InterventionID: next.ID,
		Status:         string(next.Status),
		PreviousStatus: string(plan.From),
		OccurredAt:     next.UpdatedAt,
	})
	return next, nil
}

// UpdateDetails patches priority, description or AI solution. Status is never
// touched here.
func (m *Manager) UpdateDetails(ctx context.Context, id string, patch intervention.DetailsPatch) (intervention.Intervention, error) {
	if ctx == nil {
		return intervention.Intervention{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return intervention.Intervention{}, errs.Wrap(err, "check context")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return intervention.Intervention{}, intervention.ErrIDRequired
	}
	patch, err := patch.Normalize()
	if err != nil {
		return intervention.Intervention{}, err
	}

	current, err := m.repo.GetIntervention(ctx, id)
	if err != nil {
		return intervention.Intervention{}, err
	}
	if patch.Empty() {
		m.copies.Add(current.ID, current)
		return current, nil
	}

	now := m.now()
	if err := m.repo.UpdateInterventionDetails(ctx, id, patch, now); err != nil {
		if errors.Is(err, ports.ErrInterventionNotFound) {
			m.copies.Remove(id)
			return intervention.Intervention{}, err
		}
		return current, &intervention.PersistenceError{Op: "update intervention details", Err: errs.WithStack(err)}
	}

	next := patch.Apply(current, now)
	m.copies.Add(next.ID, next)
	logging.Info(logging.WithComponent(ctx, "usecase.lifecycle"), "intervention details updated", slog.String("intervention_id", id))
	return next, nil
}

// Get reads through to the store and refreshes the local copy.
func (m *Manager) Get(ctx context.Context, id string) (intervention.Intervention, error) {
	if ctx == nil {
		return intervention.Intervention{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return intervention.Intervention{}, errs.Wrap(err, "check context")
	}

	record, err := m.repo.GetIntervention(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, ports.ErrInterventionNotFound) {
			m.copies.Remove(strings.TrimSpace(id))
		}
		return intervention.Intervention{}, err
	}
	m.copies.Add(record.ID, record)
	return record, nil
}

func (m *Manager) List(ctx context.Context, filter ports.InterventionFilter) ([]intervention.Intervention, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	if status := strings.TrimSpace(filter.Status); status != "" {
		parsed, err := intervention.ParseStatus(status)
		if err != nil {
			return nil, err
		}
		filter.Status = string(parsed)
	}

	records, err := m.repo.ListInterventions(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		m.copies.Add(record.ID, record)
	}
	return records, nil
}

// Cached returns the local copy last confirmed by the store, if any.
func (m *Manager) Cached(id string) (intervention.Intervention, bool) {
	return m.copies.Get(strings.TrimSpace(id))
}

func (m *Manager) publish(ctx context.Context, event ports.InterventionEvent) {
	if m.events == nil {
		return
	}
	if err := m.events.Publish(ctx, event); err != nil {
		logging.Warn(ctx, "publish intervention event failed",
			slog.String("type", event.Type),
			slog.String("intervention_id", event.InterventionID),
			slog.Any("err", errs.Loggable(err)),
		)
	}
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
