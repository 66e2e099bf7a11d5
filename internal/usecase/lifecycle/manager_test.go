package lifecycle

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"maintrack/internal/bootstrap/database"
	"maintrack/internal/domain/catalog"
	"maintrack/internal/domain/intake"
	"maintrack/internal/domain/intervention"
	"maintrack/internal/infrastructure/persistence/gormdb/model"
	"maintrack/internal/infrastructure/persistence/gormdb/repository"
	"maintrack/internal/ports"
)

var startTime = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

type flakyRepo struct {
	ports.InterventionRepository
	failWrites bool
	writes     int
	creates    int
	// staleReads are returned by GetIntervention, oldest first, before the
	// store is consulted.
	staleReads []intervention.Intervention
}

func (r *flakyRepo) GetIntervention(ctx context.Context, id string) (intervention.Intervention, error) {
	if len(r.staleReads) > 0 {
		stale := r.staleReads[0]
		r.staleReads = r.staleReads[1:]
		return stale, nil
	}
	return r.InterventionRepository.GetIntervention(ctx, id)
}

func (r *flakyRepo) CreateIntervention(ctx context.Context, iv intervention.Intervention) (intervention.Intervention, error) {
	r.creates++
	if r.failWrites {
		return intervention.Intervention{}, errors.New("store unavailable")
	}
	return r.InterventionRepository.CreateIntervention(ctx, iv)
}

func (r *flakyRepo) UpdateInterventionStatus(ctx context.Context, transition intervention.Transition) error {
	r.writes++
	if r.failWrites {
		return errors.New("store unavailable")
	}
	return r.InterventionRepository.UpdateInterventionStatus(ctx, transition)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.InterventionEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event ports.InterventionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func setupManager(t *testing.T, strict bool) (*Manager, *flakyRepo, *recordingPublisher) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "lifecycle.sqlite")
	db, err := gorm.Open(gormsqlite.Open(database.SQLiteDSN(dsn)), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	catalogRepo := repository.NewCatalogRepository(db)
	if _, err := catalogRepo.CreateMachine(context.Background(), catalog.Machine{ID: "M1", Name: "Torno", IsActive: true, CreatedAt: startTime, UpdatedAt: startTime}); err != nil {
		t.Fatalf("seed machine: %v", err)
	}
	if _, err := catalogRepo.CreateTechnician(context.Background(), catalog.Technician{ID: "T1", Name: "Ana", IsActive: true, CreatedAt: startTime, UpdatedAt: startTime}); err != nil {
		t.Fatalf("seed technician: %v", err)
	}

	repo := &flakyRepo{InterventionRepository: repository.NewInterventionRepository(db)}
	events := &recordingPublisher{}
	manager, err := NewManager(repo, events, Options{StrictTransitions: strict, CacheSize: 8})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	clock := startTime
	manager.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	ids := 0
	manager.newID = func() string {
		ids++
		return "iv-" + string(rune('0'+ids))
	}
	return manager, repo, events
}

func validDraft() intervention.Draft {
	return intervention.Draft{
		MachineID:          "M1",
		TechnicianID:       "T1",
		ProblemDescription: "motor faz ruído anómalo",
	}
}

func TestCreateDefaultsAndEvent(t *testing.T) {
	manager, _, events := setupManager(t, false)
	ctx := context.Background()

	created, err := manager.Create(ctx, validDraft())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Status != intervention.StatusPending || created.Priority != intervention.PriorityMedium || created.ResolvedAt != nil {
		t.Fatalf("created = %+v", created)
	}
	if len(events.events) != 1 || events.events[0].Type != ports.EventInterventionCreated {
		t.Fatalf("events = %+v", events.events)
	}
	if cached, ok := manager.Cached(created.ID); !ok || cached.Status != intervention.StatusPending {
		t.Fatalf("cached = %+v, %v", cached, ok)
	}
}

func TestCreateValidationSkipsStore(t *testing.T) {
	manager, repo, _ := setupManager(t, false)

	draft := validDraft()
	draft.TechnicianID = ""
	_, err := manager.Create(context.Background(), draft)

	var validationErr *intake.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Create() error = %v, want ValidationError", err)
	}
	if len(validationErr.Missing) != 1 || validationErr.Missing[0] != "technician" {
		t.Fatalf("missing = %v", validationErr.Missing)
	}
	if repo.creates != 0 {
		t.Fatalf("store calls = %d, want 0", repo.creates)
	}
}

func TestTransitionLifecycle(t *testing.T) {
	manager, _, events := setupManager(t, false)
	ctx := context.Background()

	created, err := manager.Create(ctx, validDraft())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	inProgress, err := manager.Transition(ctx, created.ID, intervention.StatusInProgress)
	if err != nil {
		t.Fatalf("Transition(in_progress) error = %v", err)
	}
	if inProgress.ResolvedAt != nil {
		t.Fatalf("resolved_at set on in_progress")
	}

	resolved, err := manager.Transition(ctx, created.ID, intervention.StatusResolved)
	if err != nil {
		t.Fatalf("Transition(resolved) error = %v", err)
	}
	if resolved.ResolvedAt == nil {
		t.Fatalf("resolved_at not set")
	}

	stored, err := manager.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Status != intervention.StatusResolved || stored.ResolvedAt == nil || !stored.ResolvedAt.Equal(*resolved.ResolvedAt) {
		t.Fatalf("stored = %+v", stored)
	}

	if _, err := manager.Transition(ctx, created.ID, intervention.StatusCancelled); !errors.Is(err, intervention.ErrTerminalStatus) {
		t.Fatalf("Transition(out of resolved) error = %v", err)
	}
	stored, _ = manager.Get(ctx, created.ID)
	if stored.Status != intervention.StatusResolved {
		t.Fatalf("terminal status changed to %q", stored.Status)
	}

	if got := len(events.events); got != 3 {
		t.Fatalf("events = %d, want 3", got)
	}
	last := events.events[2]
	if last.Type != ports.EventInterventionStatusChanged || last.PreviousStatus != "in_progress" || last.Status != "resolved" {
		t.Fatalf("last event = %+v", last)
	}
}

func TestTransitionLooseAllowsJump(t *testing.T) {
	manager, _, _ := setupManager(t, false)
	ctx := context.Background()

	created, _ := manager.Create(ctx, validDraft())
	resolved, err := manager.Transition(ctx, created.ID, intervention.StatusResolved)
	if err != nil {
		t.Fatalf("Transition(pending->resolved) error = %v", err)
	}
	if resolved.ResolvedAt == nil {
		t.Fatalf("resolved_at not set on jump")
	}
}

func TestTransitionStrictRejectsJump(t *testing.T) {
	manager, repo, _ := setupManager(t, true)
	ctx := context.Background()

	created, _ := manager.Create(ctx, validDraft())
	if _, err := manager.Transition(ctx, created.ID, intervention.StatusResolved); !errors.Is(err, intervention.ErrIllegalTransition) {
		t.Fatalf("Transition() error = %v, want ErrIllegalTransition", err)
	}
	if repo.writes != 0 {
		t.Fatalf("writes = %d, want 0", repo.writes)
	}
}

func TestTransitionPersistenceFailureKeepsLocalCopy(t *testing.T) {
	manager, repo, events := setupManager(t, false)
	ctx := context.Background()

	created, _ := manager.Create(ctx, validDraft())
	repo.failWrites = true

	returned, err := manager.Transition(ctx, created.ID, intervention.StatusInProgress)
	var persistenceErr *intervention.PersistenceError
	if !errors.As(err, &persistenceErr) {
		t.Fatalf("Transition() error = %v, want PersistenceError", err)
	}
	if returned.Status != intervention.StatusPending {
		t.Fatalf("returned status = %q, want pending", returned.Status)
	}
	if cached, ok := manager.Cached(created.ID); !ok || cached.Status != intervention.StatusPending {
		t.Fatalf("cached = %+v", cached)
	}
	if len(events.events) != 1 {
		t.Fatalf("events = %d, want only the create event", len(events.events))
	}

	repo.failWrites = false
	retried, err := manager.Transition(ctx, created.ID, intervention.StatusInProgress)
	if err != nil || retried.Status != intervention.StatusInProgress {
		t.Fatalf("retry = %+v, %v", retried, err)
	}
}

func TestTransitionSameStatusWritesNothing(t *testing.T) {
	manager, repo, _ := setupManager(t, false)
	ctx := context.Background()

	created, _ := manager.Create(ctx, validDraft())
	got, err := manager.Transition(ctx, created.ID, intervention.StatusPending)
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if got.Status != intervention.StatusPending || repo.writes != 0 {
		t.Fatalf("status=%q writes=%d", got.Status, repo.writes)
	}
}

func TestTransitionUnknownIDAndStatus(t *testing.T) {
	manager, _, _ := setupManager(t, false)
	ctx := context.Background()

	if _, err := manager.Transition(ctx, "missing", intervention.StatusInProgress); !errors.Is(err, ports.ErrInterventionNotFound) {
		t.Fatalf("Transition(missing) error = %v", err)
	}
	if _, err := manager.Transition(ctx, "iv-1", intervention.Status("done")); !errors.Is(err, intervention.ErrInvalidStatus) {
		t.Fatalf("Transition(done) error = %v", err)
	}
}

func TestEventFailureDoesNotFailTransition(t *testing.T) {
	manager, _, events := setupManager(t, false)
	events.err = errors.New("nats down")
	ctx := context.Background()

	created, err := manager.Create(ctx, validDraft())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := manager.Transition(ctx, created.ID, intervention.StatusCancelled); err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
}

func TestUpdateDetailsAndList(t *testing.T) {
	manager, _, _ := setupManager(t, false)
	ctx := context.Background()

	first, _ := manager.Create(ctx, validDraft())
	second, _ := manager.Create(ctx, validDraft())
	if _, err := manager.Transition(ctx, second.ID, intervention.StatusInProgress); err != nil {
		t.Fatalf("Transition() error = %v", err)
	}

	critical := intervention.Priority("critical")
	note := "rolamento gasto"
	updated, err := manager.UpdateDetails(ctx, first.ID, intervention.DetailsPatch{Priority: &critical, AISolution: &note})
	if err != nil {
		t.Fatalf("UpdateDetails() error = %v", err)
	}
	if updated.Priority != intervention.PriorityCritical || updated.AISolution != "rolamento gasto" || updated.Status != intervention.StatusPending {
		t.Fatalf("updated = %+v", updated)
	}

	bad := intervention.Priority("urgent")
	if _, err := manager.UpdateDetails(ctx, first.ID, intervention.DetailsPatch{Priority: &bad}); !errors.Is(err, intervention.ErrInvalidPriority) {
		t.Fatalf("UpdateDetails(urgent) error = %v", err)
	}

	pending, err := manager.List(ctx, ports.InterventionFilter{Status: "pending"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != first.ID {
		t.Fatalf("pending = %+v", pending)
	}
	if _, err := manager.List(ctx, ports.InterventionFilter{Status: "done"}); !errors.Is(err, intervention.ErrInvalidStatus) {
		t.Fatalf("List(done) error = %v", err)
	}
}

func TestTransitionFromStaleReadCannotLeaveTerminalStatus(t *testing.T) {
	manager, repo, events := setupManager(t, false)
	ctx := context.Background()

	created, _ := manager.Create(ctx, validDraft())
	inProgress, err := manager.Transition(ctx, created.ID, intervention.StatusInProgress)
	if err != nil {
		t.Fatalf("Transition(in_progress) error = %v", err)
	}
	if _, err := manager.Transition(ctx, created.ID, intervention.StatusCancelled); err != nil {
		t.Fatalf("Transition(cancelled) error = %v", err)
	}

	// A second caller still holds the in_progress read.
	repo.staleReads = []intervention.Intervention{inProgress}
	if _, err := manager.Transition(ctx, created.ID, intervention.StatusResolved); !errors.Is(err, intervention.ErrTerminalStatus) {
		t.Fatalf("Transition(resolved from stale read) error = %v, want ErrTerminalStatus", err)
	}

	stored, err := manager.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Status != intervention.StatusCancelled || stored.ResolvedAt != nil {
		t.Fatalf("stored = status %q resolved_at %v, want cancelled without resolved_at", stored.Status, stored.ResolvedAt)
	}
	if got := len(events.events); got != 3 {
		t.Fatalf("events = %d, want 3", got)
	}
}

func TestTransitionReplansAfterConcurrentNonTerminalMove(t *testing.T) {
	manager, repo, _ := setupManager(t, false)
	ctx := context.Background()

	created, _ := manager.Create(ctx, validDraft())
	if _, err := manager.Transition(ctx, created.ID, intervention.StatusInProgress); err != nil {
		t.Fatalf("Transition(in_progress) error = %v", err)
	}

	repo.staleReads = []intervention.Intervention{created}
	resolved, err := manager.Transition(ctx, created.ID, intervention.StatusResolved)
	if err != nil {
		t.Fatalf("Transition(resolved) error = %v", err)
	}
	if resolved.Status != intervention.StatusResolved || resolved.ResolvedAt == nil {
		t.Fatalf("resolved = %+v", resolved)
	}
}
