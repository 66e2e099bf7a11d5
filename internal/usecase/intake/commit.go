package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"maintrack/internal/bootstrap/logging"
	domaincatalog "maintrack/internal/domain/catalog"
	domainintake "maintrack/internal/domain/intake"
	"maintrack/internal/domain/intervention"
	"maintrack/internal/errs"
)

// SelectMachine picks one of the active machines for the draft.
func (s *Session) SelectMachine(ctx context.Context, id string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	machines, err := s.deps.Catalog.ActiveMachines(ctx)
	if err != nil {
		return errs.Wrap(err, "list active machines")
	}

	id = strings.TrimSpace(id)
	for i := range machines {
		if machines[i].ID != id {
			continue
		}
		machine := machines[i]
		s.update(func() {
			s.machine = &machine
			s.draft.MachineID = machine.ID
		})
		return nil
	}
	return fmt.Errorf("machine %q: %w", id, domaincatalog.ErrInactive)
}

// SelectTechnician picks one of the active technicians for the draft.
func (s *Session) SelectTechnician(ctx context.Context, id string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	technicians, err := s.deps.Catalog.ActiveTechnicians(ctx)
	if err != nil {
		return errs.Wrap(err, "list active technicians")
	}

	id = strings.TrimSpace(id)
	for i := range technicians {
		if technicians[i].ID != id {
			continue
		}
		technician := technicians[i]
		s.update(func() {
			s.technician = &technician
			s.draft.TechnicianID = technician.ID
		})
		return nil
	}
	return fmt.Errorf("technician %q: %w", id, domaincatalog.ErrInactive)
}

// Save commits the draft. Missing fields fail with *ValidationError before any
// store call; a store failure keeps the whole form for retry. On success the
// session starts over with an empty draft.
func (s *Session) Save(ctx context.Context) (intervention.Intervention, error) {
	if ctx == nil {
		return intervention.Intervention{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return intervention.Intervention{}, errs.Wrap(err, "check context")
	}

	s.mu.Lock()
	if s.stage.Busy() {
		s.mu.Unlock()
		return intervention.Intervention{}, domainintake.ErrSessionBusy
	}
	draft, previous := s.draft, s.stage
	if missing := draft.MissingFields(); len(missing) > 0 {
		err := &domainintake.ValidationError{Missing: missing}
		s.lastErr = err
		s.message = domainintake.UserMessage(err)
		snapshot, observer := s.snapshotLocked(), s.observer
		s.mu.Unlock()
		emit(observer, snapshot)
		return intervention.Intervention{}, err
	}
	// Holding the saving stage refuses a second Save, Reset and
	// StartRecording until the store call returns.
	s.stage = domainintake.StageSaving
	snapshot, observer := s.snapshotLocked(), s.observer
	s.mu.Unlock()
	emit(observer, snapshot)

	created, err := Commit(ctx, s.deps.Store, draft)
	if err != nil {
		s.update(func() {
			s.stage = previous
			s.lastErr = err
			s.message = domainintake.UserMessage(err)
		})
		return intervention.Intervention{}, err
	}

	s.update(func() {
		s.stage = domainintake.StageIdle
		s.draft = intervention.Draft{}
		s.machine = nil
		s.technician = nil
		s.chunks = nil
		s.captured = 0
		s.lastErr = nil
		s.message = "Intervention saved."
	})
	return created, nil
}

// Commit validates draft and hands it to store. Store errors that are not
// already typed are reported as *intervention.PersistenceError.
func Commit(ctx context.Context, store Store, draft intervention.Draft) (intervention.Intervention, error) {
	if missing := draft.MissingFields(); len(missing) > 0 {
		return intervention.Intervention{}, &domainintake.ValidationError{Missing: missing}
	}

	logCtx := logging.WithComponent(ctx, "usecase.intake")
	created, err := store.Create(ctx, draft)
	if err != nil {
		var validationErr *domainintake.ValidationError
		var persistenceErr *intervention.PersistenceError
		if !errors.As(err, &validationErr) && !errors.As(err, &persistenceErr) {
			err = &intervention.PersistenceError{Op: "create intervention", Err: err}
		}
		logging.Error(logCtx, "commit intervention failed", slog.Any("err", errs.Loggable(err)))
		return intervention.Intervention{}, err
	}

	logging.Info(logCtx, "intervention committed", slog.String("intervention_id", created.ID))
	return created, nil
}
