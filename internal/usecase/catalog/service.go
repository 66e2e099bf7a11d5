package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"maintrack/internal/bootstrap/logging"
	domaincatalog "maintrack/internal/domain/catalog"
	"maintrack/internal/errs"
	"maintrack/internal/ports"
)

var (
	activeMachinesKey    = ports.ActiveListKey("machines")
	activeTechniciansKey = ports.ActiveListKey("technicians")
)

// Service serves the reference entities offered during intake.
type Service struct {
	repo     ports.CatalogRepository
	uow      ports.UnitOfWork
	cache    ports.Cache
	cacheTTL time.Duration
	now      func() time.Time
	newID    func() string
}

// NewService wires the catalog with an optional cache for the active lists.
func NewService(repo ports.CatalogRepository, uow ports.UnitOfWork, cache ports.Cache, cacheTTL time.Duration) *Service {
	return &Service{
		repo:     repo,
		uow:      uow,
		cache:    cache,
		cacheTTL: cacheTTL,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// ActiveMachines returns the machines offered by the intake picker.
func (s *Service) ActiveMachines(ctx context.Context) ([]domaincatalog.Machine, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return cachedList(ctx, s, activeMachinesKey, func() ([]domaincatalog.Machine, error) {
		return s.repo.ListMachines(ctx, ports.CatalogFilter{ActiveOnly: true})
	})
}

// ActiveTechnicians returns the technicians offered by the intake picker.
func (s *Service) ActiveTechnicians(ctx context.Context) ([]domaincatalog.Technician, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return cachedList(ctx, s, activeTechniciansKey, func() ([]domaincatalog.Technician, error) {
		return s.repo.ListTechnicians(ctx, ports.CatalogFilter{ActiveOnly: true})
	})
}

func (s *Service) ListMachines(ctx context.Context, filter ports.CatalogFilter) ([]domaincatalog.Machine, error) {
	if filter.ActiveOnly {
		return s.ActiveMachines(ctx)
	}
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListMachines(ctx, filter)
}

func (s *Service) ListTechnicians(ctx context.Context, filter ports.CatalogFilter) ([]domaincatalog.Technician, error) {
	if filter.ActiveOnly {
		return s.ActiveTechnicians(ctx)
	}
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListTechnicians(ctx, filter)
}

func (s *Service) ListParts(ctx context.Context, filter ports.CatalogFilter) ([]domaincatalog.Part, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListParts(ctx, filter)
}

// LowStockParts lists active parts at or below their reorder threshold.
func (s *Service) LowStockParts(ctx context.Context) ([]domaincatalog.Part, error) {
	parts, err := s.ListParts(ctx, ports.CatalogFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	out := make([]domaincatalog.Part, 0, len(parts))
	for _, part := range parts {
		if part.LowStock() {
			out = append(out, part)
		}
	}
	return out, nil
}

func (s *Service) GetMachine(ctx context.Context, id string) (domaincatalog.Machine, error) {
	if err := s.check(ctx); err != nil {
		return domaincatalog.Machine{}, err
	}
	return s.repo.GetMachine(ctx, id)
}

func (s *Service) GetTechnician(ctx context.Context, id string) (domaincatalog.Technician, error) {
	if err := s.check(ctx); err != nil {
		return domaincatalog.Technician{}, err
	}
	return s.repo.GetTechnician(ctx, id)
}

// DeleteMachine removes a machine. Interventions and parts keep their history
// with the reference cleared.
func (s *Service) DeleteMachine(ctx context.Context, id string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if err := s.repo.DeleteMachine(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, activeMachinesKey)
	logging.Info(logging.WithComponent(ctx, "usecase.catalog"), "machine deleted", slog.String("machine_id", id))
	return nil
}

func (s *Service) DeleteTechnician(ctx context.Context, id string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if err := s.repo.DeleteTechnician(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, activeTechniciansKey)
	logging.Info(logging.WithComponent(ctx, "usecase.catalog"), "technician deleted", slog.String("technician_id", id))
	return nil
}

func (s *Service) check(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return errors.New("catalog repository is required")
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	for _, key := range keys {
		if err := s.cache.Delete(ctx, key); err != nil {
			logging.Warn(logging.WithComponent(ctx, "usecase.catalog"), "invalidate catalog cache failed",
				slog.String("key", key),
				slog.Any("err", errs.Loggable(err)),
			)
		}
	}
}

// cachedList serves a list from the cache when present. Cache failures degrade
// to a direct read.
func cachedList[T any](ctx context.Context, s *Service, key string, load func() ([]T, error)) ([]T, error) {
	logCtx := logging.WithComponent(ctx, "usecase.catalog")

	if s.cache != nil {
		raw, found, err := s.cache.Get(ctx, key)
		if err != nil {
			logging.Warn(logCtx, "read catalog cache failed", slog.String("key", key), slog.Any("err", errs.Loggable(err)))
		} else if found {
			var items []T
			if err := json.Unmarshal([]byte(raw), &items); err == nil {
				return items, nil
			}
			logging.Warn(logCtx, "discard undecodable catalog cache entry", slog.String("key", key))
		}
	}

	items, err := load()
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		encoded, err := json.Marshal(items)
		if err == nil {
			err = s.cache.Set(ctx, key, string(encoded), s.cacheTTL)
		}
		if err != nil {
			logging.Warn(logCtx, "write catalog cache failed", slog.String("key", key), slog.Any("err", errs.Loggable(err)))
		}
	}
	return items, nil
}

func normalizeID(id string, fallback func() string) string {
	if trimmed := strings.TrimSpace(id); trimmed != "" {
		return trimmed
	}
	return fallback()
}
