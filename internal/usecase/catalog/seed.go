package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"maintrack/internal/bootstrap/logging"
	domaincatalog "maintrack/internal/domain/catalog"
	"maintrack/internal/errs"
)

type seedFile struct {
	Machines    []seedMachine    `toml:"machines"`
	Technicians []seedTechnician `toml:"technicians"`
	Parts       []seedPart       `toml:"parts"`
}

type seedMachine struct {
	ID             string         `toml:"id"`
	Name           string         `toml:"name"`
	Model          string         `toml:"model"`
	Manufacturer   string         `toml:"manufacturer"`
	SerialNumber   string         `toml:"serial_number"`
	Location       string         `toml:"location"`
	Specifications map[string]any `toml:"specifications"`
	Active         *bool          `toml:"is_active"`
}

type seedTechnician struct {
	ID        string `toml:"id"`
	Name      string `toml:"name"`
	Email     string `toml:"email"`
	Phone     string `toml:"phone"`
	Specialty string `toml:"specialty"`
	Active    *bool  `toml:"is_active"`
}

type seedPart struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	PartNumber  string `toml:"part_number"`
	Description string `toml:"description"`
	Quantity    int    `toml:"quantity"`
	MinQuantity int    `toml:"min_quantity"`
	Location    string `toml:"location"`
	MachineID   string `toml:"machine_id"`
	Active      *bool  `toml:"is_active"`
}

type SeedResult struct {
	Machines    int
	Technicians int
	Parts       int
}

// SeedFile loads a TOML catalog from disk and inserts it.
func (s *Service) SeedFile(ctx context.Context, path string) (SeedResult, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return SeedResult{}, errors.New("catalog file is required")
	}
	raw, err := os.ReadFile(trimmed)
	if err != nil {
		return SeedResult{}, errs.Wrapf(err, "read catalog file %q", trimmed)
	}
	return s.Seed(ctx, raw)
}

// Seed inserts every entity of a TOML catalog in one transaction.
func (s *Service) Seed(ctx context.Context, raw []byte) (SeedResult, error) {
	if err := s.check(ctx); err != nil {
		return SeedResult{}, err
	}
	if s.uow == nil {
		return SeedResult{}, errors.New("catalog unit of work is required")
	}

	var file seedFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return SeedResult{}, errs.Wrap(err, "decode catalog toml")
	}

	now := s.now()
	result := SeedResult{}
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		for i, item := range file.Machines {
			if strings.TrimSpace(item.Name) == "" {
				return fmt.Errorf("machines[%d]: %w", i, domaincatalog.ErrNameRequired)
			}
			specs, err := domaincatalog.SpecsFromMap(item.Specifications)
			if err != nil {
				return fmt.Errorf("machines[%d].specifications: %w", i, err)
			}
			if _, err := s.repo.CreateMachine(txCtx, domaincatalog.Machine{
				ID:             normalizeID(item.ID, s.newID),
				Name:           strings.TrimSpace(item.Name),
				Model:          strings.TrimSpace(item.Model),
				Manufacturer:   strings.TrimSpace(item.Manufacturer),
				SerialNumber:   strings.TrimSpace(item.SerialNumber),
				Location:       strings.TrimSpace(item.Location),
				Specifications: specs,
				IsActive:       activeOrDefault(item.Active),
				CreatedAt:      now,
				UpdatedAt:      now,
			}); err != nil {
				return err
			}
			result.Machines++
		}

		for i, item := range file.Technicians {
			if strings.TrimSpace(item.Name) == "" {
				return fmt.Errorf("technicians[%d]: %w", i, domaincatalog.ErrNameRequired)
			}
			if _, err := s.repo.CreateTechnician(txCtx, domaincatalog.Technician{
				ID:        normalizeID(item.ID, s.newID),
				Name:      strings.TrimSpace(item.Name),
				Email:     strings.TrimSpace(item.Email),
				Phone:     strings.TrimSpace(item.Phone),
				Specialty: strings.TrimSpace(item.Specialty),
				IsActive:  activeOrDefault(item.Active),
				CreatedAt: now,
				UpdatedAt: now,
			}); err != nil {
				return err
			}
			result.Technicians++
		}

		for i, item := range file.Parts {
			if strings.TrimSpace(item.Name) == "" {
				return fmt.Errorf("parts[%d]: %w", i, domaincatalog.ErrNameRequired)
			}
			var machineID *string
			if trimmed := strings.TrimSpace(item.MachineID); trimmed != "" {
				machineID = &trimmed
			}
			if _, err := s.repo.CreatePart(txCtx, domaincatalog.Part{
				ID:          normalizeID(item.ID, s.newID),
				Name:        strings.TrimSpace(item.Name),
				PartNumber:  strings.TrimSpace(item.PartNumber),
				Description: strings.TrimSpace(item.Description),
				Quantity:    item.Quantity,
				MinQuantity: item.MinQuantity,
				Location:    strings.TrimSpace(item.Location),
				MachineID:   machineID,
				IsActive:    activeOrDefault(item.Active),
				CreatedAt:   now,
				UpdatedAt:   now,
			}); err != nil {
				return err
			}
			result.Parts++
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}

	s.invalidate(ctx, activeMachinesKey, activeTechniciansKey)
	logging.Info(logging.WithComponent(ctx, "usecase.catalog"), "catalog seeded",
		slog.Int("machines", result.Machines),
		slog.Int("technicians", result.Technicians),
		slog.Int("parts", result.Parts),
	)
	return result, nil
}

func activeOrDefault(active *bool) bool {
	if active == nil {
		return true
	}
	return *active
}
