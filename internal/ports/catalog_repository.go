package ports

import (
	"context"
	"errors"

	"maintrack/internal/domain/catalog"
)

var (
	ErrMachineNotFound    = errors.New("machine not found")
	ErrTechnicianNotFound = errors.New("technician not found")
)

type CatalogFilter struct {
	ActiveOnly bool
}

type CatalogRepository interface {
	CreateMachine(ctx context.Context, machine catalog.Machine) (catalog.Machine, error)
	GetMachine(ctx context.Context, id string) (catalog.Machine, error)
	ListMachines(ctx context.Context, filter CatalogFilter) ([]catalog.Machine, error)
	DeleteMachine(ctx context.Context, id string) error

	CreateTechnician(ctx context.Context, technician catalog.Technician) (catalog.Technician, error)
	GetTechnician(ctx context.Context, id string) (catalog.Technician, error)
	ListTechnicians(ctx context.Context, filter CatalogFilter) ([]catalog.Technician, error)
	DeleteTechnician(ctx context.Context, id string) error

	CreatePart(ctx context.Context, part catalog.Part) (catalog.Part, error)
	ListParts(ctx context.Context, filter CatalogFilter) ([]catalog.Part, error)
}
