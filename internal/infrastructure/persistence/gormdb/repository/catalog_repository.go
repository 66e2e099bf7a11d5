package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/gorm"

	"maintrack/internal/domain/catalog"
	"maintrack/internal/errs"
	"maintrack/internal/infrastructure/persistence/gormdb/model"
	"maintrack/internal/ports"
)

type CatalogRepository struct {
	db *gorm.DB
}

var _ ports.CatalogRepository = (*CatalogRepository)(nil)

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) CreateMachine(ctx context.Context, machine catalog.Machine) (catalog.Machine, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return catalog.Machine{}, err
	}

	row, err := toMachineModel(machine)
	if err != nil {
		return catalog.Machine{}, err
	}
	if err := db.Create(&row).Error; err != nil {
		return catalog.Machine{}, errs.Wrap(err, "insert machine")
	}
	return fromMachineModel(row)
}

func (r *CatalogRepository) GetMachine(ctx context.Context, id string) (catalog.Machine, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return catalog.Machine{}, err
	}

	var row model.Machine
	if err := db.Where("id = ?", strings.TrimSpace(id)).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return catalog.Machine{}, ports.ErrMachineNotFound
		}
		return catalog.Machine{}, errs.Wrap(err, "query machine")
	}
	return fromMachineModel(row)
}

func (r *CatalogRepository) ListMachines(ctx context.Context, filter ports.CatalogFilter) ([]catalog.Machine, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.Machine
	if err := activeScope(db.Model(&model.Machine{}), filter).Order("name asc").Order("id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query machines")
	}

	out := make([]catalog.Machine, 0, len(rows))
	for _, row := range rows {
		machine, err := fromMachineModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, machine)
	}
	return out, nil
}

// DeleteMachine removes the row; interventions and parts referencing it keep
// their history with machine_id set to NULL by the foreign key.
func (r *CatalogRepository) DeleteMachine(ctx context.Context, id string) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	result := db.Where("id = ?", strings.TrimSpace(id)).Delete(&model.Machine{})
	if result.Error != nil {
		return errs.Wrap(result.Error, "delete machine")
	}
	if result.RowsAffected == 0 {
		return ports.ErrMachineNotFound
	}
	return nil
}

func (r *CatalogRepository) CreateTechnician(ctx context.Context, technician catalog.Technician) (catalog.Technician, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return catalog.Technician{}, err
	}

	row := toTechnicianModel(technician)
	if err := db.Create(&row).Error; err != nil {
		return catalog.Technician{}, errs.Wrap(err, "insert technician")
	}
	return fromTechnicianModel(row), nil
}

func (r *CatalogRepository) GetTechnician(ctx context.Context, id string) (catalog.Technician, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return catalog.Technician{}, err
	}

	var row model.Technician
	if err := db.Where("id = ?", strings.TrimSpace(id)).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return catalog.Technician{}, ports.ErrTechnicianNotFound
		}
		return catalog.Technician{}, errs.Wrap(err, "query technician")
	}
	return fromTechnicianModel(row), nil
}

func (r *CatalogRepository) ListTechnicians(ctx context.Context, filter ports.CatalogFilter) ([]catalog.Technician, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.Technician
	if err := activeScope(db.Model(&model.Technician{}), filter).Order("name asc").Order("id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query technicians")
	}

	out := make([]catalog.Technician, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromTechnicianModel(row))
	}
	return out, nil
}

func (r *CatalogRepository) DeleteTechnician(ctx context.Context, id string) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	result := db.Where("id = ?", strings.TrimSpace(id)).Delete(&model.Technician{})
	if result.Error != nil {
		return errs.Wrap(result.Error, "delete technician")
	}
	if result.RowsAffected == 0 {
		return ports.ErrTechnicianNotFound
	}
	return nil
}

func (r *CatalogRepository) CreatePart(ctx context.Context, part catalog.Part) (catalog.Part, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return catalog.Part{}, err
	}

	row := toPartModel(part)
	if err := db.Omit("Machine").Create(&row).Error; err != nil {
		return catalog.Part{}, errs.Wrap(err, "insert part")
	}
	return fromPartModel(row), nil
}

func (r *CatalogRepository) ListParts(ctx context.Context, filter ports.CatalogFilter) ([]catalog.Part, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.Part
	if err := activeScope(db.Model(&model.Part{}), filter).Order("name asc").Order("id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query parts")
	}

	out := make([]catalog.Part, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromPartModel(row))
	}
	return out, nil
}

func activeScope(query *gorm.DB, filter ports.CatalogFilter) *gorm.DB {
	if filter.ActiveOnly {
		return query.Where("is_active = ?", true)
	}
	return query
}

func toMachineModel(machine catalog.Machine) (model.Machine, error) {
	specs, err := json.Marshal(machine.Specifications)
	if err != nil {
		return model.Machine{}, errs.Wrap(err, "encode machine specifications")
	}
	return model.Machine{
		ID:             machine.ID,
		Name:           machine.Name,
		Model:          machine.Model,
		Manufacturer:   machine.Manufacturer,
		SerialNumber:   machine.SerialNumber,
		Location:       machine.Location,
		Specifications: string(specs),
		IsActive:       machine.IsActive,
		CreatedAt:      machine.CreatedAt,
		UpdatedAt:      machine.UpdatedAt,
	}, nil
}

func fromMachineModel(row model.Machine) (catalog.Machine, error) {
	var specs catalog.Specs
	if raw := strings.TrimSpace(row.Specifications); raw != "" {
		if err := json.Unmarshal([]byte(raw), &specs); err != nil {
			return catalog.Machine{}, errs.Wrapf(err, "decode specifications of machine %s", row.ID)
		}
	}
	return catalog.Machine{
		ID:             row.ID,
		Name:           row.Name,
		Model:          row.Model,
		Manufacturer:   row.Manufacturer,
		SerialNumber:   row.SerialNumber,
		Location:       row.Location,
		Specifications: specs,
		IsActive:       row.IsActive,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}, nil
}

func toTechnicianModel(technician catalog.Technician) model.Technician {
	return model.Technician{
		ID:        technician.ID,
		Name:      technician.Name,
		Email:     technician.Email,
		Phone:     technician.Phone,
		Specialty: technician.Specialty,
		IsActive:  technician.IsActive,
		CreatedAt: technician.CreatedAt,
		UpdatedAt: technician.UpdatedAt,
	}
}

func fromTechnicianModel(row model.Technician) catalog.Technician {
	return catalog.Technician{
		ID:        row.ID,
		Name:      row.Name,
		Email:     row.Email,
		Phone:     row.Phone,
		Specialty: row.Specialty,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func toPartModel(part catalog.Part) model.Part {
	return model.Part{
		ID:          part.ID,
		Name:        part.Name,
		PartNumber:  part.PartNumber,
		Description: part.Description,
		Quantity:    part.Quantity,
		MinQuantity: part.MinQuantity,
		Location:    part.Location,
		MachineID:   cloneStringPtr(part.MachineID),
		IsActive:    part.IsActive,
		CreatedAt:   part.CreatedAt,
		UpdatedAt:   part.UpdatedAt,
	}
}

func fromPartModel(row model.Part) catalog.Part {
	return catalog.Part{
		ID:          row.ID,
		Name:        row.Name,
		PartNumber:  row.PartNumber,
		Description: row.Description,
		Quantity:    row.Quantity,
		MinQuantity: row.MinQuantity,
		Location:    row.Location,
		MachineID:   cloneStringPtr(row.MachineID),
		IsActive:    row.IsActive,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
