package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"maintrack/internal/domain/intervention"
	"maintrack/internal/errs"
	"maintrack/internal/infrastructure/persistence/gormdb/model"
	"maintrack/internal/ports"
)

type InterventionRepository struct {
	db *gorm.DB
}

var _ ports.InterventionRepository = (*InterventionRepository)(nil)

func NewInterventionRepository(db *gorm.DB) *InterventionRepository {
	return &InterventionRepository{db: db}
}

func (r *InterventionRepository) CreateIntervention(ctx context.Context, iv intervention.Intervention) (intervention.Intervention, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return intervention.Intervention{}, err
	}

	row := toInterventionModel(iv)
	if err := db.Omit("Machine", "Technician").Create(&row).Error; err != nil {
		return intervention.Intervention{}, errs.Wrap(err, "insert intervention")
	}
	return fromInterventionModel(row), nil
}

func (r *InterventionRepository) GetIntervention(ctx context.Context, id string) (intervention.Intervention, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return intervention.Intervention{}, err
	}

	var row model.Intervention
	if err := db.Where("id = ?", strings.TrimSpace(id)).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return intervention.Intervention{}, ports.ErrInterventionNotFound
		}
		return intervention.Intervention{}, errs.Wrap(err, "query intervention")
	}
	return fromInterventionModel(row), nil
}

func (r *InterventionRepository) ListInterventions(ctx context.Context, filter ports.InterventionFilter) ([]intervention.Intervention, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Intervention{})
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if machineID := strings.TrimSpace(filter.MachineID); machineID != "" {
		query = query.Where("machine_id = ?", machineID)
	}
	if technicianID := strings.TrimSpace(filter.TechnicianID); technicianID != "" {
		query = query.Where("technician_id = ?", technicianID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []model.Intervention
	if err := query.Order("created_at desc").Order("id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query interventions")
	}

	items := make([]intervention.Intervention, 0, len(rows))
	for _, row := range rows {
		items = append(items, fromInterventionModel(row))
	}
	return items, nil
}

// UpdateInterventionStatus writes status and updated_at, and resolved_at only
// when the transition carries one. The row must still hold transition.From,
// otherwise ports.ErrStaleStatus is returned and nothing is written.
func (r *InterventionRepository) UpdateInterventionStatus(ctx context.Context, transition intervention.Transition) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	updates := map[string]any{
		"status":     string(transition.To),
		"updated_at": transition.UpdatedAt,
	}
	if transition.ResolvedAt != nil {
		updates["resolved_at"] = *transition.ResolvedAt
	}

	result := db.Model(&model.Intervention{}).
		Where("id = ? AND status = ?", strings.TrimSpace(transition.ID), string(transition.From)).
		Updates(updates)
	if result.Error != nil {
		return errs.Wrap(result.Error, "update intervention status")
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&model.Intervention{}).Where("id = ?", strings.TrimSpace(transition.ID)).Count(&count).Error; err != nil {
		return errs.Wrap(err, "check intervention after status update")
	}
	if count == 0 {
		return ports.ErrInterventionNotFound
	}
	return ports.ErrStaleStatus
}

func (r *InterventionRepository) UpdateInterventionDetails(ctx context.Context, id string, patch intervention.DetailsPatch, updatedAt time.Time) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	updates := map[string]any{
		"updated_at": updatedAt,
	}
	if patch.Priority != nil {
		updates["priority"] = string(*patch.Priority)
	}
	if patch.ProblemDescription != nil {
		updates["problem_description"] = nullableString(*patch.ProblemDescription)
	}
	if patch.AISolution != nil {
		updates["ai_solution"] = nullableString(*patch.AISolution)
	}

	return applyInterventionUpdates(db, id, updates, "update intervention details")
}

func applyInterventionUpdates(db *gorm.DB, id string, updates map[string]any, op string) error {
	result := db.Model(&model.Intervention{}).Where("id = ?", strings.TrimSpace(id)).Updates(updates)
	if result.Error != nil {
		return errs.Wrap(result.Error, op)
	}
	if result.RowsAffected == 0 {
		return ports.ErrInterventionNotFound
	}
	return nil
}

func toInterventionModel(iv intervention.Intervention) model.Intervention {
	return model.Intervention{
		ID:                 iv.ID,
		MachineID:          optionalRef(iv.MachineID),
		TechnicianID:       optionalRef(iv.TechnicianID),
		ProblemDescription: nullableString(iv.ProblemDescription),
		AudioURL:           nullableString(iv.AudioURL),
		AISolution:         nullableString(iv.AISolution),
		Status:             string(iv.Status),
		Priority:           string(iv.Priority),
		CreatedAt:          iv.CreatedAt,
		UpdatedAt:          iv.UpdatedAt,
		ResolvedAt:         iv.ResolvedAt,
	}
}

func fromInterventionModel(row model.Intervention) intervention.Intervention {
	return intervention.Intervention{
		ID:                 row.ID,
		MachineID:          cloneStringPtr(row.MachineID),
		TechnicianID:       cloneStringPtr(row.TechnicianID),
		ProblemDescription: derefString(row.ProblemDescription),
		AudioURL:           derefString(row.AudioURL),
		AISolution:         derefString(row.AISolution),
		Status:             intervention.Status(row.Status),
		Priority:           intervention.Priority(row.Priority),
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
		ResolvedAt:         row.ResolvedAt,
	}
}

// optionalRef stores an empty catalog reference as NULL so the foreign key
// accepts it.
func optionalRef(ptr *string) *string {
	if ptr == nil {
		return nil
	}
	return intervention.OptionalRef(*ptr)
}
