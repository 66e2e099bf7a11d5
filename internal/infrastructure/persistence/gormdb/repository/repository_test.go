package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"maintrack/internal/bootstrap/database"
	"maintrack/internal/domain/catalog"
	"maintrack/internal/domain/intervention"
	"maintrack/internal/infrastructure/persistence/gormdb/model"
	"maintrack/internal/infrastructure/persistence/gormdb/uow"
	"maintrack/internal/ports"
)

var baseTime = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "maintrack.sqlite")
	db, err := gorm.Open(gormsqlite.Open(database.SQLiteDSN(dsn)), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func seedCatalog(t *testing.T, repo *CatalogRepository) (catalog.Machine, catalog.Technician) {
	t.Helper()
	ctx := context.Background()

	var specs catalog.Specs
	specs.Set("power_kw", catalog.NumberValue(7.5))
	specs.Set("voltage", catalog.TextValue("400V"))

	machine, err := repo.CreateMachine(ctx, catalog.Machine{
		ID:             "m1",
		Name:           "Torno CNC",
		Model:          "TX-200",
		Location:       "Nave A",
		Specifications: specs,
		IsActive:       true,
		CreatedAt:      baseTime,
		UpdatedAt:      baseTime,
	})
	if err != nil {
		t.Fatalf("create machine: %v", err)
	}
	technician, err := repo.CreateTechnician(ctx, catalog.Technician{
		ID:        "t1",
		Name:      "Ana Costa",
		Specialty: "mecânica",
		IsActive:  true,
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	})
	if err != nil {
		t.Fatalf("create technician: %v", err)
	}
	return machine, technician
}

func TestCatalogRepositoryActiveFilter(t *testing.T) {
	db := setupDB(t)
	repo := NewCatalogRepository(db)
	ctx := context.Background()
	seedCatalog(t, repo)

	if _, err := repo.CreateMachine(ctx, catalog.Machine{
		ID:        "m2",
		Name:      "Prensa antiga",
		IsActive:  false,
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}); err != nil {
		t.Fatalf("create inactive machine: %v", err)
	}

	all, err := repo.ListMachines(ctx, ports.CatalogFilter{})
	if err != nil {
		t.Fatalf("ListMachines() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len(all) = %d, want 2", len(all))
	}

	active, err := repo.ListMachines(ctx, ports.CatalogFilter{ActiveOnly: true})
	if err != nil {
		t.Fatalf("ListMachines(active) error = %v", err)
	}
	if len(active) != 1 || active[0].ID != "m1" {
		t.Fatalf("active = %+v", active)
	}

	got, err := repo.GetMachine(ctx, "m1")
	if err != nil {
		t.Fatalf("GetMachine() error = %v", err)
	}
	keys := got.Specifications.Keys()
	if len(keys) != 2 || keys[0] != "power_kw" || keys[1] != "voltage" {
		t.Fatalf("spec keys = %v", keys)
	}
	if value, ok := got.Specifications.Get("power_kw"); !ok || !value.IsNumber || value.Number != 7.5 {
		t.Fatalf("power_kw = %+v", value)
	}

	if _, err := repo.GetTechnician(ctx, "missing"); !errors.Is(err, ports.ErrTechnicianNotFound) {
		t.Fatalf("GetTechnician(missing) error = %v", err)
	}
}

func TestInterventionRepositoryRoundTrip(t *testing.T) {
	db := setupDB(t)
	catalogRepo := NewCatalogRepository(db)
	repo := NewInterventionRepository(db)
	ctx := context.Background()
	seedCatalog(t, catalogRepo)

	created, err := repo.CreateIntervention(ctx, intervention.NewFromDraft("iv-1", intervention.Draft{
		MachineID:          "m1",
		TechnicianID:       "t1",
		ProblemDescription: "motor faz ruído anómalo",
	}, baseTime))
	if err != nil {
		t.Fatalf("CreateIntervention() error = %v", err)
	}
	if created.Status != intervention.StatusPending || created.Priority != intervention.PriorityMedium {
		t.Fatalf("created = %+v", created)
	}

	got, err := repo.GetIntervention(ctx, "iv-1")
	if err != nil {
		t.Fatalf("GetIntervention() error = %v", err)
	}
	if got.AISolution != "" || got.AudioURL != "" {
		t.Fatalf("optional text = %q/%q, want empty", got.AISolution, got.AudioURL)
	}
	if got.MachineID == nil || *got.MachineID != "m1" {
		t.Fatalf("machine_id = %v", got.MachineID)
	}
	if !got.CreatedAt.Equal(baseTime) {
		t.Fatalf("created_at = %v", got.CreatedAt)
	}

	resolvedAt := baseTime.Add(time.Hour)
	if err := repo.UpdateInterventionStatus(ctx, intervention.Transition{
		ID:         "iv-1",
		From:       intervention.StatusPending,
		To:         intervention.StatusResolved,
		ResolvedAt: &resolvedAt,
		UpdatedAt:  resolvedAt,
	}); err != nil {
		t.Fatalf("UpdateInterventionStatus() error = %v", err)
	}

	got, err = repo.GetIntervention(ctx, "iv-1")
	if err != nil {
		t.Fatalf("GetIntervention() error = %v", err)
	}
	if got.Status != intervention.StatusResolved {
		t.Fatalf("status = %q", got.Status)
	}
	if got.ResolvedAt == nil || !got.ResolvedAt.Equal(resolvedAt) {
		t.Fatalf("resolved_at = %v, want %v", got.ResolvedAt, resolvedAt)
	}

	err = repo.UpdateInterventionStatus(ctx, intervention.Transition{
		ID:        "missing",
		To:        intervention.StatusCancelled,
		UpdatedAt: resolvedAt,
	})
	if !errors.Is(err, ports.ErrInterventionNotFound) {
		t.Fatalf("UpdateInterventionStatus(missing) error = %v", err)
	}
}

func TestInterventionRepositoryUpdateDetails(t *testing.T) {
	db := setupDB(t)
	repo := NewInterventionRepository(db)
	ctx := context.Background()

	if _, err := repo.CreateIntervention(ctx, intervention.NewFromDraft("iv-1", intervention.Draft{
		ProblemDescription: "fuga de óleo",
		AISolution:         "1. Diagnóstico",
	}, baseTime)); err != nil {
		t.Fatalf("CreateIntervention() error = %v", err)
	}

	high := intervention.PriorityHigh
	empty := ""
	if err := repo.UpdateInterventionDetails(ctx, "iv-1", intervention.DetailsPatch{
		Priority:   &high,
		AISolution: &empty,
	}, baseTime.Add(time.Minute)); err != nil {
		t.Fatalf("UpdateInterventionDetails() error = %v", err)
	}

	got, err := repo.GetIntervention(ctx, "iv-1")
	if err != nil {
		t.Fatalf("GetIntervention() error = %v", err)
	}
	if got.Priority != intervention.PriorityHigh || got.AISolution != "" || got.ProblemDescription != "fuga de óleo" {
		t.Fatalf("got = %+v", got)
	}
	if !got.UpdatedAt.Equal(baseTime.Add(time.Minute)) {
		t.Fatalf("updated_at = %v", got.UpdatedAt)
	}
}

func TestListInterventionsFiltersAndOrders(t *testing.T) {
	db := setupDB(t)
	catalogRepo := NewCatalogRepository(db)
	repo := NewInterventionRepository(db)
	ctx := context.Background()
	seedCatalog(t, catalogRepo)

	for i, id := range []string{"iv-1", "iv-2", "iv-3"} {
		draft := intervention.Draft{ProblemDescription: "p " + id}
		if id != "iv-2" {
			draft.MachineID = "m1"
		}
		if _, err := repo.CreateIntervention(ctx, intervention.NewFromDraft(id, draft, baseTime.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	items, err := repo.ListInterventions(ctx, ports.InterventionFilter{MachineID: "m1"})
	if err != nil {
		t.Fatalf("ListInterventions() error = %v", err)
	}
	if len(items) != 2 || items[0].ID != "iv-3" || items[1].ID != "iv-1" {
		t.Fatalf("items = %+v", items)
	}

	limited, err := repo.ListInterventions(ctx, ports.InterventionFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListInterventions(limit) error = %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "iv-3" {
		t.Fatalf("limited = %+v", limited)
	}
}

func TestDeleteMachineKeepsInterventionHistory(t *testing.T) {
	db := setupDB(t)
	catalogRepo := NewCatalogRepository(db)
	repo := NewInterventionRepository(db)
	ctx := context.Background()
	seedCatalog(t, catalogRepo)

	if _, err := repo.CreateIntervention(ctx, intervention.NewFromDraft("iv-1", intervention.Draft{
		MachineID:          "m1",
		TechnicianID:       "t1",
		ProblemDescription: "correia partida",
	}, baseTime)); err != nil {
		t.Fatalf("CreateIntervention() error = %v", err)
	}
	machineID := "m1"
	if _, err := catalogRepo.CreatePart(ctx, catalog.Part{
		ID:        "p1",
		Name:      "Correia",
		MachineID: &machineID,
		IsActive:  true,
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}); err != nil {
		t.Fatalf("CreatePart() error = %v", err)
	}

	if err := catalogRepo.DeleteMachine(ctx, "m1"); err != nil {
		t.Fatalf("DeleteMachine() error = %v", err)
	}
	if err := catalogRepo.DeleteTechnician(ctx, "t1"); err != nil {
		t.Fatalf("DeleteTechnician() error = %v", err)
	}

	got, err := repo.GetIntervention(ctx, "iv-1")
	if err != nil {
		t.Fatalf("GetIntervention() error = %v", err)
	}
	if got.MachineID != nil || got.TechnicianID != nil {
		t.Fatalf("references = %v/%v, want nil", got.MachineID, got.TechnicianID)
	}
	if got.ProblemDescription != "correia partida" {
		t.Fatalf("description = %q", got.ProblemDescription)
	}

	parts, err := catalogRepo.ListParts(ctx, ports.CatalogFilter{})
	if err != nil {
		t.Fatalf("ListParts() error = %v", err)
	}
	if len(parts) != 1 || parts[0].MachineID != nil {
		t.Fatalf("parts = %+v", parts)
	}

	if err := catalogRepo.DeleteMachine(ctx, "m1"); !errors.Is(err, ports.ErrMachineNotFound) {
		t.Fatalf("DeleteMachine(again) error = %v", err)
	}
}

func TestUnitOfWorkRollsBack(t *testing.T) {
	db := setupDB(t)
	repo := NewCatalogRepository(db)
	unitOfWork := uow.NewUnitOfWork(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := unitOfWork.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := repo.CreateTechnician(txCtx, catalog.Technician{
			ID:        "t9",
			Name:      "Rui",
			IsActive:  true,
			CreatedAt: baseTime,
			UpdatedAt: baseTime,
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want boom", err)
	}

	if _, err := repo.GetTechnician(ctx, "t9"); !errors.Is(err, ports.ErrTechnicianNotFound) {
		t.Fatalf("GetTechnician() error = %v, want not found after rollback", err)
	}
}

func TestUnitOfWorkNestedJoinsOuter(t *testing.T) {
	db := setupDB(t)
	repo := NewCatalogRepository(db)
	unitOfWork := uow.NewUnitOfWork(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := unitOfWork.WithTx(ctx, func(outerCtx context.Context) error {
		if err := unitOfWork.WithTx(outerCtx, func(innerCtx context.Context) error {
			_, err := repo.CreateMachine(innerCtx, catalog.Machine{
				ID:        "m9",
				Name:      "Prensa",
				IsActive:  true,
				CreatedAt: baseTime,
				UpdatedAt: baseTime,
			})
			return err
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want boom", err)
	}

	if _, err := repo.GetMachine(ctx, "m9"); !errors.Is(err, ports.ErrMachineNotFound) {
		t.Fatalf("GetMachine() error = %v, want not found after outer rollback", err)
	}
}

func TestCreateInterventionWithoutCatalogRefs(t *testing.T) {
	db := setupDB(t)
	repo := NewInterventionRepository(db)
	ctx := context.Background()

	if _, err := repo.CreateIntervention(ctx, intervention.NewFromDraft("iv-1", intervention.Draft{
		ProblemDescription: "correia partida",
	}, baseTime)); err != nil {
		t.Fatalf("CreateIntervention(no refs) error = %v", err)
	}

	blank := ""
	if _, err := repo.CreateIntervention(ctx, intervention.Intervention{
		ID:           "iv-2",
		MachineID:    &blank,
		TechnicianID: &blank,
		Status:       intervention.StatusPending,
		Priority:     intervention.PriorityMedium,
		CreatedAt:    baseTime,
		UpdatedAt:    baseTime,
	}); err != nil {
		t.Fatalf("CreateIntervention(blank refs) error = %v", err)
	}

	var nullRefs int64
	if err := db.Model(&model.Intervention{}).Where("machine_id IS NULL AND technician_id IS NULL").Count(&nullRefs).Error; err != nil {
		t.Fatalf("count null refs: %v", err)
	}
	if nullRefs != 2 {
		t.Fatalf("rows with NULL refs = %d, want 2", nullRefs)
	}

	got, err := repo.GetIntervention(ctx, "iv-2")
	if err != nil {
		t.Fatalf("GetIntervention() error = %v", err)
	}
	if got.MachineID != nil || got.TechnicianID != nil {
		t.Fatalf("refs = %v/%v, want nil", got.MachineID, got.TechnicianID)
	}
}

func TestUpdateInterventionStatusRequiresPlannedFrom(t *testing.T) {
	db := setupDB(t)
	catalogRepo := NewCatalogRepository(db)
	repo := NewInterventionRepository(db)
	ctx := context.Background()
	seedCatalog(t, catalogRepo)

	if _, err := repo.CreateIntervention(ctx, intervention.NewFromDraft("iv-1", intervention.Draft{
		MachineID:          "m1",
		TechnicianID:       "t1",
		ProblemDescription: "travão bloqueado",
	}, baseTime)); err != nil {
		t.Fatalf("CreateIntervention() error = %v", err)
	}
	if err := repo.UpdateInterventionStatus(ctx, intervention.Transition{
		ID:        "iv-1",
		From:      intervention.StatusPending,
		To:        intervention.StatusCancelled,
		UpdatedAt: baseTime.Add(time.Minute),
	}); err != nil {
		t.Fatalf("UpdateInterventionStatus(cancel) error = %v", err)
	}

	resolvedAt := baseTime.Add(2 * time.Minute)
	err := repo.UpdateInterventionStatus(ctx, intervention.Transition{
		ID:         "iv-1",
		From:       intervention.StatusInProgress,
		To:         intervention.StatusResolved,
		ResolvedAt: &resolvedAt,
		UpdatedAt:  resolvedAt,
	})
	if !errors.Is(err, ports.ErrStaleStatus) {
		t.Fatalf("UpdateInterventionStatus(stale) error = %v, want ErrStaleStatus", err)
	}

	got, err := repo.GetIntervention(ctx, "iv-1")
	if err != nil {
		t.Fatalf("GetIntervention() error = %v", err)
	}
	if got.Status != intervention.StatusCancelled || got.ResolvedAt != nil {
		t.Fatalf("got = status %q resolved_at %v", got.Status, got.ResolvedAt)
	}
}
