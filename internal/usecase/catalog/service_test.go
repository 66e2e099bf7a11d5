package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"maintrack/internal/bootstrap/database"
	domaincatalog "maintrack/internal/domain/catalog"
	"maintrack/internal/infrastructure/cache"
	"maintrack/internal/infrastructure/persistence/gormdb/model"
	"maintrack/internal/infrastructure/persistence/gormdb/repository"
	"maintrack/internal/infrastructure/persistence/gormdb/uow"
	"maintrack/internal/ports"
)

const sampleCatalog = `
[[machines]]
id = "m1"
name = "Torno CNC"
model = "TX-200"
location = "Nave A"

[machines.specifications]
power_kw = 7.5
voltage = "400V"

[[machines]]
id = "m2"
name = "Prensa antiga"
is_active = false

[[technicians]]
id = "t1"
name = "Ana Costa"
specialty = "mecânica"

[[technicians]]
id = "t2"
name = "Rui Alves"

[[parts]]
id = "p1"
name = "Correia"
part_number = "BLT-10"
quantity = 1
min_quantity = 2
machine_id = "m1"

[[parts]]
id = "p2"
name = "Filtro"
quantity = 10
min_quantity = 2
`

func setupService(t *testing.T) (*Service, *repository.CatalogRepository) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "catalog.sqlite")
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

	repo := repository.NewCatalogRepository(db)
	svc := NewService(repo, uow.NewUnitOfWork(db), cache.NewSQLiteCache(db), time.Minute)
	return svc, repo
}

func TestSeedAndActiveLists(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	result, err := svc.Seed(ctx, []byte(sampleCatalog))
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if result != (SeedResult{Machines: 2, Technicians: 2, Parts: 2}) {
		t.Fatalf("Seed() result = %+v", result)
	}

	machines, err := svc.ActiveMachines(ctx)
	if err != nil {
		t.Fatalf("ActiveMachines() error = %v", err)
	}
	if len(machines) != 1 || machines[0].ID != "m1" {
		t.Fatalf("active machines = %+v", machines)
	}
	if value, ok := machines[0].Specifications.Get("power_kw"); !ok || value.String() != "7.5" {
		t.Fatalf("power_kw = %+v", value)
	}

	all, err := svc.ListMachines(ctx, ports.CatalogFilter{})
	if err != nil || len(all) != 2 {
		t.Fatalf("ListMachines() = %d, %v", len(all), err)
	}

	technicians, err := svc.ActiveTechnicians(ctx)
	if err != nil || len(technicians) != 2 {
		t.Fatalf("ActiveTechnicians() = %+v, %v", technicians, err)
	}

	low, err := svc.LowStockParts(ctx)
	if err != nil {
		t.Fatalf("LowStockParts() error = %v", err)
	}
	if len(low) != 1 || low[0].ID != "p1" {
		t.Fatalf("low stock = %+v", low)
	}
}

func TestActiveListsAreCachedAndInvalidated(t *testing.T) {
	svc, repo := setupService(t)
	ctx := context.Background()

	if _, err := svc.Seed(ctx, []byte(sampleCatalog)); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if _, err := svc.ActiveTechnicians(ctx); err != nil {
		t.Fatalf("ActiveTechnicians() error = %v", err)
	}

	// A write that bypasses the service is not visible until the entry expires.
	if err := repo.DeleteTechnician(ctx, "t2"); err != nil {
		t.Fatalf("repo.DeleteTechnician() error = %v", err)
	}
	cached, err := svc.ActiveTechnicians(ctx)
	if err != nil || len(cached) != 2 {
		t.Fatalf("cached technicians = %d, %v", len(cached), err)
	}

	if err := svc.DeleteTechnician(ctx, "t1"); err != nil {
		t.Fatalf("DeleteTechnician() error = %v", err)
	}
	fresh, err := svc.ActiveTechnicians(ctx)
	if err != nil {
		t.Fatalf("ActiveTechnicians() error = %v", err)
	}
	if len(fresh) != 0 {
		t.Fatalf("fresh technicians = %+v", fresh)
	}

	if err := svc.DeleteTechnician(ctx, "t1"); !errors.Is(err, ports.ErrTechnicianNotFound) {
		t.Fatalf("DeleteTechnician(again) error = %v", err)
	}
}

func TestSeedRollsBackOnInvalidEntry(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	raw := `
[[machines]]
id = "m1"
name = "Torno"

[[technicians]]
name = "  "
`
	if _, err := svc.Seed(ctx, []byte(raw)); !errors.Is(err, domaincatalog.ErrNameRequired) {
		t.Fatalf("Seed() error = %v, want ErrNameRequired", err)
	}

	machines, err := svc.ListMachines(ctx, ports.CatalogFilter{})
	if err != nil {
		t.Fatalf("ListMachines() error = %v", err)
	}
	if len(machines) != 0 {
		t.Fatalf("machines after rollback = %+v", machines)
	}
}

func TestSeedRejectsMalformedToml(t *testing.T) {
	svc, _ := setupService(t)
	if _, err := svc.Seed(context.Background(), []byte("[[machines]\nname=")); err == nil {
		t.Fatalf("Seed() expected decode error")
	}
}
