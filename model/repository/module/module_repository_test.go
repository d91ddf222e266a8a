package module

import (
	"sync"
	"testing"

	"modular.GO/internal/testutil/sqlitetest"
	entity "modular.GO/model/entity"
)

func migratedRepo(t *testing.T) *ModuleRepository {
	t.Helper()
	repo := NewModuleRepository(sqlitetest.Open(t))
	if err := repo.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo
}

func TestModuleRepository_HasTable(t *testing.T) {
	repo := NewModuleRepository(sqlitetest.Open(t))
	if repo.HasTable() {
		t.Fatal("HasTable before migrate: want false")
	}
	ids, err := repo.ActiveIdentifiers()
	if err != nil || len(ids) != 0 {
		t.Errorf("ActiveIdentifiers without table = %v, %v; want empty, nil", ids, err)
	}
	if err := repo.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !repo.HasTable() {
		t.Error("HasTable after migrate: want true")
	}
}

func TestModuleRepository_CreateIfMissing(t *testing.T) {
	repo := migratedRepo(t)

	created, err := repo.CreateIfMissing(&entity.ModuleRecord{Identifier: "billing", Name: "Billing", Version: "1.0"})
	if err != nil || !created {
		t.Fatalf("first CreateIfMissing = %v, %v; want true, nil", created, err)
	}
	created, err = repo.CreateIfMissing(&entity.ModuleRecord{Identifier: "billing", Name: "Other", Version: "9"})
	if err != nil {
		t.Fatalf("second CreateIfMissing: %v", err)
	}
	if created {
		t.Error("second CreateIfMissing: want created=false")
	}

	rec, err := repo.FindByIdentifier("billing")
	if err != nil {
		t.Fatalf("FindByIdentifier: %v", err)
	}
	if rec.Name != "Billing" || rec.Version != "1.0" || rec.Installed || rec.Active {
		t.Errorf("record = %+v, want untouched first insert", rec)
	}
}

func TestModuleRepository_CreateIfMissing_Concurrent(t *testing.T) {
	repo := migratedRepo(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := repo.CreateIfMissing(&entity.ModuleRecord{Identifier: "race", Name: "Race", Version: "1"})
			if err != nil {
				t.Errorf("CreateIfMissing: %v", err)
				return
			}
			if created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	var count int64
	repo.DB().Model(&entity.ModuleRecord{}).Where("identifier = ?", "race").Count(&count)
	if count != 1 {
		t.Errorf("records = %d, want 1", count)
	}
	if createdCount != 1 {
		t.Errorf("created reported %d times, want 1", createdCount)
	}
}

func TestModuleRepository_UpdateStateAndActive(t *testing.T) {
	repo := migratedRepo(t)
	for _, id := range []string{"alpha", "beta"} {
		if _, err := repo.CreateIfMissing(&entity.ModuleRecord{Identifier: id, Name: id, Version: "1"}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	err := repo.Transaction(func(tx *ModuleRepository) error {
		rec, err := tx.FindByIdentifierForUpdate("beta")
		if err != nil {
			return err
		}
		rec.Installed, rec.Active, rec.Version = true, true, "2"
		return tx.UpdateState(rec)
	})
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}

	ids, err := repo.ActiveIdentifiers()
	if err != nil {
		t.Fatalf("ActiveIdentifiers: %v", err)
	}
	if len(ids) != 1 || ids[0] != "beta" {
		t.Errorf("ActiveIdentifiers = %v, want [beta]", ids)
	}

	installed, err := repo.Filter(map[string]interface{}{"installed": false})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(installed) != 1 || installed[0].Identifier != "alpha" {
		t.Errorf("Filter(installed=false) = %v, want [alpha]", installed)
	}
}

func TestModuleRepository_Fields(t *testing.T) {
	repo := migratedRepo(t)
	if _, err := repo.CreateIfMissing(&entity.ModuleRecord{Identifier: "product_module", Name: "Product", Version: "1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	rec, _ := repo.FindByIdentifier("product_module")

	inactive := false
	f := &entity.ModuleField{ModuleID: rec.ID, ModelName: "Product", FieldName: "color", FieldType: "CharField", IsActive: &inactive}
	if err := repo.CreateField(f); err != nil {
		t.Fatalf("CreateField: %v", err)
	}
	dup := &entity.ModuleField{ModuleID: rec.ID, ModelName: "Product", FieldName: "color", FieldType: "IntegerField"}
	if err := repo.CreateField(dup); err == nil {
		t.Error("duplicate (module, model, field): want unique violation")
	}

	fields, err := repo.Fields(rec.ID)
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}
	if len(fields) != 1 {
		t.Fatalf("Fields = %d, want 1", len(fields))
	}
	if fields[0].IsActive == nil || *fields[0].IsActive {
		t.Errorf("IsActive = %v, want explicit false", fields[0].IsActive)
	}
	if fields[0].FieldParams == nil {
		t.Error("FieldParams should default to an empty map")
	}
}
