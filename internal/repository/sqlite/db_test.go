package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/elsanchez/smart-publish/internal/domain"
)

func TestDatabase_MigrationsApplied(t *testing.T) {
	// Crear DB temporal
	tmpDir := t.TempDir()
	db, err := NewDatabase(tmpDir)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer db.Close()

	// Verificar que existe el archivo de base de datos
	dbPath := filepath.Join(tmpDir, "accounts.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file was not created")
	}

	// Verificar que las tablas existen
	ctx := context.Background()

	var count int
	err = db.DB.GetContext(ctx, &count, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='accounts'")
	if err != nil {
		t.Fatalf("failed to query tables: %v", err)
	}

	if count != 1 {
		t.Error("accounts table was not created")
	}

	err = db.DB.GetContext(ctx, &count, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='account_cookies'")
	if err != nil {
		t.Fatalf("failed to query tables: %v", err)
	}

	if count != 1 {
		t.Error("account_cookies table was not created")
	}

	t.Log("✅ Migrations applied successfully")
}

func TestDatabase_AccountUpsert(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := NewDatabase(tmpDir)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	acc := &domain.Account{
		Platform:      "douyin",
		AccountID:     "12345",
		Nickname:      "creador",
		FollowerCount: 100,
		Extra:         map[string]string{"region": "cn"},
	}

	id, err := db.AccountRepo.Upsert(ctx, acc)
	if err != nil {
		t.Fatalf("failed to upsert account: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero ID")
	}

	// Upsert de la misma cuenta debe actualizar, no duplicar
	acc.Nickname = "creador renombrado"
	acc.FollowerCount = 150

	id2, err := db.AccountRepo.Upsert(ctx, acc)
	if err != nil {
		t.Fatalf("failed to re-upsert account: %v", err)
	}
	if id2 != id {
		t.Errorf("expected same ID %d on re-upsert, got %d", id, id2)
	}

	retrieved, err := db.AccountRepo.GetByPlatformID(ctx, "douyin", "12345")
	if err != nil {
		t.Fatalf("failed to get account: %v", err)
	}

	if retrieved.Nickname != "creador renombrado" {
		t.Errorf("expected updated nickname, got %s", retrieved.Nickname)
	}
	if retrieved.FollowerCount != 150 {
		t.Errorf("expected follower count 150, got %d", retrieved.FollowerCount)
	}
	if retrieved.Extra["region"] != "cn" {
		t.Errorf("expected extra region cn, got %v", retrieved.Extra)
	}
	if retrieved.Status != domain.AccountActive {
		t.Errorf("expected default status active, got %s", retrieved.Status)
	}

	t.Logf("✅ Account upserted with ID: %d", id)
}

func TestDatabase_AccountNotFound(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := NewDatabase(tmpDir)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	_, err = db.AccountRepo.GetByPlatformID(ctx, "tiktok", "nadie")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}

	err = db.AccountRepo.SetStatus(ctx, "tiktok", "nadie", domain.AccountDisabled)
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound on SetStatus, got %v", err)
	}
}

func TestDatabase_AccountStatusSwitch(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := NewDatabase(tmpDir)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	// Crear dos cuentas de la misma plataforma
	for _, accID := range []string{"uno", "dos"} {
		if _, err := db.AccountRepo.Upsert(ctx, &domain.Account{
			Platform:  "tencent",
			AccountID: accID,
		}); err != nil {
			t.Fatalf("failed to upsert account %s: %v", accID, err)
		}
	}

	if err := db.AccountRepo.SetStatus(ctx, "tencent", "uno", domain.AccountDisabled); err != nil {
		t.Fatalf("failed to set status: %v", err)
	}

	acc, err := db.AccountRepo.GetByPlatformID(ctx, "tencent", "uno")
	if err != nil {
		t.Fatalf("failed to get account: %v", err)
	}
	if acc.Status != domain.AccountDisabled {
		t.Errorf("expected disabled, got %s", acc.Status)
	}

	// La otra cuenta no se ve afectada
	other, err := db.AccountRepo.GetByPlatformID(ctx, "tencent", "dos")
	if err != nil {
		t.Fatalf("failed to get account: %v", err)
	}
	if other.Status != domain.AccountActive {
		t.Errorf("expected active, got %s", other.Status)
	}

	t.Log("✅ Account status switched")
}

func TestDatabase_AccountFilters(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := NewDatabase(tmpDir)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	seeds := []struct {
		platform, accountID string
	}{
		{"douyin", "a"},
		{"douyin", "b"},
		{"kuaishou", "c"},
	}
	for _, s := range seeds {
		if _, err := db.AccountRepo.Upsert(ctx, &domain.Account{
			Platform:  s.platform,
			AccountID: s.accountID,
		}); err != nil {
			t.Fatalf("failed to upsert %s/%s: %v", s.platform, s.accountID, err)
		}
	}

	all, err := db.AccountRepo.GetAll(ctx, "")
	if err != nil {
		t.Fatalf("failed to get all accounts: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 accounts, got %d", len(all))
	}

	douyin, err := db.AccountRepo.GetAll(ctx, "douyin")
	if err != nil {
		t.Fatalf("failed to get douyin accounts: %v", err)
	}
	if len(douyin) != 2 {
		t.Errorf("expected 2 douyin accounts, got %d", len(douyin))
	}

	platforms, err := db.AccountRepo.ListPlatforms(ctx)
	if err != nil {
		t.Fatalf("failed to list platforms: %v", err)
	}
	if len(platforms) != 2 {
		t.Errorf("expected 2 platforms, got %v", platforms)
	}
}

func TestDatabase_CookieUpsertAndOrdering(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := NewDatabase(tmpDir)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	now := time.Now()

	// Registro viejo pero válido, y uno reciente inválido
	records := []*domain.CookieRecord{
		{Platform: "douyin", AccountID: "12345", Path: "/tmp/old.json", IsValid: true, LastCheck: now.Add(-2 * time.Hour)},
		{Platform: "douyin", AccountID: "12345", Path: "/tmp/new.json", IsValid: false, LastCheck: now},
	}

	for _, rec := range records {
		if _, err := db.CookieRepo.Upsert(ctx, rec); err != nil {
			t.Fatalf("failed to upsert cookie %s: %v", rec.Path, err)
		}
	}

	// Re-upsert del mismo triple (platform, account, path) no duplica
	dupID, err := db.CookieRepo.Upsert(ctx, records[0])
	if err != nil {
		t.Fatalf("failed to re-upsert cookie: %v", err)
	}

	list, err := db.CookieRepo.ListByAccount(ctx, "douyin", "12345")
	if err != nil {
		t.Fatalf("failed to list cookies: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 cookie records, got %d", len(list))
	}

	// Los válidos van primero aunque sean más viejos
	if !list[0].IsValid || list[0].Path != "/tmp/old.json" {
		t.Errorf("expected valid record first, got %+v", list[0])
	}
	if list[0].ID != dupID {
		t.Errorf("expected re-upsert to keep ID %d, got %d", list[0].ID, dupID)
	}

	t.Log("✅ Cookie records ordered valid-first")
}

func TestDatabase_CookieMarkValidity(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := NewDatabase(tmpDir)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	id, err := db.CookieRepo.Upsert(ctx, &domain.CookieRecord{
		Platform:  "tiktok",
		AccountID: "me",
		Path:      "/tmp/session.json",
		IsValid:   true,
		LastCheck: time.Now().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to upsert cookie: %v", err)
	}

	if err := db.CookieRepo.MarkValidity(ctx, id, false); err != nil {
		t.Fatalf("failed to mark validity: %v", err)
	}

	list, err := db.CookieRepo.ListByAccount(ctx, "tiktok", "me")
	if err != nil {
		t.Fatalf("failed to list cookies: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 cookie record, got %d", len(list))
	}
	if list[0].IsValid {
		t.Error("expected record to be marked invalid")
	}
	if !list[0].LastCheck.After(time.Now().Add(-time.Minute)) {
		t.Error("expected last_check to be refreshed")
	}
}

func TestDatabase_AccountDelete(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := NewDatabase(tmpDir)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	if _, err := db.AccountRepo.Upsert(ctx, &domain.Account{
		Platform:  "kuaishou",
		AccountID: "temporal",
	}); err != nil {
		t.Fatalf("failed to upsert account: %v", err)
	}

	if err := db.AccountRepo.Delete(ctx, "kuaishou", "temporal"); err != nil {
		t.Fatalf("failed to delete account: %v", err)
	}

	_, err = db.AccountRepo.GetByPlatformID(ctx, "kuaishou", "temporal")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound after delete, got %v", err)
	}
}
