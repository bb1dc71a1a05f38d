package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"statues/internal/db"
	"statues/internal/model"
)

// OpenInMemoryDB opens an isolated in-memory SQLite database with foreign keys
// enforced and the schema migrated from the models. Closed via t.Cleanup.
func OpenInMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "_" + uuid.NewString()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)

	gormDB, err := gorm.Open(sqlite.Open(dsn), db.Config())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// A single connection keeps the in-memory database alive and avoids table locks.
	if err := db.ConfigurePool(gormDB, db.PoolOptions{MaxOpenConns: 1}); err != nil {
		t.Fatalf("configure pool: %v", err)
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gormDB
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string {
	return &s
}

// SeedStatue inserts a statue row and returns it.
func SeedStatue(t *testing.T, gormDB *gorm.DB, name, description string, image *string) *model.Statue {
	t.Helper()
	statue := &model.Statue{Name: name, Description: description, Image: image}
	if err := gormDB.Create(statue).Error; err != nil {
		t.Fatalf("seed statue: %v", err)
	}
	return statue
}
