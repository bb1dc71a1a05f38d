package db

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"statues/internal/db/migrations"
	"statues/internal/model"
)

// Migrate applies the embedded MySQL migrations with goose.
func Migrate(ctx context.Context, gormDB *gorm.DB) error {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("mysql"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	logrus.Info("Migration completed.")
	return nil
}

// AutoMigrate creates the schema from the models. Used for dialects the SQL
// migrations are not written for, such as the in-memory SQLite used in tests.
func AutoMigrate(gormDB *gorm.DB) error {
	return gormDB.AutoMigrate(&model.User{}, &model.Statue{}, &model.Favorite{})
}
