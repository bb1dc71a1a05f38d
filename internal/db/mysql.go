package db

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PoolOptions tunes the underlying database/sql pool.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewMySQL returns a connected GORM DB instance. The pool re-dials lazily, so
// a dropped connection is replaced on the next query instead of killing the process.
func NewMySQL(dsn string, pool PoolOptions) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), Config())
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	if err := ConfigurePool(db, pool); err != nil {
		return nil, err
	}
	return db, nil
}

// Config is the gorm configuration shared by every dialect. TranslateError
// turns driver specific unique and foreign key violations into gorm sentinels.
func Config() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger: logger.New(queryLogWriter{}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
		}),
	}
}

// queryLogWriter sends gorm's failed and slow query traces to logrus at warn level.
type queryLogWriter struct{}

func (queryLogWriter) Printf(format string, args ...interface{}) {
	logrus.WithField("component", "gorm").Warnf(format, args...)
}

// ConfigurePool applies pool limits to the connection behind db.
func ConfigurePool(db *gorm.DB, pool PoolOptions) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	return nil
}
