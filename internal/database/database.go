package database

import (
	"fmt"
	"strings"

	"github.com/backpack-city/backpack-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// MemoryPath opens a private in-memory database, used by tests.
const MemoryPath = ":memory:"

// Connect opens the sqlite database at path and migrates the schema.
func Connect(path string, logger *zap.Logger) (*gorm.DB, error) {
	dsn := path
	if path != MemoryPath && !strings.Contains(path, "?") {
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	// One writer at a time; an in-memory database also only exists per connection.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.Local{}, &models.Visitor{}); err != nil {
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}

	logger.Info("connected to database", zap.String("path", path))
	return db, nil
}
