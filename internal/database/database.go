package database

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sjperalta/sacco-api/internal/models"
	pkgLogger "github.com/sjperalta/sacco-api/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqliteScheme = "sqlite://"

// Connect opens the database named by databaseURL. Postgres URLs are used
// as-is; sqlite://<path> opens a SQLite file for local development.
func Connect(databaseURL string) (*gorm.DB, error) {
	// Configure GORM logger
	logLevel := logger.Silent
	if os.Getenv("ENVIRONMENT") != "production" {
		logLevel = logger.Info
	}

	gormLogger := pkgLogger.NewGormLogger(
		logLevel,
		200*time.Millisecond,
	)

	if path, ok := strings.CutPrefix(databaseURL, sqliteScheme); ok {
		return OpenSQLite(path, gormLogger)
	}

	// Open database connection
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true, // Improve performance
		PrepareStmt:            true, // Cache prepared statements
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL database
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// OpenSQLite opens a SQLite database. ":memory:" gives a private in-memory
// database. SQLite has no row locks, so the pool is limited to a single
// connection and writers serialise on it.
func OpenSQLite(path string, gormLogger logger.Interface) (*gorm.DB, error) {
	if gormLogger == nil {
		gormLogger = pkgLogger.NewGormLogger(logger.Silent, 0)
	}

	dsn := path
	if path == ":memory:" || path == "" {
		dsn = "file::memory:"
	}
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// Migrate creates or updates the schema for every persisted model
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Member{},
		&models.Transaction{},
		&models.Contribution{},
		&models.Loan{},
		&models.LoanPayment{},
		&models.Message{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
