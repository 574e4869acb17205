package pkg

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/lms-assessment-service/internal/config"
	"github.com/SAP-F-2025/lms-assessment-service/internal/models"
)

// InitDatabase opens the configured database and runs migrations when enabled.
func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.Database.URL)
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	logLevel := logger.Warn
	if !cfg.IsProduction() {
		logLevel = logger.Info
	}

	db, err := OpenDatabase(dialector, logger.Default.LogMode(logLevel))
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if cfg.Database.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}

	return db, nil
}

// OpenDatabase opens a gorm handle with the settings the repositories rely on:
// driver errors are translated so unique violations surface as gorm.ErrDuplicatedKey.
func OpenDatabase(dialector gorm.Dialector, gormLogger logger.Interface) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates the schema plus the partial unique index that allows one
// in-progress attempt per student and assessment.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Batch{},
		&models.Enrollment{},
		&models.Assessment{},
		&models.Question{},
		&models.Option{},
		&models.AssessmentAttempt{},
		&models.Response{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_attempts_one_in_progress
		ON assessment_attempts (student_id, assessment_id)
		WHERE status = 'in_progress'`).Error
	if err != nil {
		return fmt.Errorf("failed to create in-progress attempt index: %w", err)
	}

	return nil
}
