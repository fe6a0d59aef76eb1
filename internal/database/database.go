package database

import (
	"fmt"
	"time"

	"addons_backend/internal/config"
	"addons_backend/internal/logger"
	"addons_backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the configured database and checks it is reachable.
func Open(cfg *config.Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn), TranslateError: true}
	if cfg.Server.Env == "development" {
		gcfg.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Database.Driver {
	case "sqlite":
		db, err = OpenSQLite(cfg.Database.DSN)
	case "postgres", "":
		db, err = gorm.Open(postgres.Open(cfg.Database.DSN), gcfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get *sql.DB from GORM: %w", err)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database unavailable: %w", err)
	}
	return db, nil
}

// OpenSQLite opens a pure-Go SQLite database. In-memory DSNs are pinned to one
// connection so every query sees the same database.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Migrate creates or updates every table and the indexes gorm tags cannot express.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Addon{}, "Authors", &models.AddonUser{}); err != nil {
		return fmt.Errorf("setup addons_users: %w", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	// One live rating per (version, user); replies and deleted rows are excluded.
	if err := db.Exec(`DROP INDEX IF EXISTS one_review_per_user`).Error; err != nil {
		return fmt.Errorf("drop one_review_per_user: %w", err)
	}
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS one_live_review_per_user
		ON reviews (version_id, user_id) WHERE reply_to IS NULL AND deleted = false`).Error; err != nil {
		return fmt.Errorf("create one_live_review_per_user: %w", err)
	}

	logger.Info("Database migrated", "models", len(models.All()))
	return nil
}
