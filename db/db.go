package db

import (
	"fmt"

	"github.com/sidhant-sriv/spots-api/config"
	"github.com/sidhant-sriv/spots-api/logging"
	"github.com/sidhant-sriv/spots-api/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Connect opens the postgres pool described by cfg and stores it in DB.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), Options())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)

	DB = db
	logging.Info().Str("host", cfg.Host).Str("database", cfg.Name).Msg("Connected to the database")
	return db, nil
}

// Options is the gorm configuration shared by every dialect.
func Options() *gorm.Config {
	return &gorm.Config{
		Logger:         NewLogger(),
		TranslateError: true,
	}
}

func GetDB() *gorm.DB {
	return DB
}

// MakeMigration creates or updates every table.
func MakeMigration(DB *gorm.DB) error {
	if err := DB.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logging.Info().Msg("Database migrated successfully")
	return nil
}

// Ping checks the underlying connection.
func Ping(DB *gorm.DB) error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(DB.Statement.Context)
}
