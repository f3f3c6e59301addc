package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mockinterview-backend/internal/config"
	"mockinterview-backend/internal/model"
)

// InitDBFromConfig opens the postgres connection described by cfg and applies the pool settings.
func InitDBFromConfig(cfg *config.APIConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.Username,
		cfg.DB.Password.Value,
		cfg.DB.Names.Interviews,
		cfg.DB.SSLMode,
		timeZone(cfg),
	)

	gormLogger := logger.Default.LogMode(logger.Warn)
	if cfg.Logging.Debug {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	database, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	if cfg.DB.Pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.DB.Pool.MaxOpenConns)
	}
	if cfg.DB.Pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.DB.Pool.MaxIdleConns)
	}
	if cfg.DB.Pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.DB.Pool.ConnMaxLifetime) * time.Second)
	}

	if cfg.DB.Initialize {
		if err := Migrate(database); err != nil {
			return nil, err
		}
	}

	return database, nil
}

// Migrate creates or updates the four interview tables.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(&model.Interview{}, &model.Question{}, &model.Response{}, &model.Feedback{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func timeZone(cfg *config.APIConfig) string {
	if cfg.Context.TimeZone == "" {
		return "UTC"
	}
	return cfg.Context.TimeZone
}
