package database

import (
	"fmt"

	"github.com/sandeepkv93/campus-notify-core/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the store selected by DATABASE_DRIVER. sqlite is for local runs only;
// config validation rejects it outside development.
func Open(cfg *config.Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	switch cfg.DatabaseDriver {
	case "", "postgres":
		return gorm.Open(postgres.Open(cfg.DatabaseURL), gcfg)
	case "sqlite":
		return gorm.Open(sqlite.Open(cfg.DatabaseURL), gcfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}
