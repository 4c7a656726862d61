package di

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/sandeepkv93/campus-notify-core/internal/clock"
	"github.com/sandeepkv93/campus-notify-core/internal/config"
	"github.com/sandeepkv93/campus-notify-core/internal/database"
	"github.com/sandeepkv93/campus-notify-core/internal/domain"
	"github.com/sandeepkv93/campus-notify-core/internal/repository"
	"github.com/sandeepkv93/campus-notify-core/internal/service"
)

// OpsRuntime is the slice of the graph opsctl needs: no HTTP, no Redis, no exporters.
type OpsRuntime struct {
	Config      *config.Config
	DB          *gorm.DB
	Clock       clock.Clock
	Credentials repository.CredentialRepository
}

func NewOpsRuntime(cfg *config.Config, db *gorm.DB, clk clock.Clock, credentials repository.CredentialRepository) *OpsRuntime {
	return &OpsRuntime{Config: cfg, DB: db, Clock: clk, Credentials: credentials}
}

func (o *OpsRuntime) Migrate() error {
	return database.Migrate(o.DB)
}

func (o *OpsRuntime) MigrationStatus() ([]database.MigrationStatus, error) {
	return database.Status(o.DB)
}

// Sweep runs a single expiry pass with the configured grace.
func (o *OpsRuntime) Sweep(ctx context.Context, logger *slog.Logger) (int64, error) {
	sweeper := service.NewExpirySweeper(o.Credentials, o.Clock, o.Config.SweepInterval, o.Config.SweepGrace, logger)
	return sweeper.Sweep(ctx, o.Clock.Now())
}

func (o *OpsRuntime) CredentialStats(ctx context.Context) (domain.CredentialStats, error) {
	return o.Credentials.Stats(ctx, o.Clock.Now())
}

func (o *OpsRuntime) PromoteAdmins(ctx context.Context, emails []string) (*database.PromoteReport, error) {
	return database.PromoteAdmins(ctx, o.DB, emails)
}

func (o *OpsRuntime) Close() error {
	sqlDB, err := o.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
