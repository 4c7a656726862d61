package app

import (
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/sandeepkv93/campus-notify-core/internal/config"
	"github.com/sandeepkv93/campus-notify-core/internal/health"
	"github.com/sandeepkv93/campus-notify-core/internal/observability"
	"github.com/sandeepkv93/campus-notify-core/internal/service"
)

// App is everything cmd/api starts and stops. Redis is nil when disabled.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Sweeper       *service.ExpirySweeper
	Observability *observability.Runtime
	DB            *gorm.DB
	Redis         redis.UniversalClient
	Readiness     *health.ProbeRunner
}

func New(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	sweeper *service.ExpirySweeper,
	runtime *observability.Runtime,
	db *gorm.DB,
	redisClient redis.UniversalClient,
	readiness *health.ProbeRunner,
) *App {
	return &App{
		Config:        cfg,
		Logger:        logger,
		Server:        server,
		Sweeper:       sweeper,
		Observability: runtime,
		DB:            db,
		Redis:         redisClient,
		Readiness:     readiness,
	}
}
