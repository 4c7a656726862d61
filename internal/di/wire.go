//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/sandeepkv93/campus-notify-core/internal/app"
	"github.com/sandeepkv93/campus-notify-core/internal/repository"
)

func InitializeApp() (*app.App, error) {
	panic(wire.Build(
		ConfigSet,
		ObservabilitySet,
		RuntimeInfraSet,
		RepositorySet,
		DeliverySet,
		ServiceSet,
		HTTPSet,
		AppSet,
	))
}

func InitializeOpsRuntime() (*OpsRuntime, error) {
	panic(wire.Build(
		ConfigSet,
		provideOpenDB,
		provideClock,
		repository.NewCredentialRepository,
		NewOpsRuntime,
	))
}
