//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"SignalDesk/pkg/config"
	"SignalDesk/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Core services
		ProvideClassifier,
		ProvideForecaster,
		ProvideConsensusEngine,
		ProvideSignalSources,

		// Infrastructure clients
		ProvideRedisCache,
		ProvideForecastCache,
		ProvideClickHouseClient,
		ProvidePriceStore,
		ProvideKafkaProducer,
		ProvideDecisionPublisher,

		// Use cases
		ProvideForecastUseCase,
		ProvideConsensusUseCase,
		ProvideKafkaConsumer,

		// Transport
		ProvideHealthHandler,
		ProvideForecastHandler,
		ProvideConsensusHandler,
		ProvideHTTPServer,

		ProvideApp,
	)
	return &server.App{}, nil
}
