//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"SetupScanner/pkg/config"
	"SetupScanner/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCache,
		ProvideKlineClient,
		ProvideCandleSource,
		ProvideStreamManager,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Analysis
		ProvideOddsEngine,
		ProvideDivergenceDetector,
		ProvideCandleAnalyzer,

		// Repositories
		ProvideResultPublisher,

		// Use cases
		ProvideScanner,
		ProvideLiveFeed,
		ProvideScheduler,
		ProvideScanRequestsHandler,

		// HTTP
		ProvideRateLimiter,
		ProvideHTTPHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
