//go:build wireinject
// +build wireinject

package di

import (
	"AltCredit/pkg/config"
	"AltCredit/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideClickHouseClient,
		ProvideCacheService,

		// Scoring core
		ProvideModel,
		ProvideJitter,
		ProvideScorer,
		ProvideExplainer,
		ProvideBiasAnalyzer,

		// Repositories
		ProvideScoreCache,
		ProvideDecisionPublisher,
		ProvideDecisionStore,

		// Use cases
		ProvideCreditScoring,
		ProvideDecisionRequestHandler,

		// Transport
		ProvideLimiter,
		ProvideHandler,
		ProvideDecisionsHandler,
		ProvideHTTPServer,
		ProvideKafkaConsumer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
