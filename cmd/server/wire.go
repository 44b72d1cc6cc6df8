// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"identity_sync_backend/internal/app"
	"identity_sync_backend/internal/config"
	"identity_sync_backend/internal/identity"
	"identity_sync_backend/internal/jobs"
	"identity_sync_backend/internal/platform/metrics"
	"identity_sync_backend/internal/webhook"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		provideLogger,
		provideDatabase,
		metrics.New,

		// Identity projection
		identity.NewGORMRepository,
		identity.NewService,
		wire.Bind(new(identity.Service), new(*identity.ServiceImplementation)),

		// Webhook intake
		provideVerifier,
		wire.Bind(new(webhook.SignatureVerifier), new(*webhook.Verifier)),
		webhook.NewGORMFailedEventRepository,
		webhook.NewProcessor,
		webhook.NewHandler,
		jobs.NewDeadLetterPruneJob,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}
