// File: cmd/server/providers.go
package main

import (
	"log"

	"identity_sync_backend/internal/config"
	"identity_sync_backend/internal/identity"
	"identity_sync_backend/internal/platform/database"
	"identity_sync_backend/internal/platform/logger"
	"identity_sync_backend/internal/webhook"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	l, err := logger.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return l, func() {
		if err := l.Sync(); err != nil {
			log.Printf("ERROR: Failed to sync logger during cleanup: %v", err)
		}
	}, nil
}

// provideDatabase opens the store and migrates the tables this service owns.
func provideDatabase(cfg *config.Config, l *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.NewGORM(cfg, l)
	if err != nil {
		return nil, nil, err
	}
	if err := database.AutoMigrate(cfg, db, l, &identity.User{}, &webhook.FailedEvent{}); err != nil {
		database.CloseGORMDB(db, l)
		return nil, nil, err
	}
	return db, func() { database.CloseGORMDB(db, l) }, nil
}

func provideVerifier(cfg *config.Config) (*webhook.Verifier, error) {
	return webhook.NewVerifier(cfg.WebhookSecret, webhook.HeaderNames{
		ID:        cfg.WebhookIDHeader,
		Timestamp: cfg.WebhookTimestampHeader,
		Signature: cfg.WebhookSignatureHeader,
	})
}
