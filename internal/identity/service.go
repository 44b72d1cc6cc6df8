package identity

import (
	"context"
	"fmt"
	"time"

	"identity_sync_backend/internal/config"

	"go.uber.org/zap"
)

// Service applies normalized events to the user projection.
type Service interface {
	Apply(ctx context.Context, ev InboundEvent) error
}

// ServiceImplementation implements Service on top of a Repository.
type ServiceImplementation struct {
	repo    Repository
	timeout time.Duration
	logger  *zap.Logger
}

var _ Service = (*ServiceImplementation)(nil)

// NewService creates a new projector. Every store write is bounded by WEBHOOK_PERSIST_TIMEOUT_MS.
func NewService(repo Repository, cfg *config.Config, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		repo:    repo,
		timeout: cfg.WebhookPersistTimeout,
		logger:  logger.Named("UserProjector"),
	}
}

// Apply performs exactly one store write for a recognized event. Every failure,
// including a deadline hit, comes back as a *PersistenceError.
func (s *ServiceImplementation) Apply(ctx context.Context, ev InboundEvent) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var (
		op  string
		err error
	)
	switch ev.Type {
	case UserCreated, UserUpdated:
		op = "upsert"
		err = s.repo.Upsert(ctx, ev.Record())
	case UserDeleted:
		op = "tombstone"
		err = s.repo.Tombstone(ctx, ev.SubjectID, ev.Version)
	default:
		// The normalizer skips unknown types; reaching here is a wiring bug.
		s.logger.Error("No projection branch for event type", zap.String("event_type", ev.Type.String()))
		return fmt.Errorf("no projection for event type %q", ev.Type)
	}

	if err != nil {
		return &PersistenceError{Op: op, ExternalID: ev.SubjectID, Err: err}
	}

	s.logger.Debug("User projection applied",
		zap.String("event_type", ev.Type.String()),
		zap.String("external_id", ev.SubjectID),
		zap.Int64("version", ev.Version),
	)
	return nil
}
