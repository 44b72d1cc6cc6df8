package webhook

import (
	"context"
	"errors"
	"net/http"
	"time"

	"identity_sync_backend/internal/config"
	"identity_sync_backend/internal/identity"
	"identity_sync_backend/internal/platform/metrics"

	"go.uber.org/zap"
)

// Disposition is the terminal state of one delivery.
type Disposition int

const (
	Rejected Disposition = iota
	Skipped
	Malformed
	PersistenceFailed
	Projected
)

func (d Disposition) String() string {
	switch d {
	case Rejected:
		return metrics.OutcomeRejected
	case Skipped:
		return metrics.OutcomeSkipped
	case Malformed:
		return metrics.OutcomeMalformed
	case PersistenceFailed:
		return metrics.OutcomePersistenceFailed
	case Projected:
		return metrics.OutcomeProjected
	default:
		return "unknown"
	}
}

// Outcome describes what happened to a delivery.
type Outcome struct {
	Disposition Disposition
	MessageID   string
	EventType   string
	ExternalID  string
	Err         error
}

const deadLetterTimeout = 5 * time.Second

// Processor runs a delivery through verification, normalization and projection.
type Processor struct {
	verifier    SignatureVerifier
	projector   identity.Service
	deadLetters FailedEventRepository
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func NewProcessor(
	verifier SignatureVerifier,
	projector identity.Service,
	deadLetters FailedEventRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		verifier:    verifier,
		projector:   projector,
		deadLetters: deadLetters,
		metrics:     m,
		logger:      logger.Named("WebhookProcessor"),
	}
}

// Process never returns an error; failures are reported through the Outcome.
func (p *Processor) Process(ctx context.Context, body []byte, headers http.Header) Outcome {
	env, err := p.verifier.Verify(body, headers)
	if err != nil {
		if errors.Is(err, ErrAuthentication) {
			p.logger.Warn("Webhook delivery rejected", zap.Error(err))
			return p.finish(Outcome{Disposition: Rejected, Err: err})
		}
		return p.malformed(ctx, env, body, err)
	}

	res, err := identity.Normalize(env.Type, env.Data, env.Timestamp)
	if err != nil {
		return p.malformed(ctx, env, body, err)
	}
	if res.Skip {
		p.logger.Debug("Ignoring unsupported event type",
			zap.String("event_type", env.Type),
			zap.String("message_id", env.MessageID))
		return p.finish(Outcome{Disposition: Skipped, MessageID: env.MessageID, EventType: env.Type})
	}

	ev := res.Event
	out := Outcome{MessageID: env.MessageID, EventType: env.Type, ExternalID: ev.SubjectID}

	start := time.Now()
	err = p.projector.Apply(ctx, ev)
	p.metrics.ObserveProjection(time.Since(start))
	if err != nil {
		p.logger.Error("Failed to project identity event",
			zap.String("event_type", env.Type),
			zap.String("external_id", ev.SubjectID),
			zap.String("message_id", env.MessageID),
			zap.Error(err))
		p.recordDeadLetter(ctx, &FailedEvent{
			MessageID:  env.MessageID,
			EventType:  env.Type,
			ExternalID: ev.SubjectID,
			Stage:      StageProject,
			Reason:     err.Error(),
			Payload:    string(body),
		})
		out.Disposition = PersistenceFailed
		out.Err = err
		return p.finish(out)
	}

	p.logger.Info("Identity event projected",
		zap.String("event_type", env.Type),
		zap.String("external_id", ev.SubjectID),
		zap.Int64("version", ev.Version),
		zap.String("message_id", env.MessageID))
	out.Disposition = Projected
	return p.finish(out)
}

func (p *Processor) malformed(ctx context.Context, env Envelope, body []byte, err error) Outcome {
	p.logger.Error("Malformed webhook payload",
		zap.String("event_type", env.Type),
		zap.String("message_id", env.MessageID),
		zap.Error(err))
	p.recordDeadLetter(ctx, &FailedEvent{
		MessageID: env.MessageID,
		EventType: env.Type,
		Stage:     StageNormalize,
		Reason:    err.Error(),
		Payload:   string(body),
	})
	return p.finish(Outcome{Disposition: Malformed, MessageID: env.MessageID, EventType: env.Type, Err: err})
}

// recordDeadLetter detaches from the request context: the projection may have failed
// precisely because that context expired.
func (p *Processor) recordDeadLetter(ctx context.Context, ev *FailedEvent) {
	dlCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deadLetterTimeout)
	defer cancel()
	if err := p.deadLetters.Record(dlCtx, ev); err != nil {
		p.logger.Error("Failed to record dead letter",
			zap.String("message_id", ev.MessageID),
			zap.String("stage", ev.Stage),
			zap.Error(err))
	}
}

func (p *Processor) finish(out Outcome) Outcome {
	p.metrics.ObserveWebhook(out.EventType, out.Disposition.String())
	return out
}

// StatusFor maps an outcome to the HTTP status returned to the provider.
func StatusFor(out Outcome, failureMode string) int {
	switch out.Disposition {
	case Rejected:
		return http.StatusBadRequest
	case PersistenceFailed:
		if failureMode == config.FailureModeRetry {
			return http.StatusServiceUnavailable
		}
	}
	return http.StatusOK
}
