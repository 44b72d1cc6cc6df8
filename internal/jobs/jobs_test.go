package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"identity_sync_backend/internal/config"
	"identity_sync_backend/internal/platform/metrics"
	"identity_sync_backend/internal/webhook"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// MockFailedEventRepository is a mock type for webhook.FailedEventRepository
type MockFailedEventRepository struct {
	mock.Mock
}

func (m *MockFailedEventRepository) Record(ctx context.Context, ev *webhook.FailedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *MockFailedEventRepository) List(ctx context.Context, limit int) ([]webhook.FailedEvent, error) {
	args := m.Called(ctx, limit)
	events, _ := args.Get(0).([]webhook.FailedEvent)
	return events, args.Error(1)
}

func (m *MockFailedEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func TestDeadLetterPruneJob_RunOnceUsesRetentionCutoff(t *testing.T) {
	repo := new(MockFailedEventRepository)
	m := metrics.New()
	job := NewDeadLetterPruneJob(repo, m, zap.NewNop(), &config.Config{DeadLetterRetentionDays: 30})
	fixed := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return fixed }

	repo.On("DeleteOlderThan", mock.Anything, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)).Return(int64(4), nil)

	n, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, float64(4), testutil.ToFloat64(m.DeadLettersPruned()))
	repo.AssertExpectations(t)
}

func TestDeadLetterPruneJob_RunOnceReportsStoreError(t *testing.T) {
	repo := new(MockFailedEventRepository)
	m := metrics.New()
	core, logs := observer.New(zap.InfoLevel)
	job := NewDeadLetterPruneJob(repo, m, zap.New(core), &config.Config{DeadLetterRetentionDays: 7})

	repo.On("DeleteOlderThan", mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))

	_, err := job.RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.DeadLettersPruned()))
	assert.Equal(t, 1, logs.FilterMessage("Dead-letter prune run failed").Len())
}

func TestDeadLetterPruneJob_SetupAndStart(t *testing.T) {
	for _, tc := range []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{"disabled by retention", config.Config{DeadLetterRetentionDays: 0, DeadLetterPruneSchedule: "@daily"}, false},
		{"no schedule", config.Config{DeadLetterRetentionDays: 30}, false},
		{"valid schedule", config.Config{DeadLetterRetentionDays: 30, DeadLetterPruneSchedule: "@daily"}, false},
		{"invalid schedule", config.Config{DeadLetterRetentionDays: 30, DeadLetterPruneSchedule: "not a schedule"}, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			job := NewDeadLetterPruneJob(new(MockFailedEventRepository), metrics.New(), zap.NewNop(), &cfg)
			err := job.SetupAndStart()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			job.Stop()
		})
	}
}

func TestCronLogger_OddKeysAndValues(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	cl := NewCronLogger(zap.New(core))

	cl.Info("wake", "now", 1, "dangling")
	cl.Error(errors.New("boom"), "panic", "entry", 3)

	require.Equal(t, 2, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "MISSING_VALUE", fields["dangling"])
	assert.Equal(t, "boom", logs.All()[1].ContextMap()["error"])
}
