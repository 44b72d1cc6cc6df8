package webhook

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailedEventRepository_RecordAssignsID(t *testing.T) {
	repo := NewGORMFailedEventRepository(newTestDB(t))
	ev := &FailedEvent{MessageID: "msg_1", EventType: "user.created", Stage: StageProject, Reason: "timeout"}

	require.NoError(t, repo.Record(context.Background(), ev))
	assert.NotEqual(t, uuid.Nil, ev.ID)
	assert.False(t, ev.CreatedAt.IsZero())
}

func TestFailedEventRepository_ListNewestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewGORMFailedEventRepository(db)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i, id := range []string{"msg_a", "msg_b", "msg_c"} {
		require.NoError(t, repo.Record(ctx, &FailedEvent{MessageID: id, Stage: StageNormalize, CreatedAt: base.Add(time.Duration(i) * time.Minute)}))
	}

	got, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "msg_c", got[0].MessageID)
	assert.Equal(t, "msg_b", got[1].MessageID)

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestFailedEventRepository_DeleteOlderThan(t *testing.T) {
	repo := NewGORMFailedEventRepository(newTestDB(t))
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Record(ctx, &FailedEvent{MessageID: "old", Stage: StageProject, CreatedAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, repo.Record(ctx, &FailedEvent{MessageID: "new", Stage: StageProject, CreatedAt: now}))

	n, err := repo.DeleteOlderThan(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "new", left[0].MessageID)
}
