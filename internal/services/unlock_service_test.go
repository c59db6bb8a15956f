package services

import (
	"context"
	"errors"
	"testing"

	"github.com/isdelr/message-drop-be/internal/common"
	"github.com/isdelr/message-drop-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func viewCount(t *testing.T, env *testEnv, dropID string) int {
	t.Helper()
	views, err := env.views.ListByDrop(context.Background(), dropID)
	require.NoError(t, err)
	return len(views)
}

func TestCheck_NormalizesPasscode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, drop := env.seedDrop(t, "alice")
	_, err := env.messages.Add(ctx, user.ID, models.NewMessage{
		Nickname: "Bob", Question: "Color?", Hint: "up", Passcode: "Blue Sky", Content: "Surprise!",
	})
	require.NoError(t, err)

	res, err := env.unlock.Check(ctx, "alice", "bob", "  blue sky  ")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, models.Resolved, res.Stage)
	require.NotNil(t, res.Content)
	assert.Equal(t, "Surprise!", *res.Content)
	assert.Equal(t, "Color?", res.Question)
	require.NotNil(t, res.Hint)
	assert.Equal(t, "up", *res.Hint)
	assert.Equal(t, 1, viewCount(t, env, drop.ID))

	res, err = env.unlock.Check(ctx, "alice", "bob", "bluesky")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, models.AwaitingPasscode, res.Stage)
	assert.Nil(t, res.Content)
	assert.Equal(t, "Color?", res.Question)
	assert.Equal(t, 1, viewCount(t, env, drop.ID))
}

func TestCheck_EachSuccessRecordsAView(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, drop := env.seedDrop(t, "alice")
	env.seedMessage(t, user.ID, "Bob", "blue")

	for i := 0; i < 3; i++ {
		res, err := env.unlock.Check(ctx, "alice", "Bob", "blue")
		require.NoError(t, err)
		require.NotNil(t, res.Content)
	}
	assert.Equal(t, 3, viewCount(t, env, drop.ID))

	list, err := env.messages.ListByDrop(ctx, drop.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 3, list[0].ViewCount)
}

func TestCheck_UnknownNickname(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.seedDrop(t, "alice")
	env.seedMessage(t, user.ID, "Bob", "blue")

	res, err := env.unlock.Check(context.Background(), "alice", "Carol", "blue")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, models.AwaitingNickname, res.Stage)
	assert.False(t, res.Found)
}

func TestCheck_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.unlock.Check(context.Background(), "alice", " ", "blue")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = env.unlock.Check(context.Background(), "alice", "Bob", "  ")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

type failingViews struct{ ViewServiceProvider }

func (failingViews) Record(ctx context.Context, messageID, nickname string) error {
	return errors.New("db down")
}

func TestCheck_RecordFailureWithholdsContent(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.seedDrop(t, "alice")
	env.seedMessage(t, user.ID, "Bob", "blue")

	svc := NewUnlockService(env.messages, failingViews{}, env.hasher)
	res, err := svc.Check(context.Background(), "alice", "Bob", "blue")
	assert.Error(t, err)
	assert.Nil(t, res.Content)
}
