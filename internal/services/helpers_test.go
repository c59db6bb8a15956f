package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/isdelr/message-drop-be/internal/auth"
	"github.com/isdelr/message-drop-be/internal/database"
	"github.com/isdelr/message-drop-be/internal/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	db       *database.DB
	hasher   *auth.BcryptHasher
	users    *UserService
	drops    *DropService
	messages *MessageService
	views    *ViewService
	unlock   *UnlockService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "drop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	hasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	env := &testEnv{db: db, hasher: hasher}
	env.users = NewUserService(db, hasher)
	env.drops = NewDropService(db)
	env.views = NewViewService(db)
	env.messages = NewMessageService(db, env.drops, hasher)
	env.unlock = NewUnlockService(env.messages, env.views, hasher)
	return env
}

// seedDrop registers username and publishes a drop for them.
func (e *testEnv) seedDrop(t *testing.T, username string) (models.User, models.Drop) {
	t.Helper()
	ctx := context.Background()

	user, err := e.users.Register(ctx, username, "secret1")
	require.NoError(t, err)
	drop, created, err := e.drops.CreateOrUpdate(ctx, user.ID, "Hi!")
	require.NoError(t, err)
	require.True(t, created)
	return user, drop
}

func (e *testEnv) seedMessage(t *testing.T, userID, nickname, passcode string) models.Message {
	t.Helper()
	msg, err := e.messages.Add(context.Background(), userID, models.NewMessage{
		Nickname: nickname,
		Question: "Color?",
		Passcode: passcode,
		Content:  "Surprise!",
	})
	require.NoError(t, err)
	return msg
}
