package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "drop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestDialectFor(t *testing.T) {
	assert.Equal(t, DialectPostgres, DialectFor("postgres://u:p@localhost:5432/drop"))
	assert.Equal(t, DialectPostgres, DialectFor("postgresql://localhost/drop"))
	assert.Equal(t, DialectSQLite, DialectFor("./messagedrop.db"))
	assert.Equal(t, DialectSQLite, DialectFor("file:drop.db?mode=rwc"))
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "a.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite", sqliteDSN("a.db"))
	assert.Equal(t, "file:a.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite", sqliteDSN("file:a.db?mode=rwc"))
}

func TestRebind(t *testing.T) {
	pg := &DB{Dialect: DialectPostgres}
	lite := &DB{Dialect: DialectSQLite}

	q := "SELECT id FROM messages WHERE drop_id = ? AND nickname_key = ?"
	assert.Equal(t, "SELECT id FROM messages WHERE drop_id = $1 AND nickname_key = $2", pg.Rebind(q))
	assert.Equal(t, q, lite.Rebind(q))

	// Literal question marks are not skipped.
	assert.Equal(t, "SELECT '$1' WHERE id = $2", pg.Rebind("SELECT '?' WHERE id = ?"))
}

func TestMigrate_CreatesTablesAndIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db))

	for _, name := range []string{"users", "drops", "messages", "views"} {
		assert.True(t, tableExists(t, db, name), "table %s", name)
	}
}

func TestMigrate_CascadeDeletes(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))

	_, err := db.ExecContext(ctx, `INSERT INTO users (id, username, password_hash, created_at) VALUES ('u1', 'alice', 'h', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO drops (id, user_id, generic_message, created_at) VALUES ('d1', 'u1', 'Hi!', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO messages (id, drop_id, nickname, nickname_key, question, passcode_hash, content, created_at) VALUES ('m1', 'd1', 'Bob', 'bob', 'Color?', 'h', 'Surprise!', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO views (id, message_id, nickname, viewed_at) VALUES ('v1', 'm1', 'Bob', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `DELETE FROM users WHERE id = 'u1'`)
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM views`).Scan(&n))
	assert.Zero(t, n)
}

func TestIsUniqueViolation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))

	_, err := db.ExecContext(ctx, `INSERT INTO users (id, username, password_hash, created_at) VALUES ('u1', 'alice', 'h', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO users (id, username, password_hash, created_at) VALUES ('u2', 'ALICE', 'h', CURRENT_TIMESTAMP)`)
	require.Error(t, err)

	assert.True(t, IsUniqueViolation(err))
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsUniqueViolation(nil))
}
