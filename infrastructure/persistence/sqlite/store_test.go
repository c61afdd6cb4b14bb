package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"friendship-backend/application/ports"
	"friendship-backend/domain/core/entities"
	"friendship-backend/domain/core/valueobjects"
	"friendship-backend/infrastructure/persistence/storetest"
	pkgerrors "friendship-backend/pkg/errors"
)

// setupTestStore creates a file backed store in a temporary directory
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "friendship.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(context.Background()) })

	require.NoError(t, store.EnsureSchema(context.Background()))
	return store
}

func TestStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.Store {
		return setupTestStore(t)
	})
}

func TestNewStore(t *testing.T) {
	t.Run("memory database", func(t *testing.T) {
		store, err := NewStore(":memory:", zap.NewNop())
		require.NoError(t, err)
		defer store.Close(context.Background())

		require.NoError(t, store.EnsureSchema(context.Background()))
		assert.NoError(t, store.Ping(context.Background()))
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := NewStore("", zap.NewNop())
		require.Error(t, err)
	})
}

func TestStore_EnsureSchema(t *testing.T) {
	store := setupTestStore(t)

	for _, table := range []string{"users", "friends"} {
		var count int
		err := store.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s should exist", table)
	}

	// Should not error when called again
	require.NoError(t, store.EnsureSchema(context.Background()))
}

func TestStore_ForeignKeysEnforced(t *testing.T) {
	store := setupTestStore(t)

	var enabled int
	require.NoError(t, store.db.QueryRow(`PRAGMA foreign_keys`).Scan(&enabled))
	assert.Equal(t, 1, enabled)

	_, err := store.db.Exec(`INSERT INTO friends (friend_id, friend_of_id) VALUES ('ghost', 'phantom')`)
	require.Error(t, err)
	assert.Equal(t, constraintForeignKey, classify(err))

	translated := store.translate("save_friendship", err)
	assert.True(t, pkgerrors.IsUserNotFound(translated))
	assert.ErrorIs(t, translated, err)
}

func TestStore_TranslatesConstraintViolations(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice, err := entities.NewUser(valueobjects.MustUserID("alice"), "Alice", "alice@example.com")
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, alice))

	t.Run("email", func(t *testing.T) {
		dup, _ := entities.NewUser(valueobjects.MustUserID("other"), "Other", "alice@example.com")
		err := store.Create(ctx, dup)

		appErr := pkgerrors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, pkgerrors.ErrorTypeUniqueConstraint, appErr.Type)
		assert.Equal(t, "email", appErr.Details["field"])
	})

	t.Run("primary key", func(t *testing.T) {
		dup, _ := entities.NewUser(valueobjects.MustUserID("alice"), "Alice", "new@example.com")
		assert.True(t, pkgerrors.IsConflict(store.Create(ctx, dup)))
	})

	t.Run("raw driver errors become database errors", func(t *testing.T) {
		_, err := store.db.Exec(`DROP TABLE friends`)
		require.NoError(t, err)

		_, err = store.FriendIDsOf(ctx, []valueobjects.UserID{alice.ID()})
		assert.True(t, pkgerrors.IsDatabase(err))
	})
}

func TestStore_CascadeLeavesNoDanglingRows(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	ids := []string{"a", "b", "c"}
	for _, id := range ids {
		u, _ := entities.NewUser(valueobjects.MustUserID(id), id, id+"@example.com")
		require.NoError(t, store.Create(ctx, u))
	}
	ab, _ := entities.NewFriendship(valueobjects.MustUserID("a"), valueobjects.MustUserID("b"))
	cb, _ := entities.NewFriendship(valueobjects.MustUserID("c"), valueobjects.MustUserID("b"))
	require.NoError(t, store.SaveEdges(ctx, ab.Edges(true)...))
	require.NoError(t, store.SaveEdges(ctx, cb.Edges(true)...))

	require.NoError(t, store.Delete(ctx, valueobjects.MustUserID("b")))

	var count int
	require.NoError(t, store.db.QueryRow(
		`SELECT COUNT(*) FROM friends WHERE friend_id = 'b' OR friend_of_id = 'b'`).Scan(&count))
	assert.Zero(t, count)
}

func TestStore_TimestampsSortLexically(t *testing.T) {
	assert.Equal(t, "2024-01-02T03:04:05.100000000Z", formatTime(mustParse(t, "2024-01-02T03:04:05.1Z")))
	assert.Less(t,
		formatTime(mustParse(t, "2024-01-02T03:04:05.1Z")),
		formatTime(mustParse(t, "2024-01-02T03:04:05.12Z")),
	)
}

func TestChunks(t *testing.T) {
	ids := make([]valueobjects.UserID, maxBoundIDs+1)
	for i := range ids {
		ids[i] = valueobjects.NewUserID()
	}

	got := chunks(ids)
	require.Len(t, got, 2)
	assert.Len(t, got[1], 1)
	assert.Empty(t, chunks(nil))
	assert.Equal(t, "?,?,?", placeholders(3))
}

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339Nano, s)
	require.NoError(t, err)
	return ts
}
