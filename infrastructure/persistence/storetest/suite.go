// Package storetest holds the behaviour every store driver must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"friendship-backend/application/ports"
	"friendship-backend/domain/core/entities"
	"friendship-backend/domain/core/valueobjects"
	pkgerrors "friendship-backend/pkg/errors"
)

// Factory returns an empty store. The suite closes it when the test ends.
type Factory func(t *testing.T) ports.Store

// Run exercises a store driver against the repository contract
func Run(t *testing.T, newStore Factory) {
	t.Run("create and get", func(t *testing.T) {
		store, ctx := open(t, newStore)
		alice := mustCreate(t, store, "alice")

		got, err := store.GetByID(ctx, alice.ID())
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Name())
		assert.Equal(t, "alice@example.com", got.Email())
		assert.WithinDuration(t, alice.CreatedAt(), got.CreatedAt(), time.Millisecond)
	})

	t.Run("get unknown user", func(t *testing.T) {
		store, ctx := open(t, newStore)

		_, err := store.GetByID(ctx, valueobjects.MustUserID("ghost"))
		assert.True(t, pkgerrors.IsUserNotFound(err))
	})

	t.Run("duplicate email", func(t *testing.T) {
		store, ctx := open(t, newStore)
		mustCreate(t, store, "alice")

		dup, err := entities.NewUser(valueobjects.MustUserID("other"), "Other", "alice@example.com")
		require.NoError(t, err)

		err = store.Create(ctx, dup)
		assert.True(t, pkgerrors.IsUniqueConstraint(err), "got %v", err)

		_, err = store.GetByID(ctx, dup.ID())
		assert.True(t, pkgerrors.IsUserNotFound(err))
	})

	t.Run("list is ordered by creation", func(t *testing.T) {
		store, ctx := open(t, newStore)
		mustCreate(t, store, "bob")
		mustCreate(t, store, "alice")

		users, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "bob", users[0].ID().String())
		assert.Equal(t, "alice", users[1].ID().String())
	})

	t.Run("list empty store", func(t *testing.T) {
		store, ctx := open(t, newStore)

		users, err := store.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, users)
		assert.Empty(t, users)
	})

	t.Run("update profile", func(t *testing.T) {
		store, ctx := open(t, newStore)
		alice := mustCreate(t, store, "alice")
		mustCreate(t, store, "bob")

		name := "Alice Liddell"
		require.NoError(t, alice.UpdateProfile(&name, nil))
		require.NoError(t, store.Update(ctx, alice))

		got, err := store.GetByID(ctx, alice.ID())
		require.NoError(t, err)
		assert.Equal(t, name, got.Name())

		taken := "bob@example.com"
		require.NoError(t, alice.UpdateProfile(nil, &taken))
		assert.True(t, pkgerrors.IsUniqueConstraint(store.Update(ctx, alice)))

		// The old email is still reserved and the new one still belongs to bob.
		stillAlice, err := store.GetByID(ctx, alice.ID())
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", stillAlice.Email())
	})

	t.Run("update releases the old email", func(t *testing.T) {
		store, ctx := open(t, newStore)
		alice := mustCreate(t, store, "alice")

		email := "liddell@example.com"
		require.NoError(t, alice.UpdateProfile(nil, &email))
		require.NoError(t, store.Update(ctx, alice))

		reuse, err := entities.NewUser(valueobjects.MustUserID("again"), "Again", "alice@example.com")
		require.NoError(t, err)
		assert.NoError(t, store.Create(ctx, reuse))
	})

	t.Run("update unknown user", func(t *testing.T) {
		store, ctx := open(t, newStore)
		ghost, err := entities.NewUser(valueobjects.MustUserID("ghost"), "Ghost", "ghost@example.com")
		require.NoError(t, err)

		assert.True(t, pkgerrors.IsUserNotFound(store.Update(ctx, ghost)))
	})

	t.Run("save and traverse edges", func(t *testing.T) {
		store, ctx := open(t, newStore)
		alice := mustCreate(t, store, "alice")
		bob := mustCreate(t, store, "bob")
		carol := mustCreate(t, store, "carol")

		require.NoError(t, store.SaveEdges(ctx, edge(t, bob, alice).Edges(true)...))
		require.NoError(t, store.SaveEdges(ctx, edge(t, carol, alice)))

		ids, err := store.FriendIDsOf(ctx, []valueobjects.UserID{alice.ID()})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"bob", "carol"}, idStrings(ids))

		ids, err = store.FriendIDsOf(ctx, []valueobjects.UserID{carol.ID()})
		require.NoError(t, err)
		assert.Empty(t, ids)

		ids, err = store.FriendIDsOf(ctx, []valueobjects.UserID{bob.ID(), carol.ID()})
		require.NoError(t, err)
		assert.Equal(t, []string{"alice"}, idStrings(ids))
	})

	t.Run("duplicate edge is a conflict and saves nothing", func(t *testing.T) {
		store, ctx := open(t, newStore)
		alice := mustCreate(t, store, "alice")
		bob := mustCreate(t, store, "bob")

		require.NoError(t, store.SaveEdges(ctx, edge(t, bob, alice)))

		err := store.SaveEdges(ctx, edge(t, bob, alice).Edges(true)...)
		assert.True(t, pkgerrors.IsConflict(err), "got %v", err)

		ids, err := store.FriendIDsOf(ctx, []valueobjects.UserID{bob.ID()})
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("edge to unknown user", func(t *testing.T) {
		store, ctx := open(t, newStore)
		alice := mustCreate(t, store, "alice")

		e, err := entities.NewFriendship(valueobjects.MustUserID("ghost"), alice.ID())
		require.NoError(t, err)

		assert.True(t, pkgerrors.IsUserNotFound(store.SaveEdges(ctx, e)))
	})

	t.Run("delete edges", func(t *testing.T) {
		store, ctx := open(t, newStore)
		alice := mustCreate(t, store, "alice")
		bob := mustCreate(t, store, "bob")
		f := edge(t, bob, alice)

		require.NoError(t, store.SaveEdges(ctx, f.Edges(true)...))
		require.NoError(t, store.DeleteEdges(ctx, f))

		ids, err := store.FriendIDsOf(ctx, []valueobjects.UserID{alice.ID()})
		require.NoError(t, err)
		assert.Empty(t, ids)

		ids, err = store.FriendIDsOf(ctx, []valueobjects.UserID{bob.ID()})
		require.NoError(t, err)
		assert.Equal(t, []string{"alice"}, idStrings(ids))

		err = store.DeleteEdges(ctx, f.Edges(true)...)
		assert.True(t, pkgerrors.IsNotFound(err))

		// The surviving reverse edge was not removed by the failed call.
		ids, err = store.FriendIDsOf(ctx, []valueobjects.UserID{bob.ID()})
		require.NoError(t, err)
		assert.Len(t, ids, 1)
	})

	t.Run("delete user cascades to edges", func(t *testing.T) {
		store, ctx := open(t, newStore)
		alice := mustCreate(t, store, "alice")
		bob := mustCreate(t, store, "bob")
		carol := mustCreate(t, store, "carol")

		require.NoError(t, store.SaveEdges(ctx, edge(t, bob, alice).Edges(true)...))
		require.NoError(t, store.SaveEdges(ctx, edge(t, bob, carol).Edges(true)...))

		require.NoError(t, store.Delete(ctx, bob.ID()))

		_, err := store.GetByID(ctx, bob.ID())
		assert.True(t, pkgerrors.IsUserNotFound(err))

		ids, err := store.FriendIDsOf(ctx, []valueobjects.UserID{alice.ID(), bob.ID(), carol.ID()})
		require.NoError(t, err)
		assert.Empty(t, ids)

		// The email is free again.
		again, err := entities.NewUser(valueobjects.MustUserID("bob2"), "Bob", "bob@example.com")
		require.NoError(t, err)
		assert.NoError(t, store.Create(ctx, again))
	})

	t.Run("delete unknown user", func(t *testing.T) {
		store, ctx := open(t, newStore)
		assert.True(t, pkgerrors.IsUserNotFound(store.Delete(ctx, valueobjects.MustUserID("ghost"))))
	})

	t.Run("users by ids", func(t *testing.T) {
		store, ctx := open(t, newStore)
		mustCreate(t, store, "carol")
		mustCreate(t, store, "alice")
		mustCreate(t, store, "bob")

		users, err := store.UsersByIDs(ctx, []valueobjects.UserID{
			valueobjects.MustUserID("carol"),
			valueobjects.MustUserID("ghost"),
			valueobjects.MustUserID("alice"),
		})
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "alice", users[0].ID().String())
		assert.Equal(t, "carol", users[1].ID().String())
	})

	t.Run("ping", func(t *testing.T) {
		store, ctx := open(t, newStore)
		assert.NoError(t, store.Ping(ctx))
	})
}

func open(t *testing.T, newStore Factory) (ports.Store, context.Context) {
	t.Helper()
	store := newStore(t)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store, context.Background()
}

// mustCreate stores a user whose id and name are id. Creation times are
// strictly increasing.
func mustCreate(t *testing.T, store ports.Store, id string) *entities.User {
	t.Helper()
	user, err := entities.NewUser(valueobjects.MustUserID(id), id, id+"@example.com")
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), user))
	time.Sleep(2 * time.Millisecond)
	return user
}

func edge(t *testing.T, friend, owner *entities.User) entities.Friendship {
	t.Helper()
	f, err := entities.NewFriendship(friend.ID(), owner.ID())
	require.NoError(t, err)
	return f
}

func idStrings(ids []valueobjects.UserID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
