package services

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"friendship-backend/domain/core/entities"
	"friendship-backend/domain/core/valueobjects"
	pkgerrors "friendship-backend/pkg/errors"
)

// fakeGraph stores edges as friendOfId -> friendIds.
type fakeGraph struct {
	users       map[string]*entities.User
	friendsOf   map[string][]string
	friendCalls [][]string
	userCalls   int
	friendErr   error
	usersErr    error
	failOnCall  int
}

func newFakeGraph(ids ...string) *fakeGraph {
	g := &fakeGraph{
		users:     make(map[string]*entities.User),
		friendsOf: make(map[string][]string),
	}
	now := time.Now()
	for _, id := range ids {
		g.users[id] = entities.ReconstructUser(valueobjects.MustUserID(id), id, id+"@example.com", now, now)
	}
	return g
}

// link stores "friend is a friend of owner".
func (g *fakeGraph) link(friend, owner string) {
	g.friendsOf[owner] = append(g.friendsOf[owner], friend)
}

func (g *fakeGraph) mutual(a, b string) {
	g.link(a, b)
	g.link(b, a)
}

func (g *fakeGraph) FriendIDsOf(ctx context.Context, ids []valueobjects.UserID) ([]valueobjects.UserID, error) {
	call := make([]string, len(ids))
	for i, id := range ids {
		call[i] = id.String()
	}
	g.friendCalls = append(g.friendCalls, call)

	if g.friendErr != nil && len(g.friendCalls) >= g.failOnCall {
		return nil, g.friendErr
	}

	var out []valueobjects.UserID
	for _, id := range call {
		for _, friend := range g.friendsOf[id] {
			out = append(out, valueobjects.MustUserID(friend))
		}
	}
	return out, nil
}

func (g *fakeGraph) UsersByIDs(ctx context.Context, ids []valueobjects.UserID) ([]*entities.User, error) {
	g.userCalls++
	if g.usersErr != nil {
		return nil, g.usersErr
	}
	var out []*entities.User
	for _, id := range ids {
		if u, ok := g.users[id.String()]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func resolveIDs(t *testing.T, r *FriendDegreeResolver, origin string, degree valueobjects.Degree) []string {
	t.Helper()
	users, err := r.Resolve(context.Background(), valueobjects.MustUserID(origin), degree)
	require.NoError(t, err)
	require.NotNil(t, users)

	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID().String()
	}
	return ids
}

func TestResolve_SingleMutualFriend(t *testing.T) {
	// Arrange
	g := newFakeGraph("alice", "bob")
	g.mutual("alice", "bob")
	r := NewFriendDegreeResolver(g)

	// Act & Assert
	assert.Equal(t, []string{"bob"}, resolveIDs(t, r, "alice", 1))
	assert.Equal(t, []string{}, resolveIDs(t, r, "alice", 2))
	assert.Equal(t, []string{}, resolveIDs(t, r, "alice", 3))
}

func TestResolve_Chain(t *testing.T) {
	g := newFakeGraph("alice", "bob", "charlie", "david", "eve")
	g.mutual("alice", "bob")
	g.mutual("bob", "charlie")
	g.mutual("charlie", "david")
	g.mutual("david", "eve")
	r := NewFriendDegreeResolver(g)

	assert.Equal(t, []string{"bob"}, resolveIDs(t, r, "alice", 1))
	assert.Equal(t, []string{"charlie"}, resolveIDs(t, r, "alice", 2))
	assert.Equal(t, []string{"david"}, resolveIDs(t, r, "alice", 3))

	// From the middle of the chain both directions count.
	assert.Equal(t, []string{"bob", "david"}, resolveIDs(t, r, "charlie", 1))
	assert.Equal(t, []string{"alice", "eve"}, resolveIDs(t, r, "charlie", 2))
	assert.Equal(t, []string{}, resolveIDs(t, r, "charlie", 3))
}

func TestResolve_FanOut(t *testing.T) {
	g := newFakeGraph("origin", "f0", "f1", "f2", "f3", "f4", "f5", "f6", "f7", "f8")
	for _, f := range []string{"f0", "f1", "f2"} {
		g.link(f, "origin")
	}
	for _, f := range []string{"f3", "f4", "f5"} {
		g.link(f, "f0")
	}
	for _, f := range []string{"f6", "f7", "f8"} {
		g.link(f, "f3")
	}
	r := NewFriendDegreeResolver(g)

	assert.Len(t, resolveIDs(t, r, "origin", 1), 3)
	assert.Equal(t, []string{"f3", "f4", "f5"}, resolveIDs(t, r, "origin", 2))
	assert.Equal(t, []string{"f6", "f7", "f8"}, resolveIDs(t, r, "origin", 3))
}

func TestResolve_DegreeTwoKeepsDirectFriends(t *testing.T) {
	// In a triangle a direct friend is also a friend of a friend and stays
	// in the degree 2 result.
	g := newFakeGraph("a", "b", "c")
	g.mutual("a", "b")
	g.mutual("b", "c")
	g.mutual("a", "c")
	r := NewFriendDegreeResolver(g)

	assert.Equal(t, []string{"b", "c"}, resolveIDs(t, r, "a", 1))
	assert.Equal(t, []string{"b", "c"}, resolveIDs(t, r, "a", 2))
	assert.Equal(t, []string{}, resolveIDs(t, r, "a", 3))
}

func TestResolve_DegreeThreeUsesShortestDepth(t *testing.T) {
	// d is reachable at depth 2 (a-b-d) and depth 3 (a-b-c-d).
	g := newFakeGraph("a", "b", "c", "d", "e")
	g.mutual("a", "b")
	g.mutual("b", "c")
	g.mutual("b", "d")
	g.mutual("c", "d")
	g.mutual("d", "e")
	r := NewFriendDegreeResolver(g)

	assert.Equal(t, []string{"e"}, resolveIDs(t, r, "a", 3))
}

func TestResolve_OriginNeverIncluded(t *testing.T) {
	g := newFakeGraph("a", "b")
	g.link("a", "a")
	g.mutual("a", "b")
	r := NewFriendDegreeResolver(g)

	for _, degree := range []valueobjects.Degree{1, 2, 3} {
		assert.NotContains(t, resolveIDs(t, r, "a", degree), "a")
	}
}

func TestResolve_DirectedEdgesAreNotSymmetric(t *testing.T) {
	g := newFakeGraph("a", "b")
	g.link("b", "a")
	r := NewFriendDegreeResolver(g)

	assert.Equal(t, []string{"b"}, resolveIDs(t, r, "a", 1))
	assert.Equal(t, []string{}, resolveIDs(t, r, "b", 1))
}

func TestResolve_ResultsAreSortedAndDeduped(t *testing.T) {
	g := newFakeGraph("o", "x", "y", "z", "m")
	for _, f := range []string{"z", "x", "y"} {
		g.link(f, "o")
		g.link("m", f)
	}
	r := NewFriendDegreeResolver(g)

	assert.Equal(t, []string{"x", "y", "z"}, resolveIDs(t, r, "o", 1))
	assert.Equal(t, []string{"m"}, resolveIDs(t, r, "o", 2))
	assert.True(t, sort.StringsAreSorted(g.friendCalls[len(g.friendCalls)-1]))
}

func TestResolve_Idempotent(t *testing.T) {
	g := newFakeGraph("a", "b", "c")
	g.mutual("a", "b")
	g.mutual("b", "c")
	r := NewFriendDegreeResolver(g)

	first := resolveIDs(t, r, "a", 2)
	second := resolveIDs(t, r, "a", 2)
	assert.Equal(t, first, second)
}

func TestResolve_UnknownUserIsEmpty(t *testing.T) {
	g := newFakeGraph("a")
	r := NewFriendDegreeResolver(g)

	assert.Equal(t, []string{}, resolveIDs(t, r, "ghost", 1))
	assert.Zero(t, g.userCalls)
}

func TestResolve_EmptyFrontierShortCircuits(t *testing.T) {
	g := newFakeGraph("alice", "bob")
	g.mutual("alice", "bob")
	r := NewFriendDegreeResolver(g)

	resolveIDs(t, r, "alice", 3)

	// origin hop, direct hop; level 2 is empty so no third call
	assert.Len(t, g.friendCalls, 2)
	assert.Zero(t, g.userCalls)
}

func TestResolve_InvalidDegree(t *testing.T) {
	r := NewFriendDegreeResolver(newFakeGraph("a"))

	for _, degree := range []valueobjects.Degree{0, 4, -1} {
		users, err := r.Resolve(context.Background(), valueobjects.MustUserID("a"), degree)
		assert.Nil(t, users)
		assert.True(t, pkgerrors.IsInvalidDegree(err))
	}
}

func TestResolve_StorageFailure(t *testing.T) {
	cause := errors.New("connection reset")

	t.Run("failure on a later hop is not an empty result", func(t *testing.T) {
		g := newFakeGraph("a", "b", "c")
		g.mutual("a", "b")
		g.mutual("b", "c")
		g.friendErr = cause
		g.failOnCall = 2
		r := NewFriendDegreeResolver(g)

		users, err := r.Resolve(context.Background(), valueobjects.MustUserID("a"), 2)

		assert.Nil(t, users)
		assert.True(t, pkgerrors.IsDatabase(err))
		assert.ErrorIs(t, err, cause)
	})

	t.Run("failure loading users", func(t *testing.T) {
		g := newFakeGraph("a", "b")
		g.mutual("a", "b")
		g.usersErr = cause
		r := NewFriendDegreeResolver(g)

		_, err := r.Resolve(context.Background(), valueobjects.MustUserID("a"), 1)

		assert.True(t, pkgerrors.IsDatabase(err))
	})
}

func TestResolve_CancelledContext(t *testing.T) {
	g := newFakeGraph("a", "b")
	g.mutual("a", "b")
	r := NewFriendDegreeResolver(g)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, valueobjects.MustUserID("a"), 1)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, g.friendCalls)
}
