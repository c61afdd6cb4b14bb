package services

import (
	"context"
	"sort"

	"friendship-backend/domain/core/entities"
	"friendship-backend/domain/core/valueobjects"
	pkgerrors "friendship-backend/pkg/errors"
)

// FriendGraph is the read side of the store the resolver traverses
type FriendGraph interface {
	// FriendIDsOf returns the friendId of every edge whose friendOfId is in ids.
	// Duplicates are allowed.
	FriendIDsOf(ctx context.Context, ids []valueobjects.UserID) ([]valueobjects.UserID, error)

	// UsersByIDs returns the users with the given ids. Unknown ids are skipped.
	UsersByIDs(ctx context.Context, ids []valueobjects.UserID) ([]*entities.User, error)
}

// DegreeStrategy collects the ids of the users found at one degree
type DegreeStrategy interface {
	Degree() valueobjects.Degree
	Collect(ctx context.Context, t *Traversal, origin valueobjects.UserID) (IDSet, error)
}

// FriendDegreeResolver returns the users at exactly a given degree of
// friendship from an origin user. It holds no per-request state and is
// safe for concurrent use.
type FriendDegreeResolver struct {
	graph      FriendGraph
	strategies map[valueobjects.Degree]DegreeStrategy
}

// NewFriendDegreeResolver creates a resolver with the degree 1, 2 and 3 strategies
func NewFriendDegreeResolver(graph FriendGraph) *FriendDegreeResolver {
	r := &FriendDegreeResolver{
		graph:      graph,
		strategies: make(map[valueobjects.Degree]DegreeStrategy),
	}
	for _, s := range []DegreeStrategy{directFriends{}, secondDegree{}, thirdDegree{}} {
		r.strategies[s.Degree()] = s
	}
	return r
}

// Resolve returns the users at the requested degree, ascending by id.
// An unknown origin yields an empty result.
func (r *FriendDegreeResolver) Resolve(ctx context.Context, userID valueobjects.UserID, degree valueobjects.Degree) ([]*entities.User, error) {
	strategy, ok := r.strategies[degree]
	if !ok {
		return nil, pkgerrors.NewInvalidDegreeError(degree.Int())
	}

	ids, err := strategy.Collect(ctx, &Traversal{graph: r.graph}, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*entities.User{}, nil
	}

	users, err := r.graph.UsersByIDs(ctx, ids.Sorted())
	if err != nil {
		return nil, pkgerrors.FromStorage("users_by_ids", err)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].ID().String() < users[j].ID().String()
	})
	return users, nil
}

// Traversal performs single hops over the graph
type Traversal struct {
	graph FriendGraph
	hops  int
}

// Hops returns how many store round trips the traversal has made
func (t *Traversal) Hops() int {
	return t.hops
}

// Expand returns the friends of every id in frontier minus the excluded ids.
// An empty frontier returns an empty set without touching the store.
func (t *Traversal) Expand(ctx context.Context, frontier, excluded IDSet) (IDSet, error) {
	next := IDSet{}
	if len(frontier) == 0 {
		return next, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.FromStorage("friend_ids_of", err)
	}

	t.hops++
	friendIDs, err := t.graph.FriendIDsOf(ctx, frontier.Sorted())
	if err != nil {
		return nil, pkgerrors.FromStorage("friend_ids_of", err)
	}

	for _, id := range friendIDs {
		if id.IsZero() || excluded.Has(id) {
			continue
		}
		next.Add(id)
	}
	return next, nil
}

type directFriends struct{}

func (directFriends) Degree() valueobjects.Degree { return valueobjects.DegreeDirect }

func (directFriends) Collect(ctx context.Context, t *Traversal, origin valueobjects.UserID) (IDSet, error) {
	self := NewIDSet(origin)
	return t.Expand(ctx, self, self)
}

// secondDegree excludes only the origin, so a direct friend that is also a
// friend of a friend is reported at degree 2.
type secondDegree struct{}

func (secondDegree) Degree() valueobjects.Degree { return valueobjects.DegreeSecond }

func (secondDegree) Collect(ctx context.Context, t *Traversal, origin valueobjects.UserID) (IDSet, error) {
	self := NewIDSet(origin)
	direct, err := t.Expand(ctx, self, self)
	if err != nil {
		return nil, err
	}
	return t.Expand(ctx, direct, self)
}

// thirdDegree removes every id seen at a shallower depth before each hop.
type thirdDegree struct{}

func (thirdDegree) Degree() valueobjects.Degree { return valueobjects.DegreeThird }

func (thirdDegree) Collect(ctx context.Context, t *Traversal, origin valueobjects.UserID) (IDSet, error) {
	excluded := NewIDSet(origin)
	direct, err := t.Expand(ctx, excluded, excluded)
	if err != nil {
		return nil, err
	}
	excluded.Union(direct)

	level2, err := t.Expand(ctx, direct, excluded)
	if err != nil {
		return nil, err
	}
	excluded.Union(level2)

	return t.Expand(ctx, level2, excluded)
}
