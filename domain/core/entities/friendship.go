package entities

import (
	"friendship-backend/domain/core/valueobjects"
	pkgerrors "friendship-backend/pkg/errors"
)

// Friendship is a directed edge: FriendID is a friend of FriendOfID.
// A mutual friendship is stored as two edges.
type Friendship struct {
	friendID   valueobjects.UserID
	friendOfID valueobjects.UserID
}

// NewFriendship creates an edge, rejecting self edges
func NewFriendship(friendID, friendOfID valueobjects.UserID) (Friendship, error) {
	if friendID.IsZero() || friendOfID.IsZero() {
		return Friendship{}, pkgerrors.NewValidationError("friendship endpoints cannot be empty")
	}
	if friendID.Equals(friendOfID) {
		return Friendship{}, pkgerrors.NewValidationError("a user cannot be their own friend").
			WithDetails(map[string]interface{}{"userId": friendID.String()})
	}
	return Friendship{friendID: friendID, friendOfID: friendOfID}, nil
}

// ReconstructFriendship rebuilds an edge loaded from a store without validation
func ReconstructFriendship(friendID, friendOfID valueobjects.UserID) Friendship {
	return Friendship{friendID: friendID, friendOfID: friendOfID}
}

// FriendID returns the user who is the friend
func (f Friendship) FriendID() valueobjects.UserID {
	return f.friendID
}

// FriendOfID returns the user who owns the friendship
func (f Friendship) FriendOfID() valueobjects.UserID {
	return f.friendOfID
}

// Reverse returns the opposite edge
func (f Friendship) Reverse() Friendship {
	return Friendship{friendID: f.friendOfID, friendOfID: f.friendID}
}

// Involves reports whether id is either endpoint
func (f Friendship) Involves(id valueobjects.UserID) bool {
	return f.friendID.Equals(id) || f.friendOfID.Equals(id)
}

// Edges expands a friendship into the directed edges to store
func (f Friendship) Edges(bidirectional bool) []Friendship {
	if bidirectional {
		return []Friendship{f, f.Reverse()}
	}
	return []Friendship{f}
}
