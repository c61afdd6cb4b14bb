package events

import (
	"time"

	"friendship-backend/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

const (
	TypeUserCreated       = "user.created"
	TypeUserUpdated       = "user.updated"
	TypeUserDeleted       = "user.deleted"
	TypeFriendshipCreated = "friendship.created"
	TypeFriendshipRemoved = "friendship.removed"
)

func newBase(aggregateID, eventType string, timestamp time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: aggregateID,
		EventType:   eventType,
		Timestamp:   timestamp,
		Version:     1,
	}
}

// User Events

// UserCreated is raised when a new user is created
type UserCreated struct {
	BaseEvent
	UserID valueobjects.UserID `json:"user_id"`
	Name   string              `json:"name"`
	Email  string              `json:"email"`
}

// NewUserCreated creates a UserCreated event
func NewUserCreated(userID valueobjects.UserID, name, email string, timestamp time.Time) UserCreated {
	return UserCreated{
		BaseEvent: newBase(userID.String(), TypeUserCreated, timestamp),
		UserID:    userID,
		Name:      name,
		Email:     email,
	}
}

// UserUpdated is raised when a user's profile changes
type UserUpdated struct {
	BaseEvent
	UserID        valueobjects.UserID `json:"user_id"`
	ChangedFields []string            `json:"changed_fields"`
}

// NewUserUpdated creates a UserUpdated event
func NewUserUpdated(userID valueobjects.UserID, changedFields []string, timestamp time.Time) UserUpdated {
	return UserUpdated{
		BaseEvent:     newBase(userID.String(), TypeUserUpdated, timestamp),
		UserID:        userID,
		ChangedFields: changedFields,
	}
}

// UserDeleted is raised when a user and its edges are removed
type UserDeleted struct {
	BaseEvent
	UserID valueobjects.UserID `json:"user_id"`
	Email  string              `json:"email"`
}

// NewUserDeleted creates a UserDeleted event
func NewUserDeleted(userID valueobjects.UserID, email string, timestamp time.Time) UserDeleted {
	return UserDeleted{
		BaseEvent: newBase(userID.String(), TypeUserDeleted, timestamp),
		UserID:    userID,
		Email:     email,
	}
}

// Friendship Events

// FriendshipCreated is raised when friendship edges are stored
type FriendshipCreated struct {
	BaseEvent
	FriendID      valueobjects.UserID `json:"friend_id"`
	FriendOfID    valueobjects.UserID `json:"friend_of_id"`
	Bidirectional bool                `json:"bidirectional"`
}

// NewFriendshipCreated creates a FriendshipCreated event
func NewFriendshipCreated(friendID, friendOfID valueobjects.UserID, bidirectional bool, timestamp time.Time) FriendshipCreated {
	return FriendshipCreated{
		BaseEvent:     newBase(friendOfID.String(), TypeFriendshipCreated, timestamp),
		FriendID:      friendID,
		FriendOfID:    friendOfID,
		Bidirectional: bidirectional,
	}
}

// FriendshipRemoved is raised when friendship edges are deleted
type FriendshipRemoved struct {
	BaseEvent
	FriendID      valueobjects.UserID `json:"friend_id"`
	FriendOfID    valueobjects.UserID `json:"friend_of_id"`
	Bidirectional bool                `json:"bidirectional"`
}

// NewFriendshipRemoved creates a FriendshipRemoved event
func NewFriendshipRemoved(friendID, friendOfID valueobjects.UserID, bidirectional bool, timestamp time.Time) FriendshipRemoved {
	return FriendshipRemoved{
		BaseEvent:     newBase(friendOfID.String(), TypeFriendshipRemoved, timestamp),
		FriendID:      friendID,
		FriendOfID:    friendOfID,
		Bidirectional: bidirectional,
	}
}
