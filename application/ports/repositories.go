package ports

import (
	"context"

	"friendship-backend/domain/core/entities"
	"friendship-backend/domain/core/valueobjects"
	"friendship-backend/domain/events"
	"friendship-backend/domain/services"
)

// UserRepository defines the interface for user persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type UserRepository interface {
	// Create stores a new user. A taken email is a unique constraint violation.
	Create(ctx context.Context, user *entities.User) error

	// List returns every user ordered by creation time, then id
	List(ctx context.Context) ([]*entities.User, error)

	// GetByID retrieves a user by its ID
	GetByID(ctx context.Context, id valueobjects.UserID) (*entities.User, error)

	// Update persists the user's name, email and updatedAt
	Update(ctx context.Context, user *entities.User) error

	// Delete removes the user and every edge that references it
	Delete(ctx context.Context, id valueobjects.UserID) error
}

// FriendshipRepository defines the interface for edge persistence
type FriendshipRepository interface {
	// SaveEdges stores all edges atomically. An existing edge is a conflict
	// and a missing endpoint is a not found error.
	SaveEdges(ctx context.Context, edges ...entities.Friendship) error

	// DeleteEdges removes all edges atomically. A missing edge is a not found error.
	DeleteEdges(ctx context.Context, edges ...entities.Friendship) error
}

// Store is a complete store driver
type Store interface {
	UserRepository
	FriendshipRepository
	services.FriendGraph

	// Ping checks that the backing engine is reachable
	Ping(ctx context.Context) error

	// Close releases the driver's resources
	Close(ctx context.Context) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// FriendResolver returns the users at exactly a given degree from an origin
type FriendResolver interface {
	Resolve(ctx context.Context, userID valueobjects.UserID, degree valueobjects.Degree) ([]*entities.User, error)
}
