// Package mocks provides testify mocks for the application ports.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"friendship-backend/domain/core/entities"
	"friendship-backend/domain/core/valueobjects"
	"friendship-backend/domain/events"
)

// MockUserRepository mocks ports.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *entities.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context) ([]*entities.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]*entities.User)
	return users, args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id valueobjects.UserID) (*entities.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*entities.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *entities.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id valueobjects.UserID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockFriendshipRepository mocks ports.FriendshipRepository
type MockFriendshipRepository struct {
	mock.Mock
}

func (m *MockFriendshipRepository) SaveEdges(ctx context.Context, edges ...entities.Friendship) error {
	args := m.Called(ctx, edges)
	return args.Error(0)
}

func (m *MockFriendshipRepository) DeleteEdges(ctx context.Context, edges ...entities.Friendship) error {
	args := m.Called(ctx, edges)
	return args.Error(0)
}

// MockFriendGraph mocks services.FriendGraph
type MockFriendGraph struct {
	mock.Mock
}

func (m *MockFriendGraph) FriendIDsOf(ctx context.Context, ids []valueobjects.UserID) ([]valueobjects.UserID, error) {
	args := m.Called(ctx, ids)
	out, _ := args.Get(0).([]valueobjects.UserID)
	return out, args.Error(1)
}

func (m *MockFriendGraph) UsersByIDs(ctx context.Context, ids []valueobjects.UserID) ([]*entities.User, error) {
	args := m.Called(ctx, ids)
	users, _ := args.Get(0).([]*entities.User)
	return users, args.Error(1)
}

// MockEventPublisher mocks ports.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}
