package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"friendship-backend/application/commands"
	"friendship-backend/application/ports/mocks"
	"friendship-backend/domain/core/entities"
	"friendship-backend/domain/core/valueobjects"
	"friendship-backend/domain/events"
	pkgerrors "friendship-backend/pkg/errors"
)

func existingUser(id, name string) *entities.User {
	now := time.Now().UTC()
	return entities.ReconstructUser(valueobjects.MustUserID(id), name, name+"@example.com", now, now)
}

func eventTypes(expected ...string) interface{} {
	return mock.MatchedBy(func(evts []events.DomainEvent) bool {
		if len(evts) != len(expected) {
			return false
		}
		for i, e := range evts {
			if e.GetEventType() != expected[i] {
				return false
			}
		}
		return true
	})
}

func TestCreateUserHandler_Handle_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := new(mocks.MockUserRepository)
	publisher := new(mocks.MockEventPublisher)

	repo.On("Create", ctx, mock.MatchedBy(func(u *entities.User) bool {
		return u.ID().String() == "u1" && u.Name() == "Alice" && u.Email() == "alice@example.com"
	})).Return(nil)
	publisher.On("PublishBatch", ctx, eventTypes(events.TypeUserCreated)).Return(nil)

	handler := NewCreateUserHandler(repo, publisher, zap.NewNop())

	// Act
	err := handler.Handle(ctx, commands.CreateUserCommand{UserID: "u1", Name: "Alice", Email: "alice@example.com"})

	// Assert
	assert.NoError(t, err)
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestCreateUserHandler_Handle_DuplicateEmail(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := new(mocks.MockUserRepository)
	publisher := new(mocks.MockEventPublisher)
	repo.On("Create", ctx, mock.Anything).Return(pkgerrors.NewUniqueConstraintError("email"))

	handler := NewCreateUserHandler(repo, publisher, zap.NewNop())

	// Act
	err := handler.Handle(ctx, commands.CreateUserCommand{UserID: "u1", Name: "Alice", Email: "alice@example.com"})

	// Assert
	assert.True(t, pkgerrors.IsUniqueConstraint(err))
	publisher.AssertNotCalled(t, "PublishBatch", mock.Anything, mock.Anything)
}

func TestCreateUserHandler_Handle_PublishFailureDoesNotFail(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockUserRepository)
	publisher := new(mocks.MockEventPublisher)
	repo.On("Create", ctx, mock.Anything).Return(nil)
	publisher.On("PublishBatch", ctx, mock.Anything).Return(errors.New("bus down"))

	handler := NewCreateUserHandler(repo, publisher, zap.NewNop())

	err := handler.Handle(ctx, commands.CreateUserCommand{UserID: "u1", Name: "Alice", Email: "alice@example.com"})

	assert.NoError(t, err)
}

func TestUpdateUserHandler_Handle(t *testing.T) {
	t.Run("changed name is persisted and published", func(t *testing.T) {
		// Arrange
		ctx := context.Background()
		repo := new(mocks.MockUserRepository)
		publisher := new(mocks.MockEventPublisher)
		user := existingUser("u1", "alice")
		name := "Alicia"

		repo.On("GetByID", ctx, valueobjects.MustUserID("u1")).Return(user, nil)
		repo.On("Update", ctx, user).Return(nil)
		publisher.On("PublishBatch", ctx, eventTypes(events.TypeUserUpdated)).Return(nil)

		handler := NewUpdateUserHandler(repo, publisher, zap.NewNop())

		// Act
		err := handler.Handle(ctx, commands.UpdateUserCommand{UserID: "u1", Name: &name})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "Alicia", user.Name())
		repo.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("unchanged patch skips the write", func(t *testing.T) {
		ctx := context.Background()
		repo := new(mocks.MockUserRepository)
		publisher := new(mocks.MockEventPublisher)
		user := existingUser("u1", "alice")
		name := "alice"
		repo.On("GetByID", ctx, valueobjects.MustUserID("u1")).Return(user, nil)

		handler := NewUpdateUserHandler(repo, publisher, zap.NewNop())

		err := handler.Handle(ctx, commands.UpdateUserCommand{UserID: "u1", Name: &name})

		assert.NoError(t, err)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("unknown user", func(t *testing.T) {
		ctx := context.Background()
		repo := new(mocks.MockUserRepository)
		repo.On("GetByID", ctx, valueobjects.MustUserID("ghost")).Return(nil, pkgerrors.NewUserNotFoundError("ghost"))

		handler := NewUpdateUserHandler(repo, new(mocks.MockEventPublisher), zap.NewNop())

		err := handler.Handle(ctx, commands.UpdateUserCommand{UserID: "ghost"})

		assert.True(t, pkgerrors.IsUserNotFound(err))
	})
}

func TestDeleteUserHandler_Handle(t *testing.T) {
	t.Run("success publishes user.deleted", func(t *testing.T) {
		// Arrange
		ctx := context.Background()
		repo := new(mocks.MockUserRepository)
		publisher := new(mocks.MockEventPublisher)
		id := valueobjects.MustUserID("u1")

		repo.On("GetByID", ctx, id).Return(existingUser("u1", "alice"), nil)
		repo.On("Delete", ctx, id).Return(nil)
		publisher.On("PublishBatch", ctx, eventTypes(events.TypeUserDeleted)).Return(nil)

		handler := NewDeleteUserHandler(repo, publisher, zap.NewNop())

		// Act
		err := handler.Handle(ctx, commands.DeleteUserCommand{UserID: "u1"})

		// Assert
		assert.NoError(t, err)
		repo.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("unknown user is not deleted", func(t *testing.T) {
		ctx := context.Background()
		repo := new(mocks.MockUserRepository)
		repo.On("GetByID", ctx, mock.Anything).Return(nil, pkgerrors.NewUserNotFoundError("ghost"))

		handler := NewDeleteUserHandler(repo, new(mocks.MockEventPublisher), zap.NewNop())

		err := handler.Handle(ctx, commands.DeleteUserCommand{UserID: "ghost"})

		assert.True(t, pkgerrors.IsNotFound(err))
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestHandlers_BlankIDIsUnknownUser(t *testing.T) {
	// Arrange
	ctx := context.Background()
	users := new(mocks.MockUserRepository)
	friendships := new(mocks.MockFriendshipRepository)
	publisher := new(mocks.MockEventPublisher)
	blank := "  "
	name := "Nobody"

	tests := []struct {
		name string
		run  func() error
	}{
		{"update", func() error {
			return NewUpdateUserHandler(users, publisher, zap.NewNop()).Handle(ctx, commands.UpdateUserCommand{UserID: blank, Name: &name})
		}},
		{"delete", func() error {
			return NewDeleteUserHandler(users, publisher, zap.NewNop()).Handle(ctx, commands.DeleteUserCommand{UserID: blank})
		}},
		{"add friendship", func() error {
			return NewAddFriendshipHandler(users, friendships, publisher, zap.NewNop()).Handle(ctx, commands.AddFriendshipCommand{UserID: "alice", FriendID: blank})
		}},
		{"remove friendship", func() error {
			return NewRemoveFriendshipHandler(friendships, publisher, zap.NewNop()).Handle(ctx, commands.RemoveFriendshipCommand{UserID: blank, FriendID: "bob"})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			err := tt.run()

			// Assert
			assert.True(t, pkgerrors.IsUserNotFound(err))
		})
	}
	users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	friendships.AssertNotCalled(t, "SaveEdges", mock.Anything, mock.Anything)
	friendships.AssertNotCalled(t, "DeleteEdges", mock.Anything, mock.Anything)
}

func TestAddFriendshipHandler_Handle(t *testing.T) {
	t.Run("bidirectional stores both edges", func(t *testing.T) {
		// Arrange
		ctx := context.Background()
		users := new(mocks.MockUserRepository)
		friendships := new(mocks.MockFriendshipRepository)
		publisher := new(mocks.MockEventPublisher)

		users.On("GetByID", ctx, valueobjects.MustUserID("alice")).Return(existingUser("alice", "alice"), nil)
		users.On("GetByID", ctx, valueobjects.MustUserID("bob")).Return(existingUser("bob", "bob"), nil)
		friendships.On("SaveEdges", ctx, mock.MatchedBy(func(edges []entities.Friendship) bool {
			return len(edges) == 2 &&
				edges[0].FriendID().String() == "bob" && edges[0].FriendOfID().String() == "alice" &&
				edges[1].FriendID().String() == "alice" && edges[1].FriendOfID().String() == "bob"
		})).Return(nil)
		publisher.On("PublishBatch", ctx, eventTypes(events.TypeFriendshipCreated)).Return(nil)

		handler := NewAddFriendshipHandler(users, friendships, publisher, zap.NewNop())

		// Act
		err := handler.Handle(ctx, commands.AddFriendshipCommand{UserID: "alice", FriendID: "bob", Bidirectional: true})

		// Assert
		assert.NoError(t, err)
		users.AssertExpectations(t)
		friendships.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("missing friend is reported before any write", func(t *testing.T) {
		ctx := context.Background()
		users := new(mocks.MockUserRepository)
		friendships := new(mocks.MockFriendshipRepository)

		users.On("GetByID", ctx, valueobjects.MustUserID("alice")).Return(existingUser("alice", "alice"), nil)
		users.On("GetByID", ctx, valueobjects.MustUserID("ghost")).Return(nil, pkgerrors.NewUserNotFoundError("ghost"))

		handler := NewAddFriendshipHandler(users, friendships, new(mocks.MockEventPublisher), zap.NewNop())

		err := handler.Handle(ctx, commands.AddFriendshipCommand{UserID: "alice", FriendID: "ghost"})

		assert.True(t, pkgerrors.IsUserNotFound(err))
		assert.Equal(t, "ghost", pkgerrors.GetAppError(err).Details["userId"])
		friendships.AssertNotCalled(t, "SaveEdges", mock.Anything, mock.Anything)
	})

	t.Run("self edge is rejected", func(t *testing.T) {
		handler := NewAddFriendshipHandler(new(mocks.MockUserRepository), new(mocks.MockFriendshipRepository), nil, zap.NewNop())

		err := handler.Handle(context.Background(), commands.AddFriendshipCommand{UserID: "alice", FriendID: "alice"})

		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestRemoveFriendshipHandler_Handle(t *testing.T) {
	t.Run("one direction only", func(t *testing.T) {
		ctx := context.Background()
		friendships := new(mocks.MockFriendshipRepository)
		publisher := new(mocks.MockEventPublisher)

		friendships.On("DeleteEdges", ctx, mock.MatchedBy(func(edges []entities.Friendship) bool {
			return len(edges) == 1 && edges[0].FriendID().String() == "bob"
		})).Return(nil)
		publisher.On("PublishBatch", ctx, eventTypes(events.TypeFriendshipRemoved)).Return(nil)

		handler := NewRemoveFriendshipHandler(friendships, publisher, zap.NewNop())

		err := handler.Handle(ctx, commands.RemoveFriendshipCommand{UserID: "alice", FriendID: "bob"})

		assert.NoError(t, err)
		friendships.AssertExpectations(t)
	})

	t.Run("missing edge", func(t *testing.T) {
		ctx := context.Background()
		friendships := new(mocks.MockFriendshipRepository)
		friendships.On("DeleteEdges", ctx, mock.Anything).Return(pkgerrors.NewFriendshipNotFoundError("bob", "alice"))

		handler := NewRemoveFriendshipHandler(friendships, new(mocks.MockEventPublisher), zap.NewNop())

		err := handler.Handle(ctx, commands.RemoveFriendshipCommand{UserID: "alice", FriendID: "bob", Bidirectional: true})

		assert.True(t, pkgerrors.IsNotFound(err))
	})
}
