package handlers

import (
	"context"
	"fmt"
	"time"

	"friendship-backend/application/commands"
	"friendship-backend/application/ports"
	"friendship-backend/domain/core/entities"
	"friendship-backend/domain/core/valueobjects"
	"friendship-backend/domain/events"

	"go.uber.org/zap"
)

// AddFriendshipHandler stores friendship edges between two existing users
type AddFriendshipHandler struct {
	userRepo       ports.UserRepository
	friendshipRepo ports.FriendshipRepository
	publisher      ports.EventPublisher
	logger         *zap.Logger
}

// NewAddFriendshipHandler creates a new add friendship handler
func NewAddFriendshipHandler(
	userRepo ports.UserRepository,
	friendshipRepo ports.FriendshipRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *AddFriendshipHandler {
	return &AddFriendshipHandler{
		userRepo:       userRepo,
		friendshipRepo: friendshipRepo,
		publisher:      publisher,
		logger:         logger,
	}
}

// Handle executes the add friendship command
func (h *AddFriendshipHandler) Handle(ctx context.Context, cmd commands.AddFriendshipCommand) error {
	edge, err := newEdge(cmd.FriendID, cmd.UserID)
	if err != nil {
		return err
	}

	// Both endpoints must exist so the caller learns which one is missing.
	for _, id := range []valueobjects.UserID{edge.FriendOfID(), edge.FriendID()} {
		if _, err := h.userRepo.GetByID(ctx, id); err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
	}

	if err := h.friendshipRepo.SaveEdges(ctx, edge.Edges(cmd.Bidirectional)...); err != nil {
		return fmt.Errorf("failed to save friendship: %w", err)
	}

	publishEvents(ctx, h.publisher, h.logger, []events.DomainEvent{
		events.NewFriendshipCreated(edge.FriendID(), edge.FriendOfID(), cmd.Bidirectional, time.Now().UTC()),
	})

	h.logger.Info("Friendship created",
		zap.String("friendID", cmd.FriendID),
		zap.String("friendOfID", cmd.UserID),
		zap.Bool("bidirectional", cmd.Bidirectional),
	)
	return nil
}

// RemoveFriendshipHandler deletes friendship edges
type RemoveFriendshipHandler struct {
	friendshipRepo ports.FriendshipRepository
	publisher      ports.EventPublisher
	logger         *zap.Logger
}

// NewRemoveFriendshipHandler creates a new remove friendship handler
func NewRemoveFriendshipHandler(
	friendshipRepo ports.FriendshipRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *RemoveFriendshipHandler {
	return &RemoveFriendshipHandler{
		friendshipRepo: friendshipRepo,
		publisher:      publisher,
		logger:         logger,
	}
}

// Handle executes the remove friendship command
func (h *RemoveFriendshipHandler) Handle(ctx context.Context, cmd commands.RemoveFriendshipCommand) error {
	edge, err := newEdge(cmd.FriendID, cmd.UserID)
	if err != nil {
		return err
	}

	if err := h.friendshipRepo.DeleteEdges(ctx, edge.Edges(cmd.Bidirectional)...); err != nil {
		return fmt.Errorf("failed to delete friendship: %w", err)
	}

	publishEvents(ctx, h.publisher, h.logger, []events.DomainEvent{
		events.NewFriendshipRemoved(edge.FriendID(), edge.FriendOfID(), cmd.Bidirectional, time.Now().UTC()),
	})

	h.logger.Info("Friendship removed",
		zap.String("friendID", cmd.FriendID),
		zap.String("friendOfID", cmd.UserID),
		zap.Bool("bidirectional", cmd.Bidirectional),
	)
	return nil
}

func newEdge(friendID, friendOfID string) (entities.Friendship, error) {
	friend, err := existingUserID(friendID)
	if err != nil {
		return entities.Friendship{}, err
	}
	owner, err := existingUserID(friendOfID)
	if err != nil {
		return entities.Friendship{}, err
	}
	return entities.NewFriendship(friend, owner)
}
