package handlers

import (
	"context"
	"fmt"

	"friendship-backend/application/commands"
	"friendship-backend/application/ports"
	"friendship-backend/domain/core/entities"
	"friendship-backend/domain/core/valueobjects"
	pkgerrors "friendship-backend/pkg/errors"

	"go.uber.org/zap"
)

// CreateUserHandler handles user creation commands
type CreateUserHandler struct {
	userRepo  ports.UserRepository
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewCreateUserHandler creates a new create user handler
func NewCreateUserHandler(userRepo ports.UserRepository, publisher ports.EventPublisher, logger *zap.Logger) *CreateUserHandler {
	return &CreateUserHandler{userRepo: userRepo, publisher: publisher, logger: logger}
}

// Handle executes the create user command
func (h *CreateUserHandler) Handle(ctx context.Context, cmd commands.CreateUserCommand) error {
	userID, err := valueobjects.NewUserIDFromString(cmd.UserID)
	if err != nil {
		return pkgerrors.NewValidationError("user ID cannot be empty")
	}

	user, err := entities.NewUser(userID, cmd.Name, cmd.Email)
	if err != nil {
		return err
	}

	if err := h.userRepo.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	publishEvents(ctx, h.publisher, h.logger, user.GetUncommittedEvents())
	user.MarkEventsAsCommitted()

	h.logger.Info("User created", zap.String("userID", cmd.UserID))
	return nil
}

// UpdateUserHandler handles user profile updates
type UpdateUserHandler struct {
	userRepo  ports.UserRepository
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewUpdateUserHandler creates a new update user handler
func NewUpdateUserHandler(userRepo ports.UserRepository, publisher ports.EventPublisher, logger *zap.Logger) *UpdateUserHandler {
	return &UpdateUserHandler{userRepo: userRepo, publisher: publisher, logger: logger}
}

// Handle executes the update user command
func (h *UpdateUserHandler) Handle(ctx context.Context, cmd commands.UpdateUserCommand) error {
	userID, err := existingUserID(cmd.UserID)
	if err != nil {
		return err
	}

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if err := user.UpdateProfile(cmd.Name, cmd.Email); err != nil {
		return err
	}

	changes := user.GetUncommittedEvents()
	if len(changes) == 0 {
		return nil
	}

	if err := h.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	publishEvents(ctx, h.publisher, h.logger, changes)
	user.MarkEventsAsCommitted()

	h.logger.Info("User updated", zap.String("userID", cmd.UserID))
	return nil
}

// DeleteUserHandler handles user deletion commands
type DeleteUserHandler struct {
	userRepo  ports.UserRepository
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewDeleteUserHandler creates a new delete user handler
func NewDeleteUserHandler(userRepo ports.UserRepository, publisher ports.EventPublisher, logger *zap.Logger) *DeleteUserHandler {
	return &DeleteUserHandler{userRepo: userRepo, publisher: publisher, logger: logger}
}

// Handle executes the delete user command
func (h *DeleteUserHandler) Handle(ctx context.Context, cmd commands.DeleteUserCommand) error {
	userID, err := existingUserID(cmd.UserID)
	if err != nil {
		return err
	}

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if err := h.userRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	user.MarkDeleted()
	publishEvents(ctx, h.publisher, h.logger, user.GetUncommittedEvents())
	user.MarkEventsAsCommitted()

	h.logger.Info("User deleted", zap.String("userID", cmd.UserID))
	return nil
}

// existingUserID parses the id of a user that must already exist. A blank id
// can never match a stored user, so it is reported as not found.
func existingUserID(raw string) (valueobjects.UserID, error) {
	userID, err := valueobjects.NewUserIDFromString(raw)
	if err != nil {
		return valueobjects.UserID{}, pkgerrors.NewUserNotFoundError(raw)
	}
	return userID, nil
}
