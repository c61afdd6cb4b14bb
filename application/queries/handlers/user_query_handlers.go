package handlers

import (
	"context"
	"time"

	"friendship-backend/application/ports"
	"friendship-backend/application/queries"
	"friendship-backend/domain/core/valueobjects"
	pkgerrors "friendship-backend/pkg/errors"

	"go.uber.org/zap"
)

// GetUserHandler handles single user lookups
type GetUserHandler struct {
	userRepo ports.UserRepository
}

// NewGetUserHandler creates a new get user handler
func NewGetUserHandler(userRepo ports.UserRepository) *GetUserHandler {
	return &GetUserHandler{userRepo: userRepo}
}

// Handle executes the get user query
func (h *GetUserHandler) Handle(ctx context.Context, query queries.GetUserQuery) (*queries.UserView, error) {
	userID, err := valueobjects.NewUserIDFromString(query.UserID)
	if err != nil {
		return nil, pkgerrors.NewUserNotFoundError(query.UserID)
	}

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := queries.NewUserView(user)
	return &view, nil
}

// ListUsersHandler handles user listing
type ListUsersHandler struct {
	userRepo ports.UserRepository
}

// NewListUsersHandler creates a new list users handler
func NewListUsersHandler(userRepo ports.UserRepository) *ListUsersHandler {
	return &ListUsersHandler{userRepo: userRepo}
}

// Handle executes the list users query
func (h *ListUsersHandler) Handle(ctx context.Context, _ queries.ListUsersQuery) ([]queries.UserView, error) {
	users, err := h.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return queries.NewUserViews(users), nil
}

// ResolveRecorder receives resolver timings
type ResolveRecorder interface {
	RecordResolve(degree int, resultSize int, duration time.Duration)
}

// GetFriendsByDegreeHandler confirms the user exists, then resolves its friends
type GetFriendsByDegreeHandler struct {
	userRepo ports.UserRepository
	resolver ports.FriendResolver
	metrics  ResolveRecorder
	logger   *zap.Logger
}

// NewGetFriendsByDegreeHandler creates a new friends by degree handler
func NewGetFriendsByDegreeHandler(
	userRepo ports.UserRepository,
	resolver ports.FriendResolver,
	metrics ResolveRecorder,
	logger *zap.Logger,
) *GetFriendsByDegreeHandler {
	return &GetFriendsByDegreeHandler{
		userRepo: userRepo,
		resolver: resolver,
		metrics:  metrics,
		logger:   logger,
	}
}

// Handle executes the friends by degree query
func (h *GetFriendsByDegreeHandler) Handle(ctx context.Context, query queries.GetFriendsByDegreeQuery) ([]queries.UserView, error) {
	degree, err := valueobjects.NewDegree(query.Degree)
	if err != nil {
		return nil, err
	}

	userID, err := valueobjects.NewUserIDFromString(query.UserID)
	if err != nil {
		return nil, pkgerrors.NewUserNotFoundError(query.UserID)
	}

	if _, err := h.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	start := time.Now()
	users, err := h.resolver.Resolve(ctx, userID, degree)
	if err != nil {
		h.logger.Error("Failed to resolve friends",
			zap.String("userID", query.UserID),
			zap.Int("degree", query.Degree),
			zap.Error(err),
		)
		return nil, err
	}

	elapsed := time.Since(start)
	if h.metrics != nil {
		h.metrics.RecordResolve(degree.Int(), len(users), elapsed)
	}
	h.logger.Debug("Resolved friends",
		zap.String("userID", query.UserID),
		zap.Int("degree", query.Degree),
		zap.Int("count", len(users)),
		zap.Duration("duration", elapsed),
	)

	return queries.NewUserViews(users), nil
}
