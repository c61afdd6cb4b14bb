package handlers

import (
	"fmt"
	"net/http"

	"friendship-backend/application/commands"
	"friendship-backend/application/queries"
	"friendship-backend/domain/core/valueobjects"
	"friendship-backend/pkg/errors"
	"friendship-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	commands     CommandSender
	queries      QueryAsker
	errorHandler *errors.ErrorHandler
	logger       *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(
	commandBus CommandSender,
	queryBus QueryAsker,
	errorHandler *errors.ErrorHandler,
	logger *zap.Logger,
) *UserHandler {
	return &UserHandler{
		commands:     commandBus,
		queries:      queryBus,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// CreateUserRequest represents the request body for creating a user
type CreateUserRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
}

// UpdateUserRequest represents the request body for updating a user.
// Absent fields keep their current value.
type UpdateUserRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	userID := valueobjects.NewUserID().String()
	cmd := commands.CreateUserCommand{
		UserID: userID,
		Name:   req.Name,
		Email:  req.Email,
	}

	if err := h.commands.Send(r.Context(), cmd); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.respondUser(w, r, userID, http.StatusCreated)
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	result, err := h.queries.Ask(r.Context(), queries.ListUsersQuery{})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, result)
}

// GetUser handles GET /users/{userID}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	h.respondUser(w, r, chi.URLParam(r, "userID"), http.StatusOK)
}

// UpdateUser handles PATCH /users/{userID}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	cmd := commands.UpdateUserCommand{
		UserID: userID,
		Name:   req.Name,
		Email:  req.Email,
	}

	if err := h.commands.Send(r.Context(), cmd); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.respondUser(w, r, userID, http.StatusOK)
}

// DeleteUser handles DELETE /users/{userID} and returns the removed user
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	snapshot, err := h.getUser(r, userID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.commands.Send(r.Context(), commands.DeleteUserCommand{UserID: userID}); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("User removed via API", zap.String("userID", userID))
	respondJSON(w, h.logger, http.StatusOK, snapshot)
}

func (h *UserHandler) respondUser(w http.ResponseWriter, r *http.Request, userID string, status int) {
	view, err := h.getUser(r, userID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, status, view)
}

func (h *UserHandler) getUser(r *http.Request, userID string) (*queries.UserView, error) {
	result, err := h.queries.Ask(r.Context(), queries.GetUserQuery{UserID: userID})
	if err != nil {
		return nil, err
	}
	view, ok := result.(*queries.UserView)
	if !ok {
		return nil, errors.NewInternalError(fmt.Sprintf("unexpected result type %T", result))
	}
	return view, nil
}
