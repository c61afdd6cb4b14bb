package handlers

import (
	"net/http"
	"strconv"

	"friendship-backend/application/commands"
	"friendship-backend/application/queries"
	"friendship-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// FriendshipHandler handles friendship edges and degree lookups
type FriendshipHandler struct {
	commands     CommandSender
	queries      QueryAsker
	errorHandler *errors.ErrorHandler
	logger       *zap.Logger
}

// NewFriendshipHandler creates a new friendship handler
func NewFriendshipHandler(
	commandBus CommandSender,
	queryBus QueryAsker,
	errorHandler *errors.ErrorHandler,
	logger *zap.Logger,
) *FriendshipHandler {
	return &FriendshipHandler{
		commands:     commandBus,
		queries:      queryBus,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// AddFriendshipRequest represents the request body for adding a friend.
// Bidirectional defaults to true.
type AddFriendshipRequest struct {
	FriendID      string `json:"friendId"`
	Bidirectional *bool  `json:"bidirectional,omitempty"`
}

// FriendshipResponse describes the stored edges
type FriendshipResponse struct {
	UserID        string `json:"userId"`
	FriendID      string `json:"friendId"`
	Bidirectional bool   `json:"bidirectional"`
}

// GetFriends handles GET /users/{userID}/friends?degree=N
func (h *FriendshipHandler) GetFriends(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	degree, err := parseDegree(r.URL.Query().Get("degree"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	result, err := h.queries.Ask(r.Context(), queries.GetFriendsByDegreeQuery{
		UserID: userID,
		Degree: degree,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, result)
}

// AddFriendship handles POST /users/{userID}/friends
func (h *FriendshipHandler) AddFriendship(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req AddFriendshipRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	bidirectional := true
	if req.Bidirectional != nil {
		bidirectional = *req.Bidirectional
	}

	cmd := commands.AddFriendshipCommand{
		UserID:        userID,
		FriendID:      req.FriendID,
		Bidirectional: bidirectional,
	}
	if err := h.commands.Send(r.Context(), cmd); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, FriendshipResponse{
		UserID:        userID,
		FriendID:      req.FriendID,
		Bidirectional: bidirectional,
	})
}

// RemoveFriendship handles DELETE /users/{userID}/friends/{friendID}
func (h *FriendshipHandler) RemoveFriendship(w http.ResponseWriter, r *http.Request) {
	bidirectional := true
	if raw := r.URL.Query().Get("bidirectional"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			h.errorHandler.Handle(w, r, errors.NewBadRequestError("bidirectional must be a boolean"))
			return
		}
		bidirectional = parsed
	}

	cmd := commands.RemoveFriendshipCommand{
		UserID:        chi.URLParam(r, "userID"),
		FriendID:      chi.URLParam(r, "friendID"),
		Bidirectional: bidirectional,
	}
	if err := h.commands.Send(r.Context(), cmd); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseDegree accepts only the integers 1, 2 and 3
func parseDegree(raw string) (int, error) {
	degree, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewInvalidDegreeError(0).WithDetails(map[string]interface{}{
			"degree":  raw,
			"allowed": []int{1, 2, 3},
		})
	}
	if degree < 1 || degree > 3 {
		return 0, errors.NewInvalidDegreeError(degree)
	}
	return degree, nil
}
