package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"friendship-backend/application/commands/bus"
	querybus "friendship-backend/application/queries/bus"
	apperrors "friendship-backend/pkg/errors"

	"go.uber.org/zap"
)

// CommandSender dispatches commands
type CommandSender interface {
	Send(ctx context.Context, cmd bus.Command) error
}

// QueryAsker dispatches queries
type QueryAsker interface {
	Ask(ctx context.Context, query querybus.Query) (interface{}, error)
}

// maxBodyBytes bounds every JSON request body
const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// decodeJSON reads a single JSON object into dst. Malformed input is a bad
// request, never a validation failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.NewBadRequestError("request body is required")
		}
		return apperrors.NewBadRequestError("invalid request body").WithCause(err)
	}
	if dec.More() {
		return apperrors.NewBadRequestError("request body must contain a single JSON object")
	}
	return nil
}
