package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"regdesk/internal/availability"
	dErrors "regdesk/pkg/domain-errors"
	"regdesk/pkg/platform/httputil"
	"regdesk/pkg/requestcontext"
)

// Service defines the availability check used by the handler.
type Service interface {
	Check(ctx context.Context, username string) (availability.Result, error)
}

// Handler wires the check-username endpoint to the availability service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/check-username", h.HandleCheck)
}

// CheckRequest is the body of POST /api/check-username.
type CheckRequest struct {
	Username string `json:"username"`
}

// CheckResponse is the success body of POST /api/check-username.
type CheckResponse struct {
	OK    bool `json:"ok"`
	Taken bool `json:"taken"`
}

// HandleCheck handles POST /api/check-username.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.DecodeJSON[CheckRequest](w, r)
	if err != nil {
		httputil.WriteFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.Check(ctx, req.Username)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeBadRequest) {
			httputil.WriteFailure(w, http.StatusBadRequest, "No username provided")
			return
		}
		h.logger.ErrorContext(ctx, "check username failed",
			"request_id", requestcontext.RequestID(ctx),
			"code", dErrors.CodeOf(err),
			"error", err,
		)
		httputil.WriteFailure(w, http.StatusInternalServerError, "Unable to check username")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, CheckResponse{OK: true, Taken: result.Taken})
}
