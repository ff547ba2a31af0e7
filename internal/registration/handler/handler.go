package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"regdesk/internal/registration/models"
	"regdesk/internal/registration/validation"
	dErrors "regdesk/pkg/domain-errors"
	"regdesk/pkg/platform/httputil"
	"regdesk/pkg/requestcontext"
)

// Client-facing messages.
const (
	MsgRegistered       = "Registered successfully"
	MsgMissingFields    = "Missing required fields"
	MsgValidationFailed = "Validation failed"
	MsgUsernameTaken    = "Username already exists"
	MsgUnableToSave     = "Unable to save user"
	MsgUnableToLoad     = "Unable to load users"
	MsgInvalidBody      = "Invalid request body"
)

// Service defines the registration operations used by the handler.
type Service interface {
	Register(ctx context.Context, c models.Candidate) (*models.Record, error)
	List(ctx context.Context) ([]*models.Record, error)
}

// Handler wires registration endpoints to the registration service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a registration handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts registration endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/register", h.HandleRegister)
	r.Get("/api/users", h.HandleListUsers)
}

// HandleRegister handles POST /api/register.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, err := httputil.DecodeJSON[RegisterRequest](w, r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid register body",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteFailure(w, http.StatusBadRequest, MsgInvalidBody)
		return
	}
	if req.MissingRequired() {
		httputil.WriteFailure(w, http.StatusBadRequest, MsgMissingFields)
		return
	}

	record, err := h.service.Register(ctx, req.Candidate())
	if err != nil {
		h.writeRegisterError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "user registered",
		"request_id", requestID,
		"username", record.Username,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, httputil.Message{OK: true, Message: MsgRegistered})
}

func (h *Handler) writeRegisterError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case dErrors.HasCode(err, dErrors.CodeValidation):
		var verrs validation.Errors
		failure := httputil.Failure{Message: MsgValidationFailed}
		if errors.As(err, &verrs) {
			failure.Errors = make(map[string]string, len(verrs))
			for field, msg := range verrs {
				failure.Errors[string(field)] = msg
			}
		}
		httputil.WriteJSON(w, http.StatusBadRequest, failure)
	case dErrors.HasCode(err, dErrors.CodeConflict):
		httputil.WriteFailure(w, http.StatusBadRequest, MsgUsernameTaken)
	default:
		h.logger.ErrorContext(ctx, "registration failed",
			"request_id", requestcontext.RequestID(ctx),
			"code", dErrors.CodeOf(err),
			"error", err,
		)
		httputil.WriteFailure(w, http.StatusInternalServerError, MsgUnableToSave)
	}
}

// HandleListUsers handles GET /api/users.
func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list users failed",
			"request_id", requestcontext.RequestID(ctx),
			"code", dErrors.CodeOf(err),
			"error", err,
		)
		httputil.WriteFailure(w, http.StatusInternalServerError, MsgUnableToLoad)
		return
	}

	resp := make([]UserResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toUserResponse(rec))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
