package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"regdesk/internal/platform/metrics"
	"regdesk/internal/platform/middleware"
	"regdesk/internal/registration/models"
	"regdesk/internal/registration/service"
	dErrors "regdesk/pkg/domain-errors"
	"regdesk/pkg/platform/httputil"
	"regdesk/pkg/platform/middleware/device"
	"regdesk/pkg/requestcontext"
)

// maxBodyBytes caps form payloads; the largest legitimate draft is well under it.
const maxBodyBytes = 64 << 10

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the form controller operations exposed over HTTP.
type Service interface {
	SaveInput(ctx context.Context, deviceID string, fields map[string]any) error
	Restore(ctx context.Context, deviceID string) (*service.FormView, error)
	Submit(ctx context.Context, deviceID string, req models.SubmitRequest) (*models.SubmitResult, error)
	Reset(ctx context.Context, deviceID string) error
}

// Handler serves the registration form endpoints.
type Handler struct {
	logger        *slog.Logger
	registration  Service
	metrics       *metrics.Metrics
	secureCookies bool
}

// New creates a registration Handler. metrics may be nil.
func New(registration Service, logger *slog.Logger, metrics *metrics.Metrics, secureCookies bool) *Handler {
	return &Handler{
		logger:        logger,
		registration:  registration,
		metrics:       metrics,
		secureCookies: secureCookies,
	}
}

// Register registers the registration routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	formRouter := chi.NewRouter()
	formRouter.Use(middleware.ContentTypeJSON)
	formRouter.Use(middleware.LatencyMiddleware(h.metrics))
	formRouter.Use(device.Middleware(h.secureCookies))
	formRouter.Get("/form", h.handleRestore)
	formRouter.Put("/draft", h.handleSaveDraft)
	formRouter.Post("/submit", h.handleSubmit)
	formRouter.Post("/reset", h.handleReset)

	r.Mount("/registration", formRouter)
}

// handleRestore returns the form controls populated from the device's draft.
func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	deviceID := device.GetDeviceID(ctx)

	view, err := h.registration.Restore(ctx, deviceID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to restore form")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// handleSaveDraft autosaves the current field values.
func (h *Handler) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	deviceID := device.GetDeviceID(ctx)

	var fields map[string]any
	if !h.decode(w, r, &fields) {
		return
	}
	if err := h.registration.SaveInput(ctx, deviceID, fields); err != nil {
		h.writeServiceError(ctx, w, err, "failed to save draft")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSubmit runs a submit attempt and maps its outcome to a status code.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	deviceID := device.GetDeviceID(ctx)

	var req models.SubmitRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.registration.Submit(ctx, deviceID, req)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to submit form")
		return
	}

	switch result.Outcome {
	case models.OutcomeAccepted:
		httputil.WriteJSON(w, http.StatusOK, submitAccepted{State: result.State, Redirect: result.Redirect})
	case models.OutcomeInvalid:
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, submitInvalid{
			Error:  string(dErrors.CodeValidation),
			State:  result.State,
			Fields: result.Errors,
		})
	case models.OutcomeDuplicate:
		httputil.WriteError(w, dErrors.New(dErrors.CodeConflict, result.Notice))
	default:
		h.logger.ErrorContext(ctx, "unknown submit outcome",
			"request_id", middleware.GetRequestID(ctx),
			"outcome", string(result.Outcome),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "unknown submit outcome"))
	}
}

// handleReset clears the draft and any displayed errors.
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.registration.Reset(ctx, device.GetDeviceID(ctx)); err != nil {
		h.writeServiceError(ctx, w, err, "failed to reset form")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.WarnContext(ctx, "invalid registration request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return false
	}
	return true
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	de, ok := dErrors.As(err)
	if !ok || httputil.StatusFor(de.Code) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"device_id", device.GetDeviceID(ctx),
			"device", requestcontext.DeviceLabel(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

type submitAccepted struct {
	State    models.State `json:"state"`
	Redirect string       `json:"redirect"`
}

type submitInvalid struct {
	Error  string             `json:"error"`
	State  models.State       `json:"state"`
	Fields models.FieldErrors `json:"fields"`
}
