package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pinpool/internal/pin/models"
	"pinpool/internal/platform/metrics"
	"pinpool/internal/platform/middleware"
	dErrors "pinpool/pkg/domain-errors"
	"pinpool/pkg/platform/httputil"
	"pinpool/pkg/platform/middleware/metadata"
	"pinpool/pkg/platform/middleware/requesttime"
)

// maxBodyBytes caps POST /pins bodies; a quantity fits in a few bytes.
const maxBodyBytes = 1 << 10

//go:generate mockgen -source=handler.go -destination=mocks/pin-mocks.go -package=mocks Service

// Service defines the allocation operations the HTTP surface exposes.
type Service interface {
	RequestPINs(ctx context.Context, quantity int) ([]*models.PIN, error)
	Stats(ctx context.Context) (*models.PoolStats, error)
	Rollover(ctx context.Context) error
	IsBootstrapped() bool
}

// Handler serves the PIN allocation endpoints.
type Handler struct {
	logger  *slog.Logger
	pins    Service
	metrics *metrics.Metrics
	timeout time.Duration
}

// New creates a PIN Handler. timeout bounds each request; zero disables it.
func New(pins Service, logger *slog.Logger, metrics *metrics.Metrics, timeout time.Duration) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		logger:  logger,
		pins:    pins,
		metrics: metrics,
		timeout: timeout,
	}
}

// Register registers the PIN routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	pinRouter := chi.NewRouter()
	pinRouter.Use(middleware.Recovery(h.logger))
	pinRouter.Use(middleware.RequestID)
	pinRouter.Use(requesttime.Middleware)
	pinRouter.Use(metadata.ClientMetadata)
	pinRouter.Use(middleware.Logger(h.logger))
	pinRouter.Use(middleware.Timeout(h.timeout))
	pinRouter.Use(middleware.ContentTypeJSON)
	pinRouter.Use(middleware.LatencyMiddleware(h.metrics))

	pinRouter.Post("/pins", h.handleRequestPINs)
	pinRouter.Get("/pins/stats", h.handleStats)
	pinRouter.Post("/admin/pins/rollover", h.handleRollover)
	pinRouter.Get("/healthz", h.handleHealth)

	r.Mount("/", pinRouter)
}

// handleRequestPINs allocates the requested number of codes.
func (h *Handler) handleRequestPINs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req models.GenerateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.WarnContext(ctx, "invalid pin request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	quantity := req.QuantityOrDefault()
	pins, err := h.pins.RequestPINs(ctx, quantity)
	if err != nil {
		h.logFailure(ctx, "failed to allocate pins", err, "quantity", quantity)
		httputil.WriteError(w, err)
		return
	}

	codes := models.Codes(pins)
	httputil.WriteJSON(w, http.StatusOK, models.GenerateResponse{PINs: codes, Count: len(codes)})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.pins.Stats(r.Context())
	if err != nil {
		h.logFailure(r.Context(), "failed to read pool stats", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleRollover(w http.ResponseWriter, r *http.Request) {
	if err := h.pins.Rollover(r.Context()); err != nil {
		h.logFailure(r.Context(), "failed to reset allocation", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, models.HealthResponse{
		Status:       "ok",
		Bootstrapped: h.pins.IsBootstrapped(),
	})
}

// logFailure logs expected rejections at warn and everything else at error.
func (h *Handler) logFailure(ctx context.Context, msg string, err error, attrs ...any) {
	attrs = append(attrs,
		"request_id", middleware.GetRequestID(ctx),
		"code", string(dErrors.CodeOf(err)),
		"error", err.Error(),
	)
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInvalidArgument, dErrors.CodeBadRequest, dErrors.CodeCapacityExceeded:
		h.logger.WarnContext(ctx, msg, attrs...)
	default:
		h.logger.ErrorContext(ctx, msg, attrs...)
	}
}
