package health

import (
	"context"
	"time"

	"artifact-store/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Engine is the part of bucket.Engine the health check needs.
type Engine interface {
	Start(ctx context.Context) error
	Started() bool
}

// Handler answers liveness and readiness probes.
type Handler struct {
	engine  Engine
	bucket  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(engine Engine, bucket string, timeout time.Duration, logger *zap.Logger) *Handler {
	return &Handler{engine: engine, bucket: bucket, timeout: timeout, logger: logger}
}

// RegisterRoutes registers the health routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/health", h.HandleHealth)
	app.Get("/ready", h.HandleReady)
}

// HandleHealth reports that the process is up.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// HandleReady reports whether the storage engine is started. A stopped
// engine gets one start attempt per probe.
func (h *Handler) HandleReady(c *fiber.Ctx) error {
	if !h.engine.Started() {
		ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
		defer cancel()

		if err := h.engine.Start(ctx); err != nil {
			logger.WithRayID(h.logger, c).Warn("Storage engine not ready", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
				"bucket": h.bucket,
				"error":  err.Error(),
			})
		}
	}

	return c.JSON(fiber.Map{"status": "ready", "bucket": h.bucket})
}
