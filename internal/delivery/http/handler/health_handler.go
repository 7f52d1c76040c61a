package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// HealthChecker - зависимость, доступность которой проверяется в /health
type HealthChecker interface {
	Health(ctx context.Context) error
}

const healthTimeout = 2 * time.Second

// HealthHandler - проверка состояния сервиса
type HealthHandler struct {
	checks map[string]HealthChecker
	logger *zap.Logger
}

// NewHealthHandler - создание нового HealthHandler
func NewHealthHandler(checks map[string]HealthChecker, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		checks: checks,
		logger: logger,
	}
}

// Health godoc
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/v1/health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), healthTimeout)
	defer cancel()

	status := "healthy"
	code := fiber.StatusOK
	deps := make(fiber.Map, len(h.checks))
	for name, check := range h.checks {
		if err := check.Health(ctx); err != nil {
			h.logger.Warn("Health check failed", zap.String("dependency", name), zap.Error(err))
			deps[name] = err.Error()
			status = "unhealthy"
			code = fiber.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	return c.Status(code).JSON(fiber.Map{
		"status":       status,
		"dependencies": deps,
		"time":         time.Now(),
	})
}
