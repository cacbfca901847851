package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saferoute-service/internal/pkg/utils"
	"github.com/saferoute-service/internal/usecase/dto"
)

// HealthChecker is anything that can report its own liveness.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// ProviderChecker reports the availability of each routing provider.
type ProviderChecker interface {
	ProviderHealth(ctx context.Context) map[string]bool
}

type HealthHandler struct {
	db        HealthChecker
	cache     HealthChecker
	providers ProviderChecker
}

func NewHealthHandler(db, cache HealthChecker, providers ProviderChecker) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, providers: providers}
}

// Check godoc
// @Summary Service health
// @Tags Health
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.HealthResponse}
// @Router /api/v1/health [get]
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	resp := dto.HealthResponse{
		Status:   "healthy",
		Time:     time.Now().UTC(),
		Database: "up",
		Cache:    "up",
	}
	if err := h.db.Health(c.Context()); err != nil {
		resp.Status = "degraded"
		resp.Database = "down"
	}
	if err := h.cache.Health(c.Context()); err != nil {
		resp.Status = "degraded"
		resp.Cache = "down"
	}
	if h.providers != nil {
		resp.Providers = make(map[string]string)
		for name, ok := range h.providers.ProviderHealth(c.Context()) {
			if ok {
				resp.Providers[name] = "up"
				continue
			}
			resp.Providers[name] = "down"
			resp.Status = "degraded"
		}
	}
	return utils.SendSuccess(c, resp, nil)
}
