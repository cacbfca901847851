package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/saferoute-service/internal/domain"
	"github.com/saferoute-service/internal/pkg/utils"
	"github.com/saferoute-service/internal/pkg/validator"
	"github.com/saferoute-service/internal/usecase"
	"github.com/saferoute-service/internal/usecase/dto"
)

// RouteHandler serves route calculation with risk overlay.
type RouteHandler struct {
	routeUC *usecase.RouteRiskUseCase
	logger  *zap.Logger
}

func NewRouteHandler(routeUC *usecase.RouteRiskUseCase, logger *zap.Logger) *RouteHandler {
	return &RouteHandler{
		routeUC: routeUC,
		logger:  logger,
	}
}

// Calculate godoc
// @Summary Calculate a route with risk overlay
// @Description Computes a driving route and annotates it with the risk of the regions it crosses. With prefer_safer set, a qualifying safer alternative is returned alongside.
// @Tags Routes
// @Accept json
// @Produce json
// @Param request body dto.CalculateRouteRequest true "Origin, destination and options"
// @Success 200 {object} utils.SuccessResponse{data=dto.RouteResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/routes/calculate [post]
func (h *RouteHandler) Calculate(c *fiber.Ctx) error {
	var req dto.CalculateRouteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	origin, err := domain.NewCoordinates(req.Origin.Lat, req.Origin.Lon)
	if err != nil {
		return utils.SendError(c, err)
	}
	destination, err := domain.NewCoordinates(req.Destination.Lat, req.Destination.Lon)
	if err != nil {
		return utils.SendError(c, err)
	}

	opts := domain.RouteOptions{
		AvoidTolls:    req.AvoidTolls,
		AvoidHighways: req.AvoidHighways,
	}
	primary, safer, err := h.routeUC.CalculateRoute(c.Context(), origin, destination, opts, req.PreferSafer)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, dto.RouteResponse{Route: primary, Safer: safer}, nil)
}
