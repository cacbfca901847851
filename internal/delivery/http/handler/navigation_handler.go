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

// NavigationHandler serves the navigation session lifecycle.
type NavigationHandler struct {
	navigationUC *usecase.NavigationUseCase
	logger       *zap.Logger
}

func NewNavigationHandler(navigationUC *usecase.NavigationUseCase, logger *zap.Logger) *NavigationHandler {
	return &NavigationHandler{
		navigationUC: navigationUC,
		logger:       logger,
	}
}

// Start godoc
// @Summary Start a navigation session
// @Tags Navigation
// @Accept json
// @Produce json
// @Param request body dto.StartSessionRequest true "Trip origin, destination and options"
// @Success 201 {object} utils.SuccessResponse{data=dto.SessionResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/navigation/sessions [post]
func (h *NavigationHandler) Start(c *fiber.Ctx) error {
	var req dto.StartSessionRequest
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

	session, err := h.navigationUC.StartSession(c.Context(), origin, destination, domain.RouteOptions{
		AvoidTolls:    req.AvoidTolls,
		AvoidHighways: req.AvoidHighways,
	}, req.PreferSafer)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendCreated(c, dto.SessionResponse{Session: session})
}

// Get godoc
// @Summary Get a navigation session
// @Tags Navigation
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} utils.SuccessResponse{data=dto.SessionResponse}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/navigation/sessions/{id} [get]
func (h *NavigationHandler) Get(c *fiber.Ctx) error {
	session, err := h.navigationUC.GetSession(c.Context(), c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, dto.SessionResponse{Session: session}, nil)
}

// UpdatePosition godoc
// @Summary Report the current position
// @Description Updates the trip position and runs the deviation and traffic checks. The result reports whether the route changed and how travel time moved.
// @Tags Navigation
// @Accept json
// @Produce json
// @Param id path string true "Session id"
// @Param request body dto.UpdatePositionRequest true "Current position"
// @Success 200 {object} utils.SuccessResponse{data=domain.RouteRecalculationResult}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/navigation/sessions/{id}/position [post]
func (h *NavigationHandler) UpdatePosition(c *fiber.Ctx) error {
	var req dto.UpdatePositionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	pos, err := domain.NewCoordinates(req.Lat, req.Lon)
	if err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.navigationUC.UpdatePosition(c.Context(), c.Params("id"), pos)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, result, nil)
}

// DecideAlternative godoc
// @Summary Accept or reject a pending traffic alternative
// @Tags Navigation
// @Accept json
// @Produce json
// @Param id path string true "Session id"
// @Param request body dto.AlternativeDecisionRequest true "Decision"
// @Success 200 {object} utils.SuccessResponse{data=dto.SessionResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/navigation/sessions/{id}/alternative [post]
func (h *NavigationHandler) DecideAlternative(c *fiber.Ctx) error {
	var req dto.AlternativeDecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	session, err := h.navigationUC.DecideAlternative(c.Context(), c.Params("id"), req.Accept)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, dto.SessionResponse{Session: session}, nil)
}

// End godoc
// @Summary End a navigation session
// @Tags Navigation
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} utils.SuccessResponse{data=dto.SessionResponse}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/navigation/sessions/{id} [delete]
func (h *NavigationHandler) End(c *fiber.Ctx) error {
	session, err := h.navigationUC.EndSession(c.Context(), c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, dto.SessionResponse{Session: session}, nil)
}
