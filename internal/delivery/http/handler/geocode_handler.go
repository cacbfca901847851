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

type GeocodeHandler struct {
	geocodeUC *usecase.GeocodeUseCase
	logger    *zap.Logger
}

func NewGeocodeHandler(geocodeUC *usecase.GeocodeUseCase, logger *zap.Logger) *GeocodeHandler {
	return &GeocodeHandler{
		geocodeUC: geocodeUC,
		logger:    logger,
	}
}

// Geocode godoc
// @Summary Resolve a free-text address
// @Description Resolves a search query to up to five candidate addresses. An empty list means no results.
// @Tags Geocoding
// @Accept json
// @Produce json
// @Param request body dto.GeocodeRequest true "Search query"
// @Success 200 {object} utils.SuccessResponse{data=dto.GeocodeResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/geocode [post]
func (h *GeocodeHandler) Geocode(c *fiber.Ctx) error {
	var req dto.GeocodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	results, err := h.geocodeUC.Search(c.Context(), req.Query)
	if err != nil {
		return utils.SendError(c, err)
	}
	if results == nil {
		results = []domain.Address{}
	}

	return utils.SendSuccess(c, dto.GeocodeResponse{Results: results}, &utils.Meta{Total: len(results)})
}

// ReverseGeocode godoc
// @Summary Resolve coordinates to an address
// @Tags Geocoding
// @Accept json
// @Produce json
// @Param request body dto.ReverseGeocodeRequest true "Point coordinates"
// @Success 200 {object} utils.SuccessResponse{data=domain.Address}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/reverse-geocode [post]
func (h *GeocodeHandler) ReverseGeocode(c *fiber.Ctx) error {
	var req dto.ReverseGeocodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	coords, err := domain.NewCoordinates(req.Lat, req.Lon)
	if err != nil {
		return utils.SendError(c, err)
	}

	address, err := h.geocodeUC.Reverse(c.Context(), coords)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, address, nil)
}
