package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/saferoute-service/internal/domain"
	"github.com/saferoute-service/internal/pkg/utils"
	"github.com/saferoute-service/internal/usecase"
	"github.com/saferoute-service/internal/usecase/dto"
)

type RiskHandler struct {
	riskUC *usecase.RiskIndexUseCase
	logger *zap.Logger
}

func NewRiskHandler(riskUC *usecase.RiskIndexUseCase, logger *zap.Logger) *RiskHandler {
	return &RiskHandler{
		riskUC: riskUC,
		logger: logger,
	}
}

// GetByRegion godoc
// @Summary Get a region's risk index
// @Tags Risk
// @Produce json
// @Param id path string true "Region id"
// @Success 200 {object} utils.SuccessResponse{data=dto.RiskResponse}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/risk/regions/{id} [get]
func (h *RiskHandler) GetByRegion(c *fiber.Ctx) error {
	index, err := h.riskUC.GetByRegion(c.Context(), c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, dto.RiskResponse{Risk: index}, nil)
}

// GetByCoordinate godoc
// @Summary Get the risk index at a coordinate
// @Description Resolves the most specific region containing the point and returns its index.
// @Tags Risk
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Success 200 {object} utils.SuccessResponse{data=dto.RiskResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/risk/by-coordinate [get]
func (h *RiskHandler) GetByCoordinate(c *fiber.Ctx) error {
	lat := c.QueryFloat("lat")
	lon := c.QueryFloat("lon")

	point, err := domain.NewCoordinates(lat, lon)
	if err != nil {
		return utils.SendError(c, err)
	}

	index, err := h.riskUC.GetByCoordinate(c.Context(), point)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, dto.RiskResponse{Risk: index}, nil)
}
