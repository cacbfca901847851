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

// OccurrenceHandler serves occurrence ingestion and moderation.
type OccurrenceHandler struct {
	occurrenceUC *usecase.OccurrenceUseCase
	logger       *zap.Logger
}

func NewOccurrenceHandler(occurrenceUC *usecase.OccurrenceUseCase, logger *zap.Logger) *OccurrenceHandler {
	return &OccurrenceHandler{
		occurrenceUC: occurrenceUC,
		logger:       logger,
	}
}

// Create godoc
// @Summary Report a crime occurrence
// @Description Ingests a collaborative or official occurrence. Collaborative reports must originate near the reported location and are rate limited per reporter.
// @Tags Occurrences
// @Accept json
// @Produce json
// @Param request body dto.CreateOccurrenceRequest true "Occurrence payload"
// @Success 201 {object} utils.SuccessResponse{data=dto.CreateOccurrenceResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Failure 429 {object} utils.ErrorResponse
// @Router /api/v1/occurrences [post]
func (h *OccurrenceHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateOccurrenceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	location, err := domain.NewCoordinates(req.Location.Lat, req.Location.Lon)
	if err != nil {
		return utils.SendError(c, err)
	}
	reporterLocation, err := domain.NewCoordinates(req.ReporterLocation.Lat, req.ReporterLocation.Lon)
	if err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.occurrenceUC.Create(c.Context(), usecase.CreateOccurrenceInput{
		Location:         location,
		ReporterLocation: reporterLocation,
		CrimeType:        req.CrimeType,
		Severity:         domain.Severity(req.Severity),
		Source:           domain.OccurrenceSource(req.Source),
		Timestamp:        req.Timestamp,
		ReporterID:       req.ReporterID,
	})
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendCreated(c, dto.CreateOccurrenceResponse{
		Occurrence:       result.Occurrence,
		RemainingReports: result.RemainingReports,
	})
}

// Merge godoc
// @Summary Merge duplicate occurrences
// @Description Marks all non-target occurrences as merged into the target and raises the target's confidence by the merged count, within the cap.
// @Tags Occurrences
// @Accept json
// @Produce json
// @Param request body dto.MergeOccurrencesRequest true "Occurrence ids and merge target"
// @Success 200 {object} utils.SuccessResponse{data=dto.MergeOccurrencesResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/occurrences/merge [post]
func (h *OccurrenceHandler) Merge(c *fiber.Ctx) error {
	var req dto.MergeOccurrencesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	target, err := h.occurrenceUC.Merge(c.Context(), req.IDs, req.TargetID, req.ActorID)
	if err != nil {
		return utils.SendError(c, err)
	}

	merged := make([]string, 0, len(req.IDs))
	for _, id := range req.IDs {
		if id != req.TargetID {
			merged = append(merged, id)
		}
	}
	return utils.SendSuccess(c, dto.MergeOccurrencesResponse{
		TargetID:   target.ID,
		MergedIDs:  merged,
		Confidence: target.ConfidenceScore,
	}, nil)
}
