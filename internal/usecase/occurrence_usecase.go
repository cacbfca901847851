package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saferoute-service/internal/config"
	"github.com/saferoute-service/internal/domain"
	"github.com/saferoute-service/internal/domain/repository"
	"github.com/saferoute-service/internal/pkg/errors"
	"github.com/saferoute-service/internal/pkg/metrics"
)

// CreateOccurrenceInput is the validated ingestion payload.
type CreateOccurrenceInput struct {
	Location         domain.Coordinates
	ReporterLocation domain.Coordinates
	CrimeType        string
	Severity         domain.Severity
	Source           domain.OccurrenceSource
	Timestamp        time.Time
	ReporterID       string
}

// CreateOccurrenceResult is the ingestion outcome, including how many
// submissions the reporter has left in the current window.
type CreateOccurrenceResult struct {
	Occurrence       *domain.Occurrence
	RemainingReports int
}

// OccurrenceUseCase runs the ingestion pipeline: validation, proximity
// check, rate limiting, confidence and expiry assignment, region
// resolution, corroboration, anomaly handoff and recompute scheduling.
type OccurrenceUseCase struct {
	occurrences repository.OccurrenceRepository
	regions     repository.RegionRepository
	rateLimits  repository.RateLimitRepository
	streams     repository.StreamRepository
	flagger     repository.AnomalyFlagger
	audit       repository.AuditRepository
	cache       repository.CacheRepository
	cfg         config.IngestConfig
	logger      *zap.Logger
	nowFn       func() time.Time
}

func NewOccurrenceUseCase(
	occurrences repository.OccurrenceRepository,
	regions repository.RegionRepository,
	rateLimits repository.RateLimitRepository,
	streams repository.StreamRepository,
	flagger repository.AnomalyFlagger,
	audit repository.AuditRepository,
	cache repository.CacheRepository,
	cfg config.IngestConfig,
	logger *zap.Logger,
) *OccurrenceUseCase {
	return &OccurrenceUseCase{
		occurrences: occurrences,
		regions:     regions,
		rateLimits:  rateLimits,
		streams:     streams,
		flagger:     flagger,
		audit:       audit,
		cache:       cache,
		cfg:         cfg,
		logger:      logger,
		nowFn:       time.Now,
	}
}

func (uc *OccurrenceUseCase) Create(ctx context.Context, input CreateOccurrenceInput) (*CreateOccurrenceResult, error) {
	now := uc.nowFn().UTC()

	if err := uc.validateInput(input, now); err != nil {
		return nil, err
	}

	remaining := 0
	if input.Source == domain.SourceCollaborative {
		// Reporter must be near the reported location; remote reports are
		// rejected before they cost a rate-limit slot.
		distance := input.ReporterLocation.DistanceTo(input.Location)
		if distance > uc.cfg.MaxReporterDistance {
			return nil, errors.ErrLocationTooFar.WithDetails(map[string]interface{}{
				"distance_meters": distance,
				"max_meters":      uc.cfg.MaxReporterDistance,
			})
		}

		count, resetAt, err := uc.rateLimits.Increment(ctx, input.ReporterID, time.Hour)
		if err != nil {
			return nil, err
		}
		if count > uc.cfg.RateLimitPerHour {
			return nil, errors.ErrRateLimitExceeded.WithDetails(map[string]interface{}{
				"limit":    uc.cfg.RateLimitPerHour,
				"reset_at": resetAt,
			})
		}
		remaining = uc.cfg.RateLimitPerHour - count
	}

	occ := &domain.Occurrence{
		ID:        uuid.New().String(),
		Timestamp: input.Timestamp.UTC(),
		Location:  input.Location,
		CrimeType: input.CrimeType,
		Severity:  input.Severity,
		Source:    input.Source,
		Status:    domain.OccurrenceActive,
		CreatedAt: now,
	}
	if input.Source == domain.SourceOfficial {
		occ.ConfidenceScore = domain.OfficialConfidence
	} else {
		occ.ConfidenceScore = domain.CollaborativeBaseConfidence
		occ.ReporterID = input.ReporterID
		expires := now.Add(uc.cfg.CollaborativeExpiry)
		occ.ExpiresAt = &expires
	}

	if region, err := uc.resolveRegion(ctx, input.Location); err != nil {
		return nil, err
	} else if region != nil {
		occ.RegionID = region.ID
	}

	if err := uc.occurrences.Create(ctx, occ); err != nil {
		return nil, err
	}
	metrics.OccurrencesIngested.WithLabelValues(string(occ.Source)).Inc()

	if err := uc.corroborate(ctx, occ); err != nil {
		// Corroboration is a best-effort enrichment; the record is already
		// stored.
		uc.logger.Warn("Corroboration pass failed", zap.String("occurrence_id", occ.ID), zap.Error(err))
	}

	if occ.Source == domain.SourceCollaborative {
		if err := uc.flagger.Flag(ctx, occ, "ingest"); err != nil {
			uc.logger.Warn("Anomaly handoff failed", zap.String("occurrence_id", occ.ID), zap.Error(err))
		}
	}

	if occ.RegionID != "" {
		uc.scheduleRecompute(ctx, occ.RegionID)
	}

	return &CreateOccurrenceResult{Occurrence: occ, RemainingReports: remaining}, nil
}

// Merge marks every non-target id as merged into the target and raises the
// target's confidence by the merged count, capped at its ceiling.
func (uc *OccurrenceUseCase) Merge(ctx context.Context, ids []string, targetID, actorID string) (*domain.Occurrence, error) {
	target, err := uc.occurrences.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	merged := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == targetID {
			continue
		}
		if err := uc.occurrences.UpdateStatus(ctx, id, domain.OccurrenceMerged, targetID); err != nil {
			return nil, err
		}
		merged = append(merged, id)
	}
	if len(merged) == 0 {
		return nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"reason": "nothing to merge besides the target",
		})
	}

	confidence := target.ConfidenceScore + len(merged)
	if ceiling := target.ConfidenceCeiling(); confidence > ceiling {
		confidence = ceiling
	}
	if confidence != target.ConfidenceScore {
		if err := uc.occurrences.UpdateConfidence(ctx, targetID, confidence); err != nil {
			return nil, err
		}
		target.ConfidenceScore = confidence
	}

	if err := uc.audit.Record(ctx, "occurrences.merge", actorID, map[string]interface{}{
		"target_id":  targetID,
		"merged_ids": merged,
	}); err != nil {
		uc.logger.Warn("Audit record failed", zap.String("action", "occurrences.merge"), zap.Error(err))
	}

	if target.RegionID != "" {
		uc.scheduleRecompute(ctx, target.RegionID)
	}
	return target, nil
}

// ExpireBatch processes collaborative occurrences past their expiry.
// Preserved records (confidence at the cap or an official validation on
// file) get another expiry period instead of expiring. Returns the region
// ids whose indexes were affected.
func (uc *OccurrenceUseCase) ExpireBatch(ctx context.Context, limit int) ([]string, error) {
	now := uc.nowFn().UTC()

	candidates, err := uc.occurrences.FindExpiredCandidates(ctx, now, limit)
	if err != nil {
		return nil, err
	}

	affected := make(map[string]struct{})
	for _, occ := range candidates {
		preserved := occ.ConfidenceScore >= domain.CollaborativeMaxConfidence
		if !preserved {
			validated, err := uc.occurrences.HasValidationRecord(ctx, occ.ID)
			if err != nil {
				return nil, err
			}
			preserved = validated
		}

		if preserved {
			if err := uc.occurrences.ExtendExpiry(ctx, occ.ID, now.Add(uc.cfg.CollaborativeExpiry)); err != nil {
				return nil, err
			}
			continue
		}

		if err := uc.occurrences.UpdateStatus(ctx, occ.ID, domain.OccurrenceExpired, ""); err != nil {
			return nil, err
		}
		if occ.RegionID != "" {
			affected[occ.RegionID] = struct{}{}
		}
	}

	regions := make([]string, 0, len(affected))
	for id := range affected {
		regions = append(regions, id)
		uc.scheduleRecompute(ctx, id)
	}
	if len(candidates) > 0 {
		uc.logger.Info("Expiration batch processed",
			zap.Int("candidates", len(candidates)),
			zap.Int("regions_affected", len(regions)))
	}
	return regions, nil
}

func (uc *OccurrenceUseCase) validateInput(input CreateOccurrenceInput, now time.Time) error {
	if !input.Severity.Valid() {
		return errors.ErrValidation.WithDetails(map[string]interface{}{"field": "severity"})
	}
	if input.CrimeType == "" {
		return errors.ErrValidation.WithDetails(map[string]interface{}{"field": "crime_type"})
	}
	if input.Source != domain.SourceCollaborative && input.Source != domain.SourceOfficial {
		return errors.ErrValidation.WithDetails(map[string]interface{}{"field": "source"})
	}
	if input.Timestamp.After(now.Add(time.Minute)) {
		return errors.ErrValidation.WithDetails(map[string]interface{}{
			"field":  "timestamp",
			"reason": "timestamp is in the future",
		})
	}
	if input.Source == domain.SourceCollaborative && input.ReporterID == "" {
		return errors.ErrValidation.WithDetails(map[string]interface{}{"field": "reporter_id"})
	}
	return nil
}

func (uc *OccurrenceUseCase) resolveRegion(ctx context.Context, point domain.Coordinates) (*domain.Region, error) {
	regions, err := uc.regions.FindContaining(ctx, point)
	if err != nil {
		return nil, err
	}
	return domain.MostSpecific(regions, point), nil
}

// corroborate links the new occurrence to active reports of the same type
// nearby in space and time, raising confidence on both sides within the
// collaborative cap.
func (uc *OccurrenceUseCase) corroborate(ctx context.Context, occ *domain.Occurrence) error {
	matches, err := uc.occurrences.FindNear(ctx, occ.Location, uc.cfg.CorroborationRadius, domain.OccurrenceFilter{
		CrimeType: occ.CrimeType,
		Statuses:  []domain.OccurrenceStatus{domain.OccurrenceActive},
		Since:     occ.Timestamp.Add(-uc.cfg.CorroborationWindow),
		Until:     occ.Timestamp.Add(uc.cfg.CorroborationWindow),
	})
	if err != nil {
		return err
	}

	corroborations := 0
	for _, match := range matches {
		if match.ID == occ.ID {
			continue
		}
		if match.ReporterID != "" && match.ReporterID == occ.ReporterID {
			continue
		}

		if err := uc.occurrences.AddCorroboration(ctx, domain.CorroborationLink{
			OccurrenceID:   match.ID,
			CorroboratedBy: occ.ID,
			CreatedAt:      uc.nowFn().UTC(),
		}); err != nil {
			return err
		}

		if bumped := bumpConfidence(match); bumped {
			if err := uc.occurrences.UpdateConfidence(ctx, match.ID, match.ConfidenceScore); err != nil {
				return err
			}
		}
		corroborations++
	}

	if corroborations > 0 && bumpConfidence(occ) {
		if err := uc.occurrences.UpdateConfidence(ctx, occ.ID, occ.ConfidenceScore); err != nil {
			return err
		}
	}
	return nil
}

// bumpConfidence raises confidence by one within the source's ceiling and
// reports whether anything changed.
func bumpConfidence(occ *domain.Occurrence) bool {
	if occ.ConfidenceScore >= occ.ConfidenceCeiling() {
		return false
	}
	occ.ConfidenceScore++
	return true
}

// scheduleRecompute enqueues a region recompute job, debounced so a burst
// of reports in one region produces a single job.
func (uc *OccurrenceUseCase) scheduleRecompute(ctx context.Context, regionID string) {
	key := "recompute:debounce:" + regionID
	exists, err := uc.cache.Exists(ctx, key)
	if err == nil && exists {
		return
	}
	if err := uc.cache.Set(ctx, key, []byte("1"), uc.cfg.RecomputeDebounce); err != nil {
		uc.logger.Warn("Recompute debounce mark failed", zap.String("region_id", regionID), zap.Error(err))
	}

	job := domain.RiskRecomputeJob{RegionID: regionID, EnqueuedAt: uc.nowFn().UTC()}
	if err := uc.streams.Publish(ctx, domain.StreamRiskRecompute, job); err != nil {
		uc.logger.Error("Failed to enqueue risk recompute", zap.String("region_id", regionID), zap.Error(err))
	}
}
