package usecase

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/saferoute-service/internal/config"
	"github.com/saferoute-service/internal/domain"
	"github.com/saferoute-service/internal/domain/repository"
)

// severityContribution maps severity onto the 0-100 factor scale.
var severityContribution = map[domain.Severity]float64{
	domain.SeverityLow:      25,
	domain.SeverityMedium:   50,
	domain.SeverityHigh:     75,
	domain.SeverityCritical: 100,
}

// RiskIndexUseCase computes and serves per-region risk indexes. The
// computation is deterministic for a fixed occurrence set and a fixed
// reference time; recomputation replaces the stored index wholesale.
type RiskIndexUseCase struct {
	occurrences repository.OccurrenceRepository
	regions     repository.RegionRepository
	risks       repository.RiskRepository
	cfg         config.RiskConfig
	logger      *zap.Logger
	nowFn       func() time.Time
}

func NewRiskIndexUseCase(
	occurrences repository.OccurrenceRepository,
	regions repository.RegionRepository,
	risks repository.RiskRepository,
	cfg config.RiskConfig,
	logger *zap.Logger,
) *RiskIndexUseCase {
	return &RiskIndexUseCase{
		occurrences: occurrences,
		regions:     regions,
		risks:       risks,
		cfg:         cfg,
		logger:      logger,
		nowFn:       time.Now,
	}
}

// Recompute recalculates the region's index from active occurrences inside
// the lookback window and stores the replacement.
func (uc *RiskIndexUseCase) Recompute(ctx context.Context, regionID string) (*domain.RiskIndex, error) {
	now := uc.nowFn().UTC()

	occs, err := uc.occurrences.FindInRegion(ctx, regionID, domain.OccurrenceFilter{
		Statuses: []domain.OccurrenceStatus{domain.OccurrenceActive},
		Since:    now.Add(-time.Duration(uc.cfg.LookbackDays) * 24 * time.Hour),
	})
	if err != nil {
		return nil, err
	}

	index := uc.calculate(regionID, occs, now)
	if err := uc.risks.ReplaceForRegion(ctx, index); err != nil {
		return nil, err
	}

	uc.logger.Info("Risk index recomputed",
		zap.String("region_id", regionID),
		zap.Float64("value", index.Value),
		zap.Int("occurrences", index.OccurrenceCount))

	return index, nil
}

// GetByRegion returns the current index, or the zero index when the region
// exists but nothing has been computed yet.
func (uc *RiskIndexUseCase) GetByRegion(ctx context.Context, regionID string) (*domain.RiskIndex, error) {
	index, err := uc.risks.GetByRegion(ctx, regionID)
	if err != nil {
		return nil, err
	}
	if index != nil {
		return index, nil
	}

	// Distinguish "no index yet" from "no such region".
	if _, err := uc.regions.GetByID(ctx, regionID); err != nil {
		return nil, err
	}

	zero := domain.ZeroRiskIndex(regionID)
	return &zero, nil
}

// GetByCoordinate resolves the most specific region containing the point
// and returns its index. Points outside coverage get the zero index, the
// same absent-region treatment the route overlay applies.
func (uc *RiskIndexUseCase) GetByCoordinate(ctx context.Context, point domain.Coordinates) (*domain.RiskIndex, error) {
	regions, err := uc.regions.FindContaining(ctx, point)
	if err != nil {
		return nil, err
	}
	region := domain.MostSpecific(regions, point)
	if region == nil {
		zero := domain.ZeroRiskIndex("")
		return &zero, nil
	}
	return uc.GetByRegion(ctx, region.ID)
}

func (uc *RiskIndexUseCase) calculate(regionID string, occs []*domain.Occurrence, now time.Time) *domain.RiskIndex {
	index := &domain.RiskIndex{
		RegionID:        regionID,
		OccurrenceCount: len(occs),
		CalculatedAt:    now,
	}

	var frequency, recency, severity, confidence float64
	if len(occs) > 0 {
		frequency = math.Min(100, float64(len(occs))*2)

		halfLifeDays := uc.cfg.RecencyHalfLife.Hours() / 24
		var recencySum, severitySum, confidenceSum float64
		counts := make(map[string]int)
		for _, o := range occs {
			ageDays := now.Sub(o.Timestamp).Hours() / 24
			if ageDays < 0 {
				ageDays = 0
			}
			recencySum += math.Exp(-math.Ln2 * ageDays / halfLifeDays)
			severitySum += severityContribution[o.Severity]
			confidenceSum += float64(o.ConfidenceScore)
			counts[o.CrimeType]++
		}
		n := float64(len(occs))
		recency = 100 * recencySum / n
		severity = severitySum / n
		confidence = confidenceSum / n / domain.OfficialConfidence * 100

		index.DominantCrimeType = dominantCrimeType(counts)
	}

	weights := []struct {
		typ    domain.RiskFactorType
		weight float64
		value  float64
	}{
		{domain.FactorFrequency, uc.cfg.FrequencyWeight, frequency},
		{domain.FactorRecency, uc.cfg.RecencyWeight, recency},
		{domain.FactorSeverity, uc.cfg.SeverityWeight, severity},
		{domain.FactorConfidence, uc.cfg.ConfidenceWeight, confidence},
	}

	var weighted, totalWeight float64
	for _, w := range weights {
		index.Factors = append(index.Factors, domain.RiskFactor{
			Type:         w.typ,
			Weight:       w.weight,
			Contribution: w.value,
		})
		weighted += w.weight * w.value
		totalWeight += w.weight
	}
	if totalWeight > 0 {
		index.Value = clampRisk(weighted / totalWeight)
	}

	return index
}

// dominantCrimeType picks the most frequent type; ties resolve
// lexicographically so recomputation stays deterministic.
func dominantCrimeType(counts map[string]int) string {
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)

	best, bestCount := "", -1
	for _, t := range types {
		if counts[t] > bestCount {
			best, bestCount = t, counts[t]
		}
	}
	return best
}

func clampRisk(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
