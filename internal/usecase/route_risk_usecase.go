package usecase

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/saferoute-service/internal/domain"
	"github.com/saferoute-service/internal/domain/repository"
	"github.com/saferoute-service/internal/pkg/errors"
)

const (
	// riskSampleStepMeters is the spacing between polyline points tested
	// against region polygons.
	riskSampleStepMeters = 250.0

	// saferDistanceFactor bounds how much longer a safer alternative may be
	// relative to the shortest candidate.
	saferDistanceFactor = 1.2

	// riskTieEpsilon treats max-risk values this close as equal, so ties
	// fall through to duration.
	riskTieEpsilon = 0.5

	alternativeCount = 3
)

// RouteRiskUseCase calculates routes through the provider gateway and
// overlays per-region risk onto them.
type RouteRiskUseCase struct {
	gateway MapGateway
	regions repository.RegionRepository
	risks   repository.RiskRepository
	logger  *zap.Logger
}

func NewRouteRiskUseCase(
	gateway MapGateway,
	regions repository.RegionRepository,
	risks repository.RiskRepository,
	logger *zap.Logger,
) *RouteRiskUseCase {
	return &RouteRiskUseCase{
		gateway: gateway,
		regions: regions,
		risks:   risks,
		logger:  logger,
	}
}

// CalculateRoute computes the primary route with its risk overlay. When the
// route carries a warning and preferSafer is set, alternatives are fetched
// and the best qualifying one is returned alongside; when none qualifies,
// the primary is flagged with NoSaferFound.
func (uc *RouteRiskUseCase) CalculateRoute(ctx context.Context, origin, destination domain.Coordinates, opts domain.RouteOptions, preferSafer bool) (*domain.RouteWithRisk, *domain.RouteWithRisk, error) {
	route, err := uc.gateway.CalculateRoute(ctx, origin, destination, opts)
	if err != nil {
		return nil, nil, err
	}

	primary, err := uc.Overlay(ctx, route)
	if err != nil {
		return nil, nil, err
	}

	if !preferSafer || !primary.RequiresWarning {
		return primary, nil, nil
	}

	alternatives, err := uc.gateway.AlternativeRoutes(ctx, origin, destination, alternativeCount)
	if err != nil {
		// Alternatives are advisory; the primary route still stands.
		uc.logger.Warn("Alternative route lookup failed", zap.Error(err))
		primary.NoSaferFound = true
		return primary, nil, nil
	}

	candidates := make([]*domain.RouteWithRisk, 0, len(alternatives))
	for _, alt := range alternatives {
		annotated, err := uc.Overlay(ctx, alt)
		if err != nil {
			return nil, nil, err
		}
		candidates = append(candidates, annotated)
	}

	safer := SelectSafer(primary, candidates)
	if safer == nil {
		primary.NoSaferFound = true
		return primary, nil, nil
	}
	return primary, safer, nil
}

// FastestAlternative fetches alternatives and returns the quickest one with
// its risk overlay, or nil when the provider offers none. Quota suppression
// of the lookup also yields nil.
func (uc *RouteRiskUseCase) FastestAlternative(ctx context.Context, origin, destination domain.Coordinates) (*domain.RouteWithRisk, error) {
	alternatives, err := uc.gateway.AlternativeRoutes(ctx, origin, destination, alternativeCount)
	if err != nil {
		return nil, err
	}

	var fastest *domain.Route
	for _, alt := range alternatives {
		if fastest == nil || alt.Duration < fastest.Duration {
			fastest = alt
		}
	}
	if fastest == nil {
		return nil, nil
	}
	return uc.Overlay(ctx, fastest)
}

// Overlay annotates a route with the risk of the regions its polyline
// crosses. Points outside region coverage contribute zero risk.
func (uc *RouteRiskUseCase) Overlay(ctx context.Context, route *domain.Route) (*domain.RouteWithRisk, error) {
	path := route.Path()
	if len(path) == 0 {
		return nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"reason": "route has an empty path",
		})
	}
	samples := domain.SamplePath(path, riskSampleStepMeters)

	candidates, err := uc.prefetchRegions(ctx, path)
	if err != nil {
		return nil, err
	}

	// Region per sample, preserving first-crossing order.
	var crossed []string
	seen := make(map[string]bool)
	sampleRegions := make([]string, len(samples))
	for i, p := range samples {
		region := domain.MostSpecific(candidates, p)
		if region == nil {
			continue
		}
		sampleRegions[i] = region.ID
		if !seen[region.ID] {
			seen[region.ID] = true
			crossed = append(crossed, region.ID)
		}
	}

	indexes, err := uc.risks.GetByRegions(ctx, crossed)
	if err != nil {
		return nil, err
	}

	var maxRisk, sum float64
	riskiest := ""
	for i := range samples {
		risk := 0.0
		if id := sampleRegions[i]; id != "" {
			if index, ok := indexes[id]; ok {
				risk = index.Value
			}
		}
		sum += risk
		if risk > maxRisk {
			maxRisk = risk
			riskiest = sampleRegions[i]
		}
	}

	result := &domain.RouteWithRisk{
		Route:          *route,
		MaxRisk:        maxRisk,
		AvgRisk:        sum / float64(len(samples)),
		CrossedRegions: crossed,
	}
	if maxRisk >= domain.WarningRiskThreshold {
		result.RequiresWarning = true
		result.WarningMessage = warningMessage(maxRisk, indexes[riskiest])
	}
	return result, nil
}

// SelectSafer picks the best alternative: distance within the factor of the
// shortest candidate, lowest max risk, ties broken by duration. Returns nil
// when no candidate improves on the primary.
func SelectSafer(primary *domain.RouteWithRisk, candidates []*domain.RouteWithRisk) *domain.RouteWithRisk {
	shortest := primary.Route.Distance
	for _, c := range candidates {
		if c.Route.Distance < shortest {
			shortest = c.Route.Distance
		}
	}
	limit := shortest * saferDistanceFactor

	var best *domain.RouteWithRisk
	for _, c := range candidates {
		if c.Route.Distance > limit {
			continue
		}
		if best == nil {
			best = c
			continue
		}
		switch {
		case c.MaxRisk < best.MaxRisk-riskTieEpsilon:
			best = c
		case math.Abs(c.MaxRisk-best.MaxRisk) <= riskTieEpsilon && c.Route.Duration < best.Route.Duration:
			best = c
		}
	}

	if best == nil || best.MaxRisk >= primary.MaxRisk-riskTieEpsilon {
		return nil
	}
	return best
}

// prefetchRegions loads every region whose boundary intersects the route's
// envelope, so containment tests run in memory.
func (uc *RouteRiskUseCase) prefetchRegions(ctx context.Context, path []domain.Coordinates) ([]*domain.Region, error) {
	minLat, minLon := path[0].Lat, path[0].Lon
	maxLat, maxLon := minLat, minLon
	for _, p := range path[1:] {
		minLat = math.Min(minLat, p.Lat)
		maxLat = math.Max(maxLat, p.Lat)
		minLon = math.Min(minLon, p.Lon)
		maxLon = math.Max(maxLon, p.Lon)
	}
	return uc.regions.FindIntersectingBounds(ctx, minLat, minLon, maxLat, maxLon)
}

func warningMessage(maxRisk float64, index *domain.RiskIndex) string {
	if index != nil && index.DominantCrimeType != "" {
		return fmt.Sprintf("Route crosses an area with elevated risk (%.0f/100), mostly %s reports", maxRisk, index.DominantCrimeType)
	}
	return fmt.Sprintf("Route crosses an area with elevated risk (%.0f/100)", maxRisk)
}
