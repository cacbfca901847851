package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/golang/geo/s2"
	"go.uber.org/zap"

	"github.com/saferoute-service/internal/config"
	"github.com/saferoute-service/internal/domain"
	"github.com/saferoute-service/internal/domain/repository"
	"github.com/saferoute-service/internal/pkg/metrics"
)

const (
	// segmentCellLevel is the s2 cell level used in cache keys, coarse
	// enough that nearby routes share segments.
	segmentCellLevel = 12

	// maxSegmentAge invalidates cached segments regardless of TTL once the
	// traffic picture is too old to trust.
	maxSegmentAge = 2 * time.Hour
)

// cachedSegment is the stored form of one traffic segment plus the
// conditions under which it was fetched. A hit is only valid while those
// conditions still hold.
type cachedSegment struct {
	Segment   domain.TrafficSegment `json:"segment"`
	Rush      bool                  `json:"rush"`
	Weekend   bool                  `json:"weekend"`
	FetchedAt time.Time             `json:"fetched_at"`
}

// TrafficUseCase serves route traffic from a segment-level cache. Routes
// are cut into fixed-length segments; a fresh provider fetch is
// redistributed across segments proportionally to their length. Concurrent
// writers race benignly, last writer wins.
type TrafficUseCase struct {
	gateway MapGateway
	cache   repository.CacheRepository
	cfg     config.TrafficConfig
	logger  *zap.Logger
	nowFn   func() time.Time
}

func NewTrafficUseCase(gateway MapGateway, cache repository.CacheRepository, cfg config.TrafficConfig, logger *zap.Logger) *TrafficUseCase {
	return &TrafficUseCase{
		gateway: gateway,
		cache:   cache,
		cfg:     cfg,
		logger:  logger,
		nowFn:   time.Now,
	}
}

// RouteTraffic returns traffic along the route, assembled from cached
// segments when every segment is fresh, otherwise from one provider call.
func (uc *TrafficUseCase) RouteTraffic(ctx context.Context, route *domain.Route) (*domain.TrafficData, error) {
	now := uc.nowFn()
	segments := splitSegments(route.Path(), uc.cfg.SegmentLength)
	if len(segments) == 0 {
		return uc.gateway.TrafficData(ctx, route)
	}

	rush, weekend := trafficFlags(now)

	cached := make([]*domain.TrafficSegment, len(segments))
	allHit := true
	for i, seg := range segments {
		entry := uc.lookup(ctx, segmentKey(seg), rush, weekend, now)
		if entry == nil {
			metrics.TrafficCacheMisses.Inc()
			allHit = false
			continue
		}
		metrics.TrafficCacheHits.Inc()
		cached[i] = &entry.Segment
	}

	if allHit {
		return aggregateSegments(cached, now), nil
	}

	data, err := uc.gateway.TrafficData(ctx, route)
	if err != nil {
		return nil, err
	}

	// One route-level answer, spread over segments by length share.
	totalLen := 0.0
	for _, seg := range segments {
		totalLen += seg.Length
	}
	fresh := make([]domain.TrafficSegment, len(segments))
	for i, seg := range segments {
		share := 0.0
		if totalLen > 0 {
			share = seg.Length / totalLen
		}
		seg.CurrentDuration = data.CurrentDuration * share
		seg.TypicalDuration = data.TypicalDuration * share
		seg.DelayRatio = data.DelayRatio
		fresh[i] = seg
	}
	for _, inc := range data.Incidents {
		if i := nearestSegment(fresh, inc.Location); i >= 0 {
			fresh[i].Incidents = append(fresh[i].Incidents, inc)
		}
	}

	ttl := trafficTTL(now)
	for i := range fresh {
		uc.store(ctx, segmentKey(fresh[i]), cachedSegment{
			Segment:   fresh[i],
			Rush:      rush,
			Weekend:   weekend,
			FetchedAt: now.UTC(),
		}, ttl)
	}

	data.Segments = fresh
	return data, nil
}

// nearestSegment picks the segment the incident location lies on, measured
// by cross-track distance.
func nearestSegment(segments []domain.TrafficSegment, loc domain.Coordinates) int {
	best, min := -1, math.Inf(1)
	for i, seg := range segments {
		if d := loc.CrossTrackDistance(seg.Start, seg.End); d < min {
			best, min = i, d
		}
	}
	return best
}

func (uc *TrafficUseCase) lookup(ctx context.Context, key string, rush, weekend bool, now time.Time) *cachedSegment {
	raw, err := uc.cache.Get(ctx, key)
	if err != nil || raw == nil {
		return nil
	}
	var entry cachedSegment
	if err := json.Unmarshal(raw, &entry); err != nil {
		uc.logger.Warn("Dropping undecodable traffic segment", zap.String("key", key), zap.Error(err))
		return nil
	}
	// Condition drift invalidates a segment even before its TTL runs out.
	if entry.Rush != rush || entry.Weekend != weekend || now.Sub(entry.FetchedAt) > maxSegmentAge {
		return nil
	}
	return &entry
}

func (uc *TrafficUseCase) store(ctx context.Context, key string, entry cachedSegment, ttl time.Duration) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := uc.cache.Set(ctx, key, raw, ttl); err != nil {
		uc.logger.Warn("Failed to cache traffic segment", zap.String("key", key), zap.Error(err))
	}
}

// splitSegments cuts the path at segment-length boundaries. The final
// partial segment is kept; single-point paths produce nothing.
func splitSegments(path []domain.Coordinates, segmentLength float64) []domain.TrafficSegment {
	if len(path) < 2 {
		return nil
	}

	var segments []domain.TrafficSegment
	start := path[0]
	acc := 0.0
	for i := 1; i < len(path); i++ {
		acc += path[i-1].DistanceTo(path[i])
		if acc >= segmentLength {
			segments = append(segments, domain.TrafficSegment{Start: start, End: path[i], Length: acc})
			start = path[i]
			acc = 0
		}
	}
	if acc > 0 {
		segments = append(segments, domain.TrafficSegment{Start: start, End: path[len(path)-1], Length: acc})
	}
	return segments
}

// segmentKey builds a cache key from the segment midpoint's s2 cell plus
// rounded endpoints, so overlapping routes share entries.
func segmentKey(seg domain.TrafficSegment) string {
	mid := s2.CellIDFromLatLng(s2.LatLngFromDegrees(
		(seg.Start.Lat+seg.End.Lat)/2,
		(seg.Start.Lon+seg.End.Lon)/2,
	)).Parent(segmentCellLevel)
	return fmt.Sprintf("traffic:segment:%s:%.3f,%.3f:%.3f,%.3f",
		mid.ToToken(), seg.Start.Lat, seg.Start.Lon, seg.End.Lat, seg.End.Lon)
}

// aggregateSegments sums durations, takes the worst per-segment delay and
// unions incidents. A single congested segment keeps the route-level
// condition severe even when the rest of the route flows freely.
func aggregateSegments(segments []*domain.TrafficSegment, now time.Time) *domain.TrafficData {
	var current, typical, maxDelay float64
	var incidents []domain.TrafficIncident
	out := make([]domain.TrafficSegment, len(segments))
	for i, seg := range segments {
		current += seg.CurrentDuration
		typical += seg.TypicalDuration
		if seg.DelayRatio > maxDelay {
			maxDelay = seg.DelayRatio
		}
		incidents = append(incidents, seg.Incidents...)
		out[i] = *seg
	}
	return &domain.TrafficData{
		CurrentDuration: current,
		TypicalDuration: typical,
		DelayRatio:      maxDelay,
		Condition:       domain.ConditionFromDelayRatio(maxDelay),
		Segments:        out,
		Incidents:       incidents,
		FetchedAt:       now.UTC(),
	}
}

// trafficFlags reports whether now falls in a weekday rush window or on a
// weekend.
func trafficFlags(now time.Time) (rush, weekend bool) {
	weekday := now.Weekday()
	weekend = weekday == time.Saturday || weekday == time.Sunday
	h := now.Hour()
	rush = !weekend && ((h >= 7 && h < 9) || (h >= 17 && h < 19))
	return rush, weekend
}

// trafficTTL picks the cache lifetime for the current wall-clock context:
// short during rush hours, long at night, in between on weekends.
func trafficTTL(now time.Time) time.Duration {
	h := now.Hour()
	if h >= 22 || h < 6 {
		return 900 * time.Second
	}
	rush, weekend := trafficFlags(now)
	if weekend {
		return 600 * time.Second
	}
	if rush {
		return 120 * time.Second
	}
	return 300 * time.Second
}
