package usecase

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saferoute-service/internal/config"
	"github.com/saferoute-service/internal/domain"
	"github.com/saferoute-service/internal/pkg/errors"
)

// sessionState wraps one session with its own mutex; updates for different
// sessions never contend.
type sessionState struct {
	mu   sync.Mutex
	s    domain.NavigationSession
	opts domain.RouteOptions
}

// NavigationUseCase coordinates active trips: position updates, instruction
// advancement, deviation-triggered recalculation and traffic-triggered
// alternatives. Sessions live in memory; the service owns the trip for its
// duration.
type NavigationUseCase struct {
	routes  *RouteRiskUseCase
	traffic *TrafficUseCase
	cfg     config.NavigationConfig
	logger  *zap.Logger
	nowFn   func() time.Time

	mu       sync.RWMutex
	sessions map[string]*sessionState
}

func NewNavigationUseCase(routes *RouteRiskUseCase, traffic *TrafficUseCase, cfg config.NavigationConfig, logger *zap.Logger) *NavigationUseCase {
	return &NavigationUseCase{
		routes:   routes,
		traffic:  traffic,
		cfg:      cfg,
		logger:   logger,
		nowFn:    time.Now,
		sessions: make(map[string]*sessionState),
	}
}

// StartSession calculates the initial route and registers the trip. With
// preferSafer set, a qualifying safer alternative becomes the active route.
func (uc *NavigationUseCase) StartSession(ctx context.Context, origin, destination domain.Coordinates, opts domain.RouteOptions, preferSafer bool) (*domain.NavigationSession, error) {
	primary, safer, err := uc.routes.CalculateRoute(ctx, origin, destination, opts, preferSafer)
	if err != nil {
		return nil, err
	}
	active := primary
	if safer != nil {
		active = safer
	}

	now := uc.nowFn().UTC()
	session := domain.NavigationSession{
		ID:                uuid.New().String(),
		Route:             *active,
		CurrentPosition:   origin,
		OriginalDuration:  active.Route.Duration,
		CurrentDuration:   active.Route.Duration,
		MaxRisk:           active.MaxRisk,
		RemainingDistance: active.Route.Distance,
		RemainingDuration: active.Route.Duration,
		Status:            domain.SessionActive,
		StartedAt:         now,
		LastUpdateAt:      now,
		LastTrafficCheck:  now,
	}

	uc.mu.Lock()
	uc.sessions[session.ID] = &sessionState{s: session, opts: opts}
	uc.mu.Unlock()

	uc.logger.Info("Navigation session started",
		zap.String("session_id", session.ID),
		zap.Float64("max_risk", session.MaxRisk),
		zap.Bool("safer_route", safer != nil))

	out := session
	return &out, nil
}

func (uc *NavigationUseCase) GetSession(ctx context.Context, id string) (*domain.NavigationSession, error) {
	st, err := uc.lookup(id)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	out := st.s
	return &out, nil
}

// UpdatePosition records a new position and runs the deviation and traffic
// checks. Route recalculation happens outside the session lock; a result
// computed for a superseded position is discarded by sequence number.
func (uc *NavigationUseCase) UpdatePosition(ctx context.Context, id string, pos domain.Coordinates) (*domain.RouteRecalculationResult, error) {
	st, err := uc.lookup(id)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	if st.s.Status == domain.SessionEnded {
		st.mu.Unlock()
		return nil, errors.ErrSessionEnded
	}

	st.s.Seq++
	seq := st.s.Seq
	now := uc.nowFn().UTC()
	uc.updateProgress(&st.s, pos, now)
	st.s.CurrentPosition = pos
	st.s.LastUpdateAt = now
	uc.advanceInstruction(&st.s, pos)

	path := st.s.Route.Route.Path()
	deviated := pos.DistanceToPath(path) > uc.cfg.DeviationThreshold

	trafficDue := !deviated && now.Sub(st.s.LastTrafficCheck) >= uc.cfg.TrafficCheckInterval
	if trafficDue {
		st.s.LastTrafficCheck = now
	}
	st.mu.Unlock()

	if deviated {
		return uc.recalculate(ctx, st, seq, pos)
	}
	if trafficDue {
		return uc.checkTraffic(ctx, st, seq, pos)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	return uc.currentResult(&st.s), nil
}

// DecideAlternative accepts or discards the pending traffic alternative.
func (uc *NavigationUseCase) DecideAlternative(ctx context.Context, id string, accept bool) (*domain.NavigationSession, error) {
	st, err := uc.lookup(id)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.s.Status == domain.SessionEnded {
		return nil, errors.ErrSessionEnded
	}
	if st.s.PendingAlternative == nil {
		return nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"reason": "no pending alternative",
		})
	}

	if accept {
		uc.switchRoute(&st.s, *st.s.PendingAlternative)
		uc.logger.Info("Pending alternative accepted", zap.String("session_id", id))
	}
	st.s.PendingAlternative = nil

	out := st.s
	return &out, nil
}

func (uc *NavigationUseCase) EndSession(ctx context.Context, id string) (*domain.NavigationSession, error) {
	st, err := uc.lookup(id)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	st.s.Status = domain.SessionEnded
	out := st.s
	st.mu.Unlock()

	uc.mu.Lock()
	delete(uc.sessions, id)
	uc.mu.Unlock()

	uc.logger.Info("Navigation session ended", zap.String("session_id", id))
	return &out, nil
}

// ActiveSessions reports the registry size, for health reporting.
func (uc *NavigationUseCase) ActiveSessions() int {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return len(uc.sessions)
}

func (uc *NavigationUseCase) lookup(id string) (*sessionState, error) {
	uc.mu.RLock()
	st, ok := uc.sessions[id]
	uc.mu.RUnlock()
	if !ok {
		return nil, errors.ErrSessionNotFound
	}
	return st, nil
}

// recalculate computes a fresh route from the deviated position to the
// destination. On failure the last-known-good route stays in place.
func (uc *NavigationUseCase) recalculate(ctx context.Context, st *sessionState, seq uint64, pos domain.Coordinates) (*domain.RouteRecalculationResult, error) {
	st.mu.Lock()
	st.s.Status = domain.SessionRecalculating
	destination := st.s.Route.Route.Destination
	opts := st.opts
	st.mu.Unlock()

	newRoute, _, err := uc.routes.CalculateRoute(ctx, pos, destination, opts, false)

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.s.Status == domain.SessionEnded {
		return nil, errors.ErrSessionEnded
	}
	st.s.Status = domain.SessionActive

	// A newer position update made this result stale.
	if st.s.Seq != seq {
		result := uc.currentResult(&st.s)
		result.Message = "position superseded, recalculation discarded"
		return result, nil
	}

	if err != nil {
		uc.logger.Warn("Route recalculation failed, keeping current route",
			zap.String("session_id", st.s.ID), zap.Error(err))
		return nil, errors.ErrRecalculationFailed
	}

	original := st.s.Route
	uc.switchRoute(&st.s, *newRoute)

	result := &domain.RouteRecalculationResult{
		OriginalRoute:     &original,
		NewRoute:          newRoute,
		RouteChanged:      true,
		RiskChanged:       math.Abs(newRoute.MaxRisk-original.MaxRisk) > riskTieEpsilon,
		TimeChangePercent: timeChangePercent(st.s.CurrentDuration, st.s.OriginalDuration),
		RemainingDistance: st.s.RemainingDistance,
		RemainingDuration: st.s.RemainingDuration,
		Message:           "route recalculated after deviation",
	}
	return result, nil
}

// checkTraffic refreshes projected duration and, when traffic pushes it
// past the drift threshold, surfaces an alternative for the rider to
// accept or reject. Traffic trouble never fails the position update.
func (uc *NavigationUseCase) checkTraffic(ctx context.Context, st *sessionState, seq uint64, pos domain.Coordinates) (*domain.RouteRecalculationResult, error) {
	st.mu.Lock()
	route := st.s.Route.Route
	destination := route.Destination
	st.mu.Unlock()

	data, err := uc.traffic.RouteTraffic(ctx, &route)
	if err != nil {
		uc.logger.Warn("Traffic check failed", zap.String("session_id", st.s.ID), zap.Error(err))
		st.mu.Lock()
		defer st.mu.Unlock()
		return uc.currentResult(&st.s), nil
	}

	var pending *domain.RouteWithRisk
	drift := timeChangePercent(data.CurrentDuration, st.s.OriginalDuration)
	if drift > uc.cfg.TrafficDriftPercent {
		alt, altErr := uc.routes.FastestAlternative(ctx, pos, destination)
		if altErr != nil {
			uc.logger.Warn("Alternative lookup failed during traffic check",
				zap.String("session_id", st.s.ID), zap.Error(altErr))
		} else {
			pending = alt
		}
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.s.Status == domain.SessionEnded {
		return nil, errors.ErrSessionEnded
	}
	if st.s.Seq != seq {
		return uc.currentResult(&st.s), nil
	}

	st.s.CurrentDuration = data.CurrentDuration
	result := uc.currentResult(&st.s)
	if pending != nil {
		st.s.PendingAlternative = pending
		result.NewRoute = pending
		result.Message = fmt.Sprintf("traffic increased travel time by %.0f%%, alternative available", drift)
	} else if drift > uc.cfg.TrafficDriftPercent {
		result.Message = fmt.Sprintf("traffic increased travel time by %.0f%%", drift)
	}
	return result, nil
}

// updateProgress derives the current speed from the previous fix and
// recomputes remaining distance and duration from it. Must run before the
// session's position and timestamp are overwritten. Without a usable speed
// the route's average pace stands in.
func (uc *NavigationUseCase) updateProgress(s *domain.NavigationSession, pos domain.Coordinates, now time.Time) {
	if elapsed := now.Sub(s.LastUpdateAt).Seconds(); elapsed > 0 {
		s.Speed = s.CurrentPosition.DistanceTo(pos) / elapsed
	}

	s.RemainingDistance = pos.RemainingPathDistance(s.Route.Route.Path())
	switch {
	case s.Speed > 0:
		s.RemainingDuration = s.RemainingDistance / s.Speed
	case s.Route.Route.Distance > 0:
		s.RemainingDuration = s.Route.Route.Duration * s.RemainingDistance / s.Route.Route.Distance
	default:
		s.RemainingDuration = 0
	}
}

// advanceInstruction moves the maneuver pointer forward while the position
// is within proximity of the next instruction point.
func (uc *NavigationUseCase) advanceInstruction(s *domain.NavigationSession, pos domain.Coordinates) {
	instructions := s.Route.Route.Instructions
	for s.InstructionIndex < len(instructions) {
		next := instructions[s.InstructionIndex]
		if pos.DistanceTo(next.Point) > uc.cfg.ManeuverProximity {
			break
		}
		s.InstructionIndex++
	}
}

func (uc *NavigationUseCase) switchRoute(s *domain.NavigationSession, route domain.RouteWithRisk) {
	s.Route = route
	s.CurrentDuration = route.Route.Duration
	s.MaxRisk = route.MaxRisk
	s.InstructionIndex = 0
	s.PendingAlternative = nil
	s.RemainingDistance = route.Route.Distance
	s.RemainingDuration = route.Route.Duration
}

func (uc *NavigationUseCase) currentResult(s *domain.NavigationSession) *domain.RouteRecalculationResult {
	route := s.Route
	return &domain.RouteRecalculationResult{
		OriginalRoute:     &route,
		TimeChangePercent: timeChangePercent(s.CurrentDuration, s.OriginalDuration),
		RemainingDistance: s.RemainingDistance,
		RemainingDuration: s.RemainingDuration,
	}
}

func timeChangePercent(current, original float64) float64 {
	if original <= 0 {
		return 0
	}
	return (current - original) / original * 100
}
