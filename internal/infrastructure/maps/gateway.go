package maps

import (
	"context"
	stderrors "errors"
	"time"

	"go.uber.org/zap"

	"github.com/saferoute-service/internal/domain"
	"github.com/saferoute-service/internal/pkg/errors"
	"github.com/saferoute-service/internal/pkg/metrics"
)

// Gateway fronts the configured primary provider with retry, backoff,
// fallback and quota shedding. It exposes the same operations as a single
// provider; callers never deal with provider selection.
type Gateway struct {
	primary  RouteProvider
	fallback RouteProvider
	quota    *QuotaTracker
	logger   *zap.Logger

	maxRetries  int
	backoffBase time.Duration
}

func NewGateway(primary, fallback RouteProvider, quota *QuotaTracker, maxRetries int, logger *zap.Logger) *Gateway {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Gateway{
		primary:     primary,
		fallback:    fallback,
		quota:       quota,
		logger:      logger,
		maxRetries:  maxRetries,
		backoffBase: time.Second,
	}
}

func (g *Gateway) PrimaryName() string {
	return g.primary.Name()
}

// ProviderHealth checks each configured provider and reports availability
// by provider name.
func (g *Gateway) ProviderHealth(ctx context.Context) map[string]bool {
	health := map[string]bool{g.primary.Name(): g.primary.IsAvailable(ctx)}
	if g.fallback != nil {
		health[g.fallback.Name()] = g.fallback.IsAvailable(ctx)
	}
	return health
}

func (g *Gateway) CalculateRoute(ctx context.Context, origin, destination domain.Coordinates, opts domain.RouteOptions) (*domain.Route, error) {
	var route *domain.Route
	err := g.execute(ctx, "calculate_route", true, func(p RouteProvider) error {
		r, err := p.CalculateRoute(ctx, origin, destination, opts)
		if err != nil {
			return err
		}
		route = r
		return nil
	})
	return route, err
}

// AlternativeRoutes is a non-essential call: when the quota tracker sheds
// it, an empty list is returned rather than an error, and the caller keeps
// the primary route.
func (g *Gateway) AlternativeRoutes(ctx context.Context, origin, destination domain.Coordinates, count int) ([]*domain.Route, error) {
	var routes []*domain.Route
	err := g.execute(ctx, "alternative_routes", false, func(p RouteProvider) error {
		r, err := p.AlternativeRoutes(ctx, origin, destination, count)
		if err != nil {
			return err
		}
		routes = r
		return nil
	})
	if err != nil && stderrors.Is(err, errors.ErrQuotaExceeded) {
		g.logger.Warn("Alternative route lookup suppressed by quota")
		return nil, nil
	}
	return routes, err
}

func (g *Gateway) Geocode(ctx context.Context, query string) ([]domain.Address, error) {
	var addresses []domain.Address
	err := g.execute(ctx, "geocode", true, func(p RouteProvider) error {
		a, err := p.Geocode(ctx, query)
		if err != nil {
			return err
		}
		addresses = a
		return nil
	})
	return addresses, err
}

func (g *Gateway) ReverseGeocode(ctx context.Context, coords domain.Coordinates) (*domain.Address, error) {
	var address *domain.Address
	err := g.execute(ctx, "reverse_geocode", true, func(p RouteProvider) error {
		a, err := p.ReverseGeocode(ctx, coords)
		if err != nil {
			return err
		}
		address = a
		return nil
	})
	return address, err
}

func (g *Gateway) TrafficData(ctx context.Context, route *domain.Route) (*domain.TrafficData, error) {
	var data *domain.TrafficData
	err := g.execute(ctx, "traffic_data", true, func(p RouteProvider) error {
		d, err := p.TrafficData(ctx, route)
		if err != nil {
			return err
		}
		data = d
		return nil
	})
	return data, err
}

// execute runs fn against the primary provider with up to maxRetries
// attempts, backing off exponentially between retryable failures, then
// against the fallback provider exactly once.
func (g *Gateway) execute(ctx context.Context, operation string, essential bool, fn func(RouteProvider) error) error {
	if !g.quota.Allow(g.primary.Name(), essential) {
		g.logger.Warn("Primary provider call shed by quota",
			zap.String("provider", g.primary.Name()),
			zap.String("operation", operation))
		if !essential {
			return errors.ErrQuotaExceeded
		}
		return g.invokeFallback(ctx, operation, essential, fn)
	}

	var lastErr error
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.ProviderRetries.WithLabelValues(g.primary.Name(), operation).Inc()
			if err := g.sleep(ctx, g.backoffBase<<(attempt-1)); err != nil {
				return err
			}
		}

		err := fn(g.primary)
		if err == nil {
			metrics.ProviderCalls.WithLabelValues(g.primary.Name(), operation, "ok").Inc()
			return nil
		}
		lastErr = err

		// "Found nothing" is a valid answer, not a provider failure.
		if IsNotFound(err) {
			metrics.ProviderCalls.WithLabelValues(g.primary.Name(), operation, "not_found").Inc()
			return err
		}

		metrics.ProviderCalls.WithLabelValues(g.primary.Name(), operation, "error").Inc()

		if !IsRetryable(err) {
			g.logger.Warn("Primary provider failed with non-retryable error",
				zap.String("provider", g.primary.Name()),
				zap.String("operation", operation),
				zap.Error(err))
			break
		}

		g.logger.Warn("Primary provider call failed, retrying",
			zap.String("provider", g.primary.Name()),
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}

	fallbackName := "none"
	if g.fallback != nil {
		fallbackName = g.fallback.Name()
	}
	g.logger.Warn("Switching to fallback provider",
		zap.String("primary", g.primary.Name()),
		zap.String("fallback", fallbackName),
		zap.String("operation", operation),
		zap.Error(lastErr))

	return g.invokeFallback(ctx, operation, essential, fn)
}

func (g *Gateway) invokeFallback(ctx context.Context, operation string, essential bool, fn func(RouteProvider) error) error {
	if g.fallback == nil {
		return errors.ErrProviderUnavailable
	}
	if !g.quota.Allow(g.fallback.Name(), essential) {
		return errors.ErrQuotaExceeded
	}

	metrics.ProviderFallbacks.Inc()

	err := fn(g.fallback)
	if err == nil {
		metrics.ProviderCalls.WithLabelValues(g.fallback.Name(), operation, "ok").Inc()
		return nil
	}
	if IsNotFound(err) {
		metrics.ProviderCalls.WithLabelValues(g.fallback.Name(), operation, "not_found").Inc()
		return err
	}

	metrics.ProviderCalls.WithLabelValues(g.fallback.Name(), operation, "error").Inc()
	g.logger.Error("Fallback provider failed",
		zap.String("provider", g.fallback.Name()),
		zap.String("operation", operation),
		zap.Error(err))
	return err
}

func (g *Gateway) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
