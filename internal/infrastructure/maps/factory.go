package maps

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/saferoute-service/internal/config"
)

// NewProvider resolves a provider adapter by name.
func NewProvider(name string, cfg *config.MapsConfig, logger *zap.Logger) (RouteProvider, error) {
	switch name {
	case "mapbox":
		return NewMapboxProvider(cfg, logger), nil
	case "here":
		return NewHereProvider(cfg, logger), nil
	}
	return nil, fmt.Errorf("unknown map provider: %q", name)
}

// NewGatewayFromConfig builds the gateway with the configured primary and
// fallback providers and a shared quota tracker.
func NewGatewayFromConfig(cfg *config.MapsConfig, logger *zap.Logger) (*Gateway, error) {
	primary, err := NewProvider(cfg.Provider, cfg, logger)
	if err != nil {
		return nil, err
	}

	fallback, err := NewProvider(cfg.FallbackProvider, cfg, logger)
	if err != nil {
		return nil, err
	}

	if primary.Name() == fallback.Name() {
		return nil, fmt.Errorf("fallback provider must differ from primary (%s)", primary.Name())
	}

	quota := NewQuotaTracker(cfg.QuotaLimit, cfg.QuotaWindow)
	return NewGateway(primary, fallback, quota, cfg.MaxRetries, logger), nil
}
