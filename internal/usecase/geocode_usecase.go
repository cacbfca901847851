package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/saferoute-service/internal/domain"
	"github.com/saferoute-service/internal/domain/repository"
	"github.com/saferoute-service/internal/pkg/errors"
)

const geocodeCacheTTL = 24 * time.Hour

// GeocodeUseCase resolves addresses through the provider gateway with a
// cache in front; addresses move rarely.
type GeocodeUseCase struct {
	gateway MapGateway
	cache   repository.CacheRepository
	logger  *zap.Logger
}

func NewGeocodeUseCase(gateway MapGateway, cache repository.CacheRepository, logger *zap.Logger) *GeocodeUseCase {
	return &GeocodeUseCase{
		gateway: gateway,
		cache:   cache,
		logger:  logger,
	}
}

// Search resolves a free-text query. An empty result list is a valid "no
// results" answer, not an error.
func (uc *GeocodeUseCase) Search(ctx context.Context, query string) ([]domain.Address, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.ErrValidation.WithDetails(map[string]interface{}{"field": "query"})
	}

	key := "geocode:q:" + strings.ToLower(query)
	var cached []domain.Address
	if uc.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	results, err := uc.gateway.Geocode(ctx, query)
	if err != nil {
		return nil, err
	}
	uc.toCache(ctx, key, results)
	return results, nil
}

// Reverse resolves coordinates to the nearest address.
func (uc *GeocodeUseCase) Reverse(ctx context.Context, coords domain.Coordinates) (*domain.Address, error) {
	// Round to ~11 m so nearby lookups share an entry.
	key := fmt.Sprintf("geocode:r:%.4f,%.4f", coords.Lat, coords.Lon)
	var cached domain.Address
	if uc.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	address, err := uc.gateway.ReverseGeocode(ctx, coords)
	if err != nil {
		return nil, err
	}
	uc.toCache(ctx, key, address)
	return address, nil
}

func (uc *GeocodeUseCase) fromCache(ctx context.Context, key string, out interface{}) bool {
	raw, err := uc.cache.Get(ctx, key)
	if err != nil || raw == nil {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func (uc *GeocodeUseCase) toCache(ctx context.Context, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := uc.cache.Set(ctx, key, raw, geocodeCacheTTL); err != nil {
		uc.logger.Warn("Failed to cache geocode result", zap.String("key", key), zap.Error(err))
	}
}
