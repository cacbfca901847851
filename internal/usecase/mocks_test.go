package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/saferoute-service/internal/domain"
)

type MockOccurrenceRepository struct {
	mock.Mock
}

func (m *MockOccurrenceRepository) Create(ctx context.Context, occ *domain.Occurrence) error {
	args := m.Called(ctx, occ)
	return args.Error(0)
}

func (m *MockOccurrenceRepository) GetByID(ctx context.Context, id string) (*domain.Occurrence, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Occurrence), args.Error(1)
}

func (m *MockOccurrenceRepository) FindNear(ctx context.Context, point domain.Coordinates, radiusMeters float64, filter domain.OccurrenceFilter) ([]*domain.Occurrence, error) {
	args := m.Called(ctx, point, radiusMeters, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Occurrence), args.Error(1)
}

func (m *MockOccurrenceRepository) FindInRegion(ctx context.Context, regionID string, filter domain.OccurrenceFilter) ([]*domain.Occurrence, error) {
	args := m.Called(ctx, regionID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Occurrence), args.Error(1)
}

func (m *MockOccurrenceRepository) FindExpiredCandidates(ctx context.Context, now time.Time, limit int) ([]*domain.Occurrence, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Occurrence), args.Error(1)
}

func (m *MockOccurrenceRepository) UpdateStatus(ctx context.Context, id string, status domain.OccurrenceStatus, mergedIntoID string) error {
	args := m.Called(ctx, id, status, mergedIntoID)
	return args.Error(0)
}

func (m *MockOccurrenceRepository) UpdateConfidence(ctx context.Context, id string, confidence int) error {
	args := m.Called(ctx, id, confidence)
	return args.Error(0)
}

func (m *MockOccurrenceRepository) ExtendExpiry(ctx context.Context, id string, until time.Time) error {
	args := m.Called(ctx, id, until)
	return args.Error(0)
}

func (m *MockOccurrenceRepository) AddCorroboration(ctx context.Context, link domain.CorroborationLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockOccurrenceRepository) HasValidationRecord(ctx context.Context, occurrenceID string) (bool, error) {
	args := m.Called(ctx, occurrenceID)
	return args.Bool(0), args.Error(1)
}

type MockRegionRepository struct {
	mock.Mock
}

func (m *MockRegionRepository) GetByID(ctx context.Context, id string) (*domain.Region, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Region), args.Error(1)
}

func (m *MockRegionRepository) FindContaining(ctx context.Context, point domain.Coordinates) ([]*domain.Region, error) {
	args := m.Called(ctx, point)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Region), args.Error(1)
}

func (m *MockRegionRepository) FindIntersectingBounds(ctx context.Context, minLat, minLon, maxLat, maxLon float64) ([]*domain.Region, error) {
	args := m.Called(ctx, minLat, minLon, maxLat, maxLon)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Region), args.Error(1)
}

func (m *MockRegionRepository) ListIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockRiskRepository struct {
	mock.Mock
}

func (m *MockRiskRepository) GetByRegion(ctx context.Context, regionID string) (*domain.RiskIndex, error) {
	args := m.Called(ctx, regionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RiskIndex), args.Error(1)
}

func (m *MockRiskRepository) GetByRegions(ctx context.Context, regionIDs []string) (map[string]*domain.RiskIndex, error) {
	args := m.Called(ctx, regionIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*domain.RiskIndex), args.Error(1)
}

func (m *MockRiskRepository) ReplaceForRegion(ctx context.Context, index *domain.RiskIndex) error {
	args := m.Called(ctx, index)
	return args.Error(0)
}

type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

type MockRateLimitRepository struct {
	mock.Mock
}

func (m *MockRateLimitRepository) Increment(ctx context.Context, userID string, window time.Duration) (int, time.Time, error) {
	args := m.Called(ctx, userID, window)
	return args.Int(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockRateLimitRepository) Count(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type MockStreamRepository struct {
	mock.Mock
}

func (m *MockStreamRepository) Publish(ctx context.Context, stream string, data interface{}) error {
	args := m.Called(ctx, stream, data)
	return args.Error(0)
}

func (m *MockStreamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	args := m.Called(ctx, stream, group)
	return args.Error(0)
}

func (m *MockStreamRepository) Consume(ctx context.Context, stream, group, consumer string) (<-chan domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) Ack(ctx context.Context, stream, group, messageID string) error {
	args := m.Called(ctx, stream, group, messageID)
	return args.Error(0)
}

type MockAnomalyFlagger struct {
	mock.Mock
}

func (m *MockAnomalyFlagger) Flag(ctx context.Context, occurrence *domain.Occurrence, reason string) error {
	args := m.Called(ctx, occurrence, reason)
	return args.Error(0)
}

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Record(ctx context.Context, action, actorID string, details map[string]interface{}) error {
	args := m.Called(ctx, action, actorID, details)
	return args.Error(0)
}

type MockMapGateway struct {
	mock.Mock
}

func (m *MockMapGateway) CalculateRoute(ctx context.Context, origin, destination domain.Coordinates, opts domain.RouteOptions) (*domain.Route, error) {
	args := m.Called(ctx, origin, destination, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Route), args.Error(1)
}

func (m *MockMapGateway) AlternativeRoutes(ctx context.Context, origin, destination domain.Coordinates, count int) ([]*domain.Route, error) {
	args := m.Called(ctx, origin, destination, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Route), args.Error(1)
}

func (m *MockMapGateway) Geocode(ctx context.Context, query string) ([]domain.Address, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Address), args.Error(1)
}

func (m *MockMapGateway) ReverseGeocode(ctx context.Context, coords domain.Coordinates) (*domain.Address, error) {
	args := m.Called(ctx, coords)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Address), args.Error(1)
}

func (m *MockMapGateway) TrafficData(ctx context.Context, route *domain.Route) (*domain.TrafficData, error) {
	args := m.Called(ctx, route)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrafficData), args.Error(1)
}
