package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/saferoute-service/internal/config"
	"github.com/saferoute-service/internal/domain"
	"github.com/saferoute-service/internal/usecase"
	"github.com/saferoute-service/internal/worker/jobs"
)

// MockRateLimitRepository is a mock of RateLimitRepository
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

// MockCacheRepository is a mock of CacheRepository
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

// MockAnomalyFlagger is a mock of AnomalyFlagger
type MockAnomalyFlagger struct {
	mock.Mock
}

func (m *MockAnomalyFlagger) Flag(ctx context.Context, occurrence *domain.Occurrence, reason string) error {
	args := m.Called(ctx, occurrence, reason)
	return args.Error(0)
}

// MockAuditRepository is a mock of AuditRepository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Record(ctx context.Context, action, actorID string, details map[string]interface{}) error {
	args := m.Called(ctx, action, actorID, details)
	return args.Error(0)
}

func newTestOccurrenceUseCase(occs *MockOccurrenceRepository) *usecase.OccurrenceUseCase {
	cfg := config.IngestConfig{
		MaxReporterDistance: 100,
		RateLimitPerHour:    5,
		CollaborativeExpiry: 7 * 24 * time.Hour,
		CorroborationRadius: 500,
		CorroborationWindow: 30 * time.Minute,
		RecomputeDebounce:   time.Minute,
	}
	return usecase.NewOccurrenceUseCase(
		occs,
		&MockRegionRepository{},
		&MockRateLimitRepository{},
		&MockStreamRepository{},
		&MockAnomalyFlagger{},
		&MockAuditRepository{},
		&MockCacheRepository{},
		cfg,
		zap.NewNop(),
	)
}

func TestExpirationWorker_Name(t *testing.T) {
	worker := jobs.NewExpirationWorker(newTestOccurrenceUseCase(&MockOccurrenceRepository{}), time.Hour, zap.NewNop())

	assert.Equal(t, "occurrence-expiration", worker.Name())
}

func TestExpirationWorker_Stop(t *testing.T) {
	worker := jobs.NewExpirationWorker(newTestOccurrenceUseCase(&MockOccurrenceRepository{}), time.Hour, zap.NewNop())

	// Stop should be safe before Start and when called twice.
	assert.NoError(t, worker.Stop())
	assert.NoError(t, worker.Stop())
	assert.True(t, worker.IsStopped())
}

func TestExpirationWorker_RunsBatches(t *testing.T) {
	occs := &MockOccurrenceRepository{}
	ran := make(chan struct{})
	occs.On("FindExpiredCandidates", mock.Anything, mock.Anything, 500).
		Run(func(mock.Arguments) {
			select {
			case ran <- struct{}{}:
			default:
			}
		}).
		Return([]*domain.Occurrence{}, nil)

	worker := jobs.NewExpirationWorker(newTestOccurrenceUseCase(occs), 10*time.Millisecond, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- worker.Start(context.Background()) }()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("expiration batch never ran")
	}

	require.NoError(t, worker.Stop())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestExpirationWorker_ContextCancellation(t *testing.T) {
	worker := jobs.NewExpirationWorker(newTestOccurrenceUseCase(&MockOccurrenceRepository{}), time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not observe cancellation")
	}
}
