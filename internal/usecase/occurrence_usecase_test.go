package usecase

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
	"github.com/saferoute-service/internal/pkg/errors"
)

type occurrenceMocks struct {
	occs       *MockOccurrenceRepository
	regions    *MockRegionRepository
	rateLimits *MockRateLimitRepository
	streams    *MockStreamRepository
	flagger    *MockAnomalyFlagger
	audit      *MockAuditRepository
	cache      *MockCacheRepository
}

func testIngestConfig() config.IngestConfig {
	return config.IngestConfig{
		MaxReporterDistance: 100,
		RateLimitPerHour:    5,
		CollaborativeExpiry: 7 * 24 * time.Hour,
		CorroborationRadius: 500,
		CorroborationWindow: 30 * time.Minute,
		RecomputeDebounce:   time.Minute,
	}
}

func newOccurrenceUseCase(now time.Time) (*OccurrenceUseCase, *occurrenceMocks) {
	m := &occurrenceMocks{
		occs:       new(MockOccurrenceRepository),
		regions:    new(MockRegionRepository),
		rateLimits: new(MockRateLimitRepository),
		streams:    new(MockStreamRepository),
		flagger:    new(MockAnomalyFlagger),
		audit:      new(MockAuditRepository),
		cache:      new(MockCacheRepository),
	}
	uc := NewOccurrenceUseCase(m.occs, m.regions, m.rateLimits, m.streams, m.flagger, m.audit, m.cache, testIngestConfig(), zap.NewNop())
	uc.nowFn = func() time.Time { return now }
	return uc, m
}

func validCollaborativeInput(now time.Time) CreateOccurrenceInput {
	return CreateOccurrenceInput{
		Location:         domain.Coordinates{Lat: -23.5505, Lon: -46.6333},
		ReporterLocation: domain.Coordinates{Lat: -23.5505, Lon: -46.6333},
		CrimeType:        "theft",
		Severity:         domain.SeverityMedium,
		Source:           domain.SourceCollaborative,
		Timestamp:        now,
		ReporterID:       "reporter-1",
	}
}

func TestOccurrenceCreateValidation(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	uc, _ := newOccurrenceUseCase(now)

	cases := []struct {
		name   string
		mutate func(*CreateOccurrenceInput)
	}{
		{"invalid severity", func(in *CreateOccurrenceInput) { in.Severity = "extreme" }},
		{"missing crime type", func(in *CreateOccurrenceInput) { in.CrimeType = "" }},
		{"unknown source", func(in *CreateOccurrenceInput) { in.Source = "anonymous" }},
		{"future timestamp", func(in *CreateOccurrenceInput) { in.Timestamp = now.Add(time.Hour) }},
		{"collaborative without reporter", func(in *CreateOccurrenceInput) { in.ReporterID = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validCollaborativeInput(now)
			tc.mutate(&input)
			_, err := uc.Create(context.Background(), input)
			assert.ErrorIs(t, err, errors.ErrValidation)
		})
	}
}

func TestOccurrenceCreateCollaborative(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("reporter too far from the report", func(t *testing.T) {
		uc, m := newOccurrenceUseCase(now)
		input := validCollaborativeInput(now)
		input.ReporterLocation = domain.Coordinates{Lat: -23.5505, Lon: -46.6313} // ~200 m east

		_, err := uc.Create(context.Background(), input)
		assert.ErrorIs(t, err, errors.ErrLocationTooFar)
		m.rateLimits.AssertNotCalled(t, "Increment", mock.Anything, mock.Anything, mock.Anything)
		m.occs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rate limit exceeded", func(t *testing.T) {
		uc, m := newOccurrenceUseCase(now)
		resetAt := now.Add(20 * time.Minute)
		m.rateLimits.On("Increment", mock.Anything, "reporter-1", time.Hour).Return(6, resetAt, nil)

		_, err := uc.Create(context.Background(), validCollaborativeInput(now))
		assert.ErrorIs(t, err, errors.ErrRateLimitExceeded)
		m.occs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("successful ingest", func(t *testing.T) {
		uc, m := newOccurrenceUseCase(now)
		region := squareTestRegion("hood", domain.RegionNeighborhood, -23.56, -46.64, -23.54, -46.62)

		m.rateLimits.On("Increment", mock.Anything, "reporter-1", time.Hour).Return(2, now.Add(time.Hour), nil)
		m.regions.On("FindContaining", mock.Anything, mock.Anything).Return([]*domain.Region{region}, nil)
		m.occs.On("Create", mock.Anything, mock.Anything).Return(nil)
		m.occs.On("FindNear", mock.Anything, mock.Anything, 500.0, mock.Anything).Return([]*domain.Occurrence{}, nil)
		m.flagger.On("Flag", mock.Anything, mock.Anything, "ingest").Return(nil)
		m.cache.On("Exists", mock.Anything, "recompute:debounce:hood").Return(false, nil)
		m.cache.On("Set", mock.Anything, "recompute:debounce:hood", mock.Anything, time.Minute).Return(nil)
		m.streams.On("Publish", mock.Anything, domain.StreamRiskRecompute, mock.Anything).Return(nil)

		result, err := uc.Create(context.Background(), validCollaborativeInput(now))
		require.NoError(t, err)

		occ := result.Occurrence
		assert.NotEmpty(t, occ.ID)
		assert.Equal(t, domain.CollaborativeBaseConfidence, occ.ConfidenceScore)
		assert.Equal(t, "reporter-1", occ.ReporterID)
		assert.Equal(t, "hood", occ.RegionID)
		assert.Equal(t, domain.OccurrenceActive, occ.Status)
		require.NotNil(t, occ.ExpiresAt)
		assert.Equal(t, now.Add(7*24*time.Hour), *occ.ExpiresAt)
		assert.Equal(t, 3, result.RemainingReports)

		m.flagger.AssertCalled(t, "Flag", mock.Anything, occ, "ingest")
		m.streams.AssertCalled(t, "Publish", mock.Anything, domain.StreamRiskRecompute, mock.Anything)
	})

	t.Run("debounced region skips the enqueue", func(t *testing.T) {
		uc, m := newOccurrenceUseCase(now)
		region := squareTestRegion("hood", domain.RegionNeighborhood, -23.56, -46.64, -23.54, -46.62)

		m.rateLimits.On("Increment", mock.Anything, "reporter-1", time.Hour).Return(1, now.Add(time.Hour), nil)
		m.regions.On("FindContaining", mock.Anything, mock.Anything).Return([]*domain.Region{region}, nil)
		m.occs.On("Create", mock.Anything, mock.Anything).Return(nil)
		m.occs.On("FindNear", mock.Anything, mock.Anything, 500.0, mock.Anything).Return([]*domain.Occurrence{}, nil)
		m.flagger.On("Flag", mock.Anything, mock.Anything, "ingest").Return(nil)
		m.cache.On("Exists", mock.Anything, "recompute:debounce:hood").Return(true, nil)

		_, err := uc.Create(context.Background(), validCollaborativeInput(now))
		require.NoError(t, err)
		m.streams.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestOccurrenceCreateOfficial(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	uc, m := newOccurrenceUseCase(now)

	m.regions.On("FindContaining", mock.Anything, mock.Anything).Return([]*domain.Region{}, nil)
	m.occs.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.occs.On("FindNear", mock.Anything, mock.Anything, 500.0, mock.Anything).Return([]*domain.Occurrence{}, nil)

	input := CreateOccurrenceInput{
		Location:  domain.Coordinates{Lat: -23.5505, Lon: -46.6333},
		CrimeType: "robbery",
		Severity:  domain.SeverityHigh,
		Source:    domain.SourceOfficial,
		Timestamp: now.Add(-time.Hour),
	}
	result, err := uc.Create(context.Background(), input)
	require.NoError(t, err)

	occ := result.Occurrence
	assert.Equal(t, domain.OfficialConfidence, occ.ConfidenceScore)
	assert.Nil(t, occ.ExpiresAt)
	assert.Empty(t, occ.RegionID)

	// Official data never touches the rate limiter or the anomaly pipeline.
	m.rateLimits.AssertNotCalled(t, "Increment", mock.Anything, mock.Anything, mock.Anything)
	m.flagger.AssertNotCalled(t, "Flag", mock.Anything, mock.Anything, mock.Anything)
	m.streams.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestOccurrenceCorroboration(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("matching report bumps both sides", func(t *testing.T) {
		uc, m := newOccurrenceUseCase(now)
		match := &domain.Occurrence{
			ID:              "existing-1",
			ReporterID:      "reporter-2",
			ConfidenceScore: 2,
			Source:          domain.SourceCollaborative,
		}

		m.rateLimits.On("Increment", mock.Anything, "reporter-1", time.Hour).Return(1, now.Add(time.Hour), nil)
		m.regions.On("FindContaining", mock.Anything, mock.Anything).Return([]*domain.Region{}, nil)
		m.occs.On("Create", mock.Anything, mock.Anything).Return(nil)
		m.occs.On("FindNear", mock.Anything, mock.Anything, 500.0, mock.Anything).Return([]*domain.Occurrence{match}, nil)
		m.occs.On("AddCorroboration", mock.Anything, mock.Anything).Return(nil)
		m.occs.On("UpdateConfidence", mock.Anything, "existing-1", 3).Return(nil)
		m.occs.On("UpdateConfidence", mock.Anything, mock.Anything, 3).Return(nil)
		m.flagger.On("Flag", mock.Anything, mock.Anything, "ingest").Return(nil)

		result, err := uc.Create(context.Background(), validCollaborativeInput(now))
		require.NoError(t, err)

		assert.Equal(t, 3, result.Occurrence.ConfidenceScore)
		m.occs.AssertCalled(t, "UpdateConfidence", mock.Anything, "existing-1", 3)
	})

	t.Run("same reporter does not corroborate", func(t *testing.T) {
		uc, m := newOccurrenceUseCase(now)
		ownReport := &domain.Occurrence{
			ID:              "existing-1",
			ReporterID:      "reporter-1",
			ConfidenceScore: 2,
		}

		m.rateLimits.On("Increment", mock.Anything, "reporter-1", time.Hour).Return(1, now.Add(time.Hour), nil)
		m.regions.On("FindContaining", mock.Anything, mock.Anything).Return([]*domain.Region{}, nil)
		m.occs.On("Create", mock.Anything, mock.Anything).Return(nil)
		m.occs.On("FindNear", mock.Anything, mock.Anything, 500.0, mock.Anything).Return([]*domain.Occurrence{ownReport}, nil)
		m.flagger.On("Flag", mock.Anything, mock.Anything, "ingest").Return(nil)

		result, err := uc.Create(context.Background(), validCollaborativeInput(now))
		require.NoError(t, err)

		assert.Equal(t, domain.CollaborativeBaseConfidence, result.Occurrence.ConfidenceScore)
		m.occs.AssertNotCalled(t, "AddCorroboration", mock.Anything, mock.Anything)
	})

	t.Run("confidence never exceeds the collaborative cap", func(t *testing.T) {
		uc, m := newOccurrenceUseCase(now)
		capped := &domain.Occurrence{
			ID:              "existing-1",
			ReporterID:      "reporter-2",
			ConfidenceScore: domain.CollaborativeMaxConfidence,
			Source:          domain.SourceCollaborative,
		}

		m.rateLimits.On("Increment", mock.Anything, "reporter-1", time.Hour).Return(1, now.Add(time.Hour), nil)
		m.regions.On("FindContaining", mock.Anything, mock.Anything).Return([]*domain.Region{}, nil)
		m.occs.On("Create", mock.Anything, mock.Anything).Return(nil)
		m.occs.On("FindNear", mock.Anything, mock.Anything, 500.0, mock.Anything).Return([]*domain.Occurrence{capped}, nil)
		m.occs.On("AddCorroboration", mock.Anything, mock.Anything).Return(nil)
		m.occs.On("UpdateConfidence", mock.Anything, mock.Anything, 3).Return(nil)
		m.flagger.On("Flag", mock.Anything, mock.Anything, "ingest").Return(nil)

		_, err := uc.Create(context.Background(), validCollaborativeInput(now))
		require.NoError(t, err)

		// The capped match keeps its score; only the new report is bumped.
		m.occs.AssertNotCalled(t, "UpdateConfidence", mock.Anything, "existing-1", mock.Anything)
	})
}

func TestOccurrenceMerge(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("merges duplicates into the target", func(t *testing.T) {
		uc, m := newOccurrenceUseCase(now)
		target := &domain.Occurrence{
			ID:              "target",
			ConfidenceScore: 2,
			Source:          domain.SourceCollaborative,
			RegionID:        "hood",
		}

		m.occs.On("GetByID", mock.Anything, "target").Return(target, nil)
		m.occs.On("UpdateStatus", mock.Anything, "dup-1", domain.OccurrenceMerged, "target").Return(nil)
		m.occs.On("UpdateStatus", mock.Anything, "dup-2", domain.OccurrenceMerged, "target").Return(nil)
		m.occs.On("UpdateConfidence", mock.Anything, "target", 4).Return(nil)
		m.audit.On("Record", mock.Anything, "occurrences.merge", "moderator-1", mock.Anything).Return(nil)
		m.cache.On("Exists", mock.Anything, "recompute:debounce:hood").Return(false, nil)
		m.cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		m.streams.On("Publish", mock.Anything, domain.StreamRiskRecompute, mock.Anything).Return(nil)

		merged, err := uc.Merge(context.Background(), []string{"dup-1", "dup-2", "target"}, "target", "moderator-1")
		require.NoError(t, err)

		assert.Equal(t, 4, merged.ConfidenceScore)
		m.audit.AssertCalled(t, "Record", mock.Anything, "occurrences.merge", "moderator-1", mock.Anything)
	})

	t.Run("confidence stays within the ceiling", func(t *testing.T) {
		uc, m := newOccurrenceUseCase(now)
		target := &domain.Occurrence{
			ID:              "target",
			ConfidenceScore: 4,
			Source:          domain.SourceCollaborative,
		}

		m.occs.On("GetByID", mock.Anything, "target").Return(target, nil)
		m.occs.On("UpdateStatus", mock.Anything, "dup-1", domain.OccurrenceMerged, "target").Return(nil)
		m.audit.On("Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		merged, err := uc.Merge(context.Background(), []string{"dup-1"}, "target", "moderator-1")
		require.NoError(t, err)

		assert.Equal(t, domain.CollaborativeMaxConfidence, merged.ConfidenceScore)
		m.occs.AssertNotCalled(t, "UpdateConfidence", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("merging only the target is rejected", func(t *testing.T) {
		uc, m := newOccurrenceUseCase(now)
		m.occs.On("GetByID", mock.Anything, "target").Return(&domain.Occurrence{ID: "target"}, nil)

		_, err := uc.Merge(context.Background(), []string{"target"}, "target", "moderator-1")
		assert.ErrorIs(t, err, errors.ErrInvalidRequest)
	})
}

func TestOccurrenceExpireBatch(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	expired := now.Add(-time.Hour)

	t.Run("expires, preserves and recomputes", func(t *testing.T) {
		uc, m := newOccurrenceUseCase(now)
		candidates := []*domain.Occurrence{
			{ID: "plain", ConfidenceScore: 2, RegionID: "hood", Source: domain.SourceCollaborative, ExpiresAt: &expired},
			{ID: "trusted", ConfidenceScore: 4, RegionID: "hood", Source: domain.SourceCollaborative, ExpiresAt: &expired},
			{ID: "validated", ConfidenceScore: 2, RegionID: "other", Source: domain.SourceCollaborative, ExpiresAt: &expired},
		}

		m.occs.On("FindExpiredCandidates", mock.Anything, now, 500).Return(candidates, nil)
		m.occs.On("HasValidationRecord", mock.Anything, "plain").Return(false, nil)
		m.occs.On("HasValidationRecord", mock.Anything, "validated").Return(true, nil)
		m.occs.On("ExtendExpiry", mock.Anything, "trusted", now.Add(7*24*time.Hour)).Return(nil)
		m.occs.On("ExtendExpiry", mock.Anything, "validated", now.Add(7*24*time.Hour)).Return(nil)
		m.occs.On("UpdateStatus", mock.Anything, "plain", domain.OccurrenceExpired, "").Return(nil)
		m.cache.On("Exists", mock.Anything, "recompute:debounce:hood").Return(false, nil)
		m.cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		m.streams.On("Publish", mock.Anything, domain.StreamRiskRecompute, mock.Anything).Return(nil)

		regions, err := uc.ExpireBatch(context.Background(), 500)
		require.NoError(t, err)

		// Only the expired record's region needs a recompute.
		assert.Equal(t, []string{"hood"}, regions)
		m.occs.AssertCalled(t, "ExtendExpiry", mock.Anything, "trusted", now.Add(7*24*time.Hour))
		m.occs.AssertNotCalled(t, "UpdateStatus", mock.Anything, "trusted", mock.Anything, mock.Anything)
	})

	t.Run("no candidates", func(t *testing.T) {
		uc, m := newOccurrenceUseCase(now)
		m.occs.On("FindExpiredCandidates", mock.Anything, now, 100).Return([]*domain.Occurrence{}, nil)

		regions, err := uc.ExpireBatch(context.Background(), 100)
		require.NoError(t, err)
		assert.Empty(t, regions)
	})
}
