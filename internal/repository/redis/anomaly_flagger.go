package redis

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/saferoute-service/internal/domain"
	"github.com/saferoute-service/internal/domain/repository"
)

type anomalyFlagger struct {
	streams repository.StreamRepository
	logger  *zap.Logger
}

// NewAnomalyFlagger hands occurrences to the external moderation pipeline
// through the flag stream. Fire-and-forget: a publish failure is logged
// and swallowed, ingestion never fails on it.
func NewAnomalyFlagger(streams repository.StreamRepository, logger *zap.Logger) repository.AnomalyFlagger {
	return &anomalyFlagger{
		streams: streams,
		logger:  logger,
	}
}

func (f *anomalyFlagger) Flag(ctx context.Context, occ *domain.Occurrence, reason string) error {
	flag := domain.AnomalyFlag{
		OccurrenceID: occ.ID,
		Reason:       reason,
		FlaggedAt:    time.Now().UTC(),
	}

	if err := f.streams.Publish(ctx, domain.StreamAnomalyFlags, flag); err != nil {
		f.logger.Warn("Failed to flag occurrence for review",
			zap.String("occurrence_id", occ.ID),
			zap.Error(err))
	}
	return nil
}
