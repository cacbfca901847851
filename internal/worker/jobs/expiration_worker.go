package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/saferoute-service/internal/usecase"
	"github.com/saferoute-service/internal/worker"
)

const expirationBatchSize = 500

// ExpirationWorker periodically retires collaborative occurrences past
// their expiry, honoring the preservation rules.
type ExpirationWorker struct {
	*worker.BaseWorker
	occurrenceUC *usecase.OccurrenceUseCase
	interval     time.Duration
}

func NewExpirationWorker(occurrenceUC *usecase.OccurrenceUseCase, interval time.Duration, logger *zap.Logger) *ExpirationWorker {
	return &ExpirationWorker{
		BaseWorker:   worker.NewBaseWorker("occurrence-expiration", "", logger),
		occurrenceUC: occurrenceUC,
		interval:     interval,
	}
}

func (w *ExpirationWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting ExpirationWorker", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil

		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()

		case <-ticker.C:
			if _, err := w.occurrenceUC.ExpireBatch(ctx, expirationBatchSize); err != nil {
				logger.Error("Expiration batch failed", zap.Error(err))
			}
		}
	}
}
