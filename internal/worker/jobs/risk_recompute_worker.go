package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/saferoute-service/internal/domain"
	"github.com/saferoute-service/internal/domain/repository"
	"github.com/saferoute-service/internal/pkg/metrics"
	"github.com/saferoute-service/internal/usecase"
	"github.com/saferoute-service/internal/worker"
)

const retryPause = time.Second

// RiskRecomputeWorker consumes region recompute jobs from the stream and
// periodically sweeps every region so expired occurrences age out of the
// indexes even without new reports.
type RiskRecomputeWorker struct {
	*worker.BaseWorker
	streamRepo   repository.StreamRepository
	regionRepo   repository.RegionRepository
	riskUC       *usecase.RiskIndexUseCase
	consumerName string
	maxRetries   int
	sweepEvery   time.Duration
}

func NewRiskRecomputeWorker(
	streamRepo repository.StreamRepository,
	regionRepo repository.RegionRepository,
	riskUC *usecase.RiskIndexUseCase,
	consumerGroup string,
	maxRetries int,
	sweepEvery time.Duration,
	logger *zap.Logger,
) *RiskRecomputeWorker {
	hostname, _ := os.Hostname()
	consumerName := fmt.Sprintf("%s-%d", hostname, os.Getpid())

	return &RiskRecomputeWorker{
		BaseWorker:   worker.NewBaseWorker("risk-recompute", consumerGroup, logger),
		streamRepo:   streamRepo,
		regionRepo:   regionRepo,
		riskUC:       riskUC,
		consumerName: consumerName,
		maxRetries:   maxRetries,
		sweepEvery:   sweepEvery,
	}
}

func (w *RiskRecomputeWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting RiskRecomputeWorker",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.consumerName),
		zap.Duration("sweep_interval", w.sweepEvery))

	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamRiskRecompute, w.ConsumerGroup()); err != nil {
		logger.Error("Failed to create consumer group", zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	messages, err := w.streamRepo.Consume(ctx, domain.StreamRiskRecompute, w.ConsumerGroup(), w.consumerName)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	ticker := time.NewTicker(w.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil

		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()

		case msg, ok := <-messages:
			if !ok {
				logger.Info("Message channel closed")
				return nil
			}
			w.handleMessage(ctx, msg)

		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *RiskRecomputeWorker) handleMessage(ctx context.Context, msg domain.StreamMessage) {
	logger := w.Logger()

	var job domain.RiskRecomputeJob
	if err := json.Unmarshal([]byte(msg.Data), &job); err != nil {
		logger.Warn("Skipping undecodable job",
			zap.String("message_id", msg.ID),
			zap.Error(err))
		w.ack(ctx, msg.ID)
		return
	}

	// A failed recomputation keeps the prior index; the job is retried a
	// few times before giving up.
	var err error
	for attempt := 0; attempt < w.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(retryPause)
		}
		if _, err = w.riskUC.Recompute(ctx, job.RegionID); err == nil {
			metrics.RiskRecomputes.WithLabelValues("stream").Inc()
			break
		}
	}
	if err != nil {
		logger.Error("Risk recompute failed, prior index kept",
			zap.String("region_id", job.RegionID),
			zap.Int("attempts", w.maxRetries),
			zap.Error(err))
	}

	w.ack(ctx, msg.ID)
}

// sweep recomputes every region. Failures are logged and skipped; the next
// sweep picks them up.
func (w *RiskRecomputeWorker) sweep(ctx context.Context) {
	logger := w.Logger()

	ids, err := w.regionRepo.ListIDs(ctx)
	if err != nil {
		logger.Error("Sweep failed to list regions", zap.Error(err))
		return
	}

	failed := 0
	for _, id := range ids {
		if _, err := w.riskUC.Recompute(ctx, id); err != nil {
			failed++
			continue
		}
		metrics.RiskRecomputes.WithLabelValues("sweep").Inc()
	}

	logger.Info("Risk sweep finished",
		zap.Int("regions", len(ids)),
		zap.Int("failed", failed))
}

func (w *RiskRecomputeWorker) ack(ctx context.Context, messageID string) {
	if err := w.streamRepo.Ack(ctx, domain.StreamRiskRecompute, w.ConsumerGroup(), messageID); err != nil {
		w.Logger().Warn("Failed to ack message", zap.String("message_id", messageID), zap.Error(err))
	}
}
