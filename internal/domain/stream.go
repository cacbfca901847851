package domain

import "time"

// Stream names for the background job queue.
const (
	StreamRiskRecompute = "jobs:risk-recompute"
	StreamAnomalyFlags  = "jobs:anomaly-flags"
)

// StreamMessage is one raw message read from a stream.
type StreamMessage struct {
	ID   string
	Data string
}

// RiskRecomputeJob asks the worker to recompute one region's risk index.
type RiskRecomputeJob struct {
	RegionID   string    `json:"region_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// AnomalyFlag is the payload handed to the external moderation pipeline.
type AnomalyFlag struct {
	OccurrenceID string    `json:"occurrence_id"`
	Reason       string    `json:"reason"`
	FlaggedAt    time.Time `json:"flagged_at"`
}
