package domain

import "time"

type SessionStatus string

const (
	SessionActive        SessionStatus = "active"
	SessionRecalculating SessionStatus = "recalculating"
	SessionEnded         SessionStatus = "ended"
)

// NavigationSession tracks one active trip. All mutation goes through the
// navigation use case, which serializes updates per session.
type NavigationSession struct {
	ID                 string         `json:"id"`
	Route              RouteWithRisk  `json:"route"`
	CurrentPosition    Coordinates    `json:"current_position"`
	OriginalDuration   float64        `json:"original_duration"` // seconds
	CurrentDuration    float64        `json:"current_duration"`  // seconds
	MaxRisk            float64        `json:"max_risk"`
	InstructionIndex   int            `json:"instruction_index"`
	Status             SessionStatus  `json:"status"`
	PendingAlternative *RouteWithRisk `json:"pending_alternative,omitempty"`
	Speed              float64        `json:"speed"`              // meters per second
	RemainingDistance  float64        `json:"remaining_distance"` // meters
	RemainingDuration  float64        `json:"remaining_duration"` // seconds
	StartedAt          time.Time      `json:"started_at"`
	LastUpdateAt       time.Time      `json:"last_update_at"`
	LastTrafficCheck   time.Time      `json:"last_traffic_check"`

	// Seq increases on every position update; recalculation results tagged
	// with an older value are discarded.
	Seq uint64 `json:"seq"`
}
