package dto

import (
	"time"

	"github.com/saferoute-service/internal/domain"
)

// RouteResponse is the primary calculation result, with an optional safer
// alternative when one qualified.
type RouteResponse struct {
	Route *domain.RouteWithRisk `json:"route"`
	Safer *domain.RouteWithRisk `json:"safer_alternative,omitempty"`
}

type GeocodeResponse struct {
	Results []domain.Address `json:"results"`
}

// CreateOccurrenceResponse carries the stored occurrence plus how many
// submissions the reporter has left in the current window.
type CreateOccurrenceResponse struct {
	Occurrence       *domain.Occurrence `json:"occurrence"`
	RemainingReports int                `json:"remaining_reports"`
}

type MergeOccurrencesResponse struct {
	TargetID   string `json:"target_id"`
	MergedIDs  []string `json:"merged_ids"`
	Confidence int    `json:"confidence"`
}

type RiskResponse struct {
	Risk *domain.RiskIndex `json:"risk"`
}

type SessionResponse struct {
	Session *domain.NavigationSession `json:"session"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Time      time.Time         `json:"time"`
	Database  string            `json:"database"`
	Cache     string            `json:"cache"`
	Providers map[string]string `json:"providers,omitempty"`
}
