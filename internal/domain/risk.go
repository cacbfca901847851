package domain

import "time"

type RiskFactorType string

const (
	FactorFrequency  RiskFactorType = "frequency"
	FactorRecency    RiskFactorType = "recency"
	FactorSeverity   RiskFactorType = "severity"
	FactorConfidence RiskFactorType = "confidence"
)

// RiskFactor is one weighted component of a region's risk index.
type RiskFactor struct {
	Type         RiskFactorType `json:"type" db:"type"`
	Weight       float64        `json:"weight" db:"weight"`             // [0,1]
	Contribution float64        `json:"contribution" db:"contribution"` // [0,100]
}

// RiskIndex is the bounded 0-100 risk score of a region at a point in time.
// Recomputation replaces the previous value wholesale; the index is never
// mutated incrementally.
type RiskIndex struct {
	RegionID          string       `json:"region_id" db:"region_id"`
	Value             float64      `json:"value" db:"value"`
	Factors           []RiskFactor `json:"factors" db:"-"`
	OccurrenceCount   int          `json:"occurrence_count" db:"occurrence_count"`
	DominantCrimeType string       `json:"dominant_crime_type" db:"dominant_crime_type"`
	CalculatedAt      time.Time    `json:"calculated_at" db:"calculated_at"`
}

// ZeroRiskIndex is the index reported for regions without a computed value.
func ZeroRiskIndex(regionID string) RiskIndex {
	return RiskIndex{
		RegionID:     regionID,
		Value:        0,
		CalculatedAt: time.Time{},
	}
}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns the ordinal position used for severity weighting.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

func (s Severity) Valid() bool {
	return s.Rank() > 0
}
