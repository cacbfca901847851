package domain

import "time"

type OccurrenceSource string

const (
	SourceCollaborative OccurrenceSource = "collaborative"
	SourceOfficial      OccurrenceSource = "official"
)

type OccurrenceStatus string

const (
	OccurrenceActive   OccurrenceStatus = "active"
	OccurrenceExpired  OccurrenceStatus = "expired"
	OccurrenceRejected OccurrenceStatus = "rejected"
	OccurrenceMerged   OccurrenceStatus = "merged"
)

const (
	// OfficialConfidence is fixed for official reports.
	OfficialConfidence = 5
	// CollaborativeBaseConfidence is the starting score for user reports.
	CollaborativeBaseConfidence = 2
	// CollaborativeMaxConfidence caps corroboration and merge increments.
	CollaborativeMaxConfidence = 4
)

// Occurrence is a single reported crime or safety incident.
type Occurrence struct {
	ID              string           `json:"id" db:"id"`
	Timestamp       time.Time        `json:"timestamp" db:"occurred_at"`
	Location        Coordinates      `json:"location" db:"-"`
	CrimeType       string           `json:"crime_type" db:"crime_type"`
	Severity        Severity         `json:"severity" db:"severity"`
	ConfidenceScore int              `json:"confidence_score" db:"confidence_score"`
	Source          OccurrenceSource `json:"source" db:"source"`
	RegionID        string           `json:"region_id,omitempty" db:"region_id"`
	ReporterID      string           `json:"reporter_id,omitempty" db:"reporter_id"`
	Status          OccurrenceStatus `json:"status" db:"status"`
	MergedIntoID    string           `json:"merged_into_id,omitempty" db:"merged_into_id"`
	ExpiresAt       *time.Time       `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
}

// IsExpired reports whether the occurrence is past its expiry. Official
// occurrences never expire.
func (o *Occurrence) IsExpired(now time.Time) bool {
	if o.Source == SourceOfficial || o.ExpiresAt == nil {
		return false
	}
	return now.After(*o.ExpiresAt)
}

// ConfidenceCeiling returns the maximum confidence the occurrence can reach
// through corroboration or merging.
func (o *Occurrence) ConfidenceCeiling() int {
	if o.Source == SourceOfficial {
		return OfficialConfidence
	}
	return CollaborativeMaxConfidence
}

// CorroborationLink records that two independent occurrences agreed on
// type, time and location. Stored as id references, never live pointers.
type CorroborationLink struct {
	OccurrenceID   string    `json:"occurrence_id" db:"occurrence_id"`
	CorroboratedBy string    `json:"corroborated_by" db:"corroborated_by"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// ValidationRecord is an official confirmation attached to a collaborative
// occurrence; its presence preserves the occurrence from expiration.
type ValidationRecord struct {
	OccurrenceID string    `json:"occurrence_id" db:"occurrence_id"`
	ValidatedBy  string    `json:"validated_by" db:"validated_by"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// OccurrenceFilter narrows repository queries.
type OccurrenceFilter struct {
	CrimeType string
	Statuses  []OccurrenceStatus
	Since     time.Time
	Until     time.Time
}
