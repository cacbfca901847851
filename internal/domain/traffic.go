package domain

import "time"

type TrafficCondition string

const (
	TrafficFree     TrafficCondition = "free"
	TrafficModerate TrafficCondition = "moderate"
	TrafficHeavy    TrafficCondition = "heavy"
	TrafficSevere   TrafficCondition = "severe"
)

// ConditionFromDelayRatio maps a delay ratio onto the condition scale used
// in summaries.
func ConditionFromDelayRatio(ratio float64) TrafficCondition {
	switch {
	case ratio >= 1.0:
		return TrafficSevere
	case ratio >= 0.5:
		return TrafficHeavy
	case ratio >= 0.2:
		return TrafficModerate
	}
	return TrafficFree
}

// TrafficData summarizes traffic along a route or a route segment.
type TrafficData struct {
	CurrentDuration float64           `json:"current_duration"` // seconds
	TypicalDuration float64           `json:"typical_duration"` // seconds
	DelayRatio      float64           `json:"delay_ratio"`
	Condition       TrafficCondition  `json:"condition"`
	Segments        []TrafficSegment  `json:"segments,omitempty"`
	Incidents       []TrafficIncident `json:"incidents,omitempty"`
	FetchedAt       time.Time         `json:"fetched_at"`
}

// NewTrafficData derives the delay ratio and condition from durations.
func NewTrafficData(current, typical float64) TrafficData {
	ratio := 0.0
	if typical > 0 {
		ratio = (current - typical) / typical
	}
	return TrafficData{
		CurrentDuration: current,
		TypicalDuration: typical,
		DelayRatio:      ratio,
		Condition:       ConditionFromDelayRatio(ratio),
		FetchedAt:       time.Now().UTC(),
	}
}

// TrafficSegment is traffic data scoped to one fixed-length chunk of a
// route polyline. Incidents are attached to the segment they fall on.
type TrafficSegment struct {
	Start           Coordinates       `json:"start"`
	End             Coordinates       `json:"end"`
	Length          float64           `json:"length"` // meters
	CurrentDuration float64           `json:"current_duration"`
	TypicalDuration float64           `json:"typical_duration"`
	DelayRatio      float64           `json:"delay_ratio"`
	Incidents       []TrafficIncident `json:"incidents,omitempty"`
}

type TrafficIncident struct {
	Type        string      `json:"type"`
	Description string      `json:"description,omitempty"`
	Location    Coordinates `json:"location"`
	Severity    string      `json:"severity,omitempty"`
}
