package dto

import "time"

// PointRequest is a lat/lon pair as accepted on the wire.
type PointRequest struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lon float64 `json:"lon" validate:"min=-180,max=180"`
}

type CalculateRouteRequest struct {
	Origin        PointRequest `json:"origin" validate:"required"`
	Destination   PointRequest `json:"destination" validate:"required"`
	AvoidTolls    bool         `json:"avoid_tolls"`
	AvoidHighways bool         `json:"avoid_highways"`
	PreferSafer   bool         `json:"prefer_safer"`
}

type GeocodeRequest struct {
	Query string `json:"query" validate:"required,min=3,max=256"`
}

type ReverseGeocodeRequest struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lon float64 `json:"lon" validate:"min=-180,max=180"`
}

type CreateOccurrenceRequest struct {
	Location         PointRequest `json:"location" validate:"required"`
	ReporterLocation PointRequest `json:"reporter_location"`
	CrimeType        string       `json:"crime_type" validate:"required,min=2,max=64"`
	Severity         string       `json:"severity" validate:"required,oneof=low medium high critical"`
	Source           string       `json:"source" validate:"required,oneof=collaborative official"`
	Timestamp        time.Time    `json:"timestamp" validate:"required"`
	ReporterID       string       `json:"reporter_id"`
}

type MergeOccurrencesRequest struct {
	IDs      []string `json:"ids" validate:"required,min=2,dive,uuid"`
	TargetID string   `json:"target_id" validate:"required,uuid"`
	ActorID  string   `json:"actor_id" validate:"required"`
}

type StartSessionRequest struct {
	Origin        PointRequest `json:"origin" validate:"required"`
	Destination   PointRequest `json:"destination" validate:"required"`
	AvoidTolls    bool         `json:"avoid_tolls"`
	AvoidHighways bool         `json:"avoid_highways"`
	PreferSafer   bool         `json:"prefer_safer"`
}

type UpdatePositionRequest struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lon float64 `json:"lon" validate:"min=-180,max=180"`
}

type AlternativeDecisionRequest struct {
	Accept bool `json:"accept"`
}
