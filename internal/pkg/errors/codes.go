package errors

import "net/http"

var (
	ErrInvalidCoordinates = New(
		"INVALID_COORDINATES",
		"Invalid coordinates provided",
		http.StatusBadRequest,
	)

	ErrValidation = New(
		"VALIDATION_ERROR",
		"Request validation failed",
		http.StatusBadRequest,
	)

	ErrLocationTooFar = New(
		"LOCATION_TOO_FAR",
		"Reported location is too far from the reporter position",
		http.StatusUnprocessableEntity,
	)

	ErrRateLimitExceeded = New(
		"RATE_LIMIT_EXCEEDED",
		"Submission rate limit exceeded",
		http.StatusTooManyRequests,
	)

	ErrProviderTimeout = New(
		"PROVIDER_TIMEOUT",
		"Map provider request timed out",
		http.StatusGatewayTimeout,
	)

	ErrProviderUnavailable = New(
		"PROVIDER_UNAVAILABLE",
		"Map provider is unavailable",
		http.StatusBadGateway,
	)

	ErrProviderAuthFailed = New(
		"PROVIDER_AUTH_FAILED",
		"Map provider rejected the credentials",
		http.StatusBadGateway,
	)

	ErrQuotaExceeded = New(
		"QUOTA_EXCEEDED",
		"Map provider quota exceeded",
		http.StatusBadGateway,
	)

	ErrNoRouteFound = New(
		"NO_ROUTE_FOUND",
		"No route found between the given points",
		http.StatusNotFound,
	)

	ErrGeocodeNotFound = New(
		"GEOCODE_NOT_FOUND",
		"No geocoding results for the given query",
		http.StatusNotFound,
	)

	ErrSessionNotFound = New(
		"SESSION_NOT_FOUND",
		"Navigation session not found",
		http.StatusNotFound,
	)

	ErrSessionEnded = New(
		"SESSION_ENDED",
		"Navigation session has already ended",
		http.StatusConflict,
	)

	ErrRecalculationFailed = New(
		"RECALCULATION_FAILED",
		"Route recalculation failed, previous route kept",
		http.StatusBadGateway,
	)

	ErrRegionNotFound = New(
		"REGION_NOT_FOUND",
		"Region not found",
		http.StatusNotFound,
	)

	ErrOccurrenceNotFound = New(
		"OCCURRENCE_NOT_FOUND",
		"Occurrence not found",
		http.StatusNotFound,
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
