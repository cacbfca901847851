package maps

import (
	stderrors "errors"

	"github.com/saferoute-service/internal/pkg/errors"
)

// IsRetryable reports whether a provider failure is worth retrying on the
// same provider. Timeouts and transient unavailability are; auth and quota
// failures are not.
func IsRetryable(err error) bool {
	return stderrors.Is(err, errors.ErrProviderTimeout) ||
		stderrors.Is(err, errors.ErrProviderUnavailable)
}

// IsNotFound reports a "provider found nothing" result, which is surfaced
// to callers as an empty result rather than a system error.
func IsNotFound(err error) bool {
	return stderrors.Is(err, errors.ErrNoRouteFound) ||
		stderrors.Is(err, errors.ErrGeocodeNotFound)
}

// classifyHTTPStatus maps upstream status codes onto the application error
// taxonomy shared by all adapters.
func classifyHTTPStatus(status int) *errors.AppError {
	switch {
	case status == 401 || status == 403:
		return errors.ErrProviderAuthFailed
	case status == 429:
		return errors.ErrQuotaExceeded
	case status == 404:
		return errors.ErrNoRouteFound
	case status >= 500:
		return errors.ErrProviderUnavailable
	}
	return errors.ErrProviderUnavailable
}
