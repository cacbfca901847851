package maps

import (
	"sync"
	"time"

	"github.com/saferoute-service/internal/pkg/metrics"
)

// quotaThreshold is the fraction of the window quota at which shedding
// starts.
const quotaThreshold = 0.8

// QuotaTracker counts provider calls per rolling window. At or above 80%
// of the quota it suppresses non-essential calls entirely and sheds every
// second essential call until the window resets. State is explicit and
// injected; there are no package-level counters.
type QuotaTracker struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	nowFn  func() time.Time

	counters map[string]*quotaWindow
}

type quotaWindow struct {
	count       int
	shedParity  int
	windowStart time.Time
}

func NewQuotaTracker(limit int, window time.Duration) *QuotaTracker {
	return &QuotaTracker{
		limit:    limit,
		window:   window,
		nowFn:    time.Now,
		counters: make(map[string]*quotaWindow),
	}
}

// Allow decides whether a call may proceed and records it when it may.
// Essential calls (route calculation, geocoding) are shed at 50% above the
// threshold; non-essential calls (alternatives) are suppressed outright.
func (q *QuotaTracker) Allow(provider string, essential bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	w := q.counters[provider]
	now := q.nowFn()
	if w == nil || now.Sub(w.windowStart) >= q.window {
		w = &quotaWindow{windowStart: now}
		q.counters[provider] = w
	}

	if w.count >= q.limit {
		metrics.QuotaSuppressions.WithLabelValues(provider).Inc()
		return false
	}

	if float64(w.count) >= quotaThreshold*float64(q.limit) {
		if !essential {
			metrics.QuotaSuppressions.WithLabelValues(provider).Inc()
			return false
		}
		w.shedParity++
		if w.shedParity%2 == 0 {
			metrics.QuotaSuppressions.WithLabelValues(provider).Inc()
			return false
		}
	}

	w.count++
	return true
}

// Usage returns the current window count for a provider.
func (q *QuotaTracker) Usage(provider string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	w := q.counters[provider]
	if w == nil || q.nowFn().Sub(w.windowStart) >= q.window {
		return 0
	}
	return w.count
}
