package gamebridge

import "sync/atomic"

// MetricID identifies one engine outcome counter.
type MetricID uint16

const (
	// MetricLoginSuccess counts logins that produced a stored token.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts credential rejections by the remote API.
	MetricLoginFailure
	// MetricLoginLocked counts logins refused by the lockout guard before
	// any network call.
	MetricLoginLocked
	// MetricRefreshSuccess counts inline refreshes that produced a new token.
	MetricRefreshSuccess
	// MetricRefreshFailure counts inline refreshes that cleared the token.
	MetricRefreshFailure
	// MetricTokenMalformed counts stored tokens discarded as structurally
	// invalid.
	MetricTokenMalformed
	// MetricRegisterSuccess counts remote account creations.
	MetricRegisterSuccess
	// MetricRegisterConflict counts duplicate-account responses.
	MetricRegisterConflict
	// MetricRegisterFallbackLogin counts conflicts recovered by logging in
	// with the same credentials.
	MetricRegisterFallbackLogin
	// MetricRegisterValidation counts field-level registration rejections.
	MetricRegisterValidation
	// MetricLogout counts token clears requested by callers.
	MetricLogout
	// MetricLinkReset counts administrative unregister flows.
	MetricLinkReset
	// MetricGateAllowed counts access-gate checks that passed.
	MetricGateAllowed
	// MetricGateDenied counts access-gate checks that failed.
	MetricGateDenied

	metricCount
)

// Metrics is a fixed set of in-process atomic counters. Cheap enough to
// leave enabled in production; scraped via Snapshot.
type Metrics struct {
	counters [metricCount]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

func newMetrics(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	return &Metrics{}
}

// Inc increments one counter. Safe for concurrent use; a nil receiver is a
// no-op so disabled metrics cost a single branch.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// Snapshot copies every counter into a fresh map.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricCount)}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
