package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	stageFetch         = "fetch"
	stageMetadata      = "metadata"
	stagePaperJudge    = "paper_judge"
	stageResponseJudge = "response_judge"
)

// Metrics groups the verification counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Verifications    *prometheus.CounterVec
	CacheLookups     *prometheus.CounterVec
	UpstreamFailures *prometheus.CounterVec
	CachedVerdicts   prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "message_verifications_total",
			Help: "Verification requests by outcome (created, existing, failed).",
		}, []string{"outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paper_verdict_cache_lookups_total",
			Help: "Paper verdict cache lookups by result (hit, miss).",
		}, []string{"result"}),
		UpstreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "verification_upstream_failures_total",
			Help: "Upstream failures absorbed into fail-soft defaults, by stage.",
		}, []string{"stage"}),
		CachedVerdicts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "paper_verdict_cache_rows",
			Help: "Number of rows in the paper verdict cache.",
		}),
	}
	reg.MustRegister(m.Verifications, m.CacheLookups, m.UpstreamFailures, m.CachedVerdicts)
	return m
}

func (m *Metrics) verification(outcome string) {
	if m != nil {
		m.Verifications.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) cacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
	} else {
		m.CacheLookups.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) upstreamFailure(stage string) {
	if m != nil {
		m.UpstreamFailures.WithLabelValues(stage).Inc()
	}
}

// SetCachedVerdicts updates the cache size gauge.
func (m *Metrics) SetCachedVerdicts(n int64) {
	if m != nil {
		m.CachedVerdicts.Set(float64(n))
	}
}
