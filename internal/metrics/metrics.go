package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pricetracker_client"

// Outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// Recorder counts refresh exchanges and request replays. A nil *Recorder records nothing.
type Recorder struct {
	refreshExchanges *prometheus.CounterVec
	refreshJoined    prometheus.Counter
	refreshDuration  prometheus.Histogram
	replays          *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg gets a private registry.
func New(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	r := &Recorder{
		refreshExchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_exchanges_total",
			Help:      "Refresh exchanges by outcome. skipped means no refresh token was held.",
		}, []string{"outcome"}),
		refreshJoined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_joined_total",
			Help:      "Callers that waited on an exchange started by another request.",
		}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Time from Pending Refresh creation to resolution.",
			Buckets:   prometheus.DefBuckets,
		}),
		replays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_replays_total",
			Help:      "Requests resent after a refresh, by outcome of the resend.",
		}, []string{"outcome"}),
	}
	for _, c := range []prometheus.Collector{r.refreshExchanges, r.refreshJoined, r.refreshDuration, r.replays} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register collector: %w", err)
		}
	}
	return r, nil
}

func (r *Recorder) RefreshExchange(outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.refreshExchanges.WithLabelValues(outcome).Inc()
	if outcome != OutcomeSkipped {
		r.refreshDuration.Observe(elapsed.Seconds())
	}
}

func (r *Recorder) RefreshJoined() {
	if r == nil {
		return
	}
	r.refreshJoined.Inc()
}

func (r *Recorder) Replay(outcome string) {
	if r == nil {
		return
	}
	r.replays.WithLabelValues(outcome).Inc()
}

// RefreshExchanges exposes the counter for assertions in tests
func (r *Recorder) RefreshExchanges(outcome string) prometheus.Counter {
	return r.refreshExchanges.WithLabelValues(outcome)
}

func (r *Recorder) Joined() prometheus.Counter {
	return r.refreshJoined
}

func (r *Recorder) Replays(outcome string) prometheus.Counter {
	return r.replays.WithLabelValues(outcome)
}
