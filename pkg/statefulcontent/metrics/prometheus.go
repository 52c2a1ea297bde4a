// Package metrics exports fetch and state resolution outcomes as Prometheus
// metrics.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tendant/stateful-content/pkg/statefulcontent"
)

// Recorder implements statefulcontent.Metrics with Prometheus counters.
type Recorder struct {
	fetches     *prometheus.CounterVec
	resolutions *prometheus.CounterVec
	skipped     *prometheus.CounterVec
}

// NewRecorder creates a Recorder and registers its collectors with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "statefulcontent",
			Name:      "fetches_total",
			Help:      "Entries fetches by API mode, content type and outcome.",
		}, []string{"mode", "content_type", "outcome"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "statefulcontent",
			Name:      "resolutions_total",
			Help:      "Resolved root entities by content type and resulting state.",
		}, []string{"content_type", "state"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "statefulcontent",
			Name:      "resolutions_skipped_total",
			Help:      "State resolutions skipped because the delivery fetch failed.",
		}, []string{"content_type", "reason"}),
	}
	for _, c := range []prometheus.Collector{r.fetches, r.resolutions, r.skipped} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// FetchCompleted implements statefulcontent.Metrics.
func (r *Recorder) FetchCompleted(mode statefulcontent.APIMode, contentType string, err error) {
	r.fetches.WithLabelValues(string(mode), contentType, outcome(err)).Inc()
}

// StateResolved implements statefulcontent.Metrics.
func (r *Recorder) StateResolved(contentType string, state statefulcontent.ResourceState) {
	r.resolutions.WithLabelValues(contentType, string(state)).Inc()
}

// ResolutionSkipped implements statefulcontent.Metrics.
func (r *Recorder) ResolutionSkipped(contentType string, err error) {
	r.skipped.WithLabelValues(contentType, outcome(err)).Inc()
}

func outcome(err error) string {
	var fe *statefulcontent.FetchError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &fe) && fe.RateLimited:
		return "rate_limited"
	case errors.Is(err, statefulcontent.ErrDecode):
		return "decode_error"
	case errors.Is(err, statefulcontent.ErrFetch):
		return "fetch_error"
	default:
		return "error"
	}
}
