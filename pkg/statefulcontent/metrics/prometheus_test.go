package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/stateful-content/pkg/statefulcontent"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"success", nil, "ok"},
		{"rate limited", &statefulcontent.FetchError{StatusCode: 429, RateLimited: true}, "rate_limited"},
		{"fetch", &statefulcontent.FetchError{StatusCode: 500}, "fetch_error"},
		{"decode", &statefulcontent.DecodeError{Err: errors.New("bad json")}, "decode_error"},
		{"other", errors.New("boom"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, outcome(tt.err))
		})
	}
}

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)

	r.FetchCompleted(statefulcontent.APIModePreview, "course", nil)
	r.FetchCompleted(statefulcontent.APIModePreview, "course", nil)
	r.StateResolved("course", statefulcontent.ResourceStateDraft)
	r.ResolutionSkipped("lesson", &statefulcontent.FetchError{StatusCode: 503})

	assert.Equal(t, 2.0, testutil.ToFloat64(r.fetches.WithLabelValues("preview", "course", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.resolutions.WithLabelValues("course", "draft")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.skipped.WithLabelValues("lesson", "fetch_error")))

	_, err = NewRecorder(reg)
	assert.Error(t, err, "registering twice fails")
}
