package progress

import (
	"math"
	"time"
)

const defaultSmoothing = 0.3

// State is a progress event enriched with rate and ETA.
type State struct {
	// Percent is the completed share of the body, 0 to 100. It stays 0 when
	// the total size is unknown.
	Percent float64 `json:"percent"`
	// Total is the expected size in bytes, -1 when unknown.
	Total int64 `json:"total"`
	// Received is the number of bytes transferred.
	Received int64 `json:"received"`
	// ETA is the estimated remaining time in whole seconds, -1 when unknown.
	ETA int64 `json:"eta"`
	// Rate is the smoothed transfer rate in bytes per second.
	Rate float64 `json:"rate"`
}

// Estimator enriches raw progress counts. It is stateful and not safe for
// concurrent use.
type Estimator func(RawState) State

type estimatorConfig struct {
	now       func() time.Time
	smoothing float64
}

// EstimatorOption configures NewEstimator.
type EstimatorOption func(*estimatorConfig)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) EstimatorOption {
	return func(c *estimatorConfig) { c.now = now }
}

// WithSmoothing sets the exponential moving average factor applied to the
// instantaneous rate. Values outside (0, 1] are ignored.
func WithSmoothing(alpha float64) EstimatorOption {
	return func(c *estimatorConfig) {
		if alpha > 0 && alpha <= 1 {
			c.smoothing = alpha
		}
	}
}

// NewEstimator returns a fresh estimator whose clock starts now.
func NewEstimator(opts ...EstimatorOption) Estimator {
	cfg := estimatorConfig{now: time.Now, smoothing: defaultSmoothing}
	for _, opt := range opts {
		opt(&cfg)
	}

	lastAt := cfg.now()
	var lastReceived int64
	var rate float64
	var sampled bool

	return func(raw RawState) State {
		t := cfg.now()
		if dt := t.Sub(lastAt).Seconds(); dt > 0 {
			instant := float64(raw.Received-lastReceived) / dt
			if sampled {
				rate = cfg.smoothing*instant + (1-cfg.smoothing)*rate
			} else {
				rate = instant
				sampled = true
			}
			lastAt = t
			lastReceived = raw.Received
		}

		st := State{
			Total:    raw.Total,
			Received: raw.Received,
			Rate:     rate,
			ETA:      -1,
		}
		if raw.Total > 0 {
			st.Percent = percent(raw.Received, raw.Total)
			remaining := raw.Total - raw.Received
			switch {
			case remaining <= 0:
				st.ETA = 0
			case rate > 0:
				st.ETA = int64(math.Ceil(float64(remaining) / rate))
			}
		} else if raw.Total == 0 {
			st.Percent = 100
			st.ETA = 0
		}
		return st
	}
}

func percent(received, total int64) float64 {
	p := float64(received) * 100 / float64(total)
	return math.Max(0, math.Min(100, p))
}
