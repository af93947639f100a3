// Package metrics exports Prometheus metrics for the capture loop and the
// recorder.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "motioncam"

var (
	FramesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_total",
		Help:      "Frames read by the capture loop.",
	})

	MotionScore = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "motion_score",
		Help:      "Changed pixels in the most recent frame.",
	})

	MotionThreshold = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "motion_threshold",
		Help:      "Motion score above which a recording is triggered.",
	})

	Stabilized = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stabilized",
		Help:      "1 if motion may trigger a recording, 0 while stabilizing.",
	})

	RecordingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recordings_total",
		Help:      "Recordings completed.",
	})

	RecordingSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "recording_seconds",
		Help:      "Wall time spent per recording.",
		Buckets:   prometheus.LinearBuckets(5, 5, 12),
	})
)

func Bool(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
