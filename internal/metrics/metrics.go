package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the resolution and verification pipelines.
var (
	TracksResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bandlink_tracks_resolved_total",
		Help: "Tracks resolved from raw input into stored link sets",
	})

	VerifyOK = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bandlink_verify_ok_total",
		Help: "Link checks that came back healthy",
	})

	VerifyFixed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bandlink_verify_fixed_total",
		Help: "Unhealthy links repaired by re-resolution",
	})

	VerifyDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bandlink_verify_dropped_total",
		Help: "Unhealthy links left decayed because re-resolution found nothing",
	})

	ReportsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bandlink_reports_accepted_total",
		Help: "Manual broken-link reports accepted",
	})
)
