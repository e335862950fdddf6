package cart

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_mutations_total",
			Help: "Cart mutations by operation and whether they changed the cart.",
		},
		[]string{"operation", "result"},
	)

	snapshotVersion = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cart_snapshot_version",
		Help: "Version of the most recently published cart snapshot.",
	})

	persistWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_persist_writes_total",
			Help: "Snapshot write attempts by result (success, error, abandoned).",
		},
		[]string{"result"},
	)

	persistWriteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cart_persist_write_duration_seconds",
		Help:    "Duration of snapshot write attempts.",
		Buckets: prometheus.DefBuckets,
	})

	persistSupersededTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_persist_superseded_total",
		Help: "Snapshots dropped because a newer one was issued before they were written.",
	})
)
