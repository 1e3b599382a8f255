// Package metrics holds the prometheus collectors for player list reconciliation.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type collector struct {
	MutationCounter     *prometheus.CounterVec
	DegradedReadCounter *prometheus.CounterVec
	LiveSyncCounter     *prometheus.CounterVec
	BuildDuration       prometheus.Histogram
}

var current = sync.OnceValue(newMetricCollector) //nolint:gochecknoglobals

func newMetricCollector() *collector {
	collector := &collector{
		MutationCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "simpleservers_player_mutations_total", Help: "Player list mutations"},
			[]string{"action", "result"}),

		DegradedReadCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simpleservers_degraded_reads_total",
				Help: "Reads that fell back to empty or default values",
			},
			[]string{"resource"}),

		LiveSyncCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "simpleservers_rcon_commands_total", Help: "Console commands sent to servers"},
			[]string{"result"}),

		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "simpleservers_directory_build_seconds",
			Help:    "Time taken to build a player directory",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}

	for _, metric := range []prometheus.Collector{
		collector.MutationCounter,
		collector.DegradedReadCounter,
		collector.LiveSyncCounter,
		collector.BuildDuration,
	} {
		_ = prometheus.Register(metric)
	}

	return collector
}

// Mutation counts a list mutation by action name; result is "ok" or "error".
func Mutation(action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}

	current().MutationCounter.With(prometheus.Labels{"action": action, "result": result}).Inc()
}

// DegradedRead counts a read of resource that was substituted with an empty or default value.
func DegradedRead(resource string) {
	current().DegradedReadCounter.With(prometheus.Labels{"resource": resource}).Inc()
}

func LiveSync(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}

	current().LiveSyncCounter.With(prometheus.Labels{"result": result}).Inc()
}

func ObserveBuild(started time.Time) {
	current().BuildDuration.Observe(time.Since(started).Seconds())
}
