package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(dbPoolStats, dbQueryDuration) }

var (
	dbPoolStats = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_stats",
			Help: "Current state of the database connection pool.",
		},
		[]string{"state"}, // 'total', 'idle', 'in_use'
	)

	dbQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Latency of statements sent to Postgres.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"success"},
	)
)

func SetDBPoolStats(total, idle, inUse int32) {
	dbPoolStats.WithLabelValues("total").Set(float64(total))
	dbPoolStats.WithLabelValues("idle").Set(float64(idle))
	dbPoolStats.WithLabelValues("in_use").Set(float64(inUse))
}

type DBTimer struct{ start time.Time }

func StartDBTimer() DBTimer { return DBTimer{start: time.Now()} }

func (t DBTimer) Observe(err error) {
	ok := "true"
	if err != nil {
		ok = "false"
	}
	dbQueryDuration.WithLabelValues(ok).Observe(time.Since(t.start).Seconds())
}
