package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(adminRequestTotal) }

var adminRequestTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "admin_request_total",
		Help: "Tracks attempts to use admin endpoints.",
	},
	[]string{"status"}, // ok, unauthorized, forbidden, disabled
)

func IncAdminRequest(status string) {
	adminRequestTotal.WithLabelValues(norm(status)).Inc()
}
