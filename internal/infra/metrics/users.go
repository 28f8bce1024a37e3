package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		usersRegisteredTotal,
		loginsTotal,
		loginRateLimitTriggeredTotal,
	)
}

var (
	usersRegisteredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "users_registered_total",
			Help: "Total number of new users registered.",
		},
	)

	loginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logins_total",
			Help: "Login attempts by result.",
		},
		[]string{"result"}, // 'ok', 'invalid', 'inactive', 'throttled'
	)

	loginRateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "login_rate_limit_triggered_total",
			Help: "Total number of times a phone number has been throttled on login.",
		},
	)
)

func IncUsersRegistered() {
	usersRegisteredTotal.Inc()
}

func IncLogin(result string) {
	loginsTotal.WithLabelValues(norm(result)).Inc()
}

func IncRateLimitTriggered() {
	loginRateLimitTriggeredTotal.Inc()
}
