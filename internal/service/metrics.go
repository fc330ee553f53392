package service

import "github.com/prometheus/client_golang/prometheus"

var authEvents = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "auth_events_total", Help: "Count of register/login/validate outcomes"},
	[]string{"op", "outcome"},
)

func init() { prometheus.MustRegister(authEvents) }

func observe(op, outcome string) { authEvents.WithLabelValues(op, outcome).Inc() }
