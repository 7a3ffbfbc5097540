package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "urlnotes_client",
			Name:      "requests_total",
			Help:      "HTTP requests issued, by method and status (or network_error).",
		},
		[]string{"method", "outcome"},
	)

	tokenRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "urlnotes_client",
			Name:      "token_refresh_total",
			Help:      "Token refresh exchanges, by outcome.",
		},
		[]string{"outcome"},
	)

	unauthorizedReplaysTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "urlnotes_client",
			Name:      "unauthorized_replays_total",
			Help:      "Requests replayed after a 401 with a refreshed token.",
		},
	)
)
