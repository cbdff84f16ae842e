package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var tokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "progress_token_verifications_total",
		Help: "Total number of token verification attempts by type and status.",
	},
	[]string{"type", "status"},
)
