package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	hintsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "progress_hints_completed_total",
		Help: "Total number of first-time hint completions.",
	})

	roomsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progress_rooms_completed_total",
			Help: "Total number of first-time room completions by completion path.",
		},
		[]string{"via"},
	)

	pointsAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progress_points_awarded_total",
			Help: "Total number of points awarded by reason.",
		},
		[]string{"reason"},
	)

	finalCodeAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progress_final_code_attempts_total",
			Help: "Total number of final code submissions by result.",
		},
		[]string{"result"},
	)

	txRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progress_transaction_retries_total",
			Help: "Total number of transaction retries by SQLSTATE.",
		},
		[]string{"sqlstate"},
	)

	eventPublishFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "progress_event_publish_failures_total",
		Help: "Total number of progress events that could not be published.",
	})
)

// ObserveTxRetry counts a transaction retry. It is meant for database.TxConfig.OnRetry.
func ObserveTxRetry(code string) {
	txRetriesTotal.WithLabelValues(code).Inc()
}
