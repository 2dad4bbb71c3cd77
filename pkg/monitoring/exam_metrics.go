package monitoring

import "github.com/prometheus/client_golang/prometheus"

var (
	AttemptsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exam_attempts_started_total",
			Help: "Total number of exam attempts created",
		},
	)

	AttemptsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_attempts_finished_total",
			Help: "Total number of exam attempts finalized, by end reason",
		},
		[]string{"reason"},
	)

	StartRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_start_rejected_total",
			Help: "Start requests rejected, by error kind",
		},
		[]string{"kind"},
	)

	StartConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exam_start_conflicts_total",
			Help: "Attempt number conflicts resolved by retry",
		},
	)

	ScorePercentage = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "exam_score_percentage",
			Help:    "Distribution of submitted attempt percentages",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)
)

func examCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		AttemptsStarted,
		AttemptsFinished,
		StartRejected,
		StartConflicts,
		ScorePercentage,
	}
}
