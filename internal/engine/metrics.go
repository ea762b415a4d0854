package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency: сколько времени заняло действие целиком (включая панель и fanout)
	ActionDuration *prometheus.HistogramVec

	// Traffic: общее кол-во действий
	TotalActions *prometheus.CounterVec

	// Errors: отказы доставки уведомлений (всегда нефатальные)
	FanoutFailures *prometheus.CounterVec

	// Интерактив: сессии, истекшие без ответа
	SessionTimeouts prometheus.Counter

	// Saturation: заполненность буфера журнала (backpressure)
	JournalBufferFill prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern — без регистратора используем локальный, никуда не подключенный
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		ActionDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "deploybot_action_duration_seconds",
			Help:    "Histogram of action processing latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"action", "status"}),

		TotalActions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "deploybot_actions_total",
			Help: "Total number of dispatched actions.",
		}, []string{"action"}),

		FanoutFailures: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "deploybot_fanout_failures_total",
			Help: "Total number of failed notification deliveries by audience.",
		}, []string{"audience"}),

		SessionTimeouts: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "deploybot_session_timeouts_total",
			Help: "Total number of interactive sessions expired without input.",
		}),

		JournalBufferFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "deploybot_journal_buffer_utilization",
			Help: "Current number of records in the journal buffer.",
		}),
	}
}
