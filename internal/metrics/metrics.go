package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CandlesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pump_candles_total", Help: "Closed candles processed by the pump monitor"},
		[]string{"symbol"},
	)
	CandlesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pump_candles_rejected_total", Help: "Candles rejected before or by the monitor"},
		[]string{"symbol", "reason"},
	)
	StateTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pump_state_transitions_total", Help: "Pump state machine transitions"},
		[]string{"symbol", "from", "to"},
	)
	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pump_actions_total", Help: "Non-empty decisions by kind and outcome"},
		[]string{"symbol", "kind", "outcome"},
	)
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pump_notifications_total", Help: "Notification delivery attempts"},
		[]string{"kind", "outcome"},
	)
	ExportErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pump_export_errors_total", Help: "Episode export failures per sink"},
		[]string{"sink"},
	)
	ExportDropped = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "pump_export_dropped_total", Help: "Episodes dropped because the export buffer was full"},
	)
	GatewayLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "pump_gateway_seconds", Help: "Execution gateway call latency", Buckets: prometheus.DefBuckets},
		[]string{"call"},
	)
)

func init() {
	prometheus.MustRegister(
		CandlesTotal, CandlesRejected, StateTransitions, ActionsTotal,
		NotificationsTotal, ExportErrors, ExportDropped, GatewayLatency,
	)
}

func Handler() http.Handler { return promhttp.Handler() }
