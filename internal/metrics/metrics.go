package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type MonitorMetrics struct {
	CyclesTotal       prometheus.Counter
	CycleErrorsTotal  prometheus.Counter
	AlertsTriggered   prometheus.Counter
	QuoteErrorsTotal  prometheus.Counter
	EmailsSentTotal   prometheus.Counter
	EmailsFailedTotal prometheus.Counter
	ActiveAlerts      prometheus.Gauge
}

func NewMonitorMetrics(reg prometheus.Registerer) *MonitorMetrics {
	m := &MonitorMetrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aksjevakt",
			Subsystem: "monitor",
			Name:      "cycles_total",
			Help:      "The total number of completed monitor cycles",
		}),
		CycleErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aksjevakt",
			Subsystem: "monitor",
			Name:      "cycle_errors_total",
			Help:      "The total number of monitor cycles that failed",
		}),
		AlertsTriggered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aksjevakt",
			Subsystem: "monitor",
			Name:      "alerts_triggered_total",
			Help:      "The total number of price alerts that have fired",
		}),
		QuoteErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aksjevakt",
			Subsystem: "monitor",
			Name:      "quote_errors_total",
			Help:      "The total number of failed quote lookups",
		}),
		EmailsSentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aksjevakt",
			Subsystem: "notifications",
			Name:      "emails_sent_total",
			Help:      "The total number of alert emails sent",
		}),
		EmailsFailedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aksjevakt",
			Subsystem: "notifications",
			Name:      "emails_failed_total",
			Help:      "The total number of alert emails that failed to send",
		}),
		ActiveAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aksjevakt",
			Subsystem: "monitor",
			Name:      "active_alerts",
			Help:      "The number of active alerts observed by the last cycle",
		}),
	}

	reg.MustRegister(
		m.CyclesTotal,
		m.CycleErrorsTotal,
		m.AlertsTriggered,
		m.QuoteErrorsTotal,
		m.EmailsSentTotal,
		m.EmailsFailedTotal,
		m.ActiveAlerts,
	)
	return m
}
