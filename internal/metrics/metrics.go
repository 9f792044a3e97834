package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Dispatches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schoolnotifier", Name: "dispatch_total", Help: "Notification dispatch attempts by channel and outcome",
	}, []string{"channel", "outcome"})
	Provisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schoolnotifier", Name: "provision_total", Help: "Access provisioning calls by account outcome",
	}, []string{"outcome"})
	AlertsInserted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schoolnotifier", Name: "attendance_alerts_total", Help: "Attendance alerts written to the ledger",
	}, []string{"severity"})
	AlertsDeduped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "schoolnotifier", Name: "attendance_alerts_deduped_total", Help: "Alerts skipped because the count was already alerted",
	})
	NegativeAbsences = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "schoolnotifier", Name: "negative_absences_total", Help: "Subjects where presence exceeded workload (duplicate check-ins)",
	})
	DailyMissing = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "schoolnotifier", Name: "daily_missing_students", Help: "Students without check-in at the last daily sweep",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "schoolnotifier", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(Dispatches, Provisions, AlertsInserted, AlertsDeduped, NegativeAbsences, DailyMissing, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }
