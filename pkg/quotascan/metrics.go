package quotascan

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricsNamespace = "quotascan"
	ScanSubsystem    = "scan"
)

var LabelsForStorageTargets = []string{"storage", "filesystem"}

// ScanMetrics are the Prometheus collectors updated once per scan
// cycle.
type ScanMetrics struct {
	ExceedingUsers      *prometheus.GaugeVec
	ExceedingFilesets   *prometheus.GaugeVec
	TargetsSkipped      prometheus.Counter
	ScanDurationSeconds prometheus.Gauge
	ScanSuccess         prometheus.Gauge
	ScansTotal          prometheus.Counter
}

func NewScanMetrics(reg prometheus.Registerer) *ScanMetrics {
	m := &ScanMetrics{
		ExceedingUsers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: ScanSubsystem,
			Name:      "exceeding_users",
			Help:      "Number of users exceeding quota per storage target",
		}, LabelsForStorageTargets),
		ExceedingFilesets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: ScanSubsystem,
			Name:      "exceeding_filesets",
			Help:      "Number of filesets exceeding quota per storage target",
		}, LabelsForStorageTargets),
		TargetsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: ScanSubsystem,
			Name:      "targets_skipped_total",
			Help:      "Storage targets skipped because their filesystem was unavailable",
		}),
		ScanDurationSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: ScanSubsystem,
			Name:      "duration_seconds",
			Help:      "Duration of the last scan cycle",
		}),
		ScanSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: ScanSubsystem,
			Name:      "success",
			Help:      "Whether the last scan cycle completed without fatal error",
		}),
		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: ScanSubsystem,
			Name:      "cycles_total",
			Help:      "Total number of scan cycles started",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.ExceedingUsers,
			m.ExceedingFilesets,
			m.TargetsSkipped,
			m.ScanDurationSeconds,
			m.ScanSuccess,
			m.ScansTotal,
		)
	}
	return m
}
