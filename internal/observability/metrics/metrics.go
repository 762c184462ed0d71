package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "ledger_"

	resultSuccess = "success"
	resultError   = "error"
	resultSkipped = "skipped"
)

var (
	registerOnce sync.Once

	sweepTotal   *prometheus.CounterVec
	sweepLatency *prometheus.HistogramVec
	sweepEntries prometheus.Counter
	sweepSkips   prometheus.Counter

	distributeTotal   *prometheus.CounterVec
	distributeLatency *prometheus.HistogramVec

	invoiceTransitions *prometheus.CounterVec

	invoiceExportTotal   *prometheus.CounterVec
	invoiceExportLatency *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		sweepTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "recurrence_sweep_total",
				Help: "Total recurrence projection sweeps by result",
			},
			[]string{"result"},
		)
		sweepLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "recurrence_sweep_latency_seconds",
				Help:    "Recurrence sweep latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		sweepEntries = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "recurrence_entries_projected_total",
				Help: "Total forecast entries written by sweeps",
			},
		)
		sweepSkips = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "recurrence_entries_skipped_total",
				Help: "Total occurrences skipped because an entry already existed",
			},
		)

		distributeTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "installment_distribute_total",
				Help: "Total installment distributions by result",
			},
			[]string{"result"},
		)
		distributeLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "installment_distribute_latency_seconds",
				Help:    "Installment distribution latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		invoiceTransitions = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "invoice_transitions_total",
				Help: "Total invoice lifecycle transitions by kind and result",
			},
			[]string{"transition", "result"},
		)

		invoiceExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "invoice_export_total",
				Help: "Total invoice export operations by format and result",
			},
			[]string{"format", "result"},
		)
		invoiceExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "invoice_export_latency_seconds",
				Help:    "Invoice export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			sweepTotal,
			sweepLatency,
			sweepEntries,
			sweepSkips,
			distributeTotal,
			distributeLatency,
			invoiceTransitions,
			invoiceExportTotal,
			invoiceExportLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveSweep records one recurrence sweep.
func ObserveSweep(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if sweepTotal != nil {
		sweepTotal.WithLabelValues(result).Inc()
	}
	if sweepLatency != nil {
		sweepLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// AddSweepEntries counts forecast entries written during a sweep.
func AddSweepEntries(count int) {
	if count <= 0 {
		return
	}
	if sweepEntries != nil {
		sweepEntries.Add(float64(count))
	}
}

// AddSweepSkips counts idempotence skips during a sweep.
func AddSweepSkips(count int) {
	if count <= 0 {
		return
	}
	if sweepSkips != nil {
		sweepSkips.Add(float64(count))
	}
}

// ObserveDistribute records an installment distribution.
func ObserveDistribute(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if distributeTotal != nil {
		distributeTotal.WithLabelValues(result).Inc()
	}
	if distributeLatency != nil {
		distributeLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncInvoiceTransition counts an invoice lifecycle transition attempt.
func IncInvoiceTransition(transition, result string) {
	if transition == "" {
		transition = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if invoiceTransitions != nil {
		invoiceTransitions.WithLabelValues(transition, result).Inc()
	}
}

// ObserveInvoiceExport records export latency and result.
func ObserveInvoiceExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if invoiceExportTotal != nil {
		invoiceExportTotal.WithLabelValues(format, result).Inc()
	}
	if invoiceExportLatency != nil {
		invoiceExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
	ResultSkipped = resultSkipped
)
