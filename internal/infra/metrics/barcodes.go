package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		barcodeAssignmentsTotal,
		barcodeAssignDuration,
		barcodeImportRowsTotal,
		barcodeResetsTotal,
		barcodesAvailable,
	)
}

var (
	// result: assigned|existing|no_campaign|exhausted|error
	barcodeAssignmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barcode_assignments_total",
			Help: "Barcode allocation attempts by trigger source and outcome.",
		},
		[]string{"source", "result"},
	)

	barcodeAssignDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "barcode_assign_duration_seconds",
			Help:    "Time spent allocating a barcode, including the claim transaction.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"result"},
	)

	// outcome: created|duplicate|invalid|error
	barcodeImportRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barcode_import_rows_total",
			Help: "Lines processed by bulk barcode import, by outcome.",
		},
		[]string{"outcome"},
	)

	// result: reset|bound|not_found|error
	barcodeResetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barcode_resets_total",
			Help: "Admin barcode reset attempts by result.",
		},
		[]string{"result"},
	)

	barcodesAvailable = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "barcodes_available",
			Help: "Unassigned active barcodes in a campaign pool, as last observed.",
		},
		[]string{"campaign"},
	)
)

func ObserveAssignment(source, result string, d time.Duration) {
	barcodeAssignmentsTotal.WithLabelValues(norm(source), norm(result)).Inc()
	barcodeAssignDuration.WithLabelValues(norm(result)).Observe(d.Seconds())
}

func AddImportRows(outcome string, n int) {
	if n <= 0 {
		return
	}
	barcodeImportRowsTotal.WithLabelValues(norm(outcome)).Add(float64(n))
}

func IncBarcodeReset(result string) {
	barcodeResetsTotal.WithLabelValues(norm(result)).Inc()
}

func SetBarcodesAvailable(campaign string, n int) {
	barcodesAvailable.WithLabelValues(campaign).Set(float64(n))
}
