package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Pricing calculation sources.
const (
	SourceQuote = "quote"
	SourceCart  = "cart"
	SourceOrder = "order"
)

// PricingMetrics counts price calculations and their outcomes.
type PricingMetrics struct {
	calculations *prometheus.CounterVec
	failures     *prometheus.CounterVec
	repriced     prometheus.Counter
	skipped      prometheus.Counter
	snapshotted  prometheus.Counter
	rejected     *prometheus.CounterVec
}

// NewPricingMetrics registers the pricing metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewPricingMetrics(reg prometheus.Registerer) *PricingMetrics {
	if reg == nil {
		return &PricingMetrics{}
	}
	calculations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_calculations_total",
		Help: "Price breakdowns computed, by source.",
	}, []string{"source"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_calculation_failures_total",
		Help: "Price calculations rejected, by source.",
	}, []string{"source"})
	repriced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_lines_repriced_total",
		Help: "Cart lines repriced on save.",
	})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_lines_skipped_total",
		Help: "Cart lines skipped on save because the product was unavailable.",
	})
	snapshotted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_snapshotted_total",
		Help: "Orders created with a frozen pricing snapshot.",
	})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_rejected_total",
		Help: "Order creations rejected, by reason code.",
	}, []string{"reason"})
	reg.MustRegister(calculations, failures, repriced, skipped, snapshotted, rejected)
	return &PricingMetrics{
		calculations: calculations,
		failures:     failures,
		repriced:     repriced,
		skipped:      skipped,
		snapshotted:  snapshotted,
		rejected:     rejected,
	}
}

func (m *PricingMetrics) IncCalculation(source string) {
	if m == nil || m.calculations == nil {
		return
	}
	m.calculations.WithLabelValues(normalizeLabel(source)).Inc()
}

func (m *PricingMetrics) IncFailure(source string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(source)).Inc()
}

// ObserveCartSave records how many lines a reprice pass touched.
func (m *PricingMetrics) ObserveCartSave(repriced, skipped int) {
	if m == nil || m.repriced == nil {
		return
	}
	m.repriced.Add(float64(repriced))
	m.skipped.Add(float64(skipped))
}

func (m *PricingMetrics) IncOrderSnapshot() {
	if m == nil || m.snapshotted == nil {
		return
	}
	m.snapshotted.Inc()
}

func (m *PricingMetrics) IncOrderRejected(reason string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
