// Package metrics exposes prometheus instruments for the billing run and the
// payables HTTP surface.
package metrics

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Subscription outcomes recorded per billing run.
const (
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped"
	OutcomeError     = "error"
)

// Skip reasons, kept low-cardinality.
const (
	SkipReasonNoAnniversary   = "no_anniversary"
	SkipReasonInvoicedToday   = "invoiced_today"
	SkipReasonPeriodExists    = "period_exists"
	SkipReasonNoOrganizations = "no_organizations"
	SkipReasonNoMembers       = "no_members"
)

// Config carries the const labels stamped onto every instrument.
type Config struct {
	ServiceName string
	Environment string
}

// BillingMetrics captures billing run health signals.
type BillingMetrics struct {
	runs          prometheus.Counter
	runDuration   prometheus.Observer
	subscriptions *prometheus.CounterVec
	skips         *prometheus.CounterVec
	invoiceAmount prometheus.Observer
	paymentLinks  *prometheus.CounterVec
}

var (
	billingMetricsOnce sync.Once
	billingMetrics     *BillingMetrics
)

// Billing returns the singleton billing metrics registry.
func Billing() *BillingMetrics {
	return BillingWithConfig(Config{})
}

// BillingWithConfig returns the singleton billing metrics registry using
// config labels. Labels bind on first use.
func BillingWithConfig(cfg Config) *BillingMetrics {
	billingMetricsOnce.Do(func() {
		billingMetrics = newBillingMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return billingMetrics
}

// ResetBillingMetricsForTest resets the billing metrics singleton for tests.
func ResetBillingMetricsForTest() {
	billingMetricsOnce = sync.Once{}
	billingMetrics = nil
}

func newBillingMetrics(registerer prometheus.Registerer, cfg Config) *BillingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "ledgerly"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	runs := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "ledgerly_billing_runs_total",
		Help:        "Billing batch runs.",
		ConstLabels: constLabels,
	})
	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "ledgerly_billing_run_duration_seconds",
		Help:        "Billing batch latency to keep the daily invoicing window honest.",
		Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		ConstLabels: constLabels,
	})
	subscriptions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "ledgerly_billing_subscriptions_total",
		Help:        "Subscriptions handled per run by outcome.",
		ConstLabels: constLabels,
	}, []string{"outcome"})
	skips := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "ledgerly_billing_skips_total",
		Help:        "Skipped subscriptions by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"reason"})
	invoiceAmount := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "ledgerly_billing_invoice_amount",
		Help:        "Generated invoice amounts in major currency units.",
		Buckets:     prometheus.ExponentialBuckets(1, 4, 10),
		ConstLabels: constLabels,
	})
	paymentLinks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "ledgerly_billing_payment_links_total",
		Help:        "Payment link requests by result.",
		ConstLabels: constLabels,
	}, []string{"result"})

	for _, c := range []prometheus.Collector{runs, runDuration, subscriptions, skips, invoiceAmount, paymentLinks} {
		if err := registerer.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				panic(err)
			}
		}
	}

	return &BillingMetrics{
		runs:          runs,
		runDuration:   runDuration,
		subscriptions: subscriptions,
		skips:         skips,
		invoiceAmount: invoiceAmount,
		paymentLinks:  paymentLinks,
	}
}

func (m *BillingMetrics) IncRun() {
	if m == nil {
		return
	}
	m.runs.Inc()
}

func (m *BillingMetrics) ObserveRunDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Observe(d.Seconds())
}

func (m *BillingMetrics) IncSubscription(outcome string) {
	if m == nil {
		return
	}
	m.subscriptions.WithLabelValues(outcome).Inc()
}

func (m *BillingMetrics) IncSkip(reason string) {
	if m == nil {
		return
	}
	m.subscriptions.WithLabelValues(OutcomeSkipped).Inc()
	m.skips.WithLabelValues(reason).Inc()
}

func (m *BillingMetrics) ObserveInvoiceAmount(amount float64) {
	if m == nil {
		return
	}
	m.invoiceAmount.Observe(amount)
}

func (m *BillingMetrics) IncPaymentLink(result string) {
	if m == nil {
		return
	}
	m.paymentLinks.WithLabelValues(result).Inc()
}
