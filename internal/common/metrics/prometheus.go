// Package metrics provides Prometheus metric collection.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the metric collector.
type Metrics struct {
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	couponsIssuedTotal        *prometheus.CounterVec
	couponsRedeemedTotal      prometheus.Counter
	paymentsVerifiedTotal     *prometheus.CounterVec
	couponsPendingVerification prometheus.Gauge
}

var defaultMetrics *Metrics

// Init creates the metric collector.
func Init(namespace string) *Metrics {
	if namespace == "" {
		namespace = "waffle_fiesta"
	}

	m := &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		couponsIssuedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "coupons_issued_total",
				Help:      "Total number of coupons issued",
			},
			[]string{"payment_type"},
		),
		couponsRedeemedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "coupons_redeemed_total",
				Help:      "Total number of coupons redeemed",
			},
		),
		paymentsVerifiedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payments_verified_total",
				Help:      "Total number of gateway signature verifications",
			},
			[]string{"result"},
		),
		couponsPendingVerification: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "coupons_pending_verification",
				Help:      "Coupons awaiting manual payment verification",
			},
		),
	}

	defaultMetrics = m
	return m
}

// Get returns the collector, initialising it on first use.
func Get() *Metrics {
	if defaultMetrics == nil {
		defaultMetrics = Init("")
	}
	return defaultMetrics
}

// CouponIssued records an issued coupon.
func (m *Metrics) CouponIssued(paymentType string) {
	m.couponsIssuedTotal.WithLabelValues(paymentType).Inc()
}

// CouponRedeemed records a redeemed coupon.
func (m *Metrics) CouponRedeemed() {
	m.couponsRedeemedTotal.Inc()
}

// PaymentVerified records a signature verification outcome.
func (m *Metrics) PaymentVerified(result string) {
	m.paymentsVerifiedTotal.WithLabelValues(result).Inc()
}

// SetPendingVerification records the pending-verification gauge.
func (m *Metrics) SetPendingVerification(n int64) {
	m.couponsPendingVerification.Set(float64(n))
}

// GinMiddleware instruments HTTP requests.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.httpRequestsInFlight.Inc()

		c.Next()

		m.httpRequestsInFlight.Dec()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler returns the /metrics handler.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
