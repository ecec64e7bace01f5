package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PaymentInitiationTotal counts payment initiation attempts by gateway and outcome.
	PaymentInitiationTotal *prometheus.CounterVec
	// PaymentCallbackTotal counts confirmation callback decodes by outcome.
	PaymentCallbackTotal *prometheus.CounterVec
	// GatewayRequestLatency records outbound gateway call latency in milliseconds.
	GatewayRequestLatency *prometheus.HistogramVec
	// OrdersCreatedTotal counts rental orders created.
	OrdersCreatedTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PaymentInitiationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_initiation_total",
			Help:      "Count of payment initiation outcomes.",
		}, []string{"gateway", "result"})
		PaymentCallbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_callback_total",
			Help:      "Count of confirmation callback decode outcomes.",
		}, []string{"result"})
		GatewayRequestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_ms",
			Help:      "Latency for outbound payment gateway calls in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"gateway"})
		OrdersCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Total number of rental orders created.",
		})

		reg.MustRegister(PaymentInitiationTotal, PaymentCallbackTotal, GatewayRequestLatency, OrdersCreatedTotal)
	})
}
