package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus metrics for the purchase pipeline. Labels are bounded: terminal
// statuses, stages, and provider names are all closed sets, so cardinality
// stays flat.
var (
	purchasesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payper_purchases_total",
		Help: "Purchase attempts by terminal status",
	}, []string{"status"})

	purchaseFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payper_purchase_failures_total",
		Help: "Failed purchase attempts by stage",
	}, []string{"stage"})

	walletDebitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payper_wallet_debits_total",
		Help: "Successful wallet debits",
	})

	registryLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payper_registry_lookups_total",
		Help: "Content registry lookups by outcome (cache_hit, store_hit, minted)",
	}, []string{"outcome"})

	providerAvailable = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "payper_provider_available",
		Help: "Licensing provider availability (1 available, 0 unavailable)",
	}, []string{"provider"})

	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payper_http_requests_total",
		Help: "HTTP requests by path and status",
	}, []string{"path", "status"})

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payper_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})
)

func init() {
	prometheus.MustRegister(
		purchasesTotal,
		purchaseFailuresTotal,
		walletDebitsTotal,
		registryLookupsTotal,
		providerAvailable,
		httpRequestsTotal,
		httpRequestDuration,
	)
}

func RecordPurchase(status string) {
	purchasesTotal.WithLabelValues(status).Inc()
}

func RecordPurchaseFailure(stage string) {
	purchaseFailuresTotal.WithLabelValues(stage).Inc()
}

func RecordWalletDebit() {
	walletDebitsTotal.Inc()
}

func RecordRegistryLookup(outcome string) {
	registryLookupsTotal.WithLabelValues(outcome).Inc()
}

func SetProviderAvailable(provider string, available bool) {
	v := 0.0
	if available {
		v = 1.0
	}
	providerAvailable.WithLabelValues(provider).Set(v)
}

// Handler serves the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// InstrumentHandler wraps an HTTP handler with request count and latency
// metrics. The API's paths carry no identifiers, so raw paths keep label
// cardinality bounded.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{w, http.StatusOK}

		next.ServeHTTP(rec, r)

		httpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.URL.Path).Observe(time.Since(start).Seconds())
	})
}
