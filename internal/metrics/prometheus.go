package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ProviderCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wisdom_keeper_provider_calls_total",
			Help: "Provider gateway calls by outcome",
		},
		[]string{"provider", "outcome"},
	)

	ProviderCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wisdom_keeper_provider_call_duration_seconds",
			Help:    "Provider call duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 15},
		},
		[]string{"provider"},
	)

	QuotaExhaustedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wisdom_keeper_quota_exhausted_total",
			Help: "Calls skipped because the daily quota was already spent",
		},
		[]string{"provider"},
	)

	PatternFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wisdom_keeper_pattern_fallback_total",
			Help: "Responses served by the pattern responder after provider exhaustion",
		},
	)

	ChatMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wisdom_keeper_chat_messages_total",
			Help: "Assistant messages produced, by answering provider",
		},
		[]string{"provider"},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "wisdom_keeper_active_sessions",
			Help: "Conversation sessions currently held in memory",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wisdom_keeper_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wisdom_keeper_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)
)

func Init() {
	prometheus.MustRegister(ProviderCallsTotal)
	prometheus.MustRegister(ProviderCallDuration)
	prometheus.MustRegister(QuotaExhaustedTotal)
	prometheus.MustRegister(PatternFallbackTotal)
	prometheus.MustRegister(ChatMessagesTotal)
	prometheus.MustRegister(ActiveSessions)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
