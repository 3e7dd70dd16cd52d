package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Client-side metrics. Registered on the default registry so a host
// application can expose them alongside its own.
var (
	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spotfinder_api_requests_total",
		Help: "API calls issued by the client, by endpoint and status class.",
	}, []string{"endpoint", "status"})

	TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spotfinder_token_refresh_total",
		Help: "Token refresh attempts by outcome.",
	}, []string{"outcome"})

	SearchResults = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "spotfinder_search_result_items",
		Help:    "Result items returned per search page.",
		Buckets: []float64{0, 1, 5, 10, 20, 50},
	})
)
