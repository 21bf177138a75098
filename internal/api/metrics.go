package api

import (
	"net/http"

	"github.com/livp123/proxylens/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metricsHandler serves the default Prometheus registry.
// metricsHandler 提供默认 Prometheus 注册表。
func metricsHandler() http.Handler {
	return promhttp.Handler()
}

// instrument counts and times every API request.
// instrument 统计每个接口请求的次数与耗时。
func instrument(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerCounter(metrics.HTTPRequests,
		promhttp.InstrumentHandlerDuration(metrics.HTTPDuration, next))
}
