package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Application-level counters exposed alongside the HTTP metrics.
var (
	// LikeToggles counts like toggle operations by outcome ("liked"/"unliked").
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contentflow_like_toggles_total",
		Help: "Number of like toggle operations by resulting state.",
	}, []string{"result"})

	// ImagesProcessed counts image processing outcomes by stage
	// ("stored"/"backfilled"/"decode_error").
	ImagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contentflow_images_processed_total",
		Help: "Number of images persisted by processing stage.",
	}, []string{"stage"})

	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contentflow_redis_errors_total",
		Help: "Number of Redis command errors.",
	}, []string{"command"})
)

var (
	promOnce sync.Once
	promMW   *fiberprometheus.FiberPrometheus
)

// InitMetrics creates the Prometheus HTTP middleware for the given service
// name. The underlying collectors register in the default registry, which
// only tolerates one registration, so repeated calls return the first
// instance.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promMW = fiberprometheus.New(serviceName)
	})
	return promMW
}

// MetricsMiddleware returns the Fiber handler collecting per-request metrics.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
