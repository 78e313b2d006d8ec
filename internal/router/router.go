package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/major-app/notify-engine/internal/middleware"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimit rate.Limit
	RateBurst int
}

type Router struct {
	engine        *gin.Engine
	auth          *middleware.AuthMiddleware
	notificationH Handler
	sessionH      Handler
	healthH       Handler
	metrics       *routerMetrics
	registry      *prometheus.Registry
	config        Config
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	notificationH Handler,
	sessionH Handler,
	healthH Handler,
	registry *prometheus.Registry,
	logger zerolog.Logger,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	r := &Router{
		engine:        engine,
		auth:          auth,
		notificationH: notificationH,
		sessionH:      sessionH,
		healthH:       healthH,
		metrics:       initRouterMetrics(registry),
		registry:      registry,
		config:        config,
	}

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(logger),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
		rateLimiter.RateLimit(),
	)

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})))

	public := r.engine.Group("/api/v1")
	r.healthH.RegisterRoutes(public)

	protected := r.engine.Group("/api/v1")
	protected.Use(r.auth.Authenticate())
	r.notificationH.RegisterRoutes(protected)
	r.sessionH.RegisterRoutes(protected)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(registry *prometheus.Registry) *routerMetrics {
	m := &routerMetrics{
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
	}
	registry.MustRegister(m.requestDuration, m.requestTotal)
	return m
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
			status := fmt.Sprintf("%d", c.Writer.Status())
			path := c.FullPath()
			if path == "" {
				path = "unmatched"
			}
			r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(v)
			r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		}))
		defer timer.ObserveDuration()
		c.Next()
	}
}
