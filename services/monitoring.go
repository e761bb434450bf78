package services

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	MONITORING_SVC          = "monitoring_svc"
	SERVICE_NAME            = "arcade_api"
	DEFAULT_PROMETHEUS_PORT = 2112
)

// HTTP metrics
var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"endpoint", "method", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "method", "status"},
	)

	httpRequestsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_active",
			Help: "Number of active concurrent HTTP requests",
		},
		[]string{"endpoint", "method"},
	)
)

// Domain metrics
var (
	submissionsValidatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "submissions_validated_total",
			Help: "Score submissions that passed validation",
		},
	)

	submissionsRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submissions_rejected_total",
			Help: "Score submissions rejected by validation",
		},
		[]string{"reason"},
	)

	rateLimitRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)

	mintsAttemptedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nft_mints_attempted_total",
			Help: "On-chain mint transactions attempted",
		},
	)

	mintsFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nft_mints_failed_total",
			Help: "On-chain mint transactions that failed",
		},
	)

	signaturesIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "result_signatures_issued_total",
			Help: "Reward claim signatures issued",
		},
	)
)

// MonitoringService serves prometheus metrics on its own port so scrapes
// never contend with player traffic.
type MonitoringService struct {
	context.DefaultService

	port     int
	register *prometheus.Registry
	server   *fiber.App
}

func (svc MonitoringService) Id() string {
	return MONITORING_SVC
}

func (svc *MonitoringService) Configure(ctx *context.Context) error {
	svc.port = DEFAULT_PROMETHEUS_PORT
	if portStr := os.Getenv("PROMETHEUS_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid PROMETHEUS_PORT: %v", err)
		}
		svc.port = port
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *MonitoringService) Start() error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reg.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		httpRequestsActive,
		submissionsValidatedTotal,
		submissionsRejectedTotal,
		rateLimitRejectionsTotal,
		mintsAttemptedTotal,
		mintsFailedTotal,
		signaturesIssuedTotal,
	)
	svc.register = reg

	svc.server = fiber.New(fiber.Config{DisableStartupMessage: true})
	svc.server.Use(recover.New())

	svc.server.Get("/metrics", adaptor.HTTPHandler(
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	svc.server.Get("/health", svc.healthHandler)

	// The main HTTP service blocks the runtime; metrics listen in the
	// background.
	go func() {
		if err := svc.server.Listen(fmt.Sprintf(":%v", svc.port)); err != nil {
			log.Error().Err(err).Msg("Metrics server stopped")
		}
	}()

	log.Info().Int("port", svc.port).Msg("Prometheus metrics server started")
	return nil
}

func (svc *MonitoringService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

func (svc *MonitoringService) healthHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    "healthy",
		"service":   SERVICE_NAME,
		"timestamp": time.Now().Unix(),
	})
}

func (svc *MonitoringService) SubmissionValidated() {
	submissionsValidatedTotal.Inc()
}

func (svc *MonitoringService) SubmissionRejected(reason string) {
	submissionsRejectedTotal.WithLabelValues(reason).Inc()
}

func (svc *MonitoringService) RateLimitRejected(endpoint string) {
	rateLimitRejectionsTotal.WithLabelValues(endpoint).Inc()
}

func (svc *MonitoringService) MintAttempted() {
	mintsAttemptedTotal.Inc()
}

func (svc *MonitoringService) MintFailed() {
	mintsFailedTotal.Inc()
}

func (svc *MonitoringService) SignatureIssued() {
	signaturesIssuedTotal.Inc()
}

// MonitoringMiddleware records request counts, latency and in-flight gauges
// for the main HTTP service.
func MonitoringMiddleware(monitoringSvc *MonitoringService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		endpoint := c.Route().Path
		method := c.Method()

		httpRequestsActive.WithLabelValues(endpoint, method).Inc()
		defer httpRequestsActive.WithLabelValues(endpoint, method).Dec()

		err := c.Next()

		status := strconv.Itoa(c.Response().StatusCode())
		httpRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
		httpRequestDurationSeconds.WithLabelValues(endpoint, method, status).Observe(time.Since(start).Seconds())

		return err
	}
}
