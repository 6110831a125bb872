package infra

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// Transport metrics
	RequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vitals_requests_total",
		Help: "Total number of HTTP and gRPC requests",
	})
	RequestErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vitals_request_errors_total",
		Help: "Total number of HTTP and gRPC requests that failed",
	})
	ProcessingDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "vitals_request_duration_seconds",
		Help:    "Duration of request processing in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// Session metrics
	ReadingsGeneratedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vitals_readings_generated_total",
		Help: "Readings produced by the generator per channel",
	}, []string{"channel"})
	ReadingsAccumulatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vitals_readings_accumulated_total",
		Help: "Readings kept in the channel history per channel",
	}, []string{"channel"})
	SessionsCompletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vitals_sessions_completed_total",
		Help: "Sessions that produced a diagnosis, by classification",
	}, []string{"channel", "classification"})
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vitals_active_sessions",
		Help: "Sessions currently scheduled or sampling",
	})

	// Archive metrics
	ArchiveWritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vitals_archive_writes_total",
		Help: "Diagnosis summaries written to the archive, by result",
	}, []string{"result"})
	ArchiveWorkersActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vitals_archive_workers_active",
		Help: "Number of running archive workers",
	})

	// Chart metrics
	ChartSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vitals_chart_subscribers",
		Help: "Number of connected chart stream subscribers",
	})

	registerOnce sync.Once
)

func init() {
	InitMetrics()
}

// InitMetrics registers all Prometheus collectors used by the application.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			RequestErrorsTotal,
			ProcessingDurationSeconds,
			ReadingsGeneratedTotal,
			ReadingsAccumulatedTotal,
			SessionsCompletedTotal,
			ActiveSessions,
			ArchiveWritesTotal,
			ArchiveWorkersActive,
			ChartSubscribers,
		)
	})
}

// Handler returns an HTTP handler that exposes the registered Prometheus metrics.
func Handler() http.Handler {
	InitMetrics()
	return promhttp.Handler()
}

// NewMetricsServer builds the server exposing /metrics on the given port.
func NewMetricsServer(port string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// StartMetricsServer serves metrics in the background until ctx is cancelled.
func StartMetricsServer(ctx context.Context, port string, logger *Logger) *http.Server {
	server := NewMetricsServer(port)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf(ctx, "metrics server error: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	return server
}

// HTTPMiddleware instruments HTTP handlers with request/latency metrics.
func HTTPMiddleware(next http.Handler) http.Handler {
	InitMetrics()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		defer func() {
			ProcessingDurationSeconds.Observe(time.Since(start).Seconds())
			RequestsTotal.Inc()
			if recorder.Status() >= http.StatusBadRequest {
				RequestErrorsTotal.Inc()
			}
		}()

		next.ServeHTTP(recorder, r)
	})
}

// GRPCUnaryInterceptor instruments gRPC unary handlers with request/latency metrics.
func GRPCUnaryInterceptor() grpc.UnaryServerInterceptor {
	InitMetrics()
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		start := time.Now()

		defer func() {
			ProcessingDurationSeconds.Observe(time.Since(start).Seconds())
			RequestsTotal.Inc()
			if status.Code(err) != codes.OK {
				RequestErrorsTotal.Inc()
			}
		}()

		return handler(ctx, req)
	}
}

// RecordReading counts a generated reading and whether the accumulator kept it.
func RecordReading(channel string, accumulated bool) {
	ReadingsGeneratedTotal.WithLabelValues(channel).Inc()
	if accumulated {
		ReadingsAccumulatedTotal.WithLabelValues(channel).Inc()
	}
}

func SessionStarted() {
	ActiveSessions.Inc()
}

// SessionFinished decrements the active gauge and, when a diagnosis was
// produced, counts it under its classification.
func SessionFinished(channel, classification string) {
	ActiveSessions.Dec()
	if classification != "" {
		SessionsCompletedTotal.WithLabelValues(channel, classification).Inc()
	}
}

func RecordArchiveWrite(err error) {
	if err != nil {
		ArchiveWritesTotal.WithLabelValues("error").Inc()
		return
	}
	ArchiveWritesTotal.WithLabelValues("ok").Inc()
}

func WorkerStarted() {
	ArchiveWorkersActive.Inc()
}

func WorkerFinished() {
	ArchiveWorkersActive.Dec()
}

// statusRecorder captures the response status code for instrumentation.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Status() int {
	return r.status
}

// Hijack lets WebSocket upgrades pass through the instrumentation.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}
