package telemetry

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName scopes every tracer and meter in the service.
const InstrumentationName = "github.com/jsamuelsen/quotebook"

// HeaderTraceID echoes the active trace id to clients.
const HeaderTraceID = "X-Trace-ID"

// serverMetrics holds HTTP server instruments.
type serverMetrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
	activeRequests  metric.Int64UpDownCounter
}

func newServerMetrics() (*serverMetrics, error) {
	meter := otel.Meter(InstrumentationName)

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"http.server.request.total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	return &serverMetrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		activeRequests:  activeRequests,
	}, nil
}

// Middleware returns the otelgin tracing handler followed by a handler that
// records server metrics and echoes the trace id.
func Middleware(serviceName string) []gin.HandlerFunc {
	metrics, err := newServerMetrics()
	if err != nil {
		otel.Handle(err)
	}

	return []gin.HandlerFunc{
		otelgin.Middleware(serviceName),
		func(c *gin.Context) {
			start := time.Now()
			ctx := c.Request.Context()
			route := attribute.String("http.route", c.FullPath())
			method := attribute.String("http.method", c.Request.Method)

			if metrics != nil {
				metrics.activeRequests.Add(ctx, 1, metric.WithAttributes(method, route))
				defer metrics.activeRequests.Add(ctx, -1, metric.WithAttributes(method, route))
			}

			if sc := trace.SpanFromContext(ctx).SpanContext(); sc.HasTraceID() {
				c.Header(HeaderTraceID, sc.TraceID().String())
			}

			c.Next()

			if metrics != nil {
				attrs := metric.WithAttributes(method, route, attribute.Int("http.status_code", c.Writer.Status()))
				metrics.requestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
				metrics.requestTotal.Add(ctx, 1, attrs)
			}
		},
	}
}
