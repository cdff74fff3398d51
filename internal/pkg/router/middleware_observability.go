package router

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/otpmail/internal/pkg/instrument"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// maxLoggedBodyBytes caps how much of each body is copied into log lines.
const maxLoggedBodyBytes = 32 << 10

type httpMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newHTTPMetrics(meter metric.Meter) httpMetrics {
	var m httpMetrics
	var err error

	m.requests, err = meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of HTTP requests served"))
	if err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}

	m.duration, err = meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("ms"))
	if err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}

	return m
}

func (m httpMetrics) record(ctx context.Context, elapsed time.Duration, attrs ...attribute.KeyValue) {
	opt := metric.WithAttributes(attrs...)
	if m.requests != nil {
		m.requests.Add(ctx, 1, opt)
	}
	if m.duration != nil {
		m.duration.Record(ctx, float64(elapsed.Microseconds())/1000, opt)
	}
}

// responseCapture records what the handler wrote, keeping a bounded copy of
// the body for the response log line.
type responseCapture struct {
	http.ResponseWriter
	status int
	size   int
	body   bytes.Buffer
	capped bool
	err    error
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(p []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}

	if room := maxLoggedBodyBytes - c.body.Len(); room < len(p) {
		c.body.Write(p[:max(room, 0)])
		c.capped = true
	} else {
		c.body.Write(p)
	}

	n, err := c.ResponseWriter.Write(p)
	c.size += n
	return n, err
}

// SetError lets the endpoint adapter attach the handler error to the span.
func (c *responseCapture) SetError(err error) { c.err = err }

func (c *responseCapture) Unwrap() http.ResponseWriter { return c.ResponseWriter }

func (c *responseCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

// peekBody returns up to maxLoggedBodyBytes of the request body and leaves
// r.Body readable from the start.
func peekBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBodyBytes))
	r.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(head), r.Body), Closer: r.Body}
	return head
}

type readCloser struct {
	io.Reader
	io.Closer
}

// loggable turns a body into a log value. JSON text stays a string so the
// log handler can mask its fields; a cut body is no longer JSON and could not
// be masked, so it is dropped.
func loggable(b []byte, truncated bool) any {
	switch {
	case len(b) == 0:
		return nil
	case !utf8.Valid(b):
		return "<binary body omitted>"
	case truncated:
		return "<large body omitted>"
	default:
		return string(b)
	}
}

// unmatchedRoute labels requests no route matched, keeping span names and
// metric attributes bounded.
const unmatchedRoute = "unmatched"

func matchedRoutePath(r *http.Request) string {
	if p := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); p != "" {
		return p
	}
	return unmatchedRoute
}

func middlewareObservability(ins instrument.Instrumentation) Middleware {
	tracer := ins.Tracer("http.server")
	metrics := newHTTPMetrics(ins.Meter("http.server"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			route := matchedRoutePath(r)
			ip := clientIP(r)

			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, r.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRouteKey.String(route),
					semconv.ClientAddress(ip),
					semconv.UserAgentOriginal(r.UserAgent()),
				),
			)
			defer span.End()

			reqBody := peekBody(r)
			slog.InfoContext(ctx, "request received",
				"method", r.Method,
				"path", route,
				"uri", r.URL.RequestURI(),
				"client_ip", ip,
				"headers", r.Header,
				"body", loggable(reqBody, len(reqBody) == maxLoggedBodyBytes),
			)

			rc := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(rc, r.WithContext(ctx))

			status := rc.statusCode()
			elapsed := time.Since(start)

			if rc.err != nil {
				span.RecordError(rc.err)
			}
			switch {
			case status < 500:
				span.SetStatus(codes.Ok, "")
			case rc.err != nil:
				span.SetStatus(codes.Error, rc.err.Error())
			default:
				span.SetStatus(codes.Error, http.StatusText(status))
			}
			span.SetAttributes(
				semconv.HTTPResponseStatusCode(status),
				semconv.HTTPResponseBodySize(rc.size),
			)

			metrics.record(ctx, elapsed,
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCode(status),
			)

			slog.InfoContext(ctx, "response sent",
				"method", r.Method,
				"path", route,
				"status", status,
				"bytes", rc.size,
				"latency_ms", elapsed.Milliseconds(),
				"rate_limit_remaining", rc.Header().Get(HeaderRateLimitRemaining),
				"body", loggable(rc.body.Bytes(), rc.capped),
			)
		})
	}
}
