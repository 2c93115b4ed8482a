package router

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// bodyLogLimit caps how much of a request or response body reaches the log.
const bodyLogLimit = 32 << 10

const masked = "***"

// responseCapture records the status, size and a bounded copy of the body
// written by the handler. Handlers report their error through SetError.
type responseCapture struct {
	http.ResponseWriter

	status    int
	written   int
	copied    bytes.Buffer
	truncated bool
	err       error
}

func (c *responseCapture) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(p []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}

	room := bodyLogLimit - c.copied.Len()
	switch {
	case room <= 0:
		c.truncated = c.truncated || len(p) > 0
	case len(p) > room:
		c.copied.Write(p[:room])
		c.truncated = true
	default:
		c.copied.Write(p)
	}

	n, err := c.ResponseWriter.Write(p)
	c.written += n
	return n, err
}

func (c *responseCapture) SetError(err error) { c.err = err }

func (c *responseCapture) Flush() {
	if f, ok := c.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (c *responseCapture) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := c.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

func (c *responseCapture) code() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

func matchedRoutePath(r *http.Request) string {
	if p := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); p != "" {
		return p
	}
	return r.URL.Path
}

// logMasker redacts configured field names from headers and bodies.
type logMasker map[string]struct{}

func newLogMasker(cfg config.Config) logMasker {
	if cfg == nil {
		return logMasker{}
	}
	return instrument.MaskKeys(cfg.GetArray("instrument.log_mask_fields"))
}

func (m logMasker) hit(key string) bool {
	_, ok := m[strings.ToLower(key)]
	return ok
}

func (m logMasker) headers(h http.Header) http.Header {
	if len(m) == 0 {
		return h
	}
	out := h.Clone()
	for k := range out {
		if m.hit(k) {
			out.Set(k, masked)
		}
	}
	return out
}

func (m logMasker) form(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		switch {
		case m.hit(k):
			out[k] = masked
		case len(v) == 1:
			out[k] = v[0]
		default:
			out[k] = v
		}
	}
	return out
}

// body renders raw for logging: masked JSON, masked form values, or text.
func (m logMasker) body(contentType string, raw []byte) any {
	if len(raw) == 0 {
		return nil
	}

	var decoded any
	if json.Unmarshal(raw, &decoded) == nil {
		return instrument.MaskData(decoded, m)
	}

	if strings.HasPrefix(strings.ToLower(contentType), "application/x-www-form-urlencoded") {
		if values, err := url.ParseQuery(string(raw)); err == nil {
			return m.form(values)
		}
	}

	if !utf8.Valid(raw) {
		return "<binary body omitted>"
	}
	if len(raw) > bodyLogLimit {
		return string(raw[:bodyLogLimit]) + "...(truncated)"
	}
	return string(raw)
}

// peekBody reads up to bodyLogLimit bytes and puts them back in front of the
// remaining stream. Multipart uploads are never buffered.
func peekBody(r *http.Request) []byte {
	if r.Body == nil {
		return nil
	}
	if strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/") {
		return []byte("<multipart body omitted>")
	}

	head, _ := io.ReadAll(io.LimitReader(r.Body, bodyLogLimit+1)) //nolint:errcheck // logging only
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(head), r.Body))
	return head[:min(len(head), bodyLogLimit)]
}

type httpMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newHTTPMetrics(meter metric.Meter) httpMetrics {
	var m httpMetrics
	var err error

	if m.requests, err = meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of HTTP requests received")); err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}
	if m.duration, err = meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration in milliseconds"), metric.WithUnit("ms")); err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}
	return m
}

func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	mask := newLogMasker(cfg)
	tracer := ins.Tracer("http.server")
	metrics := newHTTPMetrics(ins.Meter("http.server"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			route := matchedRoutePath(r)

			ctx, span := tracer.Start(r.Context(), r.Method+" "+route, trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
			))
			defer span.End()

			slog.InfoContext(ctx, "request received",
				"method", r.Method,
				"path", route,
				"uri", r.RequestURI,
				"headers", mask.headers(r.Header),
				"body", mask.body(r.Header.Get("Content-Type"), peekBody(r)),
			)

			rc := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(rc, r.WithContext(ctx))

			status := rc.code()
			latency := time.Since(start)
			attrs := metric.WithAttributes(
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
			)

			if rc.err != nil {
				span.RecordError(rc.err)
			}
			switch {
			case status < http.StatusInternalServerError:
				span.SetStatus(codes.Ok, "")
			case rc.err != nil:
				span.SetStatus(codes.Error, rc.err.Error())
			default:
				span.SetStatus(codes.Error, http.StatusText(status))
			}
			span.SetAttributes(
				semconv.HTTPResponseStatusCodeKey.Int(status),
				semconv.NetworkProtocolVersionKey.String(r.Proto),
				semconv.ServerAddressKey.String(r.Host),
				attribute.String("http.user_agent", r.UserAgent()),
				attribute.Int("http.response_content_length", rc.written),
			)

			if metrics.requests != nil {
				metrics.requests.Add(ctx, 1, attrs)
			}
			if metrics.duration != nil {
				metrics.duration.Record(ctx, float64(latency.Milliseconds()), attrs)
			}

			var respBody any = mask.body("application/json", rc.copied.Bytes())
			if rc.truncated {
				respBody = map[string]any{"body": respBody, "truncated": true}
			}

			slog.InfoContext(ctx, "response sent",
				"method", r.Method,
				"path", route,
				"status", status,
				"bytes", rc.written,
				"latency_ms", latency.Milliseconds(),
				"body", respBody,
			)
		})
	}
}
