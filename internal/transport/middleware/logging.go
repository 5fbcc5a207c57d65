package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/expense-reporting/pkg/logger"
)

const (
	maxLoggedBody = 4096
	redacted      = "[REDACTED]"
)

// Credentials and reset tokens travel in these fields and headers.
var redactedNames = []string{
	"password",
	"token",
	"authorization",
	"cookie",
	"secret",
	"credential",
}

// quietPaths are polled by probes and only logged at debug level.
var quietPaths = map[string]bool{
	"/api/v1/health": true,
	"/api/v1/ping":   true,
}

// LoggingMiddleware writes one line per request with redacted bodies. It prefers the
// request scoped logger so trace and request ids are attached.
func LoggingMiddleware(base *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			log := requestLogger(r, base)

			reqBody := captureRequestBody(r)
			rec := &recorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			status := rec.status()
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"response_size", rec.size,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"headers", RedactHeaders(r.Header),
			}
			if reqBody != "" {
				attrs = append(attrs, "request_body", reqBody)
			}
			if status >= http.StatusBadRequest && rec.body.Len() > 0 {
				attrs = append(attrs, "response_body", redactBody(rec.body.Bytes()))
			}

			log.Log(r.Context(), levelFor(r.URL.Path, status), "http request", attrs...)
		})
	}
}

func requestLogger(r *http.Request, base *slog.Logger) *slog.Logger {
	if l, ok := logger.Lookup(r.Context()); ok {
		return l
	}
	return base
}

func levelFor(path string, status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	case quietPaths[path]:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// captureRequestBody reads at most maxLoggedBody bytes of a JSON body for logging and
// puts them back in front of the rest. Receipt uploads are multipart and never read here.
func captureRequestBody(r *http.Request) string {
	if r.Body == nil || !isJSON(r.Header.Get("Content-Type")) {
		return ""
	}
	head, err := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody))
	r.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(head), r.Body), Closer: r.Body}
	if err != nil || len(head) == 0 {
		return ""
	}
	return redactBody(head)
}

type readCloser struct {
	io.Reader
	io.Closer
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(contentType, "application/json")
}

// recorder keeps the status, the size and the head of JSON bodies.
type recorder struct {
	http.ResponseWriter
	code int
	size int
	body bytes.Buffer
}

func (rec *recorder) status() int {
	if rec.code == 0 {
		return http.StatusOK
	}
	return rec.code
}

func (rec *recorder) WriteHeader(code int) {
	rec.code = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *recorder) Write(b []byte) (int, error) {
	if rec.code == 0 {
		rec.code = http.StatusOK
	}
	rec.size += len(b)
	if isJSON(rec.Header().Get("Content-Type")) && rec.body.Len() < maxLoggedBody {
		rec.body.Write(b[:min(len(b), maxLoggedBody-rec.body.Len())])
	}
	return rec.ResponseWriter.Write(b)
}

// Hijack lets the websocket upgrade take over the connection.
func (rec *recorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rec.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func (rec *recorder) Flush() {
	if f, ok := rec.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func isRedacted(name string) bool {
	name = strings.ToLower(name)
	for _, n := range redactedNames {
		if strings.Contains(name, n) {
			return true
		}
	}
	return false
}

// RedactHeaders masks credential headers.
func RedactHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		if isRedacted(name) {
			out[name] = redacted
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

func redactBody(body []byte) string {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		// truncated or not JSON
		if isRedacted(string(body)) {
			return redacted
		}
		return string(body)
	}
	out, err := json.Marshal(redactValue(doc))
	if err != nil {
		return redacted
	}
	return string(out)
}

func redactValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			if isRedacted(k) {
				out[k] = redacted
				continue
			}
			out[k] = redactValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = redactValue(val)
		}
		return out
	default:
		return v
	}
}
