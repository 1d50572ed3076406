package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"imghead/internal/logging"
)

type RequestLogger struct{}

func NewRequestLogger() *RequestLogger {
	return &RequestLogger{}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

func (l *RequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		line := "request " + logging.KV(map[string]any{
			"method": r.Method,
			"path":   r.URL.RequestURI(),
			"status": rec.status,
			"bytes":  rec.size,
			"ip":     clientIP(r),
			"ua":     r.UserAgent(),
			"dur_ms": time.Since(start).Milliseconds(),
		})
		if rec.status >= 400 {
			logging.Get(fmt.Sprintf("request_%d", rec.status)).Print(line)
			return
		}
		if r.URL.Path == "/metrics" || r.URL.Path == "/health" {
			logging.Get("requests_probe").Print(line)
			return
		}
		logging.Get("requests").Print(line)
	})
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if parsed := net.ParseIP(ip); parsed != nil {
				return parsed.String()
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	if parsed := net.ParseIP(host); parsed != nil {
		return parsed.String()
	}
	return host
}
