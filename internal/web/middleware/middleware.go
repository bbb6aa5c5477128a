package middleware

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Logger logs one line per request with its outcome. Server errors are
// raised to warn level so they show without -v.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			event := log.Debug()
			if ww.Status() >= http.StatusInternalServerError {
				event = log.Warn()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("remote", r.RemoteAddr).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("Request")
		}()

		next.ServeHTTP(ww, r)
	})
}

// AllowSubnet is a middleware that restricts access to connections from within the allowed subnet.
// This checks the actual connection source (RemoteAddr), useful for whitelisting reverse proxies.
func AllowSubnet(allowedNet *net.IPNet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// If no subnet restriction, allow all
			if allowedNet == nil {
				next.ServeHTTP(w, r)
				return
			}

			// Get the direct connection IP from RemoteAddr
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				// Maybe it's just an IP without port
				host = r.RemoteAddr
			}

			ip := net.ParseIP(host)
			if ip == nil {
				log.Warn().Str("remote_addr", r.RemoteAddr).Msg("Could not parse remote address")
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			// Check if connection source is within allowed subnet
			if !allowedNet.Contains(ip) {
				log.Warn().
					Str("remote_addr", r.RemoteAddr).
					Str("allowed_subnet", allowedNet.String()).
					Msg("Connection rejected: source IP not in allowed subnet")
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LimitBody caps request bodies at n bytes. Reads past the limit fail and
// form parsing reports an error.
func LimitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
