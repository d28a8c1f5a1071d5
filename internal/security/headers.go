package security

import (
	"net/http"
	"strconv"
)

// Headers sets response hardening headers on API responses.
type Headers struct {
	// HSTSMaxAge enables Strict-Transport-Security on TLS requests when positive.
	HSTSMaxAge int
}

// Middleware attaches the headers to each response. Quote payloads are
// per-session and never cacheable.
func (h Headers) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("X-Content-Type-Options", "nosniff")
		headers.Set("X-Frame-Options", "DENY")
		headers.Set("Referrer-Policy", "no-referrer")
		headers.Set("Cache-Control", "no-store")
		if h.HSTSMaxAge > 0 && r.TLS != nil {
			headers.Set("Strict-Transport-Security", "max-age="+strconv.Itoa(h.HSTSMaxAge))
		}
		next.ServeHTTP(w, r)
	})
}
