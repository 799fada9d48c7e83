package middleware

import (
	"net/http"
)

// SecurityHeadersMiddleware adds HTTP security headers to all responses.
type SecurityHeadersMiddleware struct {
	isSecure bool // Whether to enable HTTPS-specific headers (true in production)
}

// NewSecurityHeadersMiddleware creates a new security headers middleware.
// Set isSecure to true in production to enable HSTS and other HTTPS-specific headers.
func NewSecurityHeadersMiddleware(isSecure bool) *SecurityHeadersMiddleware {
	return &SecurityHeadersMiddleware{
		isSecure: isSecure,
	}
}

// Handler returns middleware that sets security headers on all responses.
func (m *SecurityHeadersMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent clickjacking - deny all framing
		w.Header().Set("X-Frame-Options", "DENY")

		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Control referrer information
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// HSTS - only in production with HTTPS
		if m.isSecure {
			// max-age=31536000 = 1 year
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		// Content Security Policy for a JSON API that also serves stored
		// files. No scripts or styles are ever served.
		csp := buildCSP()
		w.Header().Set("Content-Security-Policy", csp)

		// Permissions Policy - disable browser features we don't need
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		next.ServeHTTP(w, r)
	})
}

// buildCSP constructs the Content-Security-Policy header value.
func buildCSP() string {
	return "default-src 'none'; " +
		// Images: the file endpoints serve uploaded images directly
		"img-src 'self'; " +
		// Prevent framing by any site
		"frame-ancestors 'none'; " +
		// Restrict base URI to prevent base tag injection
		"base-uri 'none'; " +
		// No form submission targets
		"form-action 'none'"
}
