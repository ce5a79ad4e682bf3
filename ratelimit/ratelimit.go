package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"

	"vidrank/httputil"
)

// maxClientIDLen bounds the X-Client-ID header.
const maxClientIDLen = 128

// trustedCIDRs are Docker/loopback networks whose proxy headers we trust.
var trustedCIDRs = func() []*net.IPNet {
	cidrs := []string{
		"127.0.0.0/8",    // loopback
		"10.0.0.0/8",     // Docker default bridge & overlay
		"172.16.0.0/12",  // Docker default bridge range
		"192.168.0.0/16", // common local networks
		"::1/128",        // IPv6 loopback
		"fc00::/7",       // IPv6 unique local
	}
	var nets []*net.IPNet
	for _, c := range cidrs {
		_, n, _ := net.ParseCIDR(c)
		nets = append(nets, n)
	}
	return nets
}()

func isTrustedProxy(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	for _, cidr := range trustedCIDRs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP extracts the real client IP for rate limiting.
// Only trusts X-Real-IP / X-Forwarded-For when the request comes from a
// known proxy (Docker internal network or loopback), preventing
// header-spoofed bypasses. Do not combine with middleware.RealIP, which
// rewrites RemoteAddr from the same headers unconditionally.
func ClientIP(r *http.Request) string {
	if isTrustedProxy(r.RemoteAddr) {
		if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
			return strings.TrimSpace(realIP)
		}
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			// Only trust the first IP (set by the outermost proxy).
			if idx := strings.IndexByte(forwarded, ','); idx != -1 {
				return strings.TrimSpace(forwarded[:idx])
			}
			return strings.TrimSpace(forwarded)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ClientID identifies the caller for sessions and history: the
// X-Client-ID header when present, otherwise the client IP.
func ClientID(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get("X-Client-ID"))
	if id == "" || len(id) > maxClientIDLen {
		return ClientIP(r)
	}
	return id
}

// Middleware returns HTTP 429 once a client IP exceeds limit requests per
// window.
func Middleware(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return ClientIP(r), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httputil.WriteError(w, http.StatusTooManyRequests, "too many requests")
		}),
	)
}
