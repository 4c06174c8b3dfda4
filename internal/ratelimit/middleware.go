package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"

	"webhook-guard/internal/common/errors"
	"webhook-guard/internal/common/logging"
	"webhook-guard/internal/common/response"
)

// HTTPMiddleware answers 429 with Retry-After once keyFunc's key is over its
// limit. Requests with an empty key, or whose check errors, are let through.
func HTTPMiddleware(limiter Limiter, config Config, keyFunc func(*http.Request) string, logger logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	retryAfter := strconv.Itoa(int(config.Window.Seconds() + 0.5))
	if retryAfter == "0" {
		retryAfter = "1"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.WithContext(r.Context()).Error("Rate limit check failed", err)
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				logger.WithContext(r.Context()).Warn("Rate limit exceeded",
					logging.String("key", key),
					logging.String("path", r.URL.Path),
				)
				w.Header().Set("Retry-After", retryAfter)
				response.AppError(w, errors.RateLimitError(r.URL.Path))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// TrustedProxies are the peers whose X-Forwarded-For and X-Real-IP headers
// are believed.
type TrustedProxies []netip.Prefix

// ParseTrustedProxies accepts IP addresses and CIDR ranges.
func ParseTrustedProxies(values []string) (TrustedProxies, error) {
	out := make(TrustedProxies, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if prefix, err := netip.ParsePrefix(v); err == nil {
			out = append(out, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q", v)
		}
		out = append(out, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}
	return out, nil
}

func (t TrustedProxies) trusts(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range t {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// IPKey keys requests by the connection address. Forwarding headers are
// ignored; use ClientIPKey behind a proxy.
func IPKey(r *http.Request) string {
	return ClientIPKey(nil)(r)
}

// ClientIPKey keys requests by client address. Forwarding headers count only
// when the connection comes from a trusted proxy, and X-Forwarded-For is read
// right to left so hops a client prepends are skipped.
func ClientIPKey(trusted TrustedProxies) func(*http.Request) string {
	return func(r *http.Request) string {
		ip := remoteIP(r)
		if !trusted.trusts(ip) {
			return "ip:" + ip
		}

		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			hops := strings.Split(forwarded, ",")
			for i := len(hops) - 1; i >= 0; i-- {
				hop := strings.TrimSpace(hops[i])
				if hop == "" {
					continue
				}
				if !trusted.trusts(hop) {
					return "ip:" + hop
				}
				ip = hop
			}
			return "ip:" + ip
		}
		if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
			return "ip:" + realIP
		}
		return "ip:" + ip
	}
}

func remoteIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
