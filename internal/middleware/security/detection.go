package security

import (
	"fmt"
	"net/http"
	"net/netip"
	"strings"
	"sync/atomic"

	applog "cashcount/internal/log"
)

var defaultTrustedProxies = []string{
	"127.0.0.0/8",
	"::1/128",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
}

var suspiciousPatterns = []string{
	"../", "..\\", ".env", ".git", "wp-admin", "phpmyadmin",
	"<script", "javascript:", "union select", "etc/passwd",
}

var unusualMethods = map[string]bool{"TRACE": true, "TRACK": true, "DEBUG": true, "CONNECT": true}

// Detector resolves client addresses behind trusted proxies and flags probe
// traffic. Flagged requests are logged and counted, never blocked.
type Detector struct {
	trusted    []netip.Prefix
	suspicious atomic.Int64
}

// NewDetector trusts loopback and private networks plus any extra CIDRs.
func NewDetector(extraTrusted ...string) (*Detector, error) {
	d := &Detector{}
	for _, cidr := range append(append([]string(nil), defaultTrustedProxies...), extraTrusted...) {
		p, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy CIDR %s: %w", cidr, err)
		}
		d.trusted = append(d.trusted, p.Masked())
	}
	return d, nil
}

// ExtractClientIP returns the peer address, or the first forwarded address
// when the peer is a trusted proxy.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	direct, err := netip.ParseAddrPort(r.RemoteAddr)
	var addr netip.Addr
	if err == nil {
		addr = direct.Addr()
	} else if addr, err = netip.ParseAddr(r.RemoteAddr); err != nil {
		return r.RemoteAddr
	}
	addr = addr.Unmap()

	if !d.isTrusted(addr) {
		return addr.String()
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if fwd, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return fwd.Unmap().String()
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if fwd, err := netip.ParseAddr(xri); err == nil {
			return fwd.Unmap().String()
		}
	}
	return addr.String()
}

func (d *Detector) isTrusted(addr netip.Addr) bool {
	for _, p := range d.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// IsSuspicious reports whether the request looks like scanner traffic.
func (d *Detector) IsSuspicious(r *http.Request) bool {
	if unusualMethods[r.Method] || len(r.URL.String()) > 2048 {
		return true
	}
	target := strings.ToLower(r.URL.Path + "?" + r.URL.RawQuery)
	for _, p := range suspiciousPatterns {
		if strings.Contains(target, p) {
			return true
		}
	}
	return false
}

// SuspiciousRequests returns how many requests have been flagged.
func (d *Detector) SuspiciousRequests() int64 {
	return d.suspicious.Load()
}

// Middleware logs and counts suspicious requests, then passes them on.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d.IsSuspicious(r) {
			d.suspicious.Add(1)
			applog.FromContext(r.Context()).WithComponent(applog.ComponentSecurity).WarnContext(r.Context(),
				"Suspicious request",
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldClientIP, d.ExtractClientIP(r))
		}
		next.ServeHTTP(w, r)
	})
}
