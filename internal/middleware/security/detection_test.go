package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractClientIP(t *testing.T) {
	d, err := NewDetector()
	if err != nil {
		t.Fatalf("NewDetector() error = %v", err)
	}

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{name: "direct public", remoteAddr: "203.0.113.5:4000", want: "203.0.113.5"},
		{name: "untrusted peer ignores XFF", remoteAddr: "203.0.113.5:4000", headers: map[string]string{"X-Forwarded-For": "198.51.100.1"}, want: "203.0.113.5"},
		{name: "trusted proxy XFF", remoteAddr: "10.0.0.2:4000", headers: map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.9"}, want: "198.51.100.1"},
		{name: "trusted proxy real ip", remoteAddr: "127.0.0.1:4000", headers: map[string]string{"X-Real-IP": "198.51.100.2"}, want: "198.51.100.2"},
		{name: "trusted proxy garbage XFF", remoteAddr: "192.168.1.1:80", headers: map[string]string{"X-Forwarded-For": "nope"}, want: "192.168.1.1"},
		{name: "ipv6 loopback", remoteAddr: "[::1]:8080", headers: map[string]string{"X-Forwarded-For": "2001:db8::1"}, want: "2001:db8::1"},
		{name: "unparseable remote", remoteAddr: "pipe", want: "pipe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := d.ExtractClientIP(r); got != tt.want {
				t.Errorf("ExtractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewDetectorRejectsBadCIDR(t *testing.T) {
	if _, err := NewDetector("10.0.0.0/99"); err == nil {
		t.Errorf("expected error for invalid CIDR")
	}
}

func TestSuspiciousMiddleware(t *testing.T) {
	d, _ := NewDetector()
	served := 0
	h := d.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { served++ }))

	for _, target := range []string{"/", "/denominations/krw_1000/bundle/inc", "/.env", "/?q=../../etc/passwd"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("TRACE", "/", nil))

	if served != 5 {
		t.Errorf("flagged requests must still be served, served=%d", served)
	}
	if got := d.SuspiciousRequests(); got != 3 {
		t.Errorf("SuspiciousRequests() = %d, want 3", got)
	}
}
