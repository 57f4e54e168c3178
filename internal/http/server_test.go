package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"cashcount/internal/catalog"
	"cashcount/internal/catalog/builtin"
	"cashcount/internal/core"
	applog "cashcount/internal/log"
	"cashcount/internal/middleware/ratelimit"
	"cashcount/internal/session"
)

func newTestServer(t *testing.T, mutate func(*ServerConfig)) *Server {
	t.Helper()
	cat, err := catalog.Build(context.Background(), builtin.NewKRW())
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	cfg := ServerConfig{
		Addr:     ":0",
		Registry: session.NewRegistry(cat, session.Config{}),
		Logger:   applog.Discard(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

// withCatalog swaps the builtin KRW catalog for denoms.
func withCatalog(t *testing.T, denoms ...core.Denomination) func(*ServerConfig) {
	t.Helper()
	cat, err := core.NewCatalog(denoms)
	if err != nil {
		t.Fatalf("custom catalog: %v", err)
	}
	return func(cfg *ServerConfig) {
		cfg.Registry = session.NewRegistry(cat, session.Config{})
	}
}

// client replays the session cookie it was handed, like a browser.
type client struct {
	t      *testing.T
	srv    *Server
	cookie *http.Cookie
}

func (c *client) do(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rr := httptest.NewRecorder()
	c.srv.Handler.ServeHTTP(rr, req)
	for _, ck := range rr.Result().Cookies() {
		if ck.Name == session.CookieName {
			c.cookie = ck
		}
	}
	return rr
}

func (c *client) tally() tallyJSON {
	c.t.Helper()
	rr := c.do(http.MethodGet, "/api/tally", "")
	if rr.Code != http.StatusOK {
		c.t.Fatalf("tally status=%d", rr.Code)
	}
	var out tallyJSON
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		c.t.Fatalf("decode tally: %v", err)
	}
	return out
}

func (tj tallyJSON) line(id string) lineJSON {
	for _, l := range tj.Lines {
		if l.ID == id {
			return l
		}
	}
	return lineJSON{}
}

func TestIndexAndHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	c := &client{t: t, srv: srv}

	rr := c.do(http.MethodGet, "/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"화폐 계수기", `id="row-krw_50000"`, `id="row-krw_10"`, "지폐 (Banknotes)", "동전 (Coins)", "₩0"} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
	if c.cookie == nil {
		t.Fatal("index did not issue a session cookie")
	}
	if got := rr.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers not applied")
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := c.do(http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		if rr.Header().Get("Set-Cookie") != "" {
			t.Errorf("%s should not issue a session cookie", path)
		}
	}
}

func TestStaticAssets(t *testing.T) {
	srv := newTestServer(t, nil)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("static status=%d", rr.Code)
	}
	if got := rr.Header().Get("Cache-Control"); got != "public, max-age=3600" {
		t.Errorf("Cache-Control = %q", got)
	}
}

func TestStepAndDirectEdit(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t, nil)}
	c.do(http.MethodGet, "/", "")

	rr := c.do(http.MethodPost, "/denominations/krw_10000/bundle/inc", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("bundle inc status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	if !strings.HasPrefix(strings.TrimSpace(body), `<li id="row-krw_10000"`) {
		t.Errorf("expected row partial, got %s", body)
	}
	if !strings.Contains(body, "₩100,000") || !strings.Contains(body, "10장") {
		t.Errorf("row missing subtotal or units: %s", body)
	}
	if trig := rr.Header().Get("HX-Trigger"); !strings.Contains(trig, `"counts:changed":{"id":"krw_10000"}`) {
		t.Errorf("HX-Trigger = %q", trig)
	}

	rr = c.do(http.MethodPost, "/denominations/krw_10000/loose", "value=5")
	if rr.Code != http.StatusOK {
		t.Fatalf("loose set status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "₩150,000") {
		t.Errorf("loose set row missing subtotal: %s", rr.Body.String())
	}

	rr = c.do(http.MethodPost, "/denominations/krw_500/bundle", "value=2")
	if rr.Code != http.StatusOK {
		t.Fatalf("coin bundle set status=%d", rr.Code)
	}
	rr = c.do(http.MethodPost, "/denominations/krw_500/loose/inc", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("coin loose inc status=%d", rr.Code)
	}

	tj := c.tally()
	if got := tj.line("krw_10000"); got.Units != 15 || got.Bundles != 1 || got.Loose != 5 {
		t.Errorf("krw_10000 = %+v", got)
	}
	if got := tj.line("krw_500"); got.Units != 81 || got.Subtotal != 40500 {
		t.Errorf("krw_500 = %+v", got)
	}
	if tj.Total != 190500 || tj.Formatted != "₩190,500" || tj.Currency != "KRW" {
		t.Errorf("total = %d (%s %s)", tj.Total, tj.Formatted, tj.Currency)
	}

	rr = c.do(http.MethodGet, "/ui/summary", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("summary status=%d", rr.Code)
	}
	summary := rr.Body.String()
	for _, want := range []string{`id="summary"`, "₩150,000", "₩40,500", "₩190,500"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q: %s", want, summary)
		}
	}
}

func TestFlatDenominationEdits(t *testing.T) {
	srv := newTestServer(t, withCatalog(t,
		core.Denomination{ID: "note_1000", Value: 1000, Category: core.Banknote, BundleSize: 10, Label: "1,000원"},
		core.Denomination{ID: "coin_500", Value: 500, Category: core.Coin, Label: "500원"},
	))
	c := &client{t: t, srv: srv}

	if rr := c.do(http.MethodGet, "/", ""); !strings.Contains(rr.Body.String(), "/denominations/coin_500/flat/inc") {
		t.Fatalf("flat row missing flat controls: %s", rr.Body.String())
	}

	rr := c.do(http.MethodPost, "/denominations/coin_500/flat", "value=4")
	if rr.Code != http.StatusOK {
		t.Fatalf("flat set status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "₩2,000") {
		t.Errorf("flat row missing subtotal: %s", rr.Body.String())
	}
	c.do(http.MethodPost, "/denominations/coin_500/flat/inc", "")
	c.do(http.MethodPost, "/denominations/coin_500/flat/inc", "")
	c.do(http.MethodPost, "/denominations/coin_500/flat/dec", "")

	for _, path := range []string{"/denominations/coin_500/bundle/inc", "/denominations/coin_500/loose/dec"} {
		if rr := c.do(http.MethodPost, path, ""); rr.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s status=%d, want 422", path, rr.Code)
		}
	}

	got := c.tally().line("coin_500")
	if got.Units != 5 || got.Bundles != 0 || got.Loose != 5 || got.Subtotal != 2500 {
		t.Errorf("coin_500 = %+v", got)
	}

	c.do(http.MethodPost, "/denominations/coin_500/flat", "value=-2")
	if got := c.tally().line("coin_500"); got.Units != 0 {
		t.Errorf("negative flat input = %d, want 0", got.Units)
	}
}

func TestLooseDecrementUnwrapsBundle(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t, nil)}
	c.do(http.MethodPost, "/denominations/krw_1000/bundle/inc", "")

	rr := c.do(http.MethodPost, "/denominations/krw_1000/loose/dec", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("loose dec status=%d", rr.Code)
	}
	got := c.tally().line("krw_1000")
	if got.Units != 9 || got.Bundles != 0 || got.Loose != 9 {
		t.Errorf("after unwrap = %+v, want 0 bundles 9 loose", got)
	}
}

func TestMalformedBundleCountsAsZero(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t, nil)}
	c.do(http.MethodPost, "/denominations/krw_5000/bundle", "value=3")
	c.do(http.MethodPost, "/denominations/krw_5000/loose", "value=5")

	rr := c.do(http.MethodPost, "/denominations/krw_5000/bundle", "value=abc")
	if rr.Code != http.StatusOK {
		t.Fatalf("malformed bundle status=%d", rr.Code)
	}
	if got := c.tally().line("krw_5000"); got.Units != 5 {
		t.Errorf("units = %d, want 5", got.Units)
	}
}

func TestIntentErrors(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t, nil)}

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"unknown denomination", http.MethodPost, "/denominations/usd_1/flat/inc", "", http.StatusNotFound},
		{"flat on bundled banknote", http.MethodPost, "/denominations/krw_1000/flat/inc", "", http.StatusUnprocessableEntity},
		{"unknown field", http.MethodPost, "/denominations/krw_1000/stack/inc", "", http.StatusUnprocessableEntity},
		{"set through op route", http.MethodPost, "/denominations/krw_1000/bundle/set", "", http.StatusUnprocessableEntity},
		{"unknown op", http.MethodPost, "/denominations/krw_1000/bundle/double", "", http.StatusUnprocessableEntity},
		{"malformed body", http.MethodPost, "/denominations/krw_1000/bundle", "value=%zz", http.StatusBadRequest},
		{"wrong method", http.MethodGet, "/denominations/krw_1000/bundle/inc", "", http.StatusMethodNotAllowed},
		{"reset by GET", http.MethodGet, "/reset", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := c.do(tt.method, tt.path, tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status=%d, want %d (body %s)", rr.Code, tt.wantStatus, rr.Body.String())
			}
		})
	}

	if tj := c.tally(); tj.Total != 0 {
		t.Errorf("rejected edits changed the tally: total %d", tj.Total)
	}
}

func TestReset(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t, nil)}
	c.do(http.MethodPost, "/denominations/krw_50000/bundle/inc", "")
	c.do(http.MethodPost, "/denominations/krw_100/loose", "value=7")

	rr := c.do(http.MethodPost, "/reset", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("reset status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `id="counter"`) {
		t.Errorf("reset should return the counter section")
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), "tally:reset") {
		t.Errorf("HX-Trigger = %q", rr.Header().Get("HX-Trigger"))
	}

	tj := c.tally()
	if tj.Total != 0 {
		t.Errorf("total after reset = %d", tj.Total)
	}
	for _, l := range tj.Lines {
		if l.Units != 0 {
			t.Errorf("%s = %d after reset", l.ID, l.Units)
		}
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	srv := newTestServer(t, nil)
	a := &client{t: t, srv: srv}
	b := &client{t: t, srv: srv}

	a.do(http.MethodPost, "/denominations/krw_10/loose/inc", "")
	a.do(http.MethodPost, "/denominations/krw_50/loose/inc", "")

	if got := a.tally().Total; got != 60 {
		t.Errorf("a total = %d, want 60", got)
	}
	if got := b.tally().Total; got != 0 {
		t.Errorf("b total = %d, want 0", got)
	}
	if a.cookie.Value == b.cookie.Value {
		t.Error("clients share a session id")
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	srv := newTestServer(t, func(cfg *ServerConfig) {
		cfg.RateLimit = ratelimit.Config{RequestsPerMinute: 2, Methods: []string{http.MethodPost}}
	})
	c := &client{t: t, srv: srv}

	for i := 0; i < 2; i++ {
		if rr := c.do(http.MethodPost, "/denominations/krw_10/loose/inc", ""); rr.Code != http.StatusOK {
			t.Fatalf("request %d status=%d", i, rr.Code)
		}
	}
	rr := c.do(http.MethodPost, "/denominations/krw_10/loose/inc", "")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("Retry-After not set")
	}
	if rr := c.do(http.MethodGet, "/ui/summary", ""); rr.Code != http.StatusOK {
		t.Errorf("reads should not be limited, got %d", rr.Code)
	}

	rr = c.do(http.MethodGet, "/metrics", "")
	for _, want := range []string{"rate_limit_hits_total 1", "count_intents_total 2", "active_sessions 1"} {
		if !strings.Contains(rr.Body.String(), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestTemplateParseErrorPath(t *testing.T) {
	srv := newTestServer(t, func(cfg *ServerConfig) {
		cfg.Templates = fstest.MapFS{"templates/broken.html": {Data: []byte("{{define")}}
	})
	c := &client{t: t, srv: srv}

	if rr := c.do(http.MethodGet, "/", ""); rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for missing templates, got %d", rr.Code)
	}
	if rr := c.do(http.MethodGet, "/readyz", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from readyz, got %d", rr.Code)
	}
	// The count still moves; only rendering fails.
	if rr := c.do(http.MethodPost, "/denominations/krw_10/loose/inc", ""); rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for row render, got %d", rr.Code)
	}
	if got := c.tally().Total; got != 10 {
		t.Errorf("total = %d, want 10", got)
	}
}

func TestNewServerRequiresRegistry(t *testing.T) {
	if _, err := NewServer(ServerConfig{}); err == nil {
		t.Fatal("expected error without a session registry")
	}
}
