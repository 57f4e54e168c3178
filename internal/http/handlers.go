package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cashcount/internal/core"
	applog "cashcount/internal/log"
	"cashcount/internal/session"
)

var errTemplatesNotLoaded = errors.New("templates not loaded")

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.appMetrics.uptime).String(),
	}
	NewHTMXResponse().BodyJSON(health).Write(w)
}

// handleReady reports whether pages can be rendered for the loaded catalog.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if n := s.registry.Catalog().Len(); n == 0 {
		checks["catalog"] = "failed: no denominations"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["catalog"] = map[string]any{
			"denominations": n,
			"status":        "ok",
		}
	}

	checks["sessions"] = map[string]any{
		"active": s.registry.Len(),
		"status": "ok",
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	response := map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	}
	NewHTMXResponse().Status(httpStatus).BodyJSON(response).Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	uptime := s.now().Sub(s.appMetrics.uptime)

	w.WriteHeader(http.StatusOK)

	// Write metrics in Prometheus-like format
	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_errors_total HTTP responses by error class\n")
	fmt.Fprintf(w, "# TYPE http_errors_total counter\n")
	fmt.Fprintf(w, "http_errors_total{class=\"4xx\"} %d\n", traceMetrics.ClientErrors)
	fmt.Fprintf(w, "http_errors_total{class=\"5xx\"} %d\n\n", traceMetrics.ServerErrors)

	fmt.Fprintf(w, "# HELP http_response_time_ms Average response time in milliseconds\n")
	fmt.Fprintf(w, "# TYPE http_response_time_ms gauge\n")
	fmt.Fprintf(w, "http_response_time_ms %.3f\n\n", float64(traceMetrics.AverageResponseTime.Microseconds())/1000)

	fmt.Fprintf(w, "# HELP count_intents_total Count edits applied\n")
	fmt.Fprintf(w, "# TYPE count_intents_total counter\n")
	fmt.Fprintf(w, "count_intents_total %d\n\n", s.appMetrics.intentsApplied.Load())

	fmt.Fprintf(w, "# HELP tally_resets_total Tallies reset to zero\n")
	fmt.Fprintf(w, "# TYPE tally_resets_total counter\n")
	fmt.Fprintf(w, "tally_resets_total %d\n\n", s.appMetrics.resets.Load())

	fmt.Fprintf(w, "# HELP template_render_errors_total Failed template renders\n")
	fmt.Fprintf(w, "# TYPE template_render_errors_total counter\n")
	fmt.Fprintf(w, "template_render_errors_total %d\n\n", s.appMetrics.renderErrors.Load())

	fmt.Fprintf(w, "# HELP active_sessions Live counting sessions\n")
	fmt.Fprintf(w, "# TYPE active_sessions gauge\n")
	fmt.Fprintf(w, "active_sessions %d\n\n", s.registry.Len())

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", s.detector.SuspiciousRequests())

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n\n", uptime.Seconds())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionOrFail(w, r)
	if !ok {
		return
	}
	s.renderHTML(w, r, NewHTMXResponse(), "index.html", newPageView(sess.Summary(), s.formatter, s.now()))
}

// handleIntent applies one step or direct edit to a denomination and
// returns its row.
func (s *Server) handleIntent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := s.sessionOrFail(w, r)
	if !ok {
		return
	}

	params, err := ParseIntentParams(r)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	intent := core.Intent{Field: params.Field, Op: params.Op}

	if intent.Op == core.OpSet {
		parser := NewRequestBodyParser(r)
		if err := parser.Parse(); err != nil {
			s.requestLogger(ctx).WarnContext(ctx, "Malformed count edit body",
				applog.FieldDenominationID, params.ID,
				applog.FieldError, err)
			BadRequestError("잘못된 요청 형식입니다").Write(w)
			return
		}
		intent.Text = parser.Get("value")
	}

	var line core.Line
	err = sess.Do(func(t *core.Tally) error {
		units, err := t.Apply(params.ID, intent)
		if err != nil {
			return err
		}
		d, _ := t.Catalog().Lookup(params.ID)
		line = core.Line{
			Denomination: d,
			Units:        units,
			Pair:         t.Pair(params.ID),
			Subtotal:     t.Subtotal(params.ID),
		}
		return nil
	})
	switch {
	case errors.Is(err, core.ErrUnknownDenomination):
		NotFoundError("알 수 없는 권종입니다: " + params.ID).Write(w)
		return
	case errors.Is(err, core.ErrFieldNotApplicable), errors.Is(err, core.ErrInvalidIntent):
		UnprocessableEntityError(err.Error()).Write(w)
		return
	case err != nil:
		applog.NewStructuredLogger(s.requestLogger(ctx)).LogError(ctx, "Count edit failed", err, applog.OpApply,
			applog.NewFields().WithSessionID(sess.ID))
		InternalServerError("계산 중 오류가 발생했습니다").Write(w)
		return
	}

	s.appMetrics.intentsApplied.Add(1)
	applog.NewStructuredLogger(s.requestLogger(ctx).WithComponent(applog.ComponentCounter)).
		LogCountChanged(ctx, sess.ID, params.ID, string(intent.Field), string(intent.Op), line.Units)

	s.renderHTML(w, r, NewHTMXResponse().TriggerCountsChanged(params.ID), "row", newRowView(line, s.formatter))
}

// handleReset zeroes every count of the session and returns the whole counter.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := s.sessionOrFail(w, r)
	if !ok {
		return
	}

	var summary core.Summary
	_ = sess.Do(func(t *core.Tally) error {
		t.ResetAll()
		summary = t.Summary()
		return nil
	})
	s.appMetrics.resets.Add(1)
	s.requestLogger(ctx).WithComponent(applog.ComponentCounter).InfoContext(ctx, "Tally reset",
		applog.FieldSessionID, sess.ID,
		applog.FieldOperation, applog.OpReset)

	s.renderHTML(w, r, NewHTMXResponse().TriggerTallyReset(), "counter", newCounterView(summary, s.formatter))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionOrFail(w, r)
	if !ok {
		return
	}
	s.renderHTML(w, r, NewHTMXResponse(), "summary", newSummaryView(sess.Summary(), s.formatter))
}

// handleTally returns the session tally as JSON.
func (s *Server) handleTally(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionOrFail(w, r)
	if !ok {
		return
	}
	NewHTMXResponse().BodyJSON(newTallyJSON(sess.Summary(), s.formatter)).Write(w)
}

func (s *Server) sessionOrFail(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		s.requestLogger(r.Context()).ErrorContext(r.Context(), "Request reached handler without a session",
			applog.FieldPath, r.URL.Path)
		InternalServerError("세션을 찾을 수 없습니다").Write(w)
		return nil, false
	}
	return sess, true
}

// renderHTML executes a template into a buffer so a failed render never
// leaves a half-written fragment.
func (s *Server) renderHTML(w http.ResponseWriter, r *http.Request, resp *HTMXResponseBuilder, name string, data any) {
	body, err := s.render(name, data)
	if err != nil {
		s.appMetrics.renderErrors.Add(1)
		applog.NewStructuredLogger(s.requestLogger(r.Context()).WithComponent(applog.ComponentTemplate)).
			LogError(r.Context(), "Template execution failed", err, applog.OpRender,
				applog.LogFields{"template": name})
		InternalServerError("화면을 그리지 못했습니다").Write(w)
		return
	}
	resp.BodyHTML(body).Write(w)
}

func (s *Server) render(name string, data any) ([]byte, error) {
	if s.templates == nil {
		return nil, errTemplatesNotLoaded
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("execute %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// requestLogger prefers the request-scoped logger set by the trace middleware.
func (s *Server) requestLogger(ctx context.Context) *applog.Logger {
	if l, ok := applog.Lookup(ctx); ok {
		return l.WithComponent(applog.ComponentHTTP)
	}
	return s.logger
}
