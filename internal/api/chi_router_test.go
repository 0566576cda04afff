// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/ledgerkeep/internal/config"
)

func TestRouterSecurityHeaders(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodGet, "/api/v1/backups", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Cache-Control":          "no-store",
	}
	for k, want := range headers {
		if got := rec.Header().Get(k); got != want {
			t.Errorf("expected %s %q, got %q", k, want, got)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("expected no HSTS over plain HTTP")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID response header")
	}
	if body.Meta["request_id"] != rec.Header().Get("X-Request-ID") {
		t.Errorf("expected metadata request id %q, got %v", rec.Header().Get("X-Request-ID"), body.Meta["request_id"])
	}
}

func TestRouterHSTSBehindTLSProxy(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Error("expected HSTS header behind TLS proxy")
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	rec, body := env.do(t, http.MethodGet, "/api/v1/nothing-here", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if body.Success || body.Error == nil || body.Error.Code != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND envelope, got %+v", body)
	}
}

func TestRouterLivenessAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || !body.Success {
		t.Errorf("expected healthy liveness, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mrec := httptest.NewRecorder()
	env.router.ServeHTTP(mrec, req)
	if mrec.Code != http.StatusOK {
		t.Errorf("expected metrics 200, got %d", mrec.Code)
	}
}

func TestRateLimitAppliesToMutatingRoutes(t *testing.T) {
	env := newTestEnv(t)
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitRequests = 1
	cfg.RateLimitWindow = time.Minute
	router := NewRouter(NewHandler(env.backups, env.schedules, env.cloud, env.monitor), cfg)

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/backups/cleanup", nil)
		req.RemoteAddr = "192.0.2.10:5555"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}
	if code := post(); code != http.StatusOK {
		t.Fatalf("expected first request 200, got %d", code)
	}
	if code := post(); code != http.StatusTooManyRequests {
		t.Errorf("expected second request 429, got %d", code)
	}

	// Reads are not limited.
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/backups", nil)
		req.RemoteAddr = "192.0.2.10:5555"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("expected read %d to pass, got %d", i, rec.Code)
		}
	}
}

func TestChiMiddlewareConfigFromServer(t *testing.T) {
	cfg := ChiMiddlewareConfigFromServer(config.ServerConfig{
		CORSOrigins:     []string{"https://ledger.example.com"},
		RateLimitReqs:   5,
		RateLimitWindow: 10 * time.Second,
	})
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "https://ledger.example.com" {
		t.Errorf("expected configured origin, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitRequests != 5 || cfg.RateLimitWindow != 10*time.Second {
		t.Errorf("expected 5 per 10s, got %d per %v", cfg.RateLimitRequests, cfg.RateLimitWindow)
	}

	defaults := ChiMiddlewareConfigFromServer(config.ServerConfig{})
	if defaults.RateLimitRequests != 30 || defaults.RateLimitWindow != time.Minute {
		t.Errorf("expected defaults 30 per minute, got %d per %v", defaults.RateLimitRequests, defaults.RateLimitWindow)
	}
	if len(defaults.CORSAllowedOrigins) != 0 {
		t.Errorf("expected no default origins, got %v", defaults.CORSAllowedOrigins)
	}
}
