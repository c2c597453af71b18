package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/healthgateway/gateway/internal/config"
	"github.com/healthgateway/gateway/internal/platform/db"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:               "0",
		Env:                "development",
		SubjectClaimType:   "hdid",
		ScopeClaimType:     "scope",
		RouteIdentifierKey: "hdid",
		CORSOrigins:        []string{"http://localhost:3000"},
		DevSubject:         "DEVPATIENT1",
		RateLimitRPS:       100,
		RateLimitBurst:     200,
	}
}

func newTestServer(cfg *config.Config) http.Handler {
	s := &server{cfg: cfg, logger: zerolog.Nop(), registry: newRegistry()}
	return s.routes()
}

func serve(h http.Handler, method, target, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_PublicEndpoints(t *testing.T) {
	h := newTestServer(testConfig())

	for _, path := range []string{"/health", "/health/db", "/metrics"} {
		rec := serve(h, http.MethodGet, path, "", "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}

	rec := serve(h, http.MethodGet, "/health", "", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers")
	}
}

func TestServer_DevPatientFlow(t *testing.T) {
	h := newTestServer(testConfig())

	if rec := serve(h, http.MethodPost, "/api/v1/UserProfile", `{"hdid":"DEVPATIENT1"}`, ""); rec.Code != http.StatusOK {
		t.Fatalf("create: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := serve(h, http.MethodGet, "/api/v1/UserProfile/DEVPATIENT1", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("get own: expected 200, got %d", rec.Code)
	}
	if rec := serve(h, http.MethodGet, "/api/v1/UserProfile/SOMEONEELSE", "", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("get other: expected 403, got %d", rec.Code)
	}

	rec := serve(h, http.MethodGet, "/api/v1/UserProfile/DEVPATIENT1/audit", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("audit: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"outcome":"allowed"`) {
		t.Errorf("expected recorded decisions, got %s", rec.Body.String())
	}

	metrics := serve(h, http.MethodGet, "/metrics", "", "").Body.String()
	for _, name := range []string{"healthgateway_authz_decisions_total", "healthgateway_http_requests_total"} {
		if !strings.Contains(metrics, name) {
			t.Errorf("expected %s to be exported", name)
		}
	}
}

func signHS256(t *testing.T, key string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func TestServer_SigningKeyRequiresToken(t *testing.T) {
	cfg := testConfig()
	cfg.Env = "staging"
	cfg.AuthSigningKey = "test-signing-key"
	h := newTestServer(cfg)

	if rec := serve(h, http.MethodGet, "/api/v1/UserProfile/ABC123", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := serve(h, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected public health endpoint, got %d", rec.Code)
	}

	system := signHS256(t, cfg.AuthSigningKey, jwt.MapClaims{
		"sub":   "client-1",
		"scope": "system/Patient.read",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	// Authorized but the profile does not exist.
	if rec := serve(h, http.MethodGet, "/api/v1/UserProfile/ABC123", "", system); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for system read of missing profile, got %d", rec.Code)
	}
	if rec := serve(h, http.MethodPut, "/api/v1/UserProfile/ABC123", `{}`, system); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for system write, got %d", rec.Code)
	}
}

func TestScopesCmd(t *testing.T) {
	cmd := scopesCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--delegation", "system", "--resource", "Patient", "--access", "read"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "system/*.*\nsystem/*.read\nsystem/Patient.*\nsystem/Patient.read\n"
	if out.String() != want {
		t.Errorf("expected\n%s\ngot\n%s", want, out.String())
	}
}

func TestScopesCmd_RejectsUnknownDelegation(t *testing.T) {
	cmd := scopesCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--delegation", "patient"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for unsupported delegation type")
	}
}

func TestPrintMigrationStatus(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	var out bytes.Buffer
	printMigrationStatus(&out, []db.MigrationStatus{
		{Version: 1, Name: "001_access_audit.sql", Applied: true, AppliedAt: &at},
		{Version: 2, Name: "002_user_profile.sql"},
	})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, rule and 2 rows, got %d lines", len(lines))
	}
	if !strings.Contains(lines[2], "applied") || !strings.Contains(lines[2], "2024-01-02 03:04:05") {
		t.Errorf("unexpected applied row %q", lines[2])
	}
	if !strings.Contains(lines[3], "pending") {
		t.Errorf("unexpected pending row %q", lines[3])
	}
}

func TestNewLogger_Level(t *testing.T) {
	cfg := testConfig()
	cfg.Env = "production"
	cfg.LogLevel = "warn"

	var out bytes.Buffer
	logger := newLogger(cfg, &out)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	if strings.Contains(out.String(), "hidden") || !strings.Contains(out.String(), "shown") {
		t.Errorf("unexpected log output %q", out.String())
	}
}
