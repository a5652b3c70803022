package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const testSecret = "relp-test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestAuthenticatorEnforcesScopes(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{
		Enabled:    true,
		HMACSecret: testSecret,
		Issuer:     "relp-gateway",
		Audience:   "relp",
	}, nil)
	var subject string
	handler := auth.Middleware(ScopeAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = Subject(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	exp := time.Now().Add(time.Hour).Unix()

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"malformed", "Bearer nope", http.StatusUnauthorized},
		{"wrong issuer", "Bearer " + signToken(t, jwt.MapClaims{"iss": "other", "aud": "relp", "exp": exp, "scope": ScopeAdmin}), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, jwt.MapClaims{"iss": "relp-gateway", "aud": "relp", "exp": time.Now().Add(-time.Hour).Unix(), "scope": ScopeAdmin}), http.StatusUnauthorized},
		{"no expiry", "Bearer " + signToken(t, jwt.MapClaims{"iss": "relp-gateway", "aud": "relp", "scope": ScopeAdmin}), http.StatusUnauthorized},
		{"insufficient", "Bearer " + signToken(t, jwt.MapClaims{"iss": "relp-gateway", "aud": "relp", "exp": exp, "scope": ScopeWrite}), http.StatusForbidden},
		{"ok", "Bearer " + signToken(t, jwt.MapClaims{"iss": "relp-gateway", "aud": []string{"relp"}, "exp": exp, "sub": "ops", "scope": ScopeWrite + " " + ScopeAdmin}), http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/v1/admin/awards", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		if res.Code != tc.want {
			t.Fatalf("%s: got %d want %d", tc.name, res.Code, tc.want)
		}
	}
	if subject != "ops" {
		t.Fatalf("subject = %q", subject)
	}
}

func TestAuthenticatorDisabledPassesThrough(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{}, nil)
	handler := auth.Middleware(ScopeWrite)(okHandler())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/v1/tx/mint", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", res.Code)
	}
}

func TestRequestIDAndCORS(t *testing.T) {
	var seen string
	handler := CORS(CORSConfig{AllowedOrigins: []string{"https://a.example", "https://b.example"}})(
		RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFrom(r.Context())
			w.WriteHeader(http.StatusOK)
		})))

	req := httptest.NewRequest(http.MethodGet, "/v1/supply", nil)
	req.Header.Set("Origin", "https://b.example")
	req.Header.Set(RequestIDHeader, "abc-123")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if seen != "abc-123" || res.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("request id not propagated: %q", seen)
	}
	if got := res.Header().Get("Access-Control-Allow-Origin"); got != "https://b.example" {
		t.Fatalf("origin = %q", got)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/supply", nil))
	if len(seen) != 36 {
		t.Fatalf("expected generated uuid, got %q", seen)
	}

	preflight := httptest.NewRequest(http.MethodOptions, "/v1/tx/mint", nil)
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, preflight)
	if res.Code != http.StatusNoContent {
		t.Fatalf("preflight status %d", res.Code)
	}
}
