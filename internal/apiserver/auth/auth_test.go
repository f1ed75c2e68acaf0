package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"course-market/internal/shared/model"
	"course-market/internal/shared/storage"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWTSecret = "test-secret"
	return cfg
}

func TestTokenRoundTrip(t *testing.T) {
	cfg := testConfig()

	token, err := GenerateToken(cfg, "alice@example.com", "Alice", "student")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseToken(cfg, token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("email claim = %q, want alice@example.com", claims.Email)
	}
	if claims.Name != "Alice" {
		t.Errorf("name claim = %q, want Alice", claims.Name)
	}
	exp := claims.ExpiresAt.Time
	if d := time.Until(exp); d < 6*24*time.Hour || d > 7*24*time.Hour {
		t.Errorf("token expiry %v out of the 7-day window", d)
	}
}

func TestParseTokenRejectsBadSecret(t *testing.T) {
	cfg := testConfig()
	token, err := GenerateToken(cfg, "alice@example.com", "", "")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	other := cfg
	other.JWTSecret = "different-secret"
	if _, err := ParseToken(other, token); err == nil {
		t.Error("expected error for token signed with another secret")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	cfg := testConfig()
	cfg.TokenTTL = -time.Hour

	token, err := GenerateToken(cfg, "alice@example.com", "", "")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ParseToken(cfg, token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestMiddleware(t *testing.T) {
	cfg := testConfig()
	token, err := GenerateToken(cfg, "alice@example.com", "Alice", "student")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	var gotIdentity *Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIdentity = GetIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(cfg)(next)

	tests := []struct {
		name       string
		method     string
		path       string
		authHeader string
		wantStatus int
	}{
		{"missing header", "GET", "/api/v1/selections", "", http.StatusUnauthorized},
		{"malformed header", "GET", "/api/v1/selections", "Token abc", http.StatusUnauthorized},
		{"garbage token", "GET", "/api/v1/selections", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"valid token", "GET", "/api/v1/selections", "Bearer " + token, http.StatusOK},
		{"public classes list", "GET", "/api/v1/classes", "", http.StatusOK},
		{"public leaderboard", "GET", "/api/v1/classes/top", "", http.StatusOK},
		{"class create needs token", "POST", "/api/v1/classes", "", http.StatusUnauthorized},
		{"public token issue", "POST", "/api/v1/auth/token", "", http.StatusOK},
		{"public user create", "POST", "/api/v1/users", "", http.StatusOK},
		{"health", "GET", "/health", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotIdentity = nil
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.name == "valid token" {
				if gotIdentity == nil || gotIdentity.Email != "alice@example.com" {
					t.Errorf("identity not injected: %+v", gotIdentity)
				}
			}
		})
	}
}

// TestMiddlewareErrorsAreJSON 认证失败响应与其余接口一致，返回 JSON 错误体
func TestMiddlewareErrorsAreJSON(t *testing.T) {
	cfg := testConfig()
	handler := Middleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	gate := RequireRole(storage.NewMemStore(), model.UserRoleAdmin)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		serve      func(rec *httptest.ResponseRecorder)
		wantStatus int
	}{
		{
			name: "无令牌 401",
			serve: func(rec *httptest.ResponseRecorder) {
				handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/selections", nil))
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "坏令牌 401",
			serve: func(rec *httptest.ResponseRecorder) {
				req := httptest.NewRequest("GET", "/api/v1/selections", nil)
				req.Header.Set("Authorization", "Bearer not-a-jwt")
				handler.ServeHTTP(rec, req)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "角色不符 403",
			serve: func(rec *httptest.ResponseRecorder) {
				req := httptest.NewRequest("GET", "/api/v1/users", nil)
				req = req.WithContext(WithIdentity(req.Context(), &Identity{Email: "ghost@example.com"}))
				gate(rec, req)
			},
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.serve(rec)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not JSON: %q", rec.Body.String())
			}
			if body["error"] == "" {
				t.Errorf("error field missing: %v", body)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	store := storage.NewMemStore()
	ctx := context.Background()
	now := time.Now()
	if err := store.CreateUser(ctx, &model.User{ID: "user-1", Email: "admin@example.com", Role: model.UserRoleAdmin, CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateUser(ctx, &model.User{ID: "user-2", Email: "student@example.com", Role: model.UserRoleStudent, CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatal(err)
	}

	called := false
	gate := RequireRole(store, model.UserRoleAdmin)(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		identity   *Identity
		wantStatus int
	}{
		{"no identity", nil, http.StatusUnauthorized},
		{"unknown user", &Identity{Email: "ghost@example.com"}, http.StatusForbidden},
		{"wrong role", &Identity{Email: "student@example.com"}, http.StatusForbidden},
		{"stale token role ignored", &Identity{Email: "student@example.com", Role: "admin"}, http.StatusForbidden},
		{"admin", &Identity{Email: "admin@example.com"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = false
			req := httptest.NewRequest("GET", "/api/v1/users", nil)
			if tt.identity != nil {
				req = req.WithContext(WithIdentity(req.Context(), tt.identity))
			}
			rec := httptest.NewRecorder()
			gate(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if (tt.wantStatus == http.StatusOK) != called {
				t.Errorf("handler called = %v with status %d", called, rec.Code)
			}
			if tt.wantStatus == http.StatusForbidden && !strings.Contains(rec.Body.String(), "error") {
				t.Errorf("403 body missing error field: %s", rec.Body.String())
			}
		})
	}
}

func TestIssueToken(t *testing.T) {
	h := NewHandler(testConfig())
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid", `{"email":"alice@example.com","name":"Alice"}`, http.StatusOK},
		{"missing email", `{"name":"Alice"}`, http.StatusBadRequest},
		{"bad email", `{"email":"not-an-email"}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/auth/token", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d, body %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK && !strings.Contains(rec.Body.String(), "token") {
				t.Errorf("response missing token: %s", rec.Body.String())
			}
		})
	}
}
