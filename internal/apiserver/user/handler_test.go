package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"course-market/internal/apiserver/auth"
	"course-market/internal/shared/model"
	"course-market/internal/shared/storage"
)

func newTestMux(store *storage.MemStore) *http.ServeMux {
	mux := http.NewServeMux()
	NewHandler(store).RegisterRoutes(mux)
	return mux
}

func seedUser(t *testing.T, store *storage.MemStore, id, email string, role model.UserRole) {
	t.Helper()
	now := time.Now()
	err := store.CreateUser(context.Background(), &model.User{
		ID: id, Email: email, Role: role, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func asUser(req *http.Request, email string) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{Email: email}))
}

// TestCreateUser 测试按 email 幂等创建
func TestCreateUser(t *testing.T) {
	store := storage.NewMemStore()
	mux := newTestMux(store)

	body := `{"email":"alice@example.com","display_name":"Alice"}`

	// 首次创建
	req := httptest.NewRequest("POST", "/api/v1/users", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created model.User
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created user: %v", err)
	}
	if created.Role != model.UserRoleStudent {
		t.Errorf("default role = %q, want student", created.Role)
	}

	// 重复创建：409，返回现有 ID，不产生第二条记录
	req = httptest.NewRequest("POST", "/api/v1/users", strings.NewReader(body))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate create status = %d, want 409", rec.Code)
	}
	var conflict map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &conflict); err != nil {
		t.Fatalf("decode conflict body: %v", err)
	}
	if conflict["id"] != created.ID {
		t.Errorf("conflict id = %q, want %q", conflict["id"], created.ID)
	}

	users, err := store.ListUsers(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 {
		t.Errorf("stored users = %d, want 1", len(users))
	}
}

// TestListUsers 测试管理员门禁
func TestListUsers(t *testing.T) {
	store := storage.NewMemStore()
	seedUser(t, store, "user-admin1", "admin@example.com", model.UserRoleAdmin)
	seedUser(t, store, "user-stud1", "student@example.com", model.UserRoleStudent)
	mux := newTestMux(store)

	tests := []struct {
		name       string
		caller     string
		wantStatus int
	}{
		{"管理员可列出", "admin@example.com", http.StatusOK},
		{"学生被拒绝", "student@example.com", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := asUser(httptest.NewRequest("GET", "/api/v1/users", nil), tt.caller)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusForbidden && strings.Contains(rec.Body.String(), "@example.com") {
				t.Errorf("403 response leaked user data: %s", rec.Body.String())
			}
		})
	}
}

// TestGetRole 测试角色查询（仅本人）
func TestGetRole(t *testing.T) {
	store := storage.NewMemStore()
	seedUser(t, store, "user-inst1", "teach@example.com", model.UserRoleInstructor)
	mux := newTestMux(store)

	tests := []struct {
		name       string
		path       string
		caller     string
		wantStatus int
		wantRole   string
	}{
		{"本人查询", "/api/v1/users/teach@example.com/role", "teach@example.com", http.StatusOK, "instructor"},
		{"越权查询", "/api/v1/users/teach@example.com/role", "other@example.com", http.StatusForbidden, ""},
		{"用户不存在", "/api/v1/users/ghost@example.com/role", "ghost@example.com", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := asUser(httptest.NewRequest("GET", tt.path, nil), tt.caller)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantRole != "" {
				var resp map[string]string
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatal(err)
				}
				if resp["role"] != tt.wantRole {
					t.Errorf("role = %q, want %q", resp["role"], tt.wantRole)
				}
			}
		})
	}
}

// TestUpdateRole 测试角色修改（仅管理员）
func TestUpdateRole(t *testing.T) {
	store := storage.NewMemStore()
	seedUser(t, store, "user-admin1", "admin@example.com", model.UserRoleAdmin)
	seedUser(t, store, "user-stud1", "student@example.com", model.UserRoleStudent)
	mux := newTestMux(store)

	tests := []struct {
		name       string
		path       string
		caller     string
		body       string
		wantStatus int
	}{
		{"提升为讲师", "/api/v1/users/user-stud1/role", "admin@example.com", `{"role":"instructor"}`, http.StatusOK},
		{"非法角色", "/api/v1/users/user-stud1/role", "admin@example.com", `{"role":"superuser"}`, http.StatusBadRequest},
		{"旧拼写被拒", "/api/v1/users/user-stud1/role", "admin@example.com", `{"roll":"admin"}`, http.StatusBadRequest},
		{"ID 不存在", "/api/v1/users/user-missing/role", "admin@example.com", `{"role":"admin"}`, http.StatusNotFound},
		{"非管理员", "/api/v1/users/user-stud1/role", "student@example.com", `{"role":"admin"}`, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := asUser(httptest.NewRequest("PATCH", tt.path, strings.NewReader(tt.body)), tt.caller)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}

	u, err := store.GetUserByID(context.Background(), "user-stud1")
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != model.UserRoleInstructor {
		t.Errorf("final role = %q, want instructor", u.Role)
	}
}
