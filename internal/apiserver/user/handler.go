// Package user 用户领域 - HTTP 处理
package user

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"course-market/internal/apiserver/auth"
	"course-market/internal/shared/model"
	"course-market/internal/shared/storage"
)

// Handler 用户领域 HTTP 处理器
type Handler struct {
	store storage.UserStore
}

// NewHandler 创建用户处理器
func NewHandler(store storage.UserStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册用户相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	adminOnly := auth.RequireRole(h.store, model.UserRoleAdmin)

	mux.HandleFunc("GET /api/v1/users", adminOnly(h.List))
	mux.HandleFunc("POST /api/v1/users", h.Create)
	mux.HandleFunc("GET /api/v1/users/{email}/role", h.GetRole)
	mux.HandleFunc("PATCH /api/v1/users/{id}/role", adminOnly(h.UpdateRole))
}

// List 获取用户列表（仅管理员）
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		log.Printf("[user] ListUsers error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

// Create 按 email 幂等创建用户（首次登录落库）
//
// 已存在时返回 409 与现有记录 ID，不做任何写入。
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		PhotoURL    string `json:"photo_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	existing, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("[user] GetUserByEmail error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": "user already exists",
			"id":    existing.ID,
		})
		return
	}

	now := time.Now()
	user := &model.User{
		ID:          generateID("user"),
		Email:       req.Email,
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
		Role:        model.UserRoleStudent,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		// 并发重复创建会被唯一索引拦下，按已存在处理
		if errors.Is(err, storage.ErrDuplicate) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "user already exists"})
			return
		}
		log.Printf("[user] CreateUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	log.Printf("[user] user created: %s (%s)", user.Email, user.ID)
	writeJSON(w, http.StatusCreated, user)
}

// GetRole 查询指定邮箱的存储角色（仅本人）
//
// 取代零散的 admin/instructor 布尔检查端点。
func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")
	if !auth.RequireSelf(r, email) {
		writeError(w, http.StatusForbidden, "cannot read another user's role")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		log.Printf("[user] GetUserByEmail error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"role": string(user.Role)})
}

// UpdateRole 修改用户角色（仅管理员）
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		Role model.UserRole `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Role.Valid() {
		writeError(w, http.StatusBadRequest, "role must be one of student, instructor, admin")
		return
	}

	if err := h.store.UpdateUserRole(r.Context(), id, req.Role); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("[user] UpdateUserRole error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update role")
		return
	}

	log.Printf("[user] role updated: %s -> %s", id, req.Role)
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "role": string(req.Role)})
}

// ============================================================================
// 工具函数
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// generateID 生成带前缀的随机 ID
// 格式：prefix-xxxxxxxxxxxx（prefix + 12 字符 hex）
func generateID(prefix string) string {
	b := make([]byte, 6)
	rand.Read(b)
	return prefix + "-" + hex.EncodeToString(b)
}
