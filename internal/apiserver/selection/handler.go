// Package selection 选课领域 - HTTP 处理
package selection

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

// Handler 选课领域 HTTP 处理器
type Handler struct {
	store storage.PersistentStore
}

// NewHandler 创建选课处理器
func NewHandler(store storage.PersistentStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册选课相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/selections", h.Create)
	mux.HandleFunc("GET /api/v1/selections", h.List)
	mux.HandleFunc("GET /api/v1/selections/check", h.Check)
	mux.HandleFunc("GET /api/v1/selections/{id}", h.Get)
	mux.HandleFunc("DELETE /api/v1/selections/{id}", h.Delete)
}

// Create 学生选课
//
// 课程快照（名称、图片、价格）在选课时固化，后续改价不影响已选记录。
// 同一学生重复选同一门课返回 409。
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id := auth.GetIdentity(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req struct {
		ClassID string `json:"class_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ClassID == "" {
		writeError(w, http.StatusBadRequest, "class_id is required")
		return
	}

	class, err := h.store.GetClass(r.Context(), req.ClassID)
	if err != nil {
		log.Printf("[selection] GetClass error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if class == nil {
		writeError(w, http.StatusNotFound, "class not found")
		return
	}

	sel := &model.Selection{
		ID:           generateID("sel"),
		StudentEmail: id.Email,
		ClassID:      class.ID,
		ClassName:    class.Name,
		ClassImage:   class.Image,
		Price:        class.Price,
		SelectedAt:   time.Now(),
	}

	if err := h.store.CreateSelection(r.Context(), sel); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusConflict, "class already selected")
			return
		}
		log.Printf("[selection] CreateSelection error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create selection")
		return
	}

	log.Printf("[selection] %s selected class %s", sel.StudentEmail, sel.ClassID)
	writeJSON(w, http.StatusCreated, sel)
}

// List 获取某学生的选课列表（仅本人）
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "email query parameter is required")
		return
	}
	if !auth.RequireSelf(r, email) {
		writeError(w, http.StatusForbidden, "cannot read another user's selections")
		return
	}

	selections, err := h.store.ListSelectionsByStudent(r.Context(), email)
	if err != nil {
		log.Printf("[selection] ListSelectionsByStudent error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list selections")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"selections": selections})
}

// Check 查询某学生是否已选某课程
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	classID := r.URL.Query().Get("class_id")
	if email == "" || classID == "" {
		writeError(w, http.StatusBadRequest, "email and class_id query parameters are required")
		return
	}
	if !auth.RequireSelf(r, email) {
		writeError(w, http.StatusForbidden, "cannot read another user's selections")
		return
	}

	sel, err := h.store.FindSelection(r.Context(), email, classID)
	if err != nil {
		log.Printf("[selection] FindSelection error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"selected": sel != nil})
}

// Get 获取单条选课记录（仅本人）
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sel, err := h.store.GetSelection(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[selection] GetSelection error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if sel == nil {
		writeError(w, http.StatusNotFound, "selection not found")
		return
	}
	if !auth.RequireSelf(r, sel.StudentEmail) {
		writeError(w, http.StatusForbidden, "cannot read another user's selection")
		return
	}

	writeJSON(w, http.StatusOK, sel)
}

// Delete 学生移除选课（仅本人）
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	sel, err := h.store.GetSelection(r.Context(), id)
	if err != nil {
		log.Printf("[selection] GetSelection error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if sel == nil {
		writeError(w, http.StatusNotFound, "selection not found")
		return
	}
	if !auth.RequireSelf(r, sel.StudentEmail) {
		writeError(w, http.StatusForbidden, "cannot delete another user's selection")
		return
	}

	if err := h.store.DeleteSelection(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "selection not found")
			return
		}
		log.Printf("[selection] DeleteSelection error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete selection")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"deleted_count": 1})
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
