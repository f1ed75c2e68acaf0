// Package enrollment 报名领域 - HTTP 处理
package enrollment

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"course-market/internal/apiserver/auth"
	"course-market/internal/shared/model"
	"course-market/internal/shared/storage"
)

var validate = validator.New()

// Handler 报名领域 HTTP 处理器
type Handler struct {
	store storage.PersistentStore
}

// NewHandler 创建报名处理器
func NewHandler(store storage.PersistentStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册报名相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/enrollments", h.Create)
	mux.HandleFunc("GET /api/v1/enrollments", h.List)
}

type createEnrollmentRequest struct {
	ClassID       string `json:"class_id" validate:"required"`
	TransactionID string `json:"transaction_id" validate:"required"`
}

// Create 付款完成后写入报名记录
//
// (student_email, class_name) 重复报名返回 409。余位递减走课程接口的
// reduce-seats，两步分离，报名本身不改课程计数。
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id := auth.GetIdentity(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req createEnrollmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	class, err := h.store.GetClass(r.Context(), req.ClassID)
	if err != nil {
		log.Printf("[enrollment] GetClass error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if class == nil {
		writeError(w, http.StatusNotFound, "class not found")
		return
	}

	enr := &model.Enrollment{
		ID:              generateID("enr"),
		StudentEmail:    id.Email,
		StudentName:     id.Name,
		ClassID:         class.ID,
		ClassName:       class.Name,
		ClassImage:      class.Image,
		InstructorName:  class.InstructorName,
		InstructorEmail: class.InstructorEmail,
		Amount:          class.AmountMinor(),
		TransactionID:   req.TransactionID,
		EnrolledAt:      time.Now(),
		Status:          model.EnrollmentStatusActive,
	}

	if err := h.store.CreateEnrollment(r.Context(), enr); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusConflict, "already enrolled in this class")
			return
		}
		log.Printf("[enrollment] CreateEnrollment error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create enrollment")
		return
	}

	log.Printf("[enrollment] %s enrolled in %s", enr.StudentEmail, enr.ClassName)
	writeJSON(w, http.StatusCreated, enr)
}

// List 获取某学生的报名列表（仅本人）
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "email query parameter is required")
		return
	}
	if !auth.RequireSelf(r, email) {
		writeError(w, http.StatusForbidden, "cannot read another user's enrollments")
		return
	}

	enrollments, err := h.store.ListEnrollmentsByStudent(r.Context(), email)
	if err != nil {
		log.Printf("[enrollment] ListEnrollmentsByStudent error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list enrollments")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"enrollments": enrollments})
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
