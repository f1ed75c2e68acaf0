// Package notify 课程通知邮件 - HTTP 处理
package notify

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"time"

	"course-market/internal/shared/mailer"
)

// Handler 通知邮件 HTTP 处理器
type Handler struct {
	sender mailer.Sender
}

// NewHandler 创建通知处理器
func NewHandler(sender mailer.Sender) *Handler {
	return &Handler{sender: sender}
}

// RegisterRoutes 注册通知相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/email/send-notification", h.SendNotification)
}

type notificationRequest struct {
	Email       string     `json:"email"`
	CourseTitle string     `json:"course_title"`
	CourseID    string     `json:"course_id"`
	StartDate   *time.Time `json:"start_date"`
	Price       float64    `json:"price"`
}

// SendNotification 发送课程通知确认邮件
//
// SMTP 投递失败返回 502，失败详情只进日志不回传客户端。
func (h *Handler) SendNotification(w http.ResponseWriter, r *http.Request) {
	var req notificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.CourseTitle == "" {
		writeError(w, http.StatusBadRequest, "email and course_title are required")
		return
	}
	if !isValidEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "invalid email format")
		return
	}

	n := mailer.Notification{
		Email:       req.Email,
		CourseTitle: req.CourseTitle,
		CourseID:    req.CourseID,
		Price:       req.Price,
	}
	if req.StartDate != nil {
		n.StartDate = *req.StartDate
	}

	if err := h.sender.SendCourseNotification(n); err != nil {
		var de *mailer.DeliveryError
		if errors.As(err, &de) {
			writeError(w, http.StatusBadGateway, "failed to deliver notification email")
			return
		}
		log.Printf("[notify] SendCourseNotification error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "notification sent"})
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

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}
