// Package payment 付款领域 - HTTP 处理
package payment

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"course-market/internal/apiserver/auth"
	"course-market/internal/shared/model"
	paymentsvc "course-market/internal/shared/payment"
	"course-market/internal/shared/storage"
)

// currency 平台统一结算货币
const currency = "usd"

var validate = validator.New()

// Handler 付款领域 HTTP 处理器
type Handler struct {
	store    storage.PersistentStore
	provider paymentsvc.Provider
}

// NewHandler 创建付款处理器
func NewHandler(store storage.PersistentStore, provider paymentsvc.Provider) *Handler {
	return &Handler{store: store, provider: provider}
}

// RegisterRoutes 注册付款相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/payments/intent", h.CreateIntent)
	mux.HandleFunc("POST /api/v1/payments", h.Create)
	mux.HandleFunc("GET /api/v1/payments", h.List)
}

// CreateIntent 为选中课程创建支付意图
//
// 金额以服务端存储的课程价格为准（price × 100 美分），不信任客户端。
func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
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
		log.Printf("[payment] GetClass error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if class == nil {
		writeError(w, http.StatusNotFound, "class not found")
		return
	}

	intent, err := h.provider.CreateIntent(r.Context(), class.AmountMinor(), currency)
	if err != nil {
		log.Printf("[payment] CreateIntent error: %v", err)
		writeError(w, http.StatusBadGateway, "payment provider unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"client_secret": intent.ClientSecret})
}

type createPaymentRequest struct {
	SelectionID   string `json:"selection_id" validate:"required"`
	TransactionID string `json:"transaction_id" validate:"required"`
}

// Create 记录已完成的付款
//
// 写入付款记录并删除对应选课，两步在同一个存储事务中完成。
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id := auth.GetIdentity(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	sel, err := h.store.GetSelection(r.Context(), req.SelectionID)
	if err != nil {
		log.Printf("[payment] GetSelection error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if sel == nil {
		writeError(w, http.StatusNotFound, "selection not found")
		return
	}
	if sel.StudentEmail != id.Email {
		writeError(w, http.StatusForbidden, "cannot pay for another user's selection")
		return
	}

	p := &model.Payment{
		ID:            generateID("pay"),
		StudentEmail:  sel.StudentEmail,
		Amount:        amountMinor(sel.Price),
		Currency:      currency,
		ClassID:       sel.ClassID,
		ClassName:     sel.ClassName,
		SelectionID:   sel.ID,
		TransactionID: req.TransactionID,
		Date:          time.Now(),
	}

	if err := h.store.CompletePayment(r.Context(), p, sel.ID); err != nil {
		log.Printf("[payment] CompletePayment error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to record payment")
		return
	}

	log.Printf("[payment] payment recorded: %s (%s, %d %s)", p.ID, p.StudentEmail, p.Amount, p.Currency)
	writeJSON(w, http.StatusCreated, p)
}

// List 获取某学生的付款历史（仅本人）
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "email query parameter is required")
		return
	}
	if !auth.RequireSelf(r, email) {
		writeError(w, http.StatusForbidden, "cannot read another user's payments")
		return
	}

	payments, err := h.store.ListPaymentsByStudent(r.Context(), email)
	if err != nil {
		log.Printf("[payment] ListPaymentsByStudent error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list payments")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"payments": payments})
}

// ============================================================================
// 工具函数
// ============================================================================

// amountMinor 将价格换算为最小货币单位（美分）
func amountMinor(price float64) int64 {
	return int64(math.Round(price * 100))
}

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
