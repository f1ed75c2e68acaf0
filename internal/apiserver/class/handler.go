// Package class 课程领域 - HTTP 处理
package class

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
	"course-market/internal/shared/cache"
	"course-market/internal/shared/model"
	"course-market/internal/shared/storage"
)

// topLimit 排行榜返回的条目上限（与前端首页展示位一致）
const topLimit = 6

var validate = validator.New()

// Handler 课程领域 HTTP 处理器
type Handler struct {
	store storage.PersistentStore
	cache cache.LeaderboardCache
}

// NewHandler 创建课程处理器
func NewHandler(store storage.PersistentStore, c cache.LeaderboardCache) *Handler {
	if c == nil {
		c = cache.NewNoOpCache()
	}
	return &Handler{store: store, cache: c}
}

// RegisterRoutes 注册课程相关路由
//
// Go 1.22 ServeMux 按模式具体程度匹配，/top 与 /{id} 不会互相遮蔽。
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	adminOnly := auth.RequireRole(h.store, model.UserRoleAdmin)
	instructorOnly := auth.RequireRole(h.store, model.UserRoleInstructor)

	mux.HandleFunc("GET /api/v1/classes", h.List)
	mux.HandleFunc("POST /api/v1/classes", instructorOnly(h.Create))
	mux.HandleFunc("GET /api/v1/classes/top", h.Top)
	mux.HandleFunc("GET /api/v1/classes/top-instructors", h.TopInstructors)
	mux.HandleFunc("GET /api/v1/classes/{id}", h.Get)
	mux.HandleFunc("PATCH /api/v1/classes/{id}/approve", adminOnly(h.Approve))
	mux.HandleFunc("PATCH /api/v1/classes/{id}/deny", adminOnly(h.Deny))
	mux.HandleFunc("PATCH /api/v1/classes/{id}/reduce-seats", h.ReduceSeats)
}

// List 获取课程列表，支持 ?status= 和 ?instructor_email= 过滤
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := storage.ClassFilter{
		Status:          r.URL.Query().Get("status"),
		InstructorEmail: r.URL.Query().Get("instructor_email"),
	}

	classes, err := h.store.ListClasses(r.Context(), filter)
	if err != nil {
		log.Printf("[class] ListClasses error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list classes")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"classes": classes})
}

type createClassRequest struct {
	Name           string     `json:"name" validate:"required"`
	Image          string     `json:"image"`
	Description    string     `json:"description"`
	Price          float64    `json:"price" validate:"gte=0"`
	AvailableSeats int        `json:"available_seats" validate:"gt=0"`
	StartDate      *time.Time `json:"start_date"`
}

// Create 讲师提交新课程，初始状态 pending
//
// instructor_email 取自令牌身份而非请求体，防止冒名提交。
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id := auth.GetIdentity(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req createClassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	now := time.Now()
	class := &model.Class{
		ID:              generateID("class"),
		Name:            req.Name,
		Image:           req.Image,
		Description:     req.Description,
		InstructorName:  id.Name,
		InstructorEmail: id.Email,
		Price:           req.Price,
		AvailableSeats:  req.AvailableSeats,
		Status:          model.ClassStatusPending,
		StartDate:       req.StartDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := h.store.CreateClass(r.Context(), class); err != nil {
		log.Printf("[class] CreateClass error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create class")
		return
	}

	log.Printf("[class] class created: %s by %s", class.ID, class.InstructorEmail)
	writeJSON(w, http.StatusCreated, class)
}

// Get 获取单个课程
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	class, err := h.store.GetClass(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[class] GetClass error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if class == nil {
		writeError(w, http.StatusNotFound, "class not found")
		return
	}

	writeJSON(w, http.StatusOK, class)
}

// Top 按报名人数排序的热门课程排行榜（Redis 缓存）
func (h *Handler) Top(w http.ResponseWriter, r *http.Request) {
	classes, err := h.topClasses(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"classes": classes})
}

// TopInstructors 按旗下课程报名人数排序的热门讲师
//
// 与 Top 共享同一份缓存数据，按讲师去重。
func (h *Handler) TopInstructors(w http.ResponseWriter, r *http.Request) {
	classes, err := h.topClasses(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}

	type instructor struct {
		Name             string `json:"name"`
		Email            string `json:"email"`
		Image            string `json:"image,omitempty"`
		EnrolledStudents int    `json:"enrolled_students"`
	}

	seen := make(map[string]bool)
	instructors := []instructor{}
	for _, c := range classes {
		if seen[c.InstructorEmail] {
			continue
		}
		seen[c.InstructorEmail] = true
		instructors = append(instructors, instructor{
			Name:             c.InstructorName,
			Email:            c.InstructorEmail,
			Image:            c.Image,
			EnrolledStudents: c.EnrolledStudents,
		})
		if len(instructors) >= topLimit {
			break
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"instructors": instructors})
}

// topClasses 读排行榜：缓存命中直接返回，未命中回源并写缓存
func (h *Handler) topClasses(r *http.Request) ([]*model.Class, error) {
	ctx := r.Context()

	if cached, hit, err := h.cache.GetTopClasses(ctx); err == nil && hit {
		return cached, nil
	} else if err != nil {
		log.Printf("[class] leaderboard cache read error: %v", err)
	}

	classes, err := h.store.TopClasses(ctx, topLimit)
	if err != nil {
		log.Printf("[class] TopClasses error: %v", err)
		return nil, err
	}

	if err := h.cache.SetTopClasses(ctx, classes); err != nil {
		log.Printf("[class] leaderboard cache write error: %v", err)
	}
	return classes, nil
}

// Approve 管理员批准课程
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, model.ClassStatusApproved)
}

// Deny 管理员拒绝课程，可附带反馈
func (h *Handler) Deny(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, model.ClassStatusDenied)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request, status model.ClassStatus) {
	id := r.PathValue("id")

	var req struct {
		Feedback string `json:"feedback"`
	}
	// 请求体可为空
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.store.UpdateClassStatus(r.Context(), id, status, req.Feedback); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "class not found")
			return
		}
		log.Printf("[class] UpdateClassStatus error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update class status")
		return
	}

	h.invalidateLeaderboard(r)
	log.Printf("[class] class %s -> %s", id, status)
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(status)})
}

// ReduceSeats 余位守卫递减：available_seats -= 1，enrolled_students += 1
//
// 售罄返回 409，计数器永远不会为负。
func (h *Handler) ReduceSeats(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.store.ReduceSeats(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, http.StatusNotFound, "class not found")
		case errors.Is(err, storage.ErrSoldOut):
			writeError(w, http.StatusConflict, "class is sold out")
		default:
			log.Printf("[class] ReduceSeats error: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to reduce seats")
		}
		return
	}

	h.invalidateLeaderboard(r)
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *Handler) invalidateLeaderboard(r *http.Request) {
	if err := h.cache.InvalidateTopClasses(r.Context()); err != nil {
		log.Printf("[class] leaderboard cache invalidate error: %v", err)
	}
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
