// Package server 路由配置与核心基础设施
//
// 本包把各领域独立包的路由组合成完整的 HTTP API，并套上
// 指标、认证、CORS 三层中间件。
package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/cors"

	"course-market/internal/apiserver/auth"
	"course-market/internal/apiserver/class"
	"course-market/internal/apiserver/enrollment"
	"course-market/internal/apiserver/notify"
	paymenthttp "course-market/internal/apiserver/payment"
	"course-market/internal/apiserver/selection"
	"course-market/internal/apiserver/user"
	"course-market/internal/shared/cache"
	"course-market/internal/shared/mailer"
	"course-market/internal/shared/payment"
	"course-market/internal/shared/storage"
)

// Handler API 处理器
//
// Handler 是所有 HTTP API 的入口，持有各领域处理器共享的依赖：
//   - store: MongoDB 存储层
//   - cache: 排行榜缓存（无 Redis 部署时为 NoOp）
//   - provider: 支付服务商
//   - sender: 通知邮件发送器
type Handler struct {
	store    storage.PersistentStore
	cache    cache.LeaderboardCache
	provider payment.Provider
	sender   mailer.Sender

	authCfg     auth.Config
	corsOrigins []string
	metrics     *Metrics
}

// NewHandler 创建 Handler 实例
func NewHandler(store storage.PersistentStore, c cache.LeaderboardCache, provider payment.Provider, sender mailer.Sender, authCfg auth.Config, corsOrigins []string) *Handler {
	if c == nil {
		c = cache.NewNoOpCache()
	}
	return &Handler{
		store:       store,
		cache:       c,
		provider:    provider,
		sender:      sender,
		authCfg:     authCfg,
		corsOrigins: corsOrigins,
		metrics:     NewMetrics("api"),
	}
}

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康与指标:
//   - GET  /health                         - 服务健康检查
//   - GET  /metrics                        - Prometheus 指标
//
// 认证 (Auth):
//   - POST /api/v1/auth/token              - 签发访问令牌
//
// 用户 (User):
//   - GET   /api/v1/users                  - 列出用户（管理员）
//   - POST  /api/v1/users                  - 幂等创建用户
//   - GET   /api/v1/users/{email}/role     - 查询角色（本人）
//   - PATCH /api/v1/users/{id}/role        - 修改角色（管理员）
//
// 课程 (Class):
//   - GET   /api/v1/classes                - 课程列表（公开，可过滤）
//   - POST  /api/v1/classes                - 提交课程（讲师）
//   - GET   /api/v1/classes/top            - 热门课程榜（公开，缓存）
//   - GET   /api/v1/classes/top-instructors - 热门讲师榜（公开，缓存）
//   - GET   /api/v1/classes/{id}           - 课程详情（公开）
//   - PATCH /api/v1/classes/{id}/approve   - 批准（管理员）
//   - PATCH /api/v1/classes/{id}/deny      - 拒绝（管理员）
//   - PATCH /api/v1/classes/{id}/reduce-seats - 余位守卫递减
//
// 选课 (Selection):
//   - POST   /api/v1/selections            - 选课
//   - GET    /api/v1/selections?email=     - 选课列表（本人）
//   - GET    /api/v1/selections/check      - 选课存在性探测
//   - GET    /api/v1/selections/{id}       - 单条选课
//   - DELETE /api/v1/selections/{id}       - 移除选课
//
// 付款 (Payment):
//   - POST /api/v1/payments/intent         - 创建支付意图
//   - POST /api/v1/payments                - 付款落账（事务内删选课）
//   - GET  /api/v1/payments?email=         - 付款历史（本人）
//
// 报名 (Enrollment):
//   - POST /api/v1/enrollments             - 写入报名记录
//   - GET  /api/v1/enrollments?email=      - 报名列表（本人）
//
// 通知 (Notify):
//   - POST /api/v1/email/send-notification - 发送课程通知邮件
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", h.metrics.Handler())

	// Auth 路由
	authHandler := auth.NewHandler(h.authCfg)
	authHandler.RegisterRoutes(mux)

	// User 路由
	userHandler := user.NewHandler(h.store)
	userHandler.RegisterRoutes(mux)

	// Class 路由
	classHandler := class.NewHandler(h.store, h.cache)
	classHandler.RegisterRoutes(mux)

	// Selection 路由
	selectionHandler := selection.NewHandler(h.store)
	selectionHandler.RegisterRoutes(mux)

	// Payment 路由
	paymentHandler := paymenthttp.NewHandler(h.store, h.provider)
	paymentHandler.RegisterRoutes(mux)

	// Enrollment 路由
	enrollmentHandler := enrollment.NewHandler(h.store)
	enrollmentHandler.RegisterRoutes(mux)

	// Notify 路由
	notifyHandler := notify.NewHandler(h.sender)
	notifyHandler.RegisterRoutes(mux)

	// 应用指标中间件
	apiHandler := h.metrics.MetricsMiddleware(mux)

	// 应用认证中间件
	authedHandler := auth.Middleware(h.authCfg)(apiHandler)

	// 应用 CORS 中间件
	origins := h.corsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	return c.Handler(authedHandler)
}

// Health 健康检查接口
//
// 路由: GET /health
//
// 用于负载均衡器和监控系统检查服务状态。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
