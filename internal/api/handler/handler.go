package handler

import (
	"context"
	"net/http"
	"time"

	"wantok/backend/internal/auth"
	"wantok/backend/internal/chathub"
	"wantok/backend/internal/models"
	"wantok/backend/internal/moderation"
	"wantok/backend/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// UserStore is the account persistence the HTTP API needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	CountUsers(ctx context.Context) (int64, error)
	AddTokens(ctx context.Context, userID string, amount int) (int, error)
	DeductTokens(ctx context.Context, userID string, amount int) (int, error)
	SetTokens(ctx context.Context, userID string, tokens int) error
}

// Moderator is implemented by moderation.Service.
type Moderator interface {
	LogReport(ctx context.Context, report *models.Report) error
	HandleViolation(ctx context.Context, v moderation.Violation) (*models.Suspension, error)
	CheckSuspension(ctx context.Context, userID string) (*models.Suspension, error)
	Unban(ctx context.Context, userID string) (int64, error)
	Reports(ctx context.Context, status models.ReportStatus) ([]models.Report, error)
	PendingReports(ctx context.Context) ([]models.Report, error)
	ResolveReport(ctx context.Context, id uint, status models.ReportStatus, resolvedBy string) error
	ListSuspensions(ctx context.Context) ([]models.Suspension, error)
}

type Options struct {
	AdminKey       string
	AllowedOrigins []string
	SendBuffer     int
}

// Handler serves the REST API and upgrades chat websockets.
type Handler struct {
	Hub        *chathub.ManagerService
	Users      UserStore
	Moderation Moderator
	JWT        *auth.JWTService
	Metrics    *observability.Metrics

	opts     Options
	upgrader websocket.Upgrader
}

func NewHandler(hub *chathub.ManagerService, users UserStore, mod Moderator, jwtSvc *auth.JWTService, metrics *observability.Metrics, opts Options) *Handler {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 256
	}
	h := &Handler{
		Hub:        hub,
		Users:      users,
		Moderation: mod,
		JWT:        jwtSvc,
		Metrics:    metrics,
		opts:       opts,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Routes mounts every route on r. gatherer backs /metrics and may be nil.
func (h *Handler) Routes(r *gin.Engine, gatherer prometheus.Gatherer) {
	r.Use(RequestLogger(h.Metrics), CORS(h.opts.AllowedOrigins))

	r.GET("/healthz", h.Health)
	r.GET("/ws", h.ServeWebSocket)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.POST("/register", h.Register)
	api.POST("/login", h.Login)
	api.POST("/check-suspension", h.CheckSuspension)
	api.GET("/online-count", h.OnlineCount)
	api.POST("/moderation-violation", RequireUserOrAdmin(h.JWT, h.opts.AdminKey), h.ModerationViolation)

	user := api.Group("/user/:id", RequireUser(h.JWT), SelfOnly())
	user.GET("", h.GetUser)
	user.PUT("", h.UpdateUser)
	user.POST("/tokens/add", h.AddTokens)
	user.POST("/tokens/deduct", h.DeductTokens)
	user.PUT("/tokens", h.SetTokens)

	authed := api.Group("", RequireUser(h.JWT))
	authed.POST("/complete-profile", h.CompleteProfile)
	authed.POST("/log-report", h.LogReport)

	admin := api.Group("/admin", RequireAdmin(h.opts.AdminKey))
	admin.GET("/reports", h.AdminReports)
	admin.POST("/reports/:id/resolve", h.AdminResolveReport)
	admin.GET("/suspensions", h.AdminSuspensions)
	admin.POST("/unban", h.AdminUnban)
	admin.GET("/online-users", h.AdminOnlineUsers)
	admin.GET("/stats", h.AdminStats)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}
