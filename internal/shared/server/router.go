package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"loanmvp/internal/shared/config"
	"loanmvp/internal/shared/metrics"
	"loanmvp/internal/shared/server/middleware"
	"loanmvp/internal/shared/server/respond"
)

// RouteRegistrar is implemented by every feature handler.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps carries the handlers mounted under /api.
type RouterDeps struct {
	Config        config.Config
	DBCheck       func(context.Context) error
	Socket        gin.HandlerFunc
	GoogleAuth    RouteRegistrar
	Users         RouteRegistrar
	Borrowers     RouteRegistrar
	Credit        RouteRegistrar
	Properties    RouteRegistrar
	Loans         RouteRegistrar
	Documents     RouteRegistrar
	Uploads       RouteRegistrar
	Quotes        RouteRegistrar
	CRM           RouteRegistrar
	Insights      RouteRegistrar
	Subscriptions RouteRegistrar
	Officers      RouteRegistrar
	Notifications RouteRegistrar
	Assistant     RouteRegistrar
	RateLimiter   *middleware.RateLimiter
}

const (
	rateGroupAI   = "AI"
	rateGroupAuth = "AUTH"
)

var rateGroups = map[string]string{
	"/api/ai_chat":       rateGroupAI,
	"/api/auth/login":    rateGroupAuth,
	"/api/auth/register": rateGroupAuth,
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		metrics.Middleware(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				middleware.DefaultRateGroup: {PerSecond: 10, Burst: 60},
				rateGroupAI:                 {PerSecond: 0.5, Burst: 10},
				rateGroupAuth:               {PerSecond: 0.2, Burst: 5},
			},
			GroupFor: middleware.GroupByPrefix(rateGroups),
			ByIP:     []string{rateGroupAuth},
			Limiter:  deps.RateLimiter,
		}),
	)

	r.GET("/metrics", metrics.Handler())
	if deps.Socket != nil {
		r.GET("/ws", deps.Socket)
	}

	api := r.Group("/api")
	api.GET("/health", health(deps.DBCheck))
	for _, h := range []RouteRegistrar{
		deps.GoogleAuth,
		deps.Users,
		deps.Borrowers,
		deps.Credit,
		deps.Properties,
		deps.Loans,
		deps.Documents,
		deps.Uploads,
		deps.Quotes,
		deps.CRM,
		deps.Insights,
		deps.Subscriptions,
		deps.Officers,
		deps.Notifications,
		deps.Assistant,
	} {
		if h != nil {
			h.RegisterRoutes(api)
		}
	}

	return r
}

// health reports "memory" when running without Postgres.
func health(check func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check == nil {
			respond.OK(c, gin.H{"ok": true, "database": "memory"})
			return
		}
		if err := check(c.Request.Context()); err != nil {
			respond.JSON(c, http.StatusServiceUnavailable, gin.H{"ok": false, "database": "unreachable"})
			return
		}
		respond.OK(c, gin.H{"ok": true, "database": "up"})
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
