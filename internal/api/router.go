package api

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/yatube/config"
	_ "github.com/d60-Lab/yatube/docs"
	"github.com/d60-Lab/yatube/internal/api/handler"
	"github.com/d60-Lab/yatube/internal/auth"
	"github.com/d60-Lab/yatube/internal/middleware"
)

// NewRouter 组装中间件链和全部路由
func NewRouter(cfg *config.Config, h *handler.Handler, tokens *auth.Manager) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), middleware.Recovery())
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
		r.Use(middleware.RateLimit(limiter))
	}
	r.Use(middleware.Auth(tokens))

	r.GET("/healthz", h.Healthz)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/", h.Index)
	r.GET("/group/:slug/", h.GroupPosts)
	r.GET("/profile/:username/", h.Profile)
	r.GET("/posts/:post_id/", h.PostDetail)

	authed := r.Group("/", middleware.LoginRequired())
	{
		authed.GET("/create/", h.PostCreate)
		authed.POST("/create/", h.PostCreate)
		authed.GET("/posts/:post_id/edit/", h.PostEdit)
		authed.POST("/posts/:post_id/edit/", h.PostEdit)
	}

	a := r.Group("/auth")
	{
		a.POST("/signup/", h.Signup)
		a.GET("/login/", h.LoginPage)
		a.POST("/login/", h.Login)
		a.POST("/logout/", h.Logout)
	}
	return r
}
