package http

import (
	nethttp "net/http"
	"time"

	"github.com/Miraines/MoonyAndStarry/session-auth/internal/adapters/transport/http/middleware"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/infra/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type RouterOptions struct {
	Logger           *zap.Logger
	Metrics          metrics.Recorder
	Gatherer         prometheus.Gatherer
	AllowedOrigins   []string
	AllowCredentials bool
}

func NewRouter(h *Handler, auth middleware.Authenticator, opts RouterOptions) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(middleware.Metrics(opts.Metrics))
	if len(opts.AllowedOrigins) > 0 {
		router.Use(cors.New(corsConfig(opts.AllowedOrigins, opts.AllowCredentials)))
	}

	authGroup := router.Group("/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.GET("/refresh", h.Refresh)
	authGroup.GET("/logout", h.Logout)
	authGroup.GET("/me", middleware.Bearer(auth, opts.Logger), h.Me)

	router.GET("/health", h.Health)
	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(opts.Gatherer)))
	}
	router.NoRoute(h.NotFound)

	return router
}

func corsConfig(origins []string, credentials bool) cors.Config {
	return cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{nethttp.MethodGet, nethttp.MethodPost, nethttp.MethodOptions},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept",
			"Authorization",
			"X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: credentials,
		MaxAge:           12 * time.Hour,
	}
}
