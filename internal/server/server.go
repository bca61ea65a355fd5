package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/souvik9998/gym-crm-sub001/internal/analytics"
	"github.com/souvik9998/gym-crm-sub001/internal/auth"
	"github.com/souvik9998/gym-crm-sub001/internal/branch"
	"github.com/souvik9998/gym-crm-sub001/internal/config"
	"github.com/souvik9998/gym-crm-sub001/internal/export"
	"github.com/souvik9998/gym-crm-sub001/internal/logger"
	"github.com/souvik9998/gym-crm-sub001/internal/member"
	"github.com/souvik9998/gym-crm-sub001/internal/notification"
	"github.com/souvik9998/gym-crm-sub001/internal/payment"
	"github.com/souvik9998/gym-crm-sub001/internal/subscription"
	"github.com/souvik9998/gym-crm-sub001/internal/sweep"
	"github.com/souvik9998/gym-crm-sub001/internal/trainer"
	"github.com/souvik9998/gym-crm-sub001/internal/user"
)

// Deps are the long-lived resources the HTTP layer is built on.
type Deps struct {
	DB       *sqlx.DB
	Redis    *redis.Client
	Notifier *notification.Service
	Sweep    *sweep.Job
}

type Server struct {
	router *gin.Engine
	http   *http.Server
	config *config.Config
}

func New(cfg *config.Config, deps Deps) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), RequestIDMiddleware(), RequestLoggingMiddleware(), MetricsMiddleware(), corsMiddleware())

	branchService := branch.NewService(branch.NewRepository(deps.DB))
	trainerService := trainer.NewService(trainer.NewRepository(deps.DB))
	payments := payment.NewRepository(deps.DB)
	subscriptions := subscription.NewRepository(deps.DB)
	members := member.NewRepository(deps.DB)

	subscriptionService := subscription.NewService(
		deps.DB, subscriptions, payments, trainerService, deps.Notifier,
		subscription.NewCatalogue(cfg.PlanPrices), cfg.Location,
	)
	memberService := member.NewService(deps.DB, members, branchService, subscriptionService, deps.Notifier, cfg.Location)
	analyticsService := analytics.NewService(
		analytics.NewRepository(deps.DB), members, deps.Redis, cfg.AnalyticsCacheTTL, cfg.Location,
	)

	userHandler := user.NewHandler(user.NewService(user.NewRepository(deps.DB), branchService, cfg.JWTSecret))
	branchHandler := branch.NewHandler(branchService)
	trainerHandler := trainer.NewHandler(trainerService)
	paymentHandler := payment.NewHandler(payments)
	subscriptionHandler := subscription.NewHandler(subscriptionService)
	memberHandler := member.NewHandler(memberService)
	exportHandler := export.NewHandler(memberService)
	analyticsHandler := analytics.NewHandler(analyticsService)
	sweepHandler := sweep.NewHandler(deps.Sweep)

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	public := router.Group("/auth")
	public.Use(RateLimitMiddleware(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst))
	{
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.Refresh)
		public.POST("/bootstrap", userHandler.Bootstrap)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)
		protected.GET("/plans", subscriptionHandler.ListPlans)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleAdmin))
	{
		admin.POST("/branches", branchHandler.CreateBranch)
		admin.GET("/branches", branchHandler.ListBranches)
		admin.POST("/branches/:branchID/trainers", trainerHandler.Create)
		admin.POST("/staff", userHandler.CreateStaff)
		admin.POST("/sweep", sweepHandler.Run)
		admin.GET("/notifications/queue", NotificationQueue(deps.Notifier))
	}

	branches := router.Group("/branches/:branchID")
	branches.Use(authMiddleware, auth.RequireRole(auth.RoleAdmin, auth.RoleStaff), auth.RequireBranchAccess("branchID"))
	{
		branches.GET("", branchHandler.GetBranch)
		branches.GET("/trainers", trainerHandler.List)
		branches.GET("/payments", paymentHandler.ListByBranch)
		branches.GET("/analytics", analyticsHandler.Summary)

		branches.POST("/members", memberHandler.Register)
		branches.GET("/members", memberHandler.List)
		branches.GET("/members/export", exportHandler.Members)

		m := branches.Group("/members/:memberID")
		m.GET("", memberHandler.Get)
		m.PATCH("", memberHandler.Update)
		m.POST("/notify", memberHandler.Notify)
		m.POST("/renew", subscriptionHandler.Renew)
		m.POST("/pt", subscriptionHandler.PurchasePT)
		m.POST("/activate", subscriptionHandler.Activate)
		m.GET("/subscriptions", subscriptionHandler.History)
		m.GET("/payments", paymentHandler.ListByMember)
	}

	return &Server{
		router: router,
		config: cfg,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks until the server stops. It returns nil after Shutdown.
func (s *Server) Start() error {
	logger.Info("HTTP server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
