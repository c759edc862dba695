package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/escrow-backend/internal/config"
	"github.com/ignatzorin/escrow-backend/internal/http/handlers"
	"github.com/ignatzorin/escrow-backend/internal/http/middleware"
	"github.com/ignatzorin/escrow-backend/internal/service"
)

// SetupRouter собирает все маршруты приложения.
func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	jobHandler *handlers.JobHandler,
	revisionHandler *handlers.RevisionHandler,
	settlementHandler *handlers.SettlementHandler,
	disputeHandler *handlers.DisputeHandler,
	notificationHandler *handlers.NotificationHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	// Публичные маршруты: каталог открытых заданий.
	api.GET("/jobs", jobHandler.ListJobs)
	api.GET("/jobs/:id", middleware.UUIDValidator("id"), jobHandler.GetJob)
	api.GET("/ws", wsHandler.Handle)

	// Защищённые маршруты.
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/auth/me", authHandler.Me)

		protected.POST("/jobs", jobHandler.CreateJob)
		protected.GET("/jobs/my", jobHandler.ListMyJobs)
		protected.GET("/jobs/assigned", jobHandler.ListAssignedJobs)
		protected.POST("/jobs/:id/bids", middleware.UUIDValidator("id"), jobHandler.CreateBid)
		protected.GET("/jobs/:id/bids", middleware.UUIDValidator("id"), jobHandler.ListBids)
		protected.POST("/jobs/:id/fund", middleware.UUIDValidator("id"), jobHandler.MarkFunded)

		protected.GET("/bids/my", jobHandler.ListMyBids)
		protected.POST("/bids/:id/accept", middleware.UUIDValidator("id"), jobHandler.AcceptBid)

		protected.POST("/jobs/:id/revisions", middleware.UUIDValidator("id"), revisionHandler.Submit)
		protected.GET("/jobs/:id/revisions", middleware.UUIDValidator("id"), revisionHandler.List)
		protected.POST("/jobs/:id/revisions/request", middleware.UUIDValidator("id"), revisionHandler.Request)

		protected.POST("/jobs/:id/approve", middleware.UUIDValidator("id"), settlementHandler.Approve)
		protected.GET("/jobs/:id/settlement", middleware.UUIDValidator("id"), settlementHandler.Get)

		protected.POST("/jobs/:id/disputes", middleware.UUIDValidator("id"), disputeHandler.Raise)
		protected.GET("/jobs/:id/dispute", middleware.UUIDValidator("id"), disputeHandler.GetOpenByJob)
		protected.GET("/disputes/my", disputeHandler.ListMy)
		protected.GET("/disputes/:id", middleware.UUIDValidator("id"), disputeHandler.Get)
		protected.POST("/disputes/:id/resolve", middleware.UUIDValidator("id"), disputeHandler.Resolve)

		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread/count", notificationHandler.CountUnread)
		protected.PUT("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
	}

	return r
}
