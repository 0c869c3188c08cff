package api

import (
	"github.com/brewcycle/brewcycle/internal/api/cron"
	v1 "github.com/brewcycle/brewcycle/internal/api/v1"
	"github.com/brewcycle/brewcycle/internal/config"
	"github.com/brewcycle/brewcycle/internal/logger"
	"github.com/brewcycle/brewcycle/internal/rest/middleware"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health       *v1.HealthHandler
	Subscription *v1.SubscriptionHandler
	Preference   *v1.PreferenceHandler
	CronRenewal  *cron.RenewalHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.ErrorHandler(cfg, logger),
	)

	router.GET("/health", handlers.Health.Health)

	private := router.Group("/v1", middleware.AuthenticateMiddleware(cfg, logger), middleware.SentryScope)
	registerV1Routes(private, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	subscriptions := router.Group("/subscriptions")
	{
		subscriptions.POST("", handlers.Subscription.CreateSubscription)
		subscriptions.GET("", handlers.Subscription.ListSubscriptions)
		subscriptions.GET("/recommendations", handlers.Subscription.GetRecommendations)
		subscriptions.POST("/process", middleware.RequireAdmin, handlers.CronRenewal.ProcessRenewals)
		subscriptions.GET("/:id", handlers.Subscription.GetSubscription)
		subscriptions.PUT("/:id", handlers.Subscription.UpdateSubscription)
		subscriptions.POST("/:id/cancel", handlers.Subscription.CancelSubscription)
		subscriptions.POST("/:id/pause", handlers.Subscription.PauseSubscription)
		subscriptions.POST("/:id/resume", handlers.Subscription.ResumeSubscription)
	}

	preferences := router.Group("/preferences")
	{
		preferences.GET("", handlers.Preference.GetPreferences)
		preferences.PUT("", handlers.Preference.UpdatePreferences)
	}
}
