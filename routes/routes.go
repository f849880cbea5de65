package routes

import (
	"net/http"

	"eventboard-api/app"
	"eventboard-api/controllers"
	"eventboard-api/middleware"
	"eventboard-api/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(r *gin.Engine, a *app.App) {
	// Controllers
	sessionController := controllers.NewSessionController(a.Identity)
	eventController := controllers.NewEventController(a.Submission, a.Discovery)
	moderationController := controllers.NewModerationController(a.Moderation)

	r.MaxMultipartMemory = services.MaxUploadBytes

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message":  "pong",
			"status":   "healthy",
			"approved": len(a.Discovery.Events()),
			"pending":  a.Moderation.Count(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})))

	// API version 1
	v1 := r.Group("/api/v1")
	v1.Use(middleware.ValidateJSON(), middleware.Session(a.Identity))

	auth := v1.Group("/auth")
	{
		auth.POST("/session", sessionController.Session)
		auth.POST("/moderator", sessionController.ModeratorLogin)
	}

	events := v1.Group("/events")
	{
		events.GET("", eventController.GetEvents)
		events.GET("/stream", eventController.StreamEvents)
		events.GET("/calendar.ics", eventController.GetCalendar)
		events.POST("", eventController.CreateEvent)
	}
	v1.POST("/images", eventController.UploadImage)

	moderation := v1.Group("/moderation")
	moderation.Use(middleware.RequireModerator())
	{
		moderation.GET("/pending", moderationController.GetPending)
		moderation.GET("/pending/stream", moderationController.StreamPending)
		moderation.POST("/events/:id/approve", moderationController.ApproveEvent)
		moderation.DELETE("/events/:id", moderationController.DeleteEvent)
	}
}

// NewRouter builds the engine with the shared middleware chain.
func NewRouter(a *app.App) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(),
		middleware.RequestMetrics(a.Metrics),
		middleware.CORS(),
		middleware.SecurityHeaders(),
		middleware.ErrorHandler(),
	)
	SetupRoutes(router, a)
	return router
}
