package router

import (
	"taskpulse/app/handler"
	"taskpulse/app/middleware"

	"github.com/gin-gonic/gin"
)

// Router Router
type Router struct {
	recordHandler    *handler.RecordHandler
	reportHandler    *handler.ReportHandler
	recipientHandler *handler.RecipientHandler
	scheduleHandler  *handler.ScheduleHandler
}

// NewRouter creates a new Router
func NewRouter(recordHandler *handler.RecordHandler, reportHandler *handler.ReportHandler, recipientHandler *handler.RecipientHandler, scheduleHandler *handler.ScheduleHandler) *Router {
	return &Router{
		recordHandler:    recordHandler,
		reportHandler:    reportHandler,
		recipientHandler: recipientHandler,
		scheduleHandler:  scheduleHandler,
	}
}

// Setup sets up routes
func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger())

	api := engine.Group("/api/v1")
	{
		// Dashboard record queries
		records := api.Group("/records")
		{
			records.GET("", r.recordHandler.List)
			records.GET("/summary", r.recordHandler.Summary)     // key metrics panel
			records.GET("/breakdown", r.recordHandler.Breakdown) // chart feed
			records.GET("/export", r.recordHandler.Export)       // CSV download
		}

		// Manual report trigger
		api.POST("/report/send", r.reportHandler.Send)

		// Daily trigger time
		api.GET("/schedule", r.scheduleHandler.Get)
		api.PUT("/schedule", r.scheduleHandler.Put)

		// Distribution list management
		recipients := api.Group("/recipients")
		{
			recipients.GET("", r.recipientHandler.List)
			recipients.POST("", r.recipientHandler.Add)
			recipients.DELETE("/:email", r.recipientHandler.Remove)
		}
	}

	// Health check
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
