package routes

import (
	"net/http"
	"time"

	"limora/handlers"
	"limora/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes sets up the booking intake endpoint.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.POST("", hb.CreateBookingRequest)
	}
}

// RegisterWorkflowRoutes sets up the endpoints around a fulfillment run:
// provider quote submission, customer replies and run inspection.
func RegisterWorkflowRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/workflow-runs")
	{
		api.GET("/:runID", hb.GetWorkflowRun)
		api.GET("/:runID/quotes", hb.ListRunQuotes)
		api.POST("/:runID/quotes", hb.SubmitQuote)
		api.POST("/:runID/reply", hb.SubmitCustomerReply)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm Limora"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware())

	RegisterHealthRoute(r)
	RegisterBookingRoutes(r, hb)
	RegisterWorkflowRoutes(r, hb)
}
