package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stjoseph/assessment-gateway/internal/config"
	"github.com/stjoseph/assessment-gateway/internal/handler"
	"github.com/stjoseph/assessment-gateway/internal/middleware"
	"github.com/stjoseph/assessment-gateway/internal/monitoring"
	"github.com/stjoseph/assessment-gateway/internal/response"
	"github.com/stjoseph/assessment-gateway/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Assessment *handler.AssessmentHandler
	Session    *handler.SessionHandler
	WS         *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Request metrics for every route.
	router.Use(monitoring.MetricsMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Prometheus scrape endpoint.
	router.GET("/metrics", monitoring.PrometheusHandler())

	// Rate limiter for submission routes (30 requests per minute per student).
	submitLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Student Group (JWT) ────────────────────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(middleware.RequireStudentJWT(authService))
	{
		studentAPI.GET("/assessments", handlers.Assessment.GetLobby)
		studentAPI.GET("/results", handlers.Assessment.GetHistory)

		studentAPI.POST("/assessments/:assessment_id/session", handlers.Session.StartSession)
		studentAPI.GET("/session", handlers.Session.GetSession)
		studentAPI.GET("/session/paper", handlers.Session.GetPaper)
		studentAPI.PUT("/session/answer", handlers.Session.Answer)
		studentAPI.PUT("/session/cursor", handlers.Session.Navigate)
		studentAPI.POST("/session/submit", submitLimiter.Middleware(), handlers.Session.Submit)
		studentAPI.GET("/session/result", handlers.Session.GetResult)
		studentAPI.DELETE("/session", handlers.Session.CloseSession)
	}

	// ─── 2. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/student/session/stream", handlers.WS.SessionStream)
	}

	return router
}
