package router

import (
	"net/http"
	"time"

	"github.com/examgate/examgate-backend/internal/config"
	"github.com/examgate/examgate-backend/internal/handler"
	"github.com/examgate/examgate-backend/internal/middleware"
	"github.com/examgate/examgate-backend/internal/response"
	"github.com/examgate/examgate-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Session  *handler.SessionHandler
	Result   *handler.ResultHandler
	Exam     *handler.ExamHandler
	Question *handler.QuestionHandler
	Category *handler.CategoryHandler
	User     *handler.UserHandler
	WS       *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

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

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// Auth group (public, rate limited).
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/logout", middleware.RequireJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
	}

	// Exam-taking group (JWT + single device).
	api := router.Group("/api/v1")
	api.Use(
		middleware.RequireJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		api.POST("/exams/:exam_id/sessions", handlers.Session.Start)
		api.GET("/exams/:exam_id/sessions/:session_id", handlers.Session.GetState)
		api.GET("/exams/:exam_id/sessions/:session_id/paper", handlers.Session.GetPaper)
		api.GET("/exams/:exam_id/sessions/:session_id/question", handlers.Session.GetCurrentQuestion)
		api.POST("/exams/:exam_id/sessions/:session_id/answers", handlers.Session.SubmitAnswer)
		api.POST("/exams/:exam_id/sessions/:session_id/pause", handlers.Session.Pause)
		api.POST("/exams/:exam_id/sessions/:session_id/resume", handlers.Session.Resume)
		api.GET("/exams/:exam_id/sessions/:session_id/review", handlers.Session.GetReviewList)
		api.GET("/exams/:exam_id/sessions/:session_id/review/:question_id", handlers.Session.GetReviewQuestion)
		api.POST("/exams/:exam_id/sessions/:session_id/review/:question_id", handlers.Session.AddToReviewList)
		api.DELETE("/exams/:exam_id/sessions/:session_id/review/:question_id", handlers.Session.RemoveFromReviewList)
		api.POST("/exams/:exam_id/sessions/:session_id/evaluate", handlers.Session.Evaluate)
		api.GET("/exams/:exam_id/sessions/:session_id/result", handlers.Session.GetResultPaper)

		api.GET("/exams/:exam_id/results", handlers.Result.GetExamResults)
		api.GET("/results", handlers.Result.GetUserResults)
	}

	// WebSocket group (token query auth).
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/exams/:exam_id/sessions/:session_id/clock", handlers.WS.SessionClockStream)
	}

	// Admin group.
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdmin(authService))
	{
		adminAPI.GET("/exams", handlers.Exam.List)
		adminAPI.POST("/exams", handlers.Exam.Create)
		adminAPI.GET("/exams/:exam_id", handlers.Exam.Get)
		adminAPI.PUT("/exams/:exam_id", handlers.Exam.Update)
		adminAPI.DELETE("/exams/:exam_id", handlers.Exam.Delete)
		adminAPI.POST("/exams/:exam_id/publish", handlers.Exam.Publish)
		adminAPI.POST("/exams/:exam_id/archive", handlers.Exam.Archive)
		adminAPI.GET("/exams/:exam_id/stats", handlers.Exam.GetStats)

		adminAPI.GET("/exams/:exam_id/questions", handlers.Question.List)
		adminAPI.POST("/exams/:exam_id/questions", handlers.Question.Add)
		adminAPI.DELETE("/exams/:exam_id/questions/:question_id", handlers.Question.Remove)

		adminAPI.GET("/categories", handlers.Category.List)
		adminAPI.POST("/categories", handlers.Category.Create)
		adminAPI.PUT("/categories/:category_id", handlers.Category.Update)
		adminAPI.DELETE("/categories/:category_id", handlers.Category.Delete)

		adminAPI.GET("/users", handlers.User.List)
		adminAPI.POST("/users", handlers.User.Create)
		adminAPI.DELETE("/users/:user_id", handlers.User.Delete)
		adminAPI.POST("/users/:user_id/reset-session", handlers.User.ResetSession)
	}

	return router
}
