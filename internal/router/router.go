package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/campusgrid/exam-backend/internal/config"
	"github.com/campusgrid/exam-backend/internal/handler"
	"github.com/campusgrid/exam-backend/internal/middleware"
	"github.com/campusgrid/exam-backend/internal/model"
	"github.com/campusgrid/exam-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Exam    *handler.ExamHandler
	Student *handler.StudentHandler
	Monitor *handler.MonitorHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// Restrict to the configured origin list when present; otherwise allow
	// all so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID on every response so failures are traceable.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Heartbeats arrive on a timer from every open exam tab; cap them per IP.
	heartbeatLimiter := middleware.NewRateLimiter(cfg.HeartbeatRatePerMinute, time.Minute)

	// ─── Student Group ─────────────────────────────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequirePrincipal(cfg.JWTSecret),
		middleware.RequireRole(model.RoleStudent),
	)
	{
		studentAPI.GET("/exams", handlers.Student.ListExams)
		studentAPI.POST("/exams/:exam_id/start", handlers.Student.StartAttempt)
		studentAPI.POST("/exams/:exam_id/heartbeat",
			heartbeatLimiter.Middleware(),
			handlers.Student.Heartbeat,
		)
		studentAPI.POST("/exams/:exam_id/submit", handlers.Student.SubmitAttempt)
		studentAPI.GET("/attempts", handlers.Student.MyAttempts)
	}

	// ─── Faculty Group ─────────────────────────────────────────────────
	// Admins pass the role guard too; per-exam ownership is checked in the
	// services.
	facultyAPI := router.Group("/api/v1/faculty")
	facultyAPI.Use(
		middleware.RequirePrincipal(cfg.JWTSecret),
		middleware.RequireRole(model.RoleFaculty, model.RoleAdmin),
	)
	{
		facultyAPI.GET("/exams", handlers.Exam.ListExams)
		facultyAPI.POST("/exams", handlers.Exam.CreateExam)
		facultyAPI.GET("/exams/:exam_id", handlers.Exam.GetExam)
		facultyAPI.PUT("/exams/:exam_id", handlers.Exam.UpdateExam)
		facultyAPI.DELETE("/exams/:exam_id", handlers.Exam.DeleteExam)
		facultyAPI.GET("/exams/:exam_id/attempts", handlers.Exam.ListAttempts)
		facultyAPI.POST("/exams/:exam_id/attempts/:student_id/grade", handlers.Exam.GradeAttempt)
		facultyAPI.GET("/exams/:exam_id/monitor", handlers.Monitor.MonitorExam)
	}

	return router
}
