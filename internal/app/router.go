package app

import (
	"exam_engine_backend/docs"
	"exam_engine_backend/internal/config"
	"exam_engine_backend/internal/middleware"
	"exam_engine_backend/internal/model"
	"exam_engine_backend/pkg/monitoring"
	"exam_engine_backend/pkg/security"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		registerStudentRoutes(authGroup, c, cfg)
		registerTeacherRoutes(authGroup, c)
	}
}

func registerStudentRoutes(r *gin.RouterGroup, c *controllers, cfg *config.Config) {
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	perUser := security.RateLimiter(cfg.RateLimit.AttemptMaxRequests, window, security.ByUser)

	r.GET("/exams", c.attempt.ListExams)
	r.POST("/exams/:id/start", perUser, c.attempt.StartExam)
	r.GET("/exams/:id/my-attempts", c.attempt.ListMyAttempts)
	r.POST("/attempts/:attemptId/submit", perUser, c.attempt.SubmitExam)
	r.GET("/attempts/:attemptId", c.attempt.GetAttempt)
}

func registerTeacherRoutes(r *gin.RouterGroup, c *controllers) {
	teacher := r.Group("/teacher")
	teacher.Use(middleware.RoleMiddleware(model.Teacher))
	{
		teacher.POST("/exams", c.exam.CreateExam)
		teacher.GET("/exams", c.exam.ListExams)
		teacher.GET("/exams/:id", c.exam.GetExam)
		teacher.PUT("/exams/:id", c.exam.UpdateExam)
		teacher.DELETE("/exams/:id", c.exam.DeleteExam)
		teacher.POST("/exams/:id/publish", c.exam.PublishExam)
		teacher.POST("/exams/:id/cancel", c.exam.CancelExam)

		teacher.POST("/exams/:id/questions", c.exam.AddQuestion)
		teacher.POST("/exams/:id/questions/bulk", c.exam.BulkAddQuestions)
		teacher.PUT("/exams/:id/questions/reorder", c.exam.ReorderQuestions)
		teacher.PUT("/exams/:id/questions/:questionId", c.exam.UpdateQuestion)
		teacher.DELETE("/exams/:id/questions/:questionId", c.exam.RemoveQuestion)

		teacher.GET("/exams/:id/results", c.exam.ExamResults)
		teacher.GET("/exams/:id/statistics", c.exam.ExamStatistics)
		teacher.GET("/exams/:id/attempts", c.exam.ListAttempts)
	}
}
