package app

import (
	"signlearn_backend/docs"
	"signlearn_backend/internal/config"
	"signlearn_backend/internal/middleware"
	"signlearn_backend/internal/model"
	"signlearn_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 测验与实时识别
	a.registerQuizRoutes(router, c)
	a.registerRecognitionRoutes(router, c)

	// 3. 管理员相关接口
	a.registerAdminRoutes(router, c, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/login", c.auth.Login)

		public.GET("/questions", c.learning.GetQuestions)
		public.GET("/learnAlphabet", c.learning.GetAlphabet)
		public.GET("/learnAlphabet/:index", c.learning.GetAlphabetDetail)
		public.GET("/learnAlphabet/:index/download", c.learning.DownloadLetter)
		public.GET("/learnWord", c.learning.GetLearnWords)
		public.GET("/learn/learnWord", c.learning.GetRandomWords)
		public.GET("/learn/allWords", c.learning.GetAllWords)
		public.GET("/test/testWord", c.learning.GetTestWords)
		public.GET("/speech_text_to_sign", c.learning.GetAlphabet)

		public.GET("/lessons/categories", c.learning.GetCategories)
		public.GET("/lessons", c.learning.GetLessons)
		public.GET("/lessons/:id", c.learning.GetLesson)

		public.POST("/translate", c.translate.Translate)
		public.GET("/translate/dictionary", c.translate.GetDictionary)
	}
}

func (a *App) registerQuizRoutes(router *gin.Engine, c *controllers) {
	quiz := router.Group("/api/quiz/sessions")
	{
		quiz.POST("", c.quiz.CreateSession)
		quiz.GET("/:id", c.quiz.GetSession)
		quiz.DELETE("/:id", c.quiz.DeleteSession)
		quiz.POST("/:id/start", c.quiz.Start)
		quiz.POST("/:id/answer", c.quiz.Answer)
		quiz.POST("/:id/next", c.quiz.Next)
		quiz.POST("/:id/prev", c.quiz.Prev)
		quiz.POST("/:id/jump", c.quiz.Jump)
		quiz.POST("/:id/restart", c.quiz.Restart)
		quiz.POST("/:id/finish", c.quiz.Finish)
		quiz.GET("/:id/result", c.quiz.Result)
	}
}

func (a *App) registerRecognitionRoutes(router *gin.Engine, c *controllers) {
	recognition := router.Group("/api/recognition")
	{
		recognition.GET("/status", c.recognition.Status)
		recognition.GET("/classes", c.recognition.Classes)

		sessions := recognition.Group("/sessions")
		sessions.POST("", c.recognition.CreateSession)
		sessions.GET("/:id", c.recognition.GetSession)
		sessions.DELETE("/:id", c.recognition.StopSession)
		sessions.POST("/:id/frames", c.recognition.SubmitFrame)
		sessions.POST("/:id/pause", c.recognition.Pause)
		sessions.POST("/:id/resume", c.recognition.Resume)
		sessions.GET("/:id/transcript", c.recognition.GetTranscript)
		sessions.DELETE("/:id/transcript", c.recognition.ClearTranscript)
		sessions.GET("/:id/transcript/export", c.recognition.ExportTranscript)
		sessions.GET("/:id/stream", c.recognition.Stream)
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	authed := router.Group("/api")
	authed.Use(middleware.AuthMiddleware(cfg))
	authed.GET("/me", c.auth.Me)

	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		admin.POST("/questions", c.content.CreateQuestion)
		admin.PUT("/questions/:id", c.content.UpdateQuestion)
		admin.DELETE("/questions/:id", c.content.DeleteQuestion)

		admin.POST("/words", c.content.CreateWordQuestion)
		admin.PUT("/words/:id", c.content.UpdateWordQuestion)
		admin.DELETE("/words/:id", c.content.DeleteWordQuestion)

		admin.POST("/lessons", c.content.CreateLesson)
		admin.PUT("/lessons/:id", c.content.UpdateLesson)
		admin.DELETE("/lessons/:id", c.content.DeleteLesson)

		admin.POST("/media", c.content.UploadMedia)
	}
}
