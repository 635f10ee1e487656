package app

import (
	"victorina_backend/docs"
	"victorina_backend/internal/config"
	"victorina_backend/internal/middleware"
	"victorina_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.Handler())

	a.registerPublicRoutes(router, c)

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(s.user, activityInterval))
	{
		a.registerUserRoutes(authGroup, c)
		a.registerQuizRoutes(authGroup, c)
		a.registerAttemptRoutes(authGroup, c)
		a.registerSocialRoutes(authGroup, c)
	}

	a.registerAdminRoutes(router, c, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		public.GET("/quizzes", c.quiz.ListQuizzes)
		public.GET("/ratings/top", c.rating.Top)
		public.GET("/ratings/users/:id", c.rating.UserRating)
	}
}

func (a *App) registerUserRoutes(group *gin.RouterGroup, c *controllers) {
	group.GET("/profile", c.auth.Profile)
	group.GET("/users/search", c.user.Search)
	group.GET("/users/:id", c.user.GetUser)
	group.GET("/ratings/me", c.rating.MyRating)
}

func (a *App) registerQuizRoutes(group *gin.RouterGroup, c *controllers) {
	quizzes := group.Group("/quizzes")
	{
		quizzes.POST("", c.quiz.CreateQuiz)
		quizzes.GET("/my", c.quiz.MyQuizzes)
		quizzes.POST("/images", c.quiz.UploadImage)
		quizzes.GET("/:id", c.quiz.GetQuiz)
		quizzes.DELETE("/:id", c.quiz.DeleteQuiz)
		quizzes.POST("/:id/rate", c.quiz.RateQuiz)
		quizzes.GET("/:id/rating/my", c.quiz.MyQuizRating)
	}
}

func (a *App) registerAttemptRoutes(group *gin.RouterGroup, c *controllers) {
	attempts := group.Group("/quiz-attempts")
	{
		attempts.POST("/start/:quizId", c.attempt.StartQuiz)
		attempts.POST("/submit", c.attempt.SubmitQuiz)
		attempts.GET("/my", c.attempt.MyAttempts)
		attempts.GET("/my/active/:quizId", c.attempt.ActiveAttempt)
		attempts.GET("/has-active/:quizId", c.attempt.HasActiveAttempt)
	}
}

func (a *App) registerSocialRoutes(group *gin.RouterGroup, c *controllers) {
	feed := group.Group("/feed")
	{
		feed.POST("/publish", c.feed.Publish)
		feed.GET("", c.feed.All)
		feed.GET("/friends", c.feed.Friends)
		feed.GET("/users/:id", c.feed.User)
	}

	friends := group.Group("/friends")
	{
		friends.GET("", c.friendship.GetFriends)
		friends.DELETE("/:id", c.friendship.DeleteFriend)
		friends.GET("/requests", c.friendship.GetFriendRequests)
		friends.POST("/requests", c.friendship.SendFriendRequest)
		friends.PUT("/requests/:id", c.friendship.HandleFriendRequest)
	}

	messages := group.Group("/messages")
	{
		messages.POST("", c.message.SendMessage)
		messages.GET("/with/:userId", c.message.Conversation)
		messages.POST("/:id/read", c.message.MarkRead)
		messages.GET("/unread", c.message.UnreadCount)
		messages.GET("/chats", c.message.Chats)
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware())
	{
		admin.POST("/ratings/:id/recalculate", c.rating.Recalculate)
	}
}
