package server

import (
	"time"

	"anoa.com/learnhub/internal/config"
	"anoa.com/learnhub/internal/middleware"
	"anoa.com/learnhub/internal/policy"
	"anoa.com/learnhub/internal/scheduler"
	"anoa.com/learnhub/pkg/logger"
	"anoa.com/learnhub/pkg/mailer"
	"anoa.com/learnhub/pkg/storage"

	attachmentHttp "anoa.com/learnhub/internal/modules/attachment/delivery/http"
	attachmentRepo "anoa.com/learnhub/internal/modules/attachment/repository"
	attachmentService "anoa.com/learnhub/internal/modules/attachment/service"

	categoryHttp "anoa.com/learnhub/internal/modules/category/delivery/http"
	categoryRepo "anoa.com/learnhub/internal/modules/category/repository"
	categoryService "anoa.com/learnhub/internal/modules/category/service"

	chapterHttp "anoa.com/learnhub/internal/modules/chapter/delivery/http"
	chapterRepo "anoa.com/learnhub/internal/modules/chapter/repository"
	chapterService "anoa.com/learnhub/internal/modules/chapter/service"

	courseHttp "anoa.com/learnhub/internal/modules/course/delivery/http"
	courseRepo "anoa.com/learnhub/internal/modules/course/repository"
	courseService "anoa.com/learnhub/internal/modules/course/service"

	dashboardHttp "anoa.com/learnhub/internal/modules/dashboard/delivery/http"
	dashboardService "anoa.com/learnhub/internal/modules/dashboard/service"

	enrollmentHttp "anoa.com/learnhub/internal/modules/enrollment/delivery/http"
	enrollmentRepo "anoa.com/learnhub/internal/modules/enrollment/repository"
	enrollmentService "anoa.com/learnhub/internal/modules/enrollment/service"

	notiHttp "anoa.com/learnhub/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/learnhub/internal/modules/notification/repository"
	notifService "anoa.com/learnhub/internal/modules/notification/service"

	progressHttp "anoa.com/learnhub/internal/modules/progress/delivery/http"
	progressRepo "anoa.com/learnhub/internal/modules/progress/repository"
	progressService "anoa.com/learnhub/internal/modules/progress/service"

	searchService "anoa.com/learnhub/internal/modules/search/service"

	userHttp "anoa.com/learnhub/internal/modules/user/delivery/http"
	userRepo "anoa.com/learnhub/internal/modules/user/repository"
	userService "anoa.com/learnhub/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	scheduler   *scheduler.Scheduler
	log         *logger.Logger
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, log *logger.Logger) *Server {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	classifier := policy.NewClassifier(cfg.AdminEmails)

	fileStorage, err := storage.NewCloudinaryStorage(cfg.CloudinaryUploadFolder)
	if err != nil {
		log.Warn("file storage disabled", "error", err)
		fileStorage = nil
	}
	courseIndex := searchService.NewMeiliSearchService(cfg.MeiliSearchHost, cfg.MeiliMasterKey, log)

	mail := mailer.New(mailer.Config{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
	}, log)

	// Repositories
	userRepo := userRepo.NewUserRepository(db)
	categoryRepo := categoryRepo.NewCategoryRepository(db)
	courseRepo := courseRepo.NewCourseRepository(db)
	chapterRepo := chapterRepo.NewChapterRepository(db)
	attachmentRepo := attachmentRepo.NewAttachmentRepository(db)
	progressRepo := progressRepo.NewProgressRepository(db)
	enrollmentRepo := enrollmentRepo.NewEnrollmentRepository(db)
	notifRepo := notifRepo.NewNotificationRepository(db)

	// Identity
	provider := userService.NewHTTPIdentityProvider(cfg.IdentityAPIURL, cfg.IdentityAPIKey, cfg.IdentityTimeout)
	resolver := userService.NewIdentityResolver(userRepo, provider, mail, log)
	tokens := userService.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	authService := userService.NewAuthService(resolver, tokens, classifier, userService.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})
	userSvc := userService.NewUserService(userRepo, classifier, log)
	authHandler := userHttp.NewAuthHandler(authService, !cfg.IsDevelopment())
	userHandler := userHttp.NewUserHandler(userSvc)

	categoryHandler := categoryHttp.NewCategoryHandler(categoryService.NewCategoryService(categoryRepo))

	notifSvc := notifService.NewNotificationService(notifRepo, redisClient, log)
	notiHandler := notiHttp.NewNotificationHandler(notifSvc, redisClient, cfg.AllowedOrigins, log)

	enrollmentSvc := enrollmentService.NewEnrollmentService(
		enrollmentRepo,
		courseRepo,
		userRepo,
		classifier,
		notifSvc,
		enrollmentService.Options{RedisClient: redisClient, ApplyRateLimit: cfg.RateLimitApplication},
		log,
	)
	enrollmentHandler := enrollmentHttp.NewEnrollmentHandler(enrollmentSvc)

	guard := courseService.NewGuard(classifier, enrollmentSvc)

	courseSvc := courseService.NewCourseService(courseRepo, attachmentRepo, progressRepo, enrollmentRepo, guard, courseIndex, fileStorage, log)
	courseHandler := courseHttp.NewCourseHandler(courseSvc)

	chapterSvc := chapterService.NewChapterService(chapterRepo, courseRepo, attachmentRepo, progressRepo, guard, courseIndex, log)
	chapterHandler := chapterHttp.NewChapterHandler(chapterSvc)

	attachmentSvc := attachmentService.NewAttachmentService(attachmentRepo, courseRepo, guard, fileStorage, log)
	attachmentHandler := attachmentHttp.NewAttachmentHandler(attachmentSvc)

	progressHandler := progressHttp.NewProgressHandler(progressService.NewProgressService(progressRepo, chapterSvc))

	dashboardHandler := dashboardHttp.NewDashboardHandler(
		dashboardService.NewDashboardService(courseRepo, enrollmentRepo, progressRepo, userRepo, classifier),
	)

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	if cfg.OTelEnabled {
		router.Use(otelgin.Middleware("learnhub"))
	}
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/api/notifications/ws"},
	}))

	authMiddleware := middleware.NewAuthMiddleware(tokens, resolver, classifier)

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.GET("/google/login", authHandler.GoogleLogin)
		auth.GET("/google/callback", authHandler.GoogleCallback)
	}

	// Catalog routes: anonymous callers are allowed, identity is attached when present
	public := api.Group("")
	public.Use(authMiddleware.OptionalAuth())
	{
		public.GET("/categories", categoryHandler.GetAllCategories)
		public.GET("/courses", courseHandler.ListCourses)
		public.GET("/courses/search", courseHandler.SearchCourses)
		public.GET("/courses/:id", courseHandler.GetCourse)
		public.GET("/courses/:id/chapters/:chapterId", chapterHandler.GetChapter)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.GET("/users", userHandler.ListUsers)
			adminGroup.PUT("/users/:id/role", userHandler.UpdateRole)

			adminGroup.POST("/categories", categoryHandler.CreateCategory)
			adminGroup.DELETE("/categories/:id", categoryHandler.DeleteCategory)

			adminGroup.GET("/applications", enrollmentHandler.ListApplications)
			adminGroup.POST("/applications/:id/:action", enrollmentHandler.TransitionApplication)
			adminGroup.DELETE("/applications/:id", enrollmentHandler.DeleteApplication)

			adminGroup.POST("/courses/:id/purchases", enrollmentHandler.GrantPurchase)
			adminGroup.DELETE("/courses/:id/purchases/:userId", enrollmentHandler.RevokePurchase)

			adminGroup.GET("/overview", dashboardHandler.AdminOverview)
		}

		protected.GET("/me", userHandler.Me)

		courses := protected.Group("/courses")
		{
			courses.POST("", courseHandler.CreateCourse)
			courses.PATCH("/:id", courseHandler.UpdateCourse)
			courses.DELETE("/:id", courseHandler.DeleteCourse)
			courses.GET("/:id/completeness", courseHandler.GetCompleteness)
			courses.PATCH("/:id/publish", courseHandler.PublishCourse)
			courses.PATCH("/:id/unpublish", courseHandler.UnpublishCourse)
			courses.POST("/:id/image", courseHandler.UploadImage)

			courses.POST("/:id/attachments", attachmentHandler.UploadAttachment)
			courses.DELETE("/:id/attachments/:attachmentId", attachmentHandler.DeleteAttachment)

			courses.POST("/:id/applications", enrollmentHandler.Apply)
			courses.GET("/:id/entitlement", enrollmentHandler.GetEntitlement)

			courses.POST("/:id/chapters", chapterHandler.CreateChapter)
			courses.PUT("/:id/chapters/reorder", chapterHandler.ReorderChapters)
			courses.PATCH("/:id/chapters/:chapterId", chapterHandler.UpdateChapter)
			courses.DELETE("/:id/chapters/:chapterId", chapterHandler.DeleteChapter)
			courses.GET("/:id/chapters/:chapterId/completeness", chapterHandler.GetCompleteness)
			courses.PATCH("/:id/chapters/:chapterId/publish", chapterHandler.PublishChapter)
			courses.PATCH("/:id/chapters/:chapterId/unpublish", chapterHandler.UnpublishChapter)
			courses.POST("/:id/chapters/:chapterId/materials", chapterHandler.AddMaterial)
			courses.DELETE("/:id/chapters/:chapterId/materials/:materialId", chapterHandler.DeleteMaterial)
			courses.POST("/:id/chapters/:chapterId/assignments", chapterHandler.AddAssignment)
			courses.DELETE("/:id/chapters/:chapterId/assignments/:assignmentId", chapterHandler.DeleteAssignment)
		}

		protected.GET("/teacher/courses", authMiddleware.RequireAuthor(), courseHandler.TeacherCourses)
		protected.GET("/applications/me", enrollmentHandler.MyApplications)
		protected.PUT("/chapters/:chapterId/progress", progressHandler.SetProgress)

		dashboard := protected.Group("/dashboard")
		{
			dashboard.GET("/student", dashboardHandler.StudentDashboard)
			dashboard.GET("/teacher", authMiddleware.RequireAuthor(), dashboardHandler.TeacherAnalytics)
		}

		notifications := protected.Group("/notifications")
		{
			notifications.GET("", notiHandler.GetNotifications)
			notifications.GET("/unread-count", notiHandler.UnreadCount)
			notifications.PUT("/:id/read", notiHandler.MarkAsRead)
			notifications.PUT("/read-all", notiHandler.MarkAllAsRead)
			notifications.GET("/ws", notiHandler.HandleWebSocket)
		}
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		scheduler:   scheduler.New(courseSvc, redisClient, cfg.IndexSyncSchedule, log),
		log:         log,
	}
}

func (s *Server) Run(addr string) error {
	if err := s.scheduler.Start(); err != nil {
		return err
	}
	defer s.scheduler.Stop()

	s.log.Info("server listening", "addr", addr)
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, allowedOrigins []string) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
