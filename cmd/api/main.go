package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/uniportal/portal-api/api/swagger"
	"github.com/uniportal/portal-api/internal/handler"
	"github.com/uniportal/portal-api/internal/middleware"
	"github.com/uniportal/portal-api/internal/models"
	"github.com/uniportal/portal-api/internal/repository"
	"github.com/uniportal/portal-api/internal/service"
	"github.com/uniportal/portal-api/pkg/cache"
	"github.com/uniportal/portal-api/pkg/config"
	"github.com/uniportal/portal-api/pkg/database"
	"github.com/uniportal/portal-api/pkg/jobs"
	"github.com/uniportal/portal-api/pkg/logger"
	"github.com/uniportal/portal-api/pkg/mailer"
	corsmiddleware "github.com/uniportal/portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/uniportal/portal-api/pkg/middleware/requestid"
	"github.com/uniportal/portal-api/pkg/storage"
)

// @title University Portal API
// @version 1.0.0
// @description Backend for the university student portal
// @BasePath /api
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	assets, err := storage.NewAssetStore(cfg.Uploads.StorageDir, cfg.BaseURL)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare asset storage", "error", err)
	}

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	requestTypeRepo := repository.NewRequestTypeRepository(db)
	studentRequestRepo := repository.NewStudentRequestRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	newsRepo := repository.NewNewsRepository(db)
	eventRepo := repository.NewEventRepository(db)
	faqRepo := repository.NewFaqRepository(db)
	graduateRepo := repository.NewGraduateRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, jobs.Options{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		Logger:     logr,
	}, logr).WithMetrics(metricsSvc)
	userSvc := service.NewUserService(userRepo, assets, validate, service.AccountDefaults{
		Major:    cfg.Accounts.DefaultMajor,
		Password: cfg.Accounts.DefaultPassword,
	}, logr)
	requestTypeSvc := service.NewRequestTypeService(requestTypeRepo, validate, logr)
	studentRequestSvc := service.NewStudentRequestService(studentRequestRepo, requestTypeRepo, assets, notificationSvc, service.SubmitLimits{
		MaxReceiptSize: cfg.Uploads.MaxImageSizeByte,
		AllowedMIMEs:   cfg.Uploads.AllowedMIMEs,
	}, logr)
	newsSvc := service.NewNewsService(newsRepo, assets, notificationSvc, validate, logr)
	eventSvc := service.NewEventService(eventRepo, assets, notificationSvc, validate, logr)
	faqSvc := service.NewFaqService(faqRepo, logr)
	graduateSvc := service.NewGraduateService(graduateRepo, assets, logr)
	passwordSvc := service.NewPasswordResetService(userRepo, cacheRepo, mailer.New(cfg.SMTP, logr), validate, logr)
	dashboardSvc := service.NewDashboardService(studentRequestRepo, eventRepo, newsRepo, eventSvc, newsSvc, cacheRepo, cfg.Dashboard.CacheTTL, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	notificationSvc.StartQueue(ctx)
	defer notificationSvc.StopQueue()

	// Keep the per-status request gauge current for scrapes.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				counts, err := studentRequestRepo.CountByStatus(ctx)
				if err != nil {
					logr.Sugar().Warnw("request status gauge refresh failed", "error", err)
					continue
				}
				metricsSvc.SetRequestsByStatus("pending", counts.Pending)
				metricsSvc.SetRequestsByStatus("approved", counts.Approved)
				metricsSvc.SetRequestsByStatus("rejected", counts.Rejected)
			}
		}
	}()

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	passwordHandler := handler.NewPasswordHandler(passwordSvc)
	userHandler := handler.NewUserHandler(userSvc)
	profileHandler := handler.NewProfileHandler(userSvc)
	requestTypeHandler := handler.NewRequestTypeHandler(requestTypeSvc)
	studentRequestHandler := handler.NewStudentRequestHandler(studentRequestSvc)
	adminRequestHandler := handler.NewAdminRequestHandler(studentRequestSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	newsHandler := handler.NewNewsHandler(newsSvc)
	eventHandler := handler.NewEventHandler(eventSvc)
	faqHandler := handler.NewFaqHandler(faqSvc)
	graduateHandler := handler.NewGraduateHandler(graduateSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.Static("/storage", assets.Dir())

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/login", authHandler.Login)
	api.GET("/graduates", graduateHandler.List)
	api.GET("/graduates/:id", graduateHandler.Get)

	password := api.Group("/password")
	password.Use(middleware.Throttle(5, time.Minute))
	{
		password.POST("/send-code", passwordHandler.SendCode)
		password.POST("/verify-code", passwordHandler.VerifyCode)
		password.POST("/reset", passwordHandler.Reset)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.POST("/logout", authHandler.Logout)
		authed.GET("/user", authHandler.Me)
		authed.GET("/profile", profileHandler.Show)
		authed.POST("/profile/photo", profileHandler.UploadPhoto)
		authed.DELETE("/profile/photo", profileHandler.DeletePhoto)
		authed.GET("/notifications/feed", notificationHandler.Feed)
		authed.POST("/notifications/read", notificationHandler.MarkAllRead)
		authed.GET("/request-types", requestTypeHandler.List)
		authed.GET("/news", newsHandler.List)
		authed.GET("/news/:id", newsHandler.Get)
		authed.GET("/events", eventHandler.List)
		authed.GET("/events/:id", eventHandler.Get)
	}

	nonAdmin := authed.Group("")
	nonAdmin.Use(middleware.RequireNonAdmin())
	{
		nonAdmin.POST("/student-requests", studentRequestHandler.Submit)
		nonAdmin.GET("/student-requests", studentRequestHandler.ListOwn)
		nonAdmin.DELETE("/student-requests/:id", studentRequestHandler.Delete)
		nonAdmin.GET("/chatbot/questions", faqHandler.Questions)
		nonAdmin.GET("/chatbot/questions/:id", faqHandler.Answer)
	}

	students := authed.Group("")
	students.Use(middleware.RequireTypes(models.UserTypeStudent))
	{
		students.GET("/student-home", dashboardHandler.Home)
	}

	admin := authed.Group("/admin")
	admin.Use(middleware.RequireTypes(models.UserTypeAdmin))
	{
		admin.GET("/dashboard", dashboardHandler.Admin)
		admin.POST("/dashboard/refresh", dashboardHandler.Refresh)
		admin.GET("/student-requests/pending/:id", adminRequestHandler.GetPending)
		admin.GET("/student-requests/:status", adminRequestHandler.ListByStatus)
		admin.GET("/student-requests/:status/export", adminRequestHandler.Export)
		admin.PATCH("/student-requests/:id/accept", adminRequestHandler.Approve)
		admin.PATCH("/student-requests/:id/reject", adminRequestHandler.Reject)
		admin.POST("/request-types", requestTypeHandler.Create)
		admin.GET("/request-types/:id", requestTypeHandler.Get)
		admin.PUT("/request-types/:id", requestTypeHandler.Update)
		admin.DELETE("/request-types/:id", requestTypeHandler.Delete)
		admin.POST("/create-user", userHandler.CreateUser)
		admin.POST("/import-users", userHandler.Import)
		admin.PATCH("/change-user-type/:id", userHandler.ChangeType)
		admin.POST("/create-admin", userHandler.CreateAdmin)
		admin.POST("/news", newsHandler.Create)
		admin.PUT("/news/:id", newsHandler.Update)
		admin.DELETE("/news/:id", newsHandler.Delete)
		admin.POST("/events", eventHandler.Create)
		admin.PUT("/events/:id", eventHandler.Update)
		admin.DELETE("/events/:id", eventHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
