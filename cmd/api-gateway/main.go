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
	"go.uber.org/zap"

	_ "github.com/tutorhive/tutorhive-api/api/swagger"
	"github.com/tutorhive/tutorhive-api/internal/handler"
	"github.com/tutorhive/tutorhive-api/internal/middleware"
	"github.com/tutorhive/tutorhive-api/internal/models"
	"github.com/tutorhive/tutorhive-api/internal/repository"
	"github.com/tutorhive/tutorhive-api/internal/service"
	"github.com/tutorhive/tutorhive-api/pkg/cache"
	"github.com/tutorhive/tutorhive-api/pkg/config"
	"github.com/tutorhive/tutorhive-api/pkg/database"
	"github.com/tutorhive/tutorhive-api/pkg/jobs"
	"github.com/tutorhive/tutorhive-api/pkg/logger"
	"github.com/tutorhive/tutorhive-api/pkg/mail"
	corsmiddleware "github.com/tutorhive/tutorhive-api/pkg/middleware/cors"
	reqidmiddleware "github.com/tutorhive/tutorhive-api/pkg/middleware/requestid"
)

// @title TutorHive API
// @version 1.0.0
// @description Tutoring venue coordination: bookings, volunteer shifts, and coordinator dashboards
// @BasePath /api/v1
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Warn("redis unavailable, running without cache", zap.Error(err))
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, true)
	}

	var sender mail.Sender
	if cfg.Email.Enabled {
		sender = mail.NewSendGridSender(cfg.Email.APIKey, cfg.Email.FromName, cfg.Email.FromAddress)
	}
	notifySvc := service.NewNotifyService(sender, cfg.Email, logr)
	notifySvc.Start()
	defer notifySvc.Stop()

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	venueRepo := repository.NewVenueRepository(db)
	childRepo := repository.NewChildRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	slotRepo := repository.NewTimeSlotRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	appRepo := repository.NewApplicationRepository(db)
	shiftRepo := repository.NewShiftRepository(db)

	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr, nil)
	venueSvc := service.NewVenueService(venueRepo, userRepo, validate, logr)
	childSvc := service.NewChildService(childRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, validate, logr)
	slotSvc := service.NewTimeSlotService(slotRepo, venueRepo, bookingRepo, subjectRepo, cacheSvc, validate, logr, nil)
	bookingSvc := service.NewBookingService(bookingRepo, slotRepo, childRepo, userRepo, notifySvc, cacheSvc, metricsSvc,
		validate, logr, service.BookingServiceConfig{CancellationWindow: cfg.Booking.CancellationWindow}, nil)
	appSvc := service.NewApplicationService(appRepo, venueRepo, notifySvc, cacheSvc, validate, logr, nil)
	shiftSvc := service.NewShiftService(shiftRepo, slotRepo, appRepo, userRepo, notifySvc, cacheSvc, metricsSvc,
		validate, logr, service.ShiftServiceConfig{CancellationWindow: cfg.Shifts.CancellationWindow}, nil)
	availabilitySvc := service.NewAvailabilityService(appRepo, slotRepo, shiftRepo, subjectRepo, logr,
		service.AvailabilityServiceConfig{LookaheadDays: cfg.Availability.LookaheadDays}, nil)
	dashboardSvc := service.NewDashboardService(venueRepo, bookingRepo, shiftRepo, appRepo, slotRepo, subjectRepo,
		cacheSvc, logr, service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL}, nil)
	exportSvc := service.NewExportService(shiftRepo, venueRepo, logr, nil)

	scheduler := jobs.NewScheduler(logr)
	if cfg.Jobs.ReconcileEnabled {
		reconcileSvc := service.NewReconcileService(slotRepo, bookingRepo, logr, nil)
		if err := scheduler.Register(cfg.Jobs.ReconcileSpec, "slot-status-reconcile", reconcileSvc.Run); err != nil {
			logr.Fatal("failed to register reconcile sweep", zap.Error(err))
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	authHandler := handler.NewAuthHandler(authSvc)
	venueHandler := handler.NewVenueHandler(venueSvc)
	childHandler := handler.NewChildHandler(childSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	slotHandler := handler.NewTimeSlotHandler(slotSvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc)
	appHandler := handler.NewApplicationHandler(appSvc)
	shiftHandler := handler.NewShiftHandler(shiftSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	venues := api.Group("/venues", middleware.JWT(authSvc))
	{
		venues.GET("", venueHandler.List)
		venues.GET("/mine", middleware.RequireRoles(models.RoleCoordinator), venueHandler.Mine)
		venues.GET("/:id", venueHandler.Get)
		venues.POST("", middleware.RequireRoles(models.RoleAdmin), venueHandler.Create)
		venues.PATCH("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator), venueHandler.Update)
		venues.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), venueHandler.Deactivate)
		venues.GET("/:id/timeslots", slotHandler.ListForVenue)
		venues.POST("/:id/timeslots", middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator), slotHandler.Create)
	}

	timeslots := api.Group("/timeslots", middleware.JWT(authSvc))
	{
		timeslots.GET("/:id", slotHandler.Get)
		timeslots.PATCH("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator), slotHandler.Update)
		timeslots.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator), slotHandler.Delete)
	}

	children := api.Group("/children", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleParent, models.RoleAdmin))
	{
		children.GET("", childHandler.List)
		children.POST("", childHandler.Create)
		children.PUT("/:id", childHandler.Update)
		children.DELETE("/:id", childHandler.Delete)
	}

	subjects := api.Group("/subjects", middleware.JWT(authSvc))
	{
		subjects.GET("", subjectHandler.List)
		subjects.POST("", middleware.RequireRoles(models.RoleAdmin), subjectHandler.Create)
		subjects.PUT("/mine", middleware.RequireRoles(models.RoleVolunteer), subjectHandler.SetMine)
	}

	bookings := api.Group("/bookings", middleware.JWT(authSvc))
	{
		bookings.POST("", middleware.RequireRoles(models.RoleParent, models.RoleStudent), bookingHandler.Create)
		bookings.GET("/mine", bookingHandler.ListMine)
		bookings.DELETE("/:id", bookingHandler.Cancel)
	}

	applications := api.Group("/applications", middleware.JWT(authSvc))
	{
		applications.POST("", middleware.RequireRoles(models.RoleVolunteer), appHandler.Apply)
		applications.GET("", middleware.RequireRoles(models.RoleCoordinator, models.RoleAdmin), appHandler.ListForVenue)
		applications.GET("/mine", middleware.RequireRoles(models.RoleVolunteer), appHandler.ListMine)
		applications.POST("/:id/decision", middleware.RequireRoles(models.RoleCoordinator, models.RoleAdmin), appHandler.Decide)
	}

	shifts := api.Group("/shifts", middleware.JWT(authSvc))
	{
		shifts.POST("", middleware.RequireRoles(models.RoleVolunteer), shiftHandler.Signup)
		shifts.GET("/mine", middleware.RequireRoles(models.RoleVolunteer), shiftHandler.ListMine)
		shifts.DELETE("/:id", shiftHandler.Cancel)
		shifts.POST("/:id/attendance", middleware.RequireRoles(models.RoleCoordinator, models.RoleAdmin), shiftHandler.MarkAttendance)
	}

	api.GET("/availability", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleVolunteer), availabilityHandler.List)

	if cfg.Dashboard.Enabled {
		api.GET("/dashboard", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleCoordinator), dashboardHandler.Get)
	}

	api.GET("/export/rota", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleCoordinator), exportHandler.Rota)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("forced shutdown", zap.Error(err))
	}
}
