package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/peoplehq/hrm-api/api/swagger"
	"github.com/peoplehq/hrm-api/internal/handler"
	"github.com/peoplehq/hrm-api/internal/middleware"
	"github.com/peoplehq/hrm-api/internal/models"
	"github.com/peoplehq/hrm-api/internal/repository"
	"github.com/peoplehq/hrm-api/internal/service"
	"github.com/peoplehq/hrm-api/pkg/cache"
	"github.com/peoplehq/hrm-api/pkg/config"
	"github.com/peoplehq/hrm-api/pkg/database"
	"github.com/peoplehq/hrm-api/pkg/ipinfo"
	"github.com/peoplehq/hrm-api/pkg/jobs"
	"github.com/peoplehq/hrm-api/pkg/logger"
	corsmiddleware "github.com/peoplehq/hrm-api/pkg/middleware/cors"
	reqidmiddleware "github.com/peoplehq/hrm-api/pkg/middleware/requestid"
	"github.com/peoplehq/hrm-api/pkg/storage"
)

// @title HRM API
// @version 1.0.0
// @description Human resource management API: profiles, attendance, goalsheets, leave, payroll, training and announcements.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	timesheetRepo := repository.NewTimesheetRepository(db)
	goalsheetRepo := repository.NewGoalsheetRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	payrollRepo := repository.NewPayrollRepository(db)
	trainingRepo := repository.NewTrainingRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)

	// Shared infrastructure.
	metricsSvc := service.NewMetricsService()
	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.Enabled)
	}

	store, err := storage.NewLocalStorage(cfg.Payslips.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init payslip storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Payslips.SignedURLSecret, cfg.Payslips.SignedURLTTL)
	ipClient := ipinfo.New(cfg.Attendance.IPLookupURL, cfg.Attendance.IPLookupTimeout, logr)

	// Services.
	authSvc := service.NewAuthService(userRepo, profileRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "hrm-api",
	})
	profileSvc := service.NewProfileService(profileRepo, nil, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, ipClient, nil, logr)
	timesheetSvc := service.NewTimesheetService(timesheetRepo, logr)
	goalsheetSvc := service.NewGoalsheetService(goalsheetRepo, nil, logr)
	leaveSvc := service.NewLeaveService(leaveRepo, userRepo, nil, logr)
	payrollSvc := service.NewPayrollService(payrollRepo, profileRepo, store, signer, userRepo, nil, logr)
	trainingSvc := service.NewTrainingService(trainingRepo, nil, logr)
	announcementSvc := service.NewAnnouncementService(announcementRepo, cacheSvc, nil, logr)
	dashboardSvc := service.NewDashboardService(
		attendanceSvc, attendanceRepo, profileRepo, leaveRepo,
		timesheetRepo, trainingRepo, payrollRepo, announcementRepo,
		cacheSvc, cfg.Dashboard.CacheTTL, logr,
	)

	// Payslip generation workers.
	payslipQueue := jobs.NewQueue("payslips", payrollSvc.HandlePayslipJob, jobs.QueueConfig{
		Workers:    cfg.Payslips.WorkerConcurrency,
		MaxRetries: cfg.Payslips.WorkerRetries,
		Logger:     logr,
	})
	payrollSvc.AttachQueue(payslipQueue)
	payslipQueue.Start(context.Background())
	defer payslipQueue.Stop()

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	profileHandler := handler.NewProfileHandler(profileSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	timesheetHandler := handler.NewTimesheetHandler(timesheetSvc)
	goalsheetHandler := handler.NewGoalsheetHandler(goalsheetSvc)
	leaveHandler := handler.NewLeaveHandler(leaveSvc)
	payrollHandler := handler.NewPayrollHandler(payrollSvc)
	trainingHandler := handler.NewTrainingHandler(trainingSvc)
	announcementHandler := handler.NewAnnouncementHandler(announcementSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	// The payslip download URL is pre-signed, so it carries its own auth.
	r.GET("/payslips/download", payrollHandler.DownloadPayslip)

	secured := api.Group("")
	secured.Use(middleware.JWT(authSvc))

	hrOnly := middleware.RequireRoles(models.RoleAdmin, models.RoleHR)

	profiles := secured.Group("/profiles")
	{
		profiles.GET("/me", profileHandler.Me)
		profiles.GET("", hrOnly, profileHandler.List)
		profiles.POST("", hrOnly, profileHandler.Create)
		profiles.GET("/:id", middleware.RBAC("admin", "hr", "SELF"), profileHandler.Get)
		profiles.PUT("/:id", hrOnly, profileHandler.Update)
		profiles.PATCH("/:id/status", hrOnly, middleware.Audit(userRepo, "status_change", "profile"), profileHandler.SetStatus)
	}

	attendance := secured.Group("/attendance")
	{
		attendance.GET("/today", attendanceHandler.Today)
		attendance.POST("/check-in", attendanceHandler.CheckIn)
		attendance.POST("/check-out", attendanceHandler.CheckOut)
		attendance.GET("", attendanceHandler.List)
		attendance.GET("/export", hrOnly, attendanceHandler.Export)
	}

	timesheets := secured.Group("/timesheets")
	{
		timesheets.GET("", timesheetHandler.List)
		timesheets.GET("/by-date", timesheetHandler.ForDate)
		timesheets.POST("/:id/approve", hrOnly, timesheetHandler.Approve)
	}

	goalsheets := secured.Group("/goalsheets")
	{
		goalsheets.GET("", goalsheetHandler.List)
		goalsheets.GET("/target-types", goalsheetHandler.TargetTypes)
		goalsheets.GET("/:id", goalsheetHandler.Get)
		goalsheets.POST("", hrOnly, goalsheetHandler.Create)
		goalsheets.POST("/:id/submit-week", goalsheetHandler.SubmitWeek)
	}

	leaves := secured.Group("/leaves")
	{
		leaves.GET("/types", leaveHandler.Types)
		leaves.GET("/balances", leaveHandler.Balances)
		leaves.GET("", leaveHandler.List)
		leaves.POST("", leaveHandler.Apply)
		leaves.POST("/:id/decision", hrOnly, leaveHandler.Decide)
		leaves.DELETE("/:id", leaveHandler.Cancel)
	}

	payroll := secured.Group("/payroll")
	{
		payroll.GET("", payrollHandler.List)
		payroll.GET("/:id", payrollHandler.Get)
		payroll.POST("", hrOnly, payrollHandler.Create)
		payroll.PUT("/:id", hrOnly, payrollHandler.Update)
		payroll.POST("/:id/mark-paid", hrOnly, payrollHandler.MarkPaid)
		payroll.GET("/:id/payslip", payrollHandler.Payslip)
	}
	secured.GET("/payslips/:id/link", payrollHandler.PayslipLink)

	trainings := secured.Group("/trainings")
	{
		trainings.GET("", trainingHandler.List)
		trainings.GET("/:id", trainingHandler.Get)
		trainings.POST("", hrOnly, trainingHandler.Create)
		trainings.PUT("/:id", hrOnly, trainingHandler.Update)
		trainings.DELETE("/:id", hrOnly, trainingHandler.Delete)
	}

	announcements := secured.Group("/announcements")
	{
		announcements.GET("/feed", announcementHandler.Feed)
		announcements.GET("", hrOnly, announcementHandler.List)
		announcements.POST("", hrOnly, announcementHandler.Create)
		announcements.PUT("/:id", hrOnly, announcementHandler.Update)
		announcements.DELETE("/:id", hrOnly, announcementHandler.Deactivate)
	}

	dashboard := secured.Group("/dashboard")
	{
		dashboard.GET("/hr", hrOnly, dashboardHandler.HR)
		dashboard.GET("/me", dashboardHandler.Employee)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
