package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/scms-ph/attendance-api/api/swagger"
	"github.com/scms-ph/attendance-api/internal/handler"
	"github.com/scms-ph/attendance-api/internal/middleware"
	"github.com/scms-ph/attendance-api/internal/models"
	"github.com/scms-ph/attendance-api/internal/repository"
	"github.com/scms-ph/attendance-api/internal/service"
	"github.com/scms-ph/attendance-api/pkg/cache"
	"github.com/scms-ph/attendance-api/pkg/config"
	"github.com/scms-ph/attendance-api/pkg/database"
	"github.com/scms-ph/attendance-api/pkg/logger"
	corsmiddleware "github.com/scms-ph/attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/scms-ph/attendance-api/pkg/middleware/requestid"
	"github.com/scms-ph/attendance-api/pkg/storage"
)

// @title School Attendance API
// @version 1.0.0
// @description Attendance administration API for students, teachers, and dashboards
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

	var cacheRepo service.CacheRepository
	if cfg.Dashboard.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, dashboard caching disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cacheRepo != nil)

	store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("exports storage init failed", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     "attendance-api",
	})
	studentSvc := service.NewStudentService(studentRepo, cacheSvc, nil, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, cacheSvc, nil, logr)
	importSvc := service.NewImportService(studentRepo, cacheSvc, metricsSvc, logr)
	exportSvc := service.NewExportService(studentRepo, store, signer, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, studentRepo, cacheSvc, nil, logr)
	dashboardSvc := service.NewDashboardService(studentRepo, teacherRepo, attendanceRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)
	searchSvc := service.NewSearchService(studentRepo, teacherRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc, handler.AuthCookieConfig{
		Name:   cfg.JWT.CookieName,
		Secure: cfg.JWT.CookieSecure,
	})
	studentHandler := handler.NewStudentHandler(studentSvc, importSvc, exportSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	searchHandler := handler.NewSearchHandler(searchSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	requireAuth := middleware.Auth(authSvc, cfg.JWT.CookieName)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/logout", requireAuth, authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.Me)
		}

		students := api.Group("/students", requireAuth)
		{
			students.GET("", studentHandler.List)
			students.POST("", studentHandler.Create)
			students.GET("/export", studentHandler.Export)
			students.POST("/import", adminOnly, middleware.Audit(userRepo, models.AuditActionImport, "students"), studentHandler.Import)
			students.POST("/clear", adminOnly, middleware.Audit(userRepo, models.AuditActionClear, "students"), studentHandler.Clear)
			students.DELETE("/:id", adminOnly, middleware.Audit(userRepo, models.AuditActionDelete, "students"), studentHandler.Delete)
			students.POST("/:id/qrcode", studentHandler.QRCode)
		}

		teachers := api.Group("/teachers", requireAuth)
		{
			teachers.GET("", teacherHandler.List)
			teachers.POST("", teacherHandler.Create)
		}

		attendance := api.Group("/attendance", requireAuth)
		{
			attendance.GET("", attendanceHandler.List)
			attendance.POST("", attendanceHandler.Mark)
		}

		api.GET("/dashboard/stats", requireAuth, dashboardHandler.Stats)
		api.GET("/search", requireAuth, searchHandler.Search)
		api.GET("/exports/download", exportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
