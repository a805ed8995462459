package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/academia-sys/academia-api/api/swagger"
	"github.com/academia-sys/academia-api/internal/handler"
	"github.com/academia-sys/academia-api/internal/middleware"
	"github.com/academia-sys/academia-api/internal/models"
	"github.com/academia-sys/academia-api/internal/repository"
	"github.com/academia-sys/academia-api/internal/service"
	"github.com/academia-sys/academia-api/pkg/cache"
	"github.com/academia-sys/academia-api/pkg/config"
	"github.com/academia-sys/academia-api/pkg/database"
	"github.com/academia-sys/academia-api/pkg/logger"
	corsmiddleware "github.com/academia-sys/academia-api/pkg/middleware/cors"
	reqidmiddleware "github.com/academia-sys/academia-api/pkg/middleware/requestid"
)

// @title Academia API
// @version 1.0.0
// @description School administration backend: people, courses, grades, reports and attendance.
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	// The API stays up without Redis. Report caching degrades to a miss
	// on every read.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	personRepo := repository.NewPersonRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	reportRepo := repository.NewReportRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:             cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	reportSvc := service.NewReportService(reportRepo, cacheRepo, metricsSvc, logr, service.ReportConfig{
		FinalColumnID: cfg.Grading.FinalColumnID,
		CacheTTL:      cfg.Reports.CacheTTL,
	})
	gradeSvc := service.NewGradeService(gradeRepo, enrollmentRepo, userRepo, reportSvc, validate, logr, service.GradeConfig{
		SystemActorID: cfg.Grading.SystemActorID,
		MinScore:      cfg.Grading.MinScore,
		MaxScore:      cfg.Grading.MaxScore,
	})
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, reportSvc, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, userRepo, validate, logr)
	studentSvc := service.NewPersonService(personRepo, models.PersonKindStudent, validate, logr)
	teacherSvc := service.NewPersonService(personRepo, models.PersonKindTeacher, validate, logr)
	staffSvc := service.NewPersonService(personRepo, models.PersonKindStaff, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, personRepo, validate, logr)
	periodSvc := service.NewPeriodService(periodRepo, validate, logr)
	userSvc := service.NewUserService(userRepo, personRepo, authSvc, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewPersonHandler(studentSvc)
	teacherHandler := handler.NewPersonHandler(teacherSvc)
	staffHandler := handler.NewPersonHandler(staffSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	periodHandler := handler.NewPeriodHandler(periodSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	userHandler := handler.NewUserHandler(userSvc)
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

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admin := string(models.RoleSystemAdmin)
	teacher := string(models.RoleTeacherApp)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/verify-email", authHandler.VerifyEmail)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)

		session := auth.Group("")
		session.Use(middleware.JWT(authSvc))
		session.GET("/me", authHandler.Me)
		session.POST("/logout", authHandler.Logout)
		session.POST("/change-password", authHandler.ChangePassword)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	students := protected.Group("/students")
	{
		students.GET("", middleware.RBAC(admin, teacher), studentHandler.List)
		students.GET("/:id", middleware.RBAC(admin, teacher, middleware.SelfAccess), studentHandler.Get)
		students.POST("", middleware.RBAC(admin), studentHandler.Create)
		students.PUT("/:id", middleware.RBAC(admin), studentHandler.Update)
		students.DELETE("/:id", middleware.RBAC(admin), studentHandler.Delete)
	}

	teachers := protected.Group("/teachers")
	{
		teachers.GET("", middleware.RBAC(admin, teacher), teacherHandler.List)
		teachers.GET("/:id", middleware.RBAC(admin, teacher, middleware.SelfAccess), teacherHandler.Get)
		teachers.POST("", middleware.RBAC(admin), teacherHandler.Create)
		teachers.PUT("/:id", middleware.RBAC(admin), teacherHandler.Update)
		teachers.DELETE("/:id", middleware.RBAC(admin), teacherHandler.Delete)
	}

	staff := protected.Group("/staff")
	staff.Use(middleware.RBAC(admin))
	{
		staff.GET("", staffHandler.List)
		staff.GET("/:id", staffHandler.Get)
		staff.POST("", staffHandler.Create)
		staff.PUT("/:id", staffHandler.Update)
		staff.DELETE("/:id", staffHandler.Delete)
	}

	protected.GET("/cycles", courseHandler.ListCycles)

	courses := protected.Group("/courses")
	{
		courses.GET("", courseHandler.List)
		courses.GET("/:id", courseHandler.Get)
		courses.POST("", middleware.RBAC(admin), courseHandler.Create)
		courses.PUT("/:id", middleware.RBAC(admin), courseHandler.Update)
		courses.DELETE("/:id", middleware.RBAC(admin), courseHandler.Delete)
	}

	subjects := protected.Group("/subjects")
	{
		subjects.GET("", subjectHandler.List)
		subjects.GET("/:id", subjectHandler.Get)
		subjects.POST("", middleware.RBAC(admin), subjectHandler.Create)
		subjects.PUT("/:id", middleware.RBAC(admin), subjectHandler.Update)
		subjects.DELETE("/:id", middleware.RBAC(admin), subjectHandler.Delete)
	}

	periods := protected.Group("/periods")
	{
		periods.GET("", periodHandler.List)
		periods.GET("/active", periodHandler.Active)
		periods.GET("/:id", periodHandler.Get)
		periods.POST("", middleware.RBAC(admin), periodHandler.Create)
		periods.POST("/:id/activate", middleware.RBAC(admin), periodHandler.Activate)
	}

	enrollments := protected.Group("/enrollments")
	{
		enrollments.GET("", middleware.RBAC(admin, teacher), enrollmentHandler.List)
		enrollments.POST("", middleware.RBAC(admin), enrollmentHandler.Create)
		enrollments.DELETE("/:id", middleware.RBAC(admin), enrollmentHandler.Withdraw)
	}

	grades := protected.Group("/grades")
	{
		grades.GET("/types", gradeHandler.ListTypes)
		grades.GET("", middleware.RBAC(admin, teacher), gradeHandler.List)
		grades.POST("", middleware.RBAC(admin, teacher), gradeHandler.Upsert)
	}

	reports := protected.Group("/reports")
	{
		reports.GET("/students/:id/grades",
			middleware.RBAC(admin, teacher, middleware.SelfAccess),
			reportHandler.StudentReport)
		reports.GET("/courses/:courseId/subjects/:subjectId/grades",
			middleware.RBAC(admin, teacher),
			reportHandler.CourseSubjectReport)
		reports.GET("/courses/:courseId/subjects/:subjectId/grades/export",
			middleware.RBAC(admin, teacher),
			reportHandler.ExportCourseSubjectReport)
	}

	attendance := protected.Group("/attendance")
	{
		attendance.GET("/types", attendanceHandler.ListTypes)
		attendance.GET("", middleware.RBAC(admin, teacher), attendanceHandler.List)
		attendance.POST("", middleware.RBAC(admin, teacher), attendanceHandler.Record)
		attendance.GET("/students/:id/summary",
			middleware.RBAC(admin, teacher, middleware.SelfAccess),
			attendanceHandler.Summary)
	}

	users := protected.Group("/users")
	users.Use(middleware.RBAC(admin))
	{
		users.GET("", userHandler.List)
		users.GET("/:id", userHandler.Get)
		users.POST("", userHandler.Create)
		users.DELETE("/:id", userHandler.Deactivate)
	}

	protected.GET("/metrics/snapshot", middleware.RBAC(admin), metricsHandler.Snapshot)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
