package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/api/swagger"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/handler"
	internalmiddleware "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/middleware"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/repository"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/service"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/cache"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/config"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/database"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/links"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/logger"
	corsmiddleware "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/middleware/cors"
	reqidmiddleware "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/middleware/requestid"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/upstream"
)

// @title Career Appointment Booking Gateway
// @version 1.0.0
// @description Backend-for-frontend that walks talents through booking a career appointment.
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

	location, err := time.LoadLocation(cfg.Booking.Timezone)
	if err != nil {
		logr.Warn("unknown appointment timezone, using UTC", zap.String("timezone", cfg.Booking.Timezone), zap.Error(err))
		location = time.UTC
	}

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	metricsSvc := service.NewMetricsService()
	validate := service.NewValidator()
	checks := map[string]handler.ReadinessCheck{}

	client, err := upstream.NewClient(upstream.Config{
		BaseURL:        cfg.Upstream.BaseURL,
		AuthURL:        cfg.Upstream.AuthURL,
		Timeout:        cfg.Upstream.Timeout,
		RateLimitQPS:   cfg.Upstream.RateLimitQPS,
		RateLimitBurst: cfg.Upstream.RateLimitBurst,
		Logger:         logr.Named("upstream"),
		Observer:       metricsSvc.ObserveUpstream,
	})
	if err != nil {
		logr.Fatal("failed to build upstream client", zap.Error(err))
	}

	var cacheRepo service.CacheRepository
	if cfg.Catalog.CacheEnabled {
		redisClient, err := cache.NewRedis(rootCtx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, catalog cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close() //nolint:errcheck
			cacheRepo = repository.NewCacheRepository(redisClient)
			checks["redis"] = redisCheck(redisClient)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Catalog.CacheTTL, logr, cfg.Catalog.CacheEnabled)

	auditCfg := service.AuditConfig{Workers: cfg.Audit.Workers, MaxRetries: cfg.Audit.MaxRetries}
	auditSvc := service.NewAuditService(nil, logr, auditCfg)
	if cfg.Audit.Enabled {
		db, err := database.NewPostgres(rootCtx, cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect audit database", zap.Error(err))
		}
		defer db.Close() //nolint:errcheck
		auditSvc = service.NewAuditService(repository.NewBookingAttemptRepository(db), logr, auditCfg)
		checks["database"] = databaseCheck(db)
	}

	authSessions := repository.NewAuthSessionRepository()
	workflowSessions := repository.NewWorkflowSessionRepository()
	catalogRepo := repository.NewCatalogRepository(client)
	slotRepo := repository.NewSlotRepository(client)
	appointmentRepo := repository.NewAppointmentRepository(client)

	authSvc := service.NewAuthService(client, authSessions, workflowSessions, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		SessionTTL:        cfg.Sessions.AuthTTL,
		Issuer:            cfg.JWT.Issuer,
	})
	catalogSvc := service.NewCatalogService(catalogRepo, cacheSvc, cfg.Catalog.CacheTTL, logr)
	slotSvc := service.NewSlotService(slotRepo, logr)
	bookingSvc := service.NewBookingService(appointmentRepo, validate, metricsSvc, logr, cfg.Booking.NotesMaxLength)
	appointmentSvc := service.NewAppointmentService(appointmentRepo, validate, location, logr)
	workflowSvc := service.NewWorkflowService(service.WorkflowServiceParams{
		Agendas:    catalogSvc,
		Slots:      slotSvc,
		Booking:    bookingSvc,
		Store:      workflowSessions,
		Sessions:   authSvc,
		Audit:      auditSvc,
		Metrics:    metricsSvc,
		Logger:     logr,
		SessionTTL: cfg.Sessions.WorkflowTTL,
	})

	linkSvc := service.NewDownloadLinkService(
		links.NewSigner(cfg.Links.Secret, cfg.Links.TTL),
		authSessions,
		appointmentSvc,
		validate,
		cfg.Links.PublicBaseURL+cfg.APIPrefix+"/links",
		logr,
	)

	sweeper, err := service.NewSessionSweeper(authSessions, workflowSessions, metricsSvc, logr, cfg.Sessions.SweepSpec)
	if err != nil {
		logr.Fatal("invalid session sweep schedule", zap.Error(err))
	}

	auditSvc.Start(rootCtx)
	sweeper.Start()

	authHandler := handler.NewAuthHandler(authSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	workflowHandler := handler.NewWorkflowHandler(workflowSvc)
	appointmentHandler := handler.NewAppointmentHandler(appointmentSvc)
	linkHandler := handler.NewDownloadLinkHandler(linkSvc)
	attemptHandler := handler.NewBookingAttemptHandler(auditSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.WithResponseMeta())
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics", "/health"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", internalmiddleware.Audit(auditSvc, "auth.login", "session"), authHandler.Login)
	api.POST("/auth/register", internalmiddleware.Audit(auditSvc, "auth.register", "user"), authHandler.Register)
	api.GET("/links/:token", linkHandler.Serve)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))

	secured.POST("/auth/logout", internalmiddleware.Audit(auditSvc, "auth.logout", "session"), authHandler.Logout)
	secured.GET("/auth/session", authHandler.Session)

	staffOnly := internalmiddleware.RequireRoles(models.RoleUniversityStaff, models.RoleAdmin)

	secured.GET("/catalog/themes", catalogHandler.Themes)
	secured.GET("/catalog/agendas", catalogHandler.Agendas)

	workflows := secured.Group("/workflows")
	workflows.POST("", workflowHandler.Start)
	workflows.GET("/:id", workflowHandler.Get)
	workflows.DELETE("/:id", workflowHandler.Abandon)
	workflows.POST("/:id/agenda", workflowHandler.SelectAgenda)
	workflows.DELETE("/:id/agenda", workflowHandler.ChangeAgenda)
	workflows.PUT("/:id/date", workflowHandler.SetDate)
	workflows.POST("/:id/slots/refresh", workflowHandler.RefreshSlots)
	workflows.POST("/:id/slot", workflowHandler.SelectSlot)
	workflows.POST("/:id/back", workflowHandler.Back)
	workflows.POST("/:id/submit",
		internalmiddleware.RateLimitPerUser(cfg.Booking.RateLimitPerMinute, cfg.Booking.RateLimitBurst, logr),
		workflowHandler.Submit,
	)

	appointments := secured.Group("/appointments")
	appointments.GET("", appointmentHandler.List)
	appointments.GET("/export.csv", appointmentHandler.ExportCSV)
	appointments.GET("/statistics", staffOnly, appointmentHandler.Statistics)
	appointments.GET("/:id", appointmentHandler.Get)
	appointments.POST("/:id/cancel", internalmiddleware.Audit(auditSvc, "appointment.cancel", "appointment"), appointmentHandler.Cancel)
	appointments.PATCH("/:id/feedback", internalmiddleware.Audit(auditSvc, "appointment.feedback", "appointment"), appointmentHandler.Feedback)
	appointments.GET("/:id/calendar.ics", appointmentHandler.Calendar)
	appointments.GET("/:id/confirmation.pdf", appointmentHandler.Confirmation)
	appointments.POST("/:id/links", linkHandler.Issue)

	secured.GET("/bookings/attempts/summary", staffOnly, attemptHandler.Summary)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("server forced to shutdown", zap.Error(err))
	}
	sweeper.Stop(ctx)
	auditSvc.Stop()
}

func redisCheck(client *redis.Client) handler.ReadinessCheck {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

func databaseCheck(db *sqlx.DB) handler.ReadinessCheck {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}
