package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/creatorjobs/creatorjobs-api/config"
	"github.com/creatorjobs/creatorjobs-api/internal/cache"
	"github.com/creatorjobs/creatorjobs-api/internal/database/postgres"
	"github.com/creatorjobs/creatorjobs-api/internal/forms"
	"github.com/creatorjobs/creatorjobs-api/internal/handlers"
	"github.com/creatorjobs/creatorjobs-api/internal/mapping"
	"github.com/creatorjobs/creatorjobs-api/internal/middleware"
	"github.com/creatorjobs/creatorjobs-api/internal/saga"
	"github.com/creatorjobs/creatorjobs-api/internal/services"
	"github.com/creatorjobs/creatorjobs-api/pkg/db"
	"github.com/creatorjobs/creatorjobs-api/pkg/httpclient"
	"github.com/creatorjobs/creatorjobs-api/pkg/jwt"
	"github.com/creatorjobs/creatorjobs-api/pkg/logger"
	"github.com/creatorjobs/creatorjobs-api/pkg/memberstack"
	"github.com/creatorjobs/creatorjobs-api/pkg/metrics"
	"github.com/creatorjobs/creatorjobs-api/pkg/profiling"
	"github.com/creatorjobs/creatorjobs-api/pkg/sheetdb"
	"github.com/creatorjobs/creatorjobs-api/pkg/tracing"
	"github.com/creatorjobs/creatorjobs-api/pkg/webflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const maxPublishBodyBytes = 64 << 10

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: cfg.Observability.ServiceName,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting creatorjobs-api",
		zap.String("environment", cfg.Server.AppEnv),
		zap.String("port", cfg.Server.Port))

	shutdownTracer, err := tracing.InitTracer(
		cfg.Observability.ServiceName,
		cfg.Observability.ServiceNamespace,
		cfg.Observability.ServiceVersion,
		cfg.Observability.ServiceInstanceID,
		cfg.Server.AppEnv,
		cfg.Observability.ExporterEndpoint,
	)
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	stopProfiler, err := profiling.Start(cfg.Profiling, profiling.Labels{
		Service:     cfg.Observability.ServiceName,
		Namespace:   cfg.Observability.ServiceNamespace,
		Version:     cfg.Observability.ServiceVersion,
		InstanceID:  cfg.Observability.ServiceInstanceID,
		Environment: cfg.Server.AppEnv,
	})
	if err != nil {
		logger.Fatal("Failed to initialize profiling", zap.Error(err))
	}

	metrics.RecordInfrastructureMetrics()

	ctx := context.Background()

	// Saga log and compensation outbox: Postgres normally, in-memory when
	// running without a database
	var publishLog saga.PublishLog
	var outboxStore saga.OutboxStore
	if cfg.Database.WorkOffline {
		logger.Warn("Database offline mode: publish log and outbox are in-memory only")
		publishLog = saga.NewMemoryPublishLog()
		outboxStore = saga.NewMemoryOutbox()
	} else {
		pool, err := db.NewPool(ctx, db.PoolConfig{
			URL:      cfg.Database.URL,
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close(pool)
		publishLog = postgres.NewPublishLogRepository(pool)
		outboxStore = postgres.NewOutboxRepository(pool)
	}

	httpClient := httpclient.NewStandardClient()
	cmsClient := webflow.NewClient(cfg.CMS, httpClient)
	sheetClient := sheetdb.NewClient(cfg.SheetDB, httpClient)
	membershipClient := memberstack.NewClient(cfg.Membership, httpClient)

	var options mapping.OptionResolver
	if cfg.CMS.WorkOffline {
		logger.Warn("CMS offline mode: option lookups resolve from an empty table")
		options = mapping.NewStaticOptions(map[string]map[string]string{})
	} else {
		options = mapping.NewCachedOptions(func(ctx context.Context, table string) (map[string]string, error) {
			collectionID, ok := cfg.CMS.OptionCollections[table]
			if !ok || collectionID == "" {
				return nil, fmt.Errorf("no collection configured for option table %s", table)
			}
			return cmsClient.FetchOptionTable(ctx, collectionID)
		}, cfg.Cache.OptionTTLSeconds)
	}

	mapper := mapping.NewMapper(mapping.JobSpecs(), options, !cfg.IsDevelopment())
	collector := forms.NewCollector(forms.JobPostingSchema())

	sheetBackend := services.NewSheetBackend(sheetClient)
	cmsBackend := services.NewCMSBackend(cmsClient, cfg.CMS.JobsCollectionID)
	membershipBackend := services.NewMembershipBackend(membershipClient)

	coordinator := saga.NewCoordinator(
		sheetBackend,
		cmsBackend,
		membershipBackend,
		mapper,
		publishLog,
		outboxStore,
		saga.NewMemoryIdempotency(time.Duration(cfg.Publish.IdempotencyTTLMinutes)*time.Minute),
		saga.CreditPolicy{
			Standard: cfg.Publish.StandardJobCredits,
			Premium:  cfg.Publish.PremiumJobCredits,
		},
	)

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	outboxWorker := saga.NewOutboxWorker(
		outboxStore,
		sheetBackend,
		time.Duration(cfg.Publish.OutboxIntervalSeconds)*time.Second,
	)
	outboxWorker.Start(workerCtx)

	jobCache := cache.NewJobCache(cfg.Cache.JobTTLSeconds)
	publishService := services.NewPublishService(
		collector,
		forms.JobPostingSchema(),
		coordinator,
		jobCache,
		cfg.Publish.SupportEmail,
	)
	jobsService := services.NewJobsService(cmsClient, sheetClient, jobCache, cfg.CMS.JobsCollectionID)

	tokens := jwt.NewTokenManager(
		cfg.MemberSession.JWTSecret,
		cfg.MemberSession.JWTIssuer,
		cfg.MemberSession.SessionTTLHours,
	)

	router := setupRouter(cfg, tokens,
		handlers.NewPublishHandler(publishService),
		handlers.NewJobsHandler(jobsService),
		handlers.NewSessionHandler(tokens, membershipBackend, cfg.MemberSession.CookieDomain, cfg.MemberSession.CookieSecure),
		handlers.NewHealthHandler(cfg.Observability.ServiceVersion),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}

	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error("Failed to shut down tracer", zap.Error(err))
	}
	stopProfiler()

	logger.Info("Shutdown complete")
}

func setupRouter(
	cfg *config.Config,
	tokens *jwt.TokenManager,
	publishHandler *handlers.PublishHandler,
	jobsHandler *handlers.JobsHandler,
	sessionHandler *handlers.SessionHandler,
	healthHandler *handlers.HealthHandler,
) *gin.Engine {
	gin.SetMode(cfg.Server.GinMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.SecurityHeaders(),
		middleware.Observability(),
		otelgin.Middleware(cfg.Observability.ServiceName),
	)

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Api-Token"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	api.GET("/healthcheck", healthHandler.Healthcheck)
	api.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	v1 := api.Group("/v1", middleware.RateLimit(10, 20))

	jobs := v1.Group("/jobs")
	jobs.GET("", middleware.TokenAuth(cfg.Auth.JobsAPIToken), jobsHandler.List)
	jobs.GET("/batch", middleware.TokenAuth(cfg.Auth.JobsAPIToken), jobsHandler.Batch)
	jobs.GET("/:id", middleware.TokenAuth(cfg.Auth.JobsAPIToken), jobsHandler.Get)
	jobs.POST("/publish",
		middleware.BodySizeLimit(maxPublishBodyBytes),
		middleware.PublishRateLimit(),
		middleware.MemberSession(tokens),
		publishHandler.Publish,
	)

	v1.GET("/members/me/jobs", middleware.MemberSession(tokens), jobsHandler.MemberJobs)

	auth := v1.Group("/auth", middleware.TokenAuth(cfg.Auth.InternalAPIToken))
	auth.POST("/session", sessionHandler.Create)

	return router
}
