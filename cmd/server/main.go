package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spreadwatch/internal/bot"
	"spreadwatch/internal/cache"
	"spreadwatch/internal/config"
	"spreadwatch/internal/curve"
	"spreadwatch/internal/db"
	"spreadwatch/internal/handler"
	"spreadwatch/internal/job"
	"spreadwatch/internal/provider"
	"spreadwatch/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "spreadwatch/docs"
)

var (
	loadEnvFunc          = godotenv.Load
	loadConfigFunc       = config.Load
	initPostgresFunc     = db.InitPostgres
	initRedisFunc        = cache.InitRedis
	initTracerFunc       = tracing.InitTracer
	newRepositoryFunc    = curve.NewRepository
	newMarketsFetcherFunc = func(tracer trace.Tracer, baseURL string) curve.MarketsFetcher {
		return provider.NewPendleProvider(tracer, baseURL)
	}
	newCurveServiceFunc    = curve.NewService
	newSnapshotJobFunc     = job.NewSnapshotJob
	startJobFunc           = func(j *job.SnapshotJob, ctx context.Context) { go j.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Spreadwatch API
// @version         1.0
// @description     Term-spread signal service for tokenized-yield markets.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis
	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Create repository and run migrations
	repo := newRepositoryFunc(db.Pool, tracer)
	if db.Pool != nil {
		if err := repo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	// Create provider and curve service
	fetcher := newMarketsFetcherFunc(tracer, cfg.MarketAPIBase)
	curveService := newCurveServiceFunc(tracer, fetcher, repo, cache.Client, curve.Config{
		AssetSymbol:     cfg.AssetSymbol,
		RelatedNames:    cfg.RelatedMarketNames,
		ChainIDs:        cfg.ChainIDs,
		HistoryCacheTTL: time.Duration(cfg.HistoryCacheSecs) * time.Second,
	})

	// Start daily snapshot job (background goroutine, stopped by ctx cancel)
	snapshotJob := newSnapshotJobFunc(tracer, curveService, cfg.SnapshotHourUTC)
	startJobFunc(snapshotJob, ctx)

	// Start Telegram bot
	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	startTelegramBotFunc(curveService)

	// Create handlers and routes
	h := newHandlerFunc(tracer, curveService, curveService)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("spreadwatch"))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
