package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"

	otpapp "credit-risk-core/internal/application/otp"
	riskapp "credit-risk-core/internal/application/risk"
	otpdomain "credit-risk-core/internal/domain/otp"
	"credit-risk-core/internal/domain/risk"
	"credit-risk-core/internal/infrastructure/cache/redis"
	"credit-risk-core/internal/infrastructure/database/postgres"
	"credit-risk-core/internal/infrastructure/http/router"
	"credit-risk-core/internal/infrastructure/memory"
	"credit-risk-core/internal/infrastructure/notification"
	"credit-risk-core/internal/infrastructure/ratelimit"
	"credit-risk-core/internal/infrastructure/sweeper"
	"credit-risk-core/internal/infrastructure/window"
	"credit-risk-core/internal/interfaces/http/handler"
	"credit-risk-core/internal/pkg/config"
	"credit-risk-core/internal/pkg/logger"
)

const version = "1.0.0"

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("Warning: Could not load config file, using defaults: %v", err)
		cfg = config.DefaultConfig()
	}

	zlog, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	zlog.Info("starting credit risk core",
		zap.String("version", version),
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)))

	clock := clockz.RealClock

	// Database connection. A failed connection drops the service into
	// standalone mode backed by in-memory stores.
	var dbClient *postgres.Client
	var caseStore risk.CaseStore
	var otpStore otpdomain.Store

	dbClient, err = postgres.NewClient(postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		zlog.Warn("database connection failed, running in standalone mode", zap.Error(err))
		dbClient = nil
		caseStore = memory.NewCaseStore()
		otpStore = memory.NewOtpStore()
	} else {
		zlog.Info("connected to postgres",
			zap.String("host", cfg.Database.Host), zap.Int("port", cfg.Database.Port))
		if err := dbClient.Migrate(); err != nil {
			zlog.Fatal("migration failed", zap.Error(err))
		}
		caseStore = postgres.NewCaseRepository(dbClient)
		otpStore = postgres.NewOtpRepository(dbClient)
	}

	// Redis connection. Optional: without it windowed counters live in
	// process memory instead of being shared across instances.
	var redisClient *redis.Client
	var windowStore risk.WindowStore
	var counterSweepers []sweeper.CounterSweeper

	memWindows := window.New(cfg.Risk.Window(), clock)
	windowStore = memWindows
	counterSweepers = append(counterSweepers, memWindows)

	redisClient, err = redis.NewClient(redis.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		zlog.Warn("redis connection failed, using in-process counters", zap.Error(err))
		redisClient = nil
	} else {
		zlog.Info("connected to redis",
			zap.String("host", cfg.Redis.Host), zap.Int("port", cfg.Redis.Port))
		windowStore = redis.NewWindowStore(redisClient, cfg.Risk.Window(), clock)
	}

	// Rate limiter
	limiter := ratelimit.New(ratelimit.Config{
		Enabled:         cfg.RateLimit.Enabled,
		Burst:           cfg.RateLimit.Burst,
		RefillPerSecond: cfg.RateLimit.RefillPerSecond,
	}, clock)
	counterSweepers = append(counterSweepers, limiter)

	// Case tracker and scorer
	tracker := risk.NewTracker(caseStore, clock, zlog)

	engine := risk.NewRuleEngine(
		risk.NewUnusualHourRule(),
		risk.NewNewAccountRule(),
		risk.NewDormantAccountRule(),
		risk.NewRoundAmountRule(),
		risk.NewBlockedAgentRule(cfg.Risk.BlockedUserAgents),
	)

	scorer := risk.NewScorer(windowStore, engine, tracker, nil, risk.ScorerConfig{
		Enabled:                  cfg.Risk.Enabled,
		HighAmountThreshold:      cfg.Risk.GetHighAmountThreshold(),
		MediumAmountThreshold:    cfg.Risk.GetMediumAmountThreshold(),
		FrequencyThreshold:       int64(cfg.Risk.FrequencyThreshold),
		CaseWorthyScoreThreshold: cfg.Risk.CaseWorthyScoreThreshold,
		HighLevelScore:           cfg.Risk.HighLevelScore,
		MediumLevelScore:         cfg.Risk.MediumLevelScore,
	}, zlog)

	// OTP verifier
	verifier := otpdomain.NewVerifier(
		otpStore,
		notification.NewLogDispatcher(zlog),
		clock,
		otpdomain.VerifierConfig{
			Enabled:    cfg.Otp.Enabled,
			CodeLength: cfg.Otp.Length,
			Ttl:        cfg.Otp.Ttl(),
			Issuer:     cfg.Otp.TotpIssuer,
		},
		zlog,
	)

	// Background cleanup
	sw := sweeper.New(sweeper.Config{
		Enabled:         cfg.Sweeper.Enabled,
		CounterInterval: cfg.Sweeper.CounterInterval,
		OtpInterval:     cfg.Sweeper.OtpInterval,
	}, counterSweepers, verifier, clock, zlog)
	sw.Start()

	// Use cases
	scoringService := riskapp.WithLogging(riskapp.NewUseCase(scorer, limiter), zlog)
	otpUseCase := otpapp.NewUseCase(verifier)

	// Handlers
	riskHandler := handler.NewRiskHandler(scoringService, tracker)
	otpHandler := handler.NewOtpHandler(otpUseCase)

	var dbHealthChecker handler.HealthChecker
	var redisHealthChecker handler.HealthChecker
	if dbClient != nil {
		dbHealthChecker = dbClient
	}
	if redisClient != nil {
		redisHealthChecker = redisClient
	}
	healthHandler := handler.NewHealthHandler(dbHealthChecker, redisHealthChecker)

	// Create router
	r := router.NewRouter(riskHandler, otpHandler, healthHandler, cfg.Metrics.Enabled)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		zlog.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zlog.Error("server shutdown error", zap.Error(err))
	}

	sw.Stop()

	// Close connections
	if dbClient != nil {
		dbClient.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}

	zlog.Info("server stopped")
}
