// Command nk-server starts the NutriKeeper HTTP API and its gRPC health listener.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/nutrikeeper/internal/analyzer"
	"github.com/and161185/nutrikeeper/internal/config"
	"github.com/and161185/nutrikeeper/internal/limiter"
	"github.com/and161185/nutrikeeper/internal/migrate"
	"github.com/and161185/nutrikeeper/internal/repository/postgres"
	grpcserver "github.com/and161185/nutrikeeper/internal/server/grpc"
	httpserver "github.com/and161185/nutrikeeper/internal/server/http"
	"github.com/and161185/nutrikeeper/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func newLogger(dev bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if dev {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// main loads configuration, runs migrations, and serves until SIGINT/SIGTERM.
func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		zap.NewExample().Fatal("config", zap.Error(err))
	}

	logger := newLogger(cfg.Dev)
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
		zap.String("tz", cfg.Location.String()),
	)
	if cfg.Analyzer.APIKey == "" {
		logger.Warn("analyzer API key is empty; draft creation will fail")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ver, err := migrate.Up(ctx, cfg.DSN, logger)
	if err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}
	logger.Info("schema ready", zap.Int64("version", ver))

	db, err := postgres.New(ctx, cfg.DSN)
	if err != nil {
		logger.Fatal("pgxpool.New", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	users := postgres.NewUserRepo(db)
	goals := postgres.NewGoalRepo(db)
	meals := postgres.NewMealRepo(db)
	water := postgres.NewWaterRepo(db)
	weights := postgres.NewWeightRepo(db)
	drafts := postgres.NewDraftRepo(db)

	lim := limiter.NewPG(db.Pool, cfg.Login)
	gateway := analyzer.NewClient(cfg.Analyzer, logger.Named("analyzer"))

	// Services
	goalSvc := service.NewGoalService(goals)
	svc := httpserver.Services{
		Auth:       service.NewAuthService(users, []byte(cfg.JWTKey), cfg.AccessTTL, lim),
		Drafts:     service.NewDraftService(drafts, gateway, cfg.Location, logger.Named("drafts")),
		Meals:      service.NewMealService(meals, cfg.Location),
		Water:      service.NewWaterService(water),
		Weight:     service.NewWeightService(weights, cfg.Location),
		Goals:      goalSvc,
		Onboarding: goalSvc,
		Dashboard: service.NewDashboardService(service.DashboardDeps{
			Users: users, Goals: goals, Meals: meals, Water: water, Weights: weights,
		}, cfg.Location),
	}

	api := httpserver.New(svc, httpserver.Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		CORSOrigins:    cfg.CORSOrigins,
		Location:       cfg.Location,
	}, logger)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		// analyzer calls run inside the request
		WriteTimeout: cfg.Analyzer.Timeout + 30*time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var hs *grpcserver.Health
	if cfg.HealthAddr != "" {
		hs = grpcserver.NewHealth(logger.Named("health"), cfg.Dev)
		lis, err := net.Listen("tcp", cfg.HealthAddr)
		if err != nil {
			logger.Fatal("listen health", zap.Error(err))
		}
		go hs.Watch(ctx, db, 10*time.Second)
		go func() {
			logger.Info("health listening", zap.String("addr", cfg.HealthAddr))
			errCh <- hs.Server.Serve(lis)
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if hs != nil {
		hs.Shutdown(5 * time.Second)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
