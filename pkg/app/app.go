package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/arnavshah/shift-optimizer/pkg/auth"
	"github.com/arnavshah/shift-optimizer/pkg/cache"
	"github.com/arnavshah/shift-optimizer/pkg/config"
	"github.com/arnavshah/shift-optimizer/pkg/database"
	"github.com/arnavshah/shift-optimizer/pkg/handlers"
	"github.com/arnavshah/shift-optimizer/pkg/metrics"
	"github.com/arnavshah/shift-optimizer/pkg/milp"
	"github.com/arnavshah/shift-optimizer/pkg/scheduler"
)

// App is the assembled service
type App struct {
	Router  *gin.Engine
	Handler *handlers.Handler
	redis   *redis.Client
}

// New wires storage, cache, solver and routes from cfg. Redis is optional;
// an unreachable server disables the cache instead of failing startup.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	} else if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	auth.Configure(cfg.Auth)
	if cfg.Auth.APIMasterSecret == "" {
		logger.Warn("API_MASTER_SECRET is not set; every API key will be rejected")
	}

	db, err := database.InitDB(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := auth.EnsureAdminExists(db, logger); err != nil {
		return nil, fmt.Errorf("ensure admin: %w", err)
	}

	a := &App{}
	var resultCache *cache.ResultCache
	if cfg.Redis.Enabled() {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, result cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			a.redis = client
			resultCache = cache.NewResultCache(client, cfg.Cache.TTL, logger)
		}
	}

	solver, err := milp.NewSolver(cfg.Solver.Backend, cfg.Solver.MaxNodes, logger.Named("milp"))
	if err != nil {
		return nil, err
	}
	m := metrics.New()

	a.Handler = &handlers.Handler{
		DB: db,
		Engine: scheduler.NewEngine(solver,
			scheduler.WithTimeBudget(cfg.Solver.TimeBudget),
			scheduler.WithLogger(logger.Named("scheduler")),
			scheduler.WithObserver(m),
		),
		Solver:  solver,
		Cache:   resultCache,
		Metrics: m,
		Logger:  logger,
		Sweep: scheduler.SweepOptions{
			ProbeBudget: cfg.Solver.SweepProbeBudget,
			Concurrency: cfg.Solver.SweepConcurrency,
			Logger:      logger.Named("sweep"),
		},
	}
	a.Router = handlers.NewRouter(a.Handler)
	return a, nil
}

// Close releases the database and redis connections
func (a *App) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.Handler != nil && a.Handler.DB != nil {
		if sqlDB, err := a.Handler.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
