package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// envPaths are tried in order; the first .env found wins.
var envPaths = []string{".env", "../.env", "../../.env"}

type Config struct {
	Env     string
	Port    string
	GinMode string

	Log      LogConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Solver   SolverConfig
	Redis    RedisConfig
	Cache    CacheConfig
}

type LogConfig struct {
	Level  string
	Format string
}

// DatabaseConfig selects postgres when URL is set, sqlite at Path otherwise.
type DatabaseConfig struct {
	URL  string
	Path string
}

type AuthConfig struct {
	JWTSecret       string
	APIMasterSecret string
	AdminUsername   string
	AdminPassword   string
}

// SolverConfig bounds every solve and the feasibility sweep.
type SolverConfig struct {
	TimeBudget       time.Duration
	Backend          string
	MaxNodes         int
	SweepProbeBudget time.Duration
	SweepConcurrency int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CacheConfig struct {
	TTL time.Duration
}

// Enabled reports whether a redis address was configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

func Load() (*Config, error) {
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{
		Env:     v.GetString("ENV"),
		Port:    v.GetString("PORT"),
		GinMode: v.GetString("GIN_MODE"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Database = DatabaseConfig{
		URL:  v.GetString("DATABASE_URL"),
		Path: v.GetString("DATA_PATH"),
	}

	cfg.Auth = AuthConfig{
		JWTSecret:       v.GetString("JWT_SECRET"),
		APIMasterSecret: v.GetString("API_MASTER_SECRET"),
		AdminUsername:   v.GetString("ADMIN_USERNAME"),
		AdminPassword:   v.GetString("ADMIN_PASSWORD"),
	}

	cfg.Solver = SolverConfig{
		TimeBudget:       parseDuration(v.GetString("SOLVER_TIME_BUDGET"), 30*time.Second),
		Backend:          v.GetString("SOLVER_BACKEND"),
		MaxNodes:         v.GetInt("SOLVER_MAX_NODES"),
		SweepProbeBudget: parseDuration(v.GetString("SWEEP_PROBE_BUDGET"), 10*time.Second),
		SweepConcurrency: v.GetInt("SWEEP_CONCURRENCY"),
	}

	cfg.Redis = RedisConfig{
		Addr:     v.GetString("REDIS_ADDR"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		TTL: parseDuration(v.GetString("CACHE_TTL"), 10*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", "8000")
	v.SetDefault("GIN_MODE", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DATA_PATH", "api_keys.db")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("API_MASTER_SECRET", "")
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD", "admin123")

	v.SetDefault("SOLVER_TIME_BUDGET", "30s")
	v.SetDefault("SOLVER_BACKEND", "glpk")
	v.SetDefault("SOLVER_MAX_NODES", 200000)
	v.SetDefault("SWEEP_PROBE_BUDGET", "10s")
	v.SetDefault("SWEEP_CONCURRENCY", 4)

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "10m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}
