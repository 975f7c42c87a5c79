package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Optimizer   OptimizerConfig
	Recommender RecommenderConfig
	Cache       CacheConfig
	Export      ExportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// OptimizerConfig holds tuning constants for schedule generation.
type OptimizerConfig struct {
	SessionMinutes int
	BreakMinutes   int
	MaxDailyHours  float64
	DurationSlack  float64
	MinChunkHours  float64
	DayCyclePasses int
}

// RecommenderConfig governs the similarity engine.
type RecommenderConfig struct {
	TopK           int
	MinConfidence  float64
	RetrainWorkers int
}

// CacheConfig governs response caching behaviour.
type CacheConfig struct {
	Enabled           bool
	RecommendationTTL time.Duration
	ScheduleTTL       time.Duration
}

// ExportConfig toggles schedule export formats.
type ExportConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Optimizer = OptimizerConfig{
		SessionMinutes: v.GetInt("OPTIMIZER_SESSION_MINUTES"),
		BreakMinutes:   v.GetInt("OPTIMIZER_BREAK_MINUTES"),
		MaxDailyHours:  v.GetFloat64("OPTIMIZER_MAX_DAILY_HOURS"),
		DurationSlack:  v.GetFloat64("OPTIMIZER_DURATION_SLACK"),
		MinChunkHours:  v.GetFloat64("OPTIMIZER_MIN_CHUNK_HOURS"),
		DayCyclePasses: v.GetInt("OPTIMIZER_DAY_CYCLE_PASSES"),
	}

	cfg.Recommender = RecommenderConfig{
		TopK:           v.GetInt("RECOMMENDER_TOP_K"),
		MinConfidence:  v.GetFloat64("RECOMMENDER_MIN_CONFIDENCE"),
		RetrainWorkers: v.GetInt("RECOMMENDER_RETRAIN_WORKERS"),
	}

	cfg.Cache = CacheConfig{
		Enabled:           v.GetBool("ENABLE_CACHE"),
		RecommendationTTL: parseDuration(v.GetString("CACHE_RECOMMENDATION_TTL"), 10*time.Minute),
		ScheduleTTL:       parseDuration(v.GetString("CACHE_SCHEDULE_TTL"), 5*time.Minute),
	}

	cfg.Export = ExportConfig{
		Enabled: v.GetBool("ENABLE_EXPORT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "studyplan")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("OPTIMIZER_SESSION_MINUTES", 90)
	v.SetDefault("OPTIMIZER_BREAK_MINUTES", 30)
	v.SetDefault("OPTIMIZER_MAX_DAILY_HOURS", 3.5)
	v.SetDefault("OPTIMIZER_DURATION_SLACK", 1.5)
	v.SetDefault("OPTIMIZER_MIN_CHUNK_HOURS", 0.5)
	v.SetDefault("OPTIMIZER_DAY_CYCLE_PASSES", 2)

	v.SetDefault("RECOMMENDER_TOP_K", 5)
	v.SetDefault("RECOMMENDER_MIN_CONFIDENCE", 0.0)
	v.SetDefault("RECOMMENDER_RETRAIN_WORKERS", 1)

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_RECOMMENDATION_TTL", "10m")
	v.SetDefault("CACHE_SCHEDULE_TTL", "5m")

	v.SetDefault("ENABLE_EXPORT", true)
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

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
