package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	ServerPort   string
	DatabaseType string
	DatabasePath string
	DatabaseURL  string

	// StoreTimeout bounds every word-store query issued by the selector
	StoreTimeout time.Duration

	CacheAlgorithmicTTL time.Duration
	CacheRandomTTL      time.Duration
	CacheMaxItems       int
	CacheSweepInterval  time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	// RateLimitTrustProxy keys clients on X-Forwarded-For; set only behind a proxy
	RateLimitTrustProxy bool

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment, after applying an optional
// .env file. Variables already set in the environment win over the file.
func Load(envFiles ...string) *Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				slog.Warn("failed to load env file", "file", f, "error", err)
			}
		}
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	return &Config{
		ServerPort:          v.GetString("PORT"),
		DatabaseType:        v.GetString("DB_TYPE"),
		DatabasePath:        v.GetString("DB_PATH"),
		DatabaseURL:         v.GetString("DATABASE_URL"),
		StoreTimeout:        v.GetDuration("STORE_TIMEOUT"),
		CacheAlgorithmicTTL: v.GetDuration("CACHE_ALGORITHMIC_TTL"),
		CacheRandomTTL:      v.GetDuration("CACHE_RANDOM_TTL"),
		CacheMaxItems:       v.GetInt("CACHE_MAX_ITEMS"),
		CacheSweepInterval:  v.GetDuration("CACHE_SWEEP_INTERVAL"),
		RateLimitRPS:        v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:      v.GetInt("RATE_LIMIT_BURST"),
		RateLimitTrustProxy: v.GetBool("RATE_LIMIT_TRUST_PROXY"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		LogFormat:           v.GetString("LOG_FORMAT"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_TYPE", "sqlite")
	v.SetDefault("DB_PATH", "./vocabuddy.db")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("STORE_TIMEOUT", 5*time.Second)
	v.SetDefault("CACHE_ALGORITHMIC_TTL", 5*time.Minute)
	v.SetDefault("CACHE_RANDOM_TTL", time.Minute)
	v.SetDefault("CACHE_MAX_ITEMS", 10000)
	v.SetDefault("CACHE_SWEEP_INTERVAL", time.Minute)
	v.SetDefault("RATE_LIMIT_RPS", 20.0)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("RATE_LIMIT_TRUST_PROXY", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT
func (c *Config) NewLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(c.LogFormat) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
