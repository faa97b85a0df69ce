package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool

	// FX rate provider settings
	FxPrimaryURL      string `mapstructure:"FX_PRIMARY_URL"`
	FxFallbackURL     string `mapstructure:"FX_FALLBACK_URL"`
	FxRefreshInterval time.Duration
	FxCacheExpiry     time.Duration

	// Requests per minute per client IP. Zero disables rate limiting.
	RateLimitPerMinute int
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("FX_PRIMARY_URL", "https://api.exchangerate-api.com/v4/latest")
	viper.SetDefault("FX_FALLBACK_URL", "https://api.fxratesapi.com/latest")
	viper.SetDefault("FX_REFRESH_INTERVAL", "5m")
	viper.SetDefault("FX_CACHE_EXPIRY", "5m")
	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 120)

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set. Running with the in-memory store.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080" // Default port
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.FxPrimaryURL = viper.GetString("FX_PRIMARY_URL")
	cfg.FxFallbackURL = viper.GetString("FX_FALLBACK_URL")

	refreshStr := viper.GetString("FX_REFRESH_INTERVAL")
	refreshInterval, err := time.ParseDuration(refreshStr)
	if err != nil {
		refreshInterval = 5 * time.Minute
		if refreshStr != "" {
			log.Printf("Warning: Invalid value for FX_REFRESH_INTERVAL ('%s'). Defaulting to %s.\n", refreshStr, refreshInterval.String())
		}
	}
	cfg.FxRefreshInterval = refreshInterval

	cacheExpiryStr := viper.GetString("FX_CACHE_EXPIRY")
	cacheExpiry, err := time.ParseDuration(cacheExpiryStr)
	if err != nil {
		cacheExpiry = 5 * time.Minute
		if cacheExpiryStr != "" {
			log.Printf("Warning: Invalid value for FX_CACHE_EXPIRY ('%s'). Defaulting to %s.\n", cacheExpiryStr, cacheExpiry.String())
		}
	}
	cfg.FxCacheExpiry = cacheExpiry

	cfg.RateLimitPerMinute = viper.GetInt("RATE_LIMIT_PER_MINUTE")
	if cfg.RateLimitPerMinute < 0 {
		log.Println("Warning: RATE_LIMIT_PER_MINUTE is negative. Disabling rate limiting.")
		cfg.RateLimitPerMinute = 0
	}

	return cfg, nil
}
