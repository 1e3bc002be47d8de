package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig holds everything the server needs to start.
type AppConfig struct {
	ListenAddr         string
	Port               string
	DatabaseDriver     string
	DatabasePath       string
	DatabaseDSN        string
	SessionSecret      string
	JWTSecret          string
	JWTTTL             time.Duration
	GinMode            string
	LogLevel           string
	LogFormat          string
	UploadDir          string
	UploadURLPath      string
	SuperRootUserName  string
	SuperRootPassword  string
	CORSAllowedOrigins []string
	RateLimitDisabled  bool
}

// Load reads the configuration from the environment, filling defaults for
// anything unset.
func Load() (AppConfig, error) {
	port := env("PORT", "8080")
	cfg := AppConfig{
		Port:              port,
		ListenAddr:        env("LISTEN_ADDR", fmt.Sprintf(":%s", port)),
		DatabaseDriver:    strings.ToLower(env("DATABASE_DRIVER", "sqlite")),
		DatabasePath:      env("DATABASE_PATH", "smilecms.db"),
		DatabaseDSN:       env("DATABASE_DSN", ""),
		SessionSecret:     env("SESSION_SECRET", "smilecms-dev-secret"),
		GinMode:           env("GIN_MODE", "release"),
		LogLevel:          env("LOG_LEVEL", "info"),
		LogFormat:         env("LOG_FORMAT", "text"),
		UploadDir:         env("UPLOAD_DIR", "data/uploads"),
		UploadURLPath:     env("UPLOAD_URL_PATH", "/uploads"),
		SuperRootUserName: env("SUPER_ROOT_USER_NAME", ""),
		SuperRootPassword: env("SUPER_ROOT_PASSWORD", ""),
	}
	cfg.JWTSecret = env("JWT_SECRET", cfg.SessionSecret)

	ttl, err := time.ParseDuration(env("JWT_TTL", "12h"))
	if err != nil || ttl <= 0 {
		return cfg, fmt.Errorf("invalid JWT_TTL %q", os.Getenv("JWT_TTL"))
	}
	cfg.JWTTTL = ttl

	if raw := env("RATE_LIMIT_DISABLED", ""); raw != "" {
		disabled, err := strconv.ParseBool(raw)
		if err != nil {
			return cfg, fmt.Errorf("invalid RATE_LIMIT_DISABLED %q", raw)
		}
		cfg.RateLimitDisabled = disabled
	}

	for _, origin := range strings.Split(env("CORS_ALLOWED_ORIGINS", ""), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	switch cfg.DatabaseDriver {
	case "sqlite":
	case "postgres":
		if cfg.DatabaseDSN == "" {
			return cfg, fmt.Errorf("DATABASE_DSN is required for the postgres driver")
		}
	default:
		return cfg, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}

	return cfg, nil
}

func env(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
