package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains runtime configuration values.
type Config struct {
	Environment string
	HTTPPort    string
	ServiceName string

	// SecretKey is the process-wide symmetric key sealing session blobs.
	SecretKey string

	// GoogleClientID/Secret are the default OAuth client pair, substituted
	// when an uploaded remote omits its own.
	GoogleClientID     string
	GoogleClientSecret string

	TokenEndpoint string
	DriveEndpoint string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// SessionTTL bounds browsing-only sessions; ShareTTL bounds sessions
	// created for download links that must outlive the browsing session.
	SessionTTL time.Duration
	ShareTTL   time.Duration

	// UpstreamTimeout bounds token exchanges and single-shot Drive calls.
	// Content streaming is bounded only by the client connection.
	UpstreamTimeout time.Duration

	RateLimitRPM     int
	AllowDirectLinks bool

	TelemetryEndpoint string
	TelemetryInsecure bool

	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSAllowCredentials bool
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	secretKey := strings.TrimSpace(os.Getenv("SECRET_KEY"))
	if secretKey == "" {
		return Config{}, fmt.Errorf("SECRET_KEY is required")
	}

	cfg := Config{
		Environment:          getEnv("APP_ENV", "development"),
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		ServiceName:          getEnv("SERVICE_NAME", "gdrive-aggregator"),
		SecretKey:            secretKey,
		GoogleClientID:       os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:   os.Getenv("GOOGLE_CLIENT_SECRET"),
		TokenEndpoint:        os.Getenv("TOKEN_ENDPOINT"),
		DriveEndpoint:        os.Getenv("DRIVE_ENDPOINT"),
		RedisAddr:            getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		RedisDB:              getInt("REDIS_DB", 0),
		SessionTTL:           getDuration("SESSION_TTL", 24*time.Hour),
		ShareTTL:             getDuration("SHARE_TTL", 7*24*time.Hour),
		UpstreamTimeout:      getDuration("UPSTREAM_TIMEOUT", 30*time.Second),
		RateLimitRPM:         getInt("RATE_LIMIT_RPM", 600),
		AllowDirectLinks:     getBool("ALLOW_DIRECT_LINKS", false),
		TelemetryEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure:    getBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		CORSAllowedOrigins:   getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		CORSAllowedMethods:   getList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
		CORSAllowedHeaders:   getList("CORS_ALLOWED_HEADERS", []string{"Content-Type"}),
		CORSAllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", false),
	}

	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.ShareTTL < cfg.SessionTTL {
		cfg.ShareTTL = cfg.SessionTTL
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		var cleaned []string
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
