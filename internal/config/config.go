package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins []string

	DBDriver string
	DBHost   string
	DBUser   string
	DBPass   string
	DBName   string
	DBPort   string

	RedisURL string

	JWTSecret string
	JWTTTL    time.Duration

	// AdminEmails grants admin capability regardless of the stored role.
	AdminEmails []string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	IdentityAPIURL  string
	IdentityAPIKey  string
	IdentityTimeout time.Duration

	MeiliSearchHost string
	MeiliMasterKey  string

	// IndexSyncSchedule is a cron expression; "off" disables the job.
	IndexSyncSchedule string

	CloudinaryUploadFolder string

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	RateLimitApplication time.Duration

	OTelEnabled     bool
	OTelEndpoint    string
	OTelInsecure    bool
	OTelSampleRatio float64
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		DBDriver: getEnv("DB_DRIVER", "postgres"),
		DBHost:   getEnv("DB_HOST", "localhost"),
		DBUser:   getEnv("DB_USER", "postgres"),
		DBPass:   os.Getenv("DB_PASS"),
		DBName:   getEnv("DB_NAME", "learnhub"),
		DBPort:   getEnv("DB_PORT", "5432"),

		RedisURL: os.Getenv("REDIS_URL"),

		JWTSecret: getEnv("JWT_SECRET", "change-me"),

		AdminEmails: splitList(os.Getenv("ADMIN_EMAILS")),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),

		IdentityAPIURL: os.Getenv("IDENTITY_API_URL"),
		IdentityAPIKey: os.Getenv("IDENTITY_API_KEY"),

		MeiliSearchHost: os.Getenv("MEILISEARCH_HOST"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		IndexSyncSchedule: getEnv("INDEX_SYNC_SCHEDULE", "0 3 * * *"),

		CloudinaryUploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "learnhub"),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: getEnv("SMTP_PORT", "587"),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: os.Getenv("SMTP_FROM"),

		OTelEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	minutes, err := strconv.Atoi(getEnv("JWT_TTL_MINUTES", "60"))
	if err != nil || minutes <= 0 {
		return nil, fmt.Errorf("invalid JWT_TTL_MINUTES: %q", os.Getenv("JWT_TTL_MINUTES"))
	}
	cfg.JWTTTL = time.Duration(minutes) * time.Minute

	cfg.IdentityTimeout, err = time.ParseDuration(getEnv("IDENTITY_TIMEOUT", "3s"))
	if err != nil {
		return nil, fmt.Errorf("invalid IDENTITY_TIMEOUT: %w", err)
	}
	cfg.RateLimitApplication, err = time.ParseDuration(getEnv("RATE_LIMIT_APPLICATION", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_APPLICATION: %w", err)
	}

	if cfg.OTelEnabled, err = strconv.ParseBool(getEnv("OTEL_ENABLED", "false")); err != nil {
		return nil, fmt.Errorf("invalid OTEL_ENABLED: %w", err)
	}
	if cfg.OTelInsecure, err = strconv.ParseBool(getEnv("OTEL_EXPORTER_OTLP_INSECURE", "true")); err != nil {
		return nil, fmt.Errorf("invalid OTEL_EXPORTER_OTLP_INSECURE: %w", err)
	}
	if cfg.OTelSampleRatio, err = strconv.ParseFloat(getEnv("OTEL_SAMPLER_RATIO", "0.1"), 64); err != nil {
		return nil, fmt.Errorf("invalid OTEL_SAMPLER_RATIO: %w", err)
	}

	if strings.EqualFold(cfg.IndexSyncSchedule, "off") {
		cfg.IndexSyncSchedule = ""
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
