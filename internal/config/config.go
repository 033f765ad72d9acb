package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr       string
	DBPath         string
	JWTSecret      string
	TokenTTL       time.Duration
	UploadDir      string
	PublicURL      string
	MaxUploadBytes int64
	WebhookTimeout time.Duration
	ResendAPIKey   string
	EmailFrom      string
	GelfAddr       string
	LogLevel       string
	AdminEmail     string
	AdminPass      string
}

// Load reads configuration from the environment. The given env files, or
// .env in the working directory when none are given, fill in unset
// variables. Missing files are ignored.
func Load(envFiles ...string) *Config {
	_ = godotenv.Load(envFiles...)

	return &Config{
		HTTPAddr:       getEnv("FORMS_ADDR", ":8080"),
		DBPath:         getEnv("FORMS_DB_PATH", "oxiforms.sqlite"),
		JWTSecret:      getEnv("FORMS_JWT_SECRET", "oxiforms-dev-secret-change-me"),
		TokenTTL:       getEnvDuration("FORMS_TOKEN_TTL", 24*time.Hour),
		UploadDir:      getEnv("FORMS_UPLOAD_DIR", "uploads"),
		PublicURL:      getEnv("FORMS_PUBLIC_URL", ""),
		MaxUploadBytes: int64(getEnvInt("FORMS_MAX_UPLOAD_MB", 10)) << 20,
		WebhookTimeout: getEnvDuration("FORMS_WEBHOOK_TIMEOUT", 10*time.Second),
		ResendAPIKey:   getEnv("RESEND_API_KEY", ""),
		EmailFrom:      getEnv("EMAIL_FROM", "OxiForms <noreply@oxiforms.local>"),
		GelfAddr:       getEnv("GELF_ADDR", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AdminEmail:     getEnv("ADMIN_EMAIL", ""),
		AdminPass:      getEnv("ADMIN_PASSWORD", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
