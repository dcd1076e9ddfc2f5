package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	DatabasePath string
	LogLevel     string

	// BaseCurrency is the currency statements are produced in. Revenue rows
	// reported in other currencies are converted before aggregation.
	BaseCurrency string

	// FXProviderBaseURL points at a frankfurter-compatible rates API.
	// When empty, the engine falls back to static rates (rate 1.0).
	FXProviderBaseURL string
	FXRequestTimeout  time.Duration
	FXCacheTTL        time.Duration

	CalculationCacheTTL  time.Duration
	CacheCleanupInterval time.Duration

	EmailServiceProvider string

	SMTPServer   string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string

	MailgunDomain        string
	MailgunPrivateAPIKey string

	SenderEmail string
	SenderName  string
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	Cfg = &AppConfig{
		DatabasePath: getEnv("DATABASE_PATH", "./labelfolio.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		BaseCurrency: getEnv("BASE_CURRENCY", "EUR"),

		FXProviderBaseURL: getEnv("FX_PROVIDER_BASE_URL", ""),
		FXRequestTimeout:  getEnvAsDuration("FX_REQUEST_TIMEOUT", 10*time.Second),
		FXCacheTTL:        getEnvAsDuration("FX_CACHE_TTL", 12*time.Hour),

		CalculationCacheTTL:  getEnvAsDuration("CALCULATION_CACHE_TTL", 5*time.Minute),
		CacheCleanupInterval: getEnvAsDuration("CACHE_CLEANUP_INTERVAL", 10*time.Minute),

		// "mock" keeps batch runs self-contained; switch to "mailgun" or
		// "smtp" to actually deliver statement notifications.
		EmailServiceProvider: getEnv("EMAIL_SERVICE_PROVIDER", "mock"),

		SMTPServer:   getEnv("SMTP_SERVER", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		MailgunDomain:        getEnv("MAILGUN_DOMAIN", ""),
		MailgunPrivateAPIKey: getEnv("MAILGUN_PRIVATE_API_KEY", ""),

		SenderEmail: getEnv("SENDER_EMAIL", "statements@example.com"),
		SenderName:  getEnv("SENDER_NAME", "Labelfolio Royalties"),
	}

	if Cfg.EmailServiceProvider == "mailgun" {
		if Cfg.MailgunDomain == "" {
			log.Fatalf("FATAL: MAILGUN_DOMAIN is required when EMAIL_SERVICE_PROVIDER is 'mailgun', but it's not set in environment or .env file.")
		}
		if Cfg.MailgunPrivateAPIKey == "" {
			log.Fatalf("FATAL: MAILGUN_PRIVATE_API_KEY is required when EMAIL_SERVICE_PROVIDER is 'mailgun', but it's not set in environment or .env file.")
		}
		if Cfg.SenderEmail == "statements@example.com" || Cfg.SenderEmail == "" {
			log.Fatalf("FATAL: SENDER_EMAIL must be configured properly (e.g., your Mailgun sender) when EMAIL_SERVICE_PROVIDER is 'mailgun'.")
		}
	}

	log.Printf("Configuration loaded: LogLevel=%s, DBPath=%s, BaseCurrency=%s, EmailProvider=%s",
		Cfg.LogLevel, Cfg.DatabasePath, Cfg.BaseCurrency, Cfg.EmailServiceProvider)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Duration value for %s not set or empty, using default: %s", key, fallback.String())
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
