package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Address string
	Port    int
	BaseURL string

	MongoURI string
	MongoDB  string

	JWTSecret string
	AdminUser string
	AdminPass string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	QuoteAPIBaseURL string
	QuoteTimeout    time.Duration

	MonitorInterval time.Duration
	MonitorBackoff  time.Duration
	CleanupMaxAge   time.Duration

	FreeAlertLimit int
	ExemptEmails   map[string]bool

	DefaultLanguage string
	LocalesDir      string
	LogLevel        string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := intEnv("PORT", 7000)
	if err != nil {
		return nil, errors.New("invalid PORT value")
	}

	smtpPort, err := intEnv("SMTP_PORT", 587)
	if err != nil {
		return nil, errors.New("invalid SMTP_PORT value")
	}

	freeAlertLimit, err := intEnv("FREE_ALERT_LIMIT", 3)
	if err != nil {
		return nil, errors.New("invalid FREE_ALERT_LIMIT value")
	}

	intervalSec, err := intEnv("MONITOR_INTERVAL_SECONDS", 300)
	if err != nil {
		return nil, errors.New("invalid MONITOR_INTERVAL_SECONDS value")
	}

	backoffSec, err := intEnv("MONITOR_BACKOFF_SECONDS", 60)
	if err != nil {
		return nil, errors.New("invalid MONITOR_BACKOFF_SECONDS value")
	}

	cleanupDays, err := intEnv("CLEANUP_MAX_AGE_DAYS", 30)
	if err != nil {
		return nil, errors.New("invalid CLEANUP_MAX_AGE_DAYS value")
	}

	quoteTimeoutSec, err := intEnv("QUOTE_TIMEOUT_SECONDS", 10)
	if err != nil {
		return nil, errors.New("invalid QUOTE_TIMEOUT_SECONDS value")
	}

	exempt := make(map[string]bool)
	for _, email := range strings.Split(os.Getenv("EXEMPT_EMAILS"), ",") {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			exempt[email] = true
		}
	}

	portStr := strconv.Itoa(port)

	return &Config{
		Address:         stringEnv("ADDRESS", "0.0.0.0"),
		Port:            port,
		BaseURL:         stringEnv("BASE_URL", "http://localhost:"+portStr),
		MongoURI:        stringEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         stringEnv("MONGO_DB", "aksjevakt"),
		JWTSecret:       stringEnv("JWT_SECRET", "default_jwt_secret"),
		AdminUser:       stringEnv("ADMIN_USER", "admin"),
		AdminPass:       stringEnv("ADMIN_PASS", "admin"),
		SMTPHost:        stringEnv("SMTP_HOST", "localhost"),
		SMTPPort:        smtpPort,
		SMTPUser:        os.Getenv("SMTP_USER"),
		SMTPPass:        os.Getenv("SMTP_PASS"),
		SMTPFrom:        stringEnv("SMTP_FROM", "varsler@aksjevakt.no"),
		QuoteAPIBaseURL: stringEnv("QUOTE_API_BASE_URL", "https://query1.finance.yahoo.com"),
		QuoteTimeout:    time.Duration(quoteTimeoutSec) * time.Second,
		MonitorInterval: time.Duration(intervalSec) * time.Second,
		MonitorBackoff:  time.Duration(backoffSec) * time.Second,
		CleanupMaxAge:   time.Duration(cleanupDays) * 24 * time.Hour,
		FreeAlertLimit:  freeAlertLimit,
		ExemptEmails:    exempt,
		DefaultLanguage: stringEnv("DEFAULT_LANGUAGE", "nb_NO"),
		LocalesDir:      stringEnv("LOCALES_DIR", "locales"),
		LogLevel:        stringEnv("LOG_LEVEL", "info"),
	}, nil
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}
