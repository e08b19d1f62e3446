package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers
const (
	DriverPostgres  = "postgres"
	DriverFirestore = "firestore"
	DriverMemory    = "memory"
)

// Auth providers
const (
	AuthJWT      = "jwt"
	AuthFirebase = "firebase"
)

// Config holds application configuration
type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	StorageDriver         string
	DBConn                string
	FirestoreProjectID    string
	GoogleCredentialsFile string

	AuthProvider string
	JWTSecret    string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string

	SchedulerEnabled bool
	FeesCron         string
	OverdueCron      string
	ReconcileCron    string
	RemindersCron    string
	Location         *time.Location

	ReportsBucket string
}

// NewConfig loads configuration from environment variables. A .env file in
// the working directory is read first when present; real env vars win.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "INFO"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "json")),

		StorageDriver:         strings.ToLower(getEnv("STORAGE_DRIVER", DriverPostgres)),
		DBConn:                getEnv("DB_CONN", "host=localhost port=5432 user=condo password=condo dbname=condo sslmode=disable"),
		FirestoreProjectID:    getEnv("FIRESTORE_PROJECT_ID", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),

		AuthProvider: strings.ToLower(getEnv("AUTH_PROVIDER", AuthJWT)),
		JWTSecret:    getEnv("JWT_SECRET", ""),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "25"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SenderEmail:  getEnv("SENDER_EMAIL", "administracion@condominio.local"),

		FeesCron:      getEnv("FEES_CRON", "0 6 25 * *"),
		OverdueCron:   getEnv("OVERDUE_CRON", "0 1 * * *"),
		ReconcileCron: getEnv("RECONCILE_CRON", "30 1 * * *"),
		RemindersCron: getEnv("REMINDERS_CRON", "0 9 1 * *"),

		ReportsBucket: getEnv("REPORTS_BUCKET", ""),
	}

	enabled, err := strconv.ParseBool(getEnv("SCHEDULER_ENABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("SCHEDULER_ENABLED must be a boolean: %w", err)
	}
	cfg.SchedulerEnabled = enabled

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "America/Santo_Domingo"))
	if err != nil {
		return nil, fmt.Errorf("failed to load TIMEZONE: %w", err)
	}
	cfg.Location = loc

	switch cfg.StorageDriver {
	case DriverPostgres:
		if cfg.DBConn == "" {
			return nil, fmt.Errorf("DB_CONN is required")
		}
	case DriverFirestore:
		if cfg.FirestoreProjectID == "" {
			return nil, fmt.Errorf("FIRESTORE_PROJECT_ID is required")
		}
	case DriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	switch cfg.AuthProvider {
	case AuthJWT:
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
	case AuthFirebase:
	default:
		return nil, fmt.Errorf("unknown AUTH_PROVIDER %q", cfg.AuthProvider)
	}

	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("LOG_FORMAT must be json or text")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
