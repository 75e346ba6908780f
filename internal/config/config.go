package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// UndoPolicy controls whether a DELETE log entry may be undone more than once
type UndoPolicy string

const (
	UndoAllowRepeat UndoPolicy = "allow_repeat"
	UndoOnce        UndoPolicy = "once"
)

func ParseUndoPolicy(s string) (UndoPolicy, error) {
	switch UndoPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case UndoAllowRepeat:
		return UndoAllowRepeat, nil
	case UndoOnce:
		return UndoOnce, nil
	}
	return "", fmt.Errorf("unknown undo policy %q", s)
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled is false when no SMTP host is configured; mail is then only logged
func (s SMTPConfig) Enabled() bool {
	return s.Host != ""
}

type Config struct {
	Env     string
	Port    string
	DBURL   string
	LogMode string
	LogFile string
	AppName string
	Origins []string

	JWTSecret        string
	JWTExpiry        time.Duration
	ResetTokenTTL    time.Duration
	DecisionTokenTTL time.Duration
	EmailChangeTTL   time.Duration
	PasswordMinLen   int

	AdminEmail  string
	FrontendURL string
	BackendURL  string
	SMTP        SMTPConfig

	LowStockThreshold int
	UndoPolicy        UndoPolicy

	SeedAdminUsername string
	SeedAdminEmail    string
	SeedAdminPassword string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "dev")

	undoPolicy, err := ParseUndoPolicy(getEnv("UNDO_POLICY", string(UndoAllowRepeat)))
	if err != nil {
		return nil, err
	}

	passwordMin := 6
	if env == "prod" {
		passwordMin = 8
	}

	cfg := &Config{
		Env:     env,
		Port:    getEnv("PORT", "5000"),
		DBURL:   databaseURL(),
		LogMode: getEnv("LOG_MODE", logModeFor(env)),
		LogFile: getEnv("LOG_FILE", ""),
		AppName: getEnv("APP_NAME", "Bazaar Admin v1.0"),
		Origins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTExpiry:        getDurationEnv("JWT_EXPIRES_IN", time.Hour),
		ResetTokenTTL:    getDurationEnv("RESET_TOKEN_TTL", 15*time.Minute),
		DecisionTokenTTL: getDurationEnv("DECISION_TOKEN_TTL", 72*time.Hour),
		EmailChangeTTL:   getDurationEnv("EMAIL_CHANGE_TTL", 24*time.Hour),
		PasswordMinLen:   getIntEnv("PASSWORD_MIN_LEN", passwordMin),

		AdminEmail:  getEnv("ADMIN_EMAIL", "admin@example.com"),
		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		BackendURL:  strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:5000"), "/"),
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getIntEnv("SMTP_PORT", 587),
			Username: getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "no-reply@example.com"),
		},

		LowStockThreshold: getIntEnv("LOW_STOCK_THRESHOLD", 3),
		UndoPolicy:        undoPolicy,

		SeedAdminUsername: getEnv("SEED_ADMIN_USERNAME", ""),
		SeedAdminEmail:    getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword: getEnv("SEED_ADMIN_PASSWORD", ""),
	}

	if cfg.JWTSecret == "" {
		if env == "prod" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
		cfg.JWTSecret = "dev-secret-change-me"
	}

	return cfg, nil
}

func databaseURL() string {
	if dsn := getEnv("DATABASE_URL", ""); dsn != "" {
		return dsn
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_NAME", "bazaar"),
		getEnv("DB_PORT", "5432"),
	)
}

func logModeFor(env string) string {
	if env == "prod" {
		return "production"
	}
	return "development"
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
