package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	Port      string
	DBConn    string
	LogLevel  string
	JWTSecret string

	// SMTP delivery for branch notifications
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string

	// Central bank key-rate endpoint (SOAP), used for the indicative
	// late-fee figure in overdue escalation emails
	KeyRateURL string

	// AlertCron is the schedule for the daily alert evaluation pass
	AlertCron string

	// BusinessTZOffset is the fixed UTC offset, in hours, of the business
	// time zone used for all date-boundary decisions
	BusinessTZOffset int
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	offset, err := strconv.Atoi(getEnv("BUSINESS_TZ_OFFSET_HOURS", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid BUSINESS_TZ_OFFSET_HOURS: %w", err)
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DBConn:           getEnv("DB_CONN", "host=localhost port=5432 user=test password=test dbname=finance sslmode=disable"),
		LogLevel:         getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:        getEnv("JWT_SECRET", "secret"),
		SMTPHost:         getEnv("SMTP_HOST", "localhost"),
		SMTPPort:         getEnv("SMTP_PORT", "587"),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		SenderEmail:      getEnv("SENDER_EMAIL", "noreply@branchops.example"),
		KeyRateURL:       getEnv("KEY_RATE_URL", "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"),
		AlertCron:        getEnv("ALERT_CRON", "0 8 * * *"),
		BusinessTZOffset: offset,
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("SENDER_EMAIL is required")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
