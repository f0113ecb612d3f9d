package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"healthsched/internal/domain/alert"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken     string
	NotifyChatID      int64 // Telegram chat that receives the delivered alerts
	DatabaseURL       string
	LogLevel          string
	Environment       string
	CronSpecReconcile string // periodic drift-healing reconciliation pass

	NotificationSettings alert.Settings
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	// With no Telegram token the application runs without a delivery
	// channel: alerts are scheduled in memory only.
	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken != "" {
		chatIDStr := os.Getenv("NOTIFY_CHAT_ID")
		if chatIDStr == "" {
			return nil, fmt.Errorf("NOTIFY_CHAT_ID is not set")
		}
		cfg.NotifyChatID, err = strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid NOTIFY_CHAT_ID: %w", err)
		}
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.CronSpecReconcile = os.Getenv("CRON_SPEC_RECONCILE")
	if cfg.CronSpecReconcile == "" {
		cfg.CronSpecReconcile = "*/15 * * * *" // Default: every 15 minutes
	}

	cfg.NotificationSettings, err = loadSettings()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadSettings builds the notification settings from the environment,
// starting from the defaults (everything on, warn at 7 and 1 days).
func loadSettings() (alert.Settings, error) {
	s := alert.DefaultSettings()
	var err error

	if s.Enabled, err = boolEnv("NOTIFICATIONS_ENABLED", s.Enabled); err != nil {
		return s, err
	}
	if s.ReminderNotifications, err = boolEnv("REMINDER_NOTIFICATIONS", s.ReminderNotifications); err != nil {
		return s, err
	}
	if s.VaccinationWarnings, err = boolEnv("VACCINATION_WARNINGS", s.VaccinationWarnings); err != nil {
		return s, err
	}
	if s.VaccinationExpiryAlert, err = boolEnv("VACCINATION_EXPIRY_ALERT", s.VaccinationExpiryAlert); err != nil {
		return s, err
	}
	if s.MedicationReminders, err = boolEnv("MEDICATION_REMINDERS", s.MedicationReminders); err != nil {
		return s, err
	}
	if s.RefillReminders, err = boolEnv("REFILL_REMINDERS", s.RefillReminders); err != nil {
		return s, err
	}

	if daysStr := os.Getenv("VACCINATION_WARNING_DAYS"); daysStr != "" {
		var days []int
		for _, part := range strings.Split(daysStr, ",") {
			d, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || d < 0 {
				return s, fmt.Errorf("invalid VACCINATION_WARNING_DAYS entry %q", part)
			}
			days = append(days, d)
		}
		s.VaccinationWarningDays = days
	}

	return s, nil
}

func boolEnv(name string, def bool) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s: %w", name, err)
	}
	return b, nil
}
