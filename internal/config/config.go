package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"flashcard-scheduler/internal/application/usecases"
)

// Config holds all configuration for the scheduler
type Config struct {
	DBPath string

	// Telegram settings
	TelegramToken string

	// Reminder settings
	CheckInterval      time.Duration
	MinInterval        time.Duration
	QuietStart         int
	QuietEnd           int
	MaxRemindersPerDay int

	// Practice settings
	SessionSize int
	SlowAnswer  time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	defaults := usecases.DefaultReminderConfig()

	cfg := &Config{
		DBPath:             getEnv("SCHEDULER_DB_PATH", "scheduler.db"),
		TelegramToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
		CheckInterval:      getEnvDuration("REMINDER_CHECK_INTERVAL", defaults.CheckInterval),
		MinInterval:        getEnvDuration("REMINDER_MIN_INTERVAL", defaults.MinReminderInterval),
		QuietStart:         getEnvInt("REMINDER_QUIET_START", defaults.QuietHoursStart),
		QuietEnd:           getEnvInt("REMINDER_QUIET_END", defaults.QuietHoursEnd),
		MaxRemindersPerDay: getEnvInt("REMINDER_MAX_PER_DAY", defaults.MaxRemindersPerDay),
		SessionSize:        getEnvInt("SESSION_SIZE", 20),
		SlowAnswer:         getEnvDuration("SLOW_ANSWER", 10*time.Second),
	}

	return cfg, cfg.Validate()
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("SCHEDULER_DB_PATH must not be empty")
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("REMINDER_CHECK_INTERVAL must be positive, got %v", c.CheckInterval)
	}
	if c.MinInterval < 0 {
		return fmt.Errorf("REMINDER_MIN_INTERVAL must not be negative, got %v", c.MinInterval)
	}
	if c.QuietStart < 0 || c.QuietStart > 23 {
		return fmt.Errorf("REMINDER_QUIET_START must be 0-23, got %d", c.QuietStart)
	}
	if c.QuietEnd < 0 || c.QuietEnd > 23 {
		return fmt.Errorf("REMINDER_QUIET_END must be 0-23, got %d", c.QuietEnd)
	}
	if c.MaxRemindersPerDay < 0 {
		return fmt.Errorf("REMINDER_MAX_PER_DAY must not be negative, got %d", c.MaxRemindersPerDay)
	}
	if c.SessionSize < 1 {
		return fmt.Errorf("SESSION_SIZE must be at least 1, got %d", c.SessionSize)
	}
	if c.SlowAnswer <= 0 {
		return fmt.Errorf("SLOW_ANSWER must be positive, got %v", c.SlowAnswer)
	}
	return nil
}

// Reminder returns the reminder settings
func (c *Config) Reminder() *usecases.ReminderConfig {
	return &usecases.ReminderConfig{
		CheckInterval:       c.CheckInterval,
		MinReminderInterval: c.MinInterval,
		QuietHoursStart:     c.QuietStart,
		QuietHoursEnd:       c.QuietEnd,
		MaxRemindersPerDay:  c.MaxRemindersPerDay,
	}
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
