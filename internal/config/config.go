package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		Database
		Ingest
		Auth
		Maintenance
		Log
	}

	Database struct {
		Path        string
		BusyTimeout time.Duration
	}
	Ingest struct {
		MinPageBytes  int64 // Images smaller than this are not treated as pages
		EncodeWorkers int   // Files encoded concurrently per upload
	}
	Auth struct {
		BcryptCost        int
		AdminEmail        string
		AdminDemoPassword string // Seeds the admin account on first matching login

		// Login throttling
		MaxLoginAttempts int           // Failed attempts before lockout (default: 5)
		LoginWindow      time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	Maintenance struct {
		Schedule string // Cron format: "0 * * * *" = hourly
	}
	Log struct {
		Level slog.Level
	}
)

// parseLevel maps a LOG_LEVEL value onto a slog level, defaulting to info.
func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func NewConfig() *Config {
	return newConfig(viper.New())
}

func newConfig(v *viper.Viper) *Config {
	v.AutomaticEnv()
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_busy_timeout", DefaultBusyTimeout.String())

	v.SetDefault("ingest_min_page_bytes", DefaultMinPageBytes)
	v.SetDefault("ingest_encode_workers", DefaultEncodeWorkers)

	// Auth defaults
	v.SetDefault("auth_bcrypt_cost", DefaultBcryptCost)
	v.SetDefault("auth_admin_email", DefaultAdminEmail)
	v.SetDefault("auth_admin_demo_password", DefaultAdminDemoPassword)
	v.SetDefault("auth_max_login_attempts", 5)
	v.SetDefault("auth_login_window", "15m")
	v.SetDefault("auth_lockout_duration", "30m")

	v.SetDefault("maintenance_schedule", DefaultMaintenanceSchedule)
	v.SetDefault("log_level", "info")

	return &Config{
		Database: Database{
			Path:        v.GetString("DATABASE_PATH"),
			BusyTimeout: v.GetDuration("DATABASE_BUSY_TIMEOUT"),
		},
		Ingest: Ingest{
			MinPageBytes:  v.GetInt64("INGEST_MIN_PAGE_BYTES"),
			EncodeWorkers: v.GetInt("INGEST_ENCODE_WORKERS"),
		},
		Auth: Auth{
			BcryptCost:        v.GetInt("AUTH_BCRYPT_COST"),
			AdminEmail:        v.GetString("AUTH_ADMIN_EMAIL"),
			AdminDemoPassword: v.GetString("AUTH_ADMIN_DEMO_PASSWORD"),
			MaxLoginAttempts:  v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			LoginWindow:       v.GetDuration("AUTH_LOGIN_WINDOW"),
			LockoutDuration:   v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Maintenance: Maintenance{
			Schedule: v.GetString("MAINTENANCE_SCHEDULE"),
		},
		Log: Log{
			Level: parseLevel(v.GetString("LOG_LEVEL")),
		},
	}
}
