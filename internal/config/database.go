// internal/config/database.go
package config

import (
	"fmt"
	"strings"
	"time"
)

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

func (d *DatabaseConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(d.MaxLifetime) * time.Second
}

// NormalizedLogLevel folds DB_LOG_LEVEL into one of silent, error, warn, info.
func (d *DatabaseConfig) NormalizedLogLevel() string {
	switch level := strings.ToLower(strings.TrimSpace(d.LogLevel)); level {
	case "silent", "error", "warn", "info":
		return level
	default:
		return "warn"
	}
}
