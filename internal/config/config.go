package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Port             string
	DBConn           string
	LogLevel         string
	CommitMaxRetries int
	AuditSchedule    string
	MigrateOnStart   bool
}

// NewConfig loads configuration from environment variables and, when
// CONFIG_FILE is set, from that file. Environment wins over the file.
func NewConfig() (*Config, error) {
	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("db_conn", "host=localhost port=5436 user=test password=test dbname=credit sslmode=disable")
	v.SetDefault("log_level", "INFO")
	v.SetDefault("commit_max_retries", 3)
	v.SetDefault("audit_schedule", "@every 1h")
	v.SetDefault("migrate_on_start", true)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		Port:             v.GetString("port"),
		DBConn:           v.GetString("db_conn"),
		LogLevel:         v.GetString("log_level"),
		CommitMaxRetries: v.GetInt("commit_max_retries"),
		AuditSchedule:    v.GetString("audit_schedule"),
		MigrateOnStart:   v.GetBool("migrate_on_start"),
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.Port == "" {
		return nil, fmt.Errorf("PORT is required")
	}
	if cfg.CommitMaxRetries < 1 {
		return nil, fmt.Errorf("COMMIT_MAX_RETRIES must be at least 1, got %d", cfg.CommitMaxRetries)
	}

	return cfg, nil
}
