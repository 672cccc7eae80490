// Package config loads the ledger's runtime configuration from viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/household-ledger/internal/common"
	"github.com/spf13/viper"
)

// Viper keys read by LoadLedgerConfig.
const (
	KeyDatabasePath   = "database.path"
	KeyTrashRetention = "trash.retention_days"
	KeyAuditMaxLogs   = "audit.max_entries"
	KeyRecentWindow   = "categories.recent_window"
	KeyLogLevel       = "logging.level"
	KeyLogFormat      = "logging.format"
)

// LedgerConfig holds the settings needed to open and run the ledger.
type LedgerConfig struct {
	DatabasePath   string
	LogLevel       string
	LogFormat      string
	TrashRetention time.Duration
	AuditMaxLogs   int
	RecentWindow   int
}

// DefaultLedgerConfig returns the configuration used when nothing is set.
func DefaultLedgerConfig() LedgerConfig {
	return LedgerConfig{
		DatabasePath:   filepath.Join(DataDir(), "ledger.db"),
		LogLevel:       "info",
		LogFormat:      "console",
		TrashRetention: 30 * 24 * time.Hour,
		AuditMaxLogs:   500,
		RecentWindow:   50,
	}
}

// LoadLedgerConfig reads the ledger configuration from v.
// It follows this precedence:
// 1. Viper configuration (config file, bound flags or LEDGER_ env vars)
// 2. LEDGER_DB for the database path
// 3. Default values
func LoadLedgerConfig(v *viper.Viper) (*LedgerConfig, error) {
	cfg := DefaultLedgerConfig()

	if p := v.GetString(KeyDatabasePath); p != "" {
		cfg.DatabasePath = ExpandPath(p)
	} else if p := os.Getenv("LEDGER_DB"); p != "" {
		cfg.DatabasePath = ExpandPath(p)
	}
	if v.IsSet(KeyTrashRetention) {
		cfg.TrashRetention = time.Duration(v.GetInt(KeyTrashRetention)) * 24 * time.Hour
	}
	if v.IsSet(KeyAuditMaxLogs) {
		cfg.AuditMaxLogs = v.GetInt(KeyAuditMaxLogs)
	}
	if v.IsSet(KeyRecentWindow) {
		cfg.RecentWindow = v.GetInt(KeyRecentWindow)
	}
	if s := v.GetString(KeyLogLevel); s != "" {
		cfg.LogLevel = s
	}
	if s := v.GetString(KeyLogFormat); s != "" {
		cfg.LogFormat = s
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the ledger cannot run with.
func (c *LedgerConfig) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: database path is required", common.ErrInvalidConfig)
	}
	if c.TrashRetention <= 0 {
		return fmt.Errorf("%w: trash retention must be positive", common.ErrInvalidConfig)
	}
	if c.AuditMaxLogs <= 0 {
		return fmt.Errorf("%w: audit max entries must be positive", common.ErrInvalidConfig)
	}
	if c.RecentWindow <= 0 {
		return fmt.Errorf("%w: recent window must be positive", common.ErrInvalidConfig)
	}
	return nil
}
