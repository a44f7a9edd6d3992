// Package config loads application configuration from Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/contaflow/contaflow/internal/common"
)

// BillingConfig holds Asaas API connection settings.
type BillingConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// MessagingConfig holds WhatsApp gateway settings. Provider selects the
// client implementation: "evolution", "business" or "generic".
type MessagingConfig struct {
	Provider    string
	APIURL      string
	APIKey      string
	InstanceID  string
	Token       string
	TestNumbers []string
}

// SheetsConfig holds Google Sheets export settings.
type SheetsConfig struct {
	ServiceAccountPath string
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	SpreadsheetID      string
	SpreadsheetName    string
}

// Config is the materialized application configuration. Commands build one
// from Viper at startup instead of reading Viper keys ad hoc.
type Config struct {
	DatabasePath string
	LogLevel     string
	LogFormat    string
	Billing      BillingConfig
	Messaging    MessagingConfig
	Sheets       SheetsConfig
}

// Load materializes the configuration from the global Viper instance.
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath: ExpandPath(viper.GetString("database.path")),
		LogLevel:     viper.GetString("log.level"),
		LogFormat:    viper.GetString("log.format"),
		Billing: BillingConfig{
			BaseURL: viper.GetString("asaas.base_url"),
			APIKey:  viper.GetString("asaas.api_key"),
			Timeout: viper.GetDuration("asaas.timeout"),
		},
		Messaging: MessagingConfig{
			Provider:    viper.GetString("whatsapp.provider"),
			APIURL:      viper.GetString("whatsapp.api_url"),
			APIKey:      viper.GetString("whatsapp.api_key"),
			InstanceID:  viper.GetString("whatsapp.instance_id"),
			Token:       viper.GetString("whatsapp.token"),
			TestNumbers: viper.GetStringSlice("whatsapp.test_numbers"),
		},
		Sheets: SheetsConfig{
			ServiceAccountPath: ExpandPath(viper.GetString("sheets.service_account_path")),
			ClientID:           viper.GetString("sheets.client_id"),
			ClientSecret:       viper.GetString("sheets.client_secret"),
			RefreshToken:       viper.GetString("sheets.refresh_token"),
			SpreadsheetID:      viper.GetString("sheets.spreadsheet_id"),
			SpreadsheetName:    viper.GetString("sheets.spreadsheet_name"),
		},
	}

	if cfg.DatabasePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		cfg.DatabasePath = filepath.Join(home, ".config", "contaflow", "contaflow.db")
	}
	if cfg.Billing.BaseURL == "" {
		cfg.Billing.BaseURL = "https://api.asaas.com/v3"
	}
	if cfg.Billing.Timeout <= 0 {
		cfg.Billing.Timeout = 30 * time.Second
	}
	if cfg.Sheets.SpreadsheetName == "" {
		cfg.Sheets.SpreadsheetName = "Contaflow Report"
	}

	return cfg, nil
}

// ValidateBilling checks that the Asaas client can be constructed.
func (c *Config) ValidateBilling() error {
	if c.Billing.APIKey == "" {
		return fmt.Errorf("%w: asaas.api_key", common.ErrMissingConfig)
	}
	return nil
}

// ValidateMessaging checks that a messaging client can be constructed for
// the configured provider.
func (c *Config) ValidateMessaging() error {
	if c.Messaging.APIURL == "" {
		return fmt.Errorf("%w: whatsapp.api_url", common.ErrMissingConfig)
	}
	switch c.Messaging.Provider {
	case "evolution":
		if c.Messaging.APIKey == "" {
			return fmt.Errorf("%w: whatsapp.api_key", common.ErrMissingConfig)
		}
		if c.Messaging.InstanceID == "" {
			return fmt.Errorf("%w: whatsapp.instance_id", common.ErrMissingConfig)
		}
	case "business", "generic":
		if c.Messaging.Token == "" {
			return fmt.Errorf("%w: whatsapp.token", common.ErrMissingConfig)
		}
	case "":
		return fmt.Errorf("%w: whatsapp.provider", common.ErrMissingConfig)
	default:
		return fmt.Errorf("%w: unknown whatsapp provider %q", common.ErrInvalidConfig, c.Messaging.Provider)
	}
	return nil
}

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}
