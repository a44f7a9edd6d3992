// Package sheets exports financial reports to Google Sheets.
package sheets

import (
	"errors"
	"time"
)

// Config holds the configuration for the Google Sheets exporter.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	SpreadsheetID      string
	SpreadsheetName    string
	TimeZone           string
	BatchSize          int
	RetryAttempts      int
	RetryDelay         time.Duration
	EnableFormatting   bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SpreadsheetName:  "Relatório Financeiro",
		TimeZone:         "America/Sao_Paulo",
		BatchSize:        1000,
		RetryAttempts:    3,
		RetryDelay:       time.Second,
		EnableFormatting: true,
	}
}

// hasOAuth reports whether a full OAuth2 credential set is present.
func (c *Config) hasOAuth() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// Validate checks that exactly one authentication method is configured and
// the tuning knobs are in range.
func (c *Config) Validate() error {
	switch {
	case !c.hasOAuth() && c.ServiceAccountPath == "":
		return errors.New("no authentication method configured: provide either a service account key or OAuth2 credentials")
	case c.hasOAuth() && c.ServiceAccountPath != "":
		return errors.New("multiple authentication methods configured; use either OAuth2 or a service account")
	case c.BatchSize <= 0:
		return errors.New("batch size must be positive")
	case c.RetryAttempts < 0:
		return errors.New("retry attempts cannot be negative")
	case c.RetryDelay < 0:
		return errors.New("retry delay cannot be negative")
	}
	return nil
}
