package catalog

import (
	"strings"
	"time"
)

// Config holds the configuration for the price resolution engine.
// It is loaded from the "catalog" section of the service configuration.
type Config struct {
	// Designated price list codes
	ExportBaselineCode  string `mapstructure:"export_baseline_code"`
	WholesaleExportCode string `mapstructure:"wholesale_export_code"`
	WeightBasedCode     string `mapstructure:"weight_based_code"`
	IndustrialCode      string `mapstructure:"industrial_code"`

	// Matrix maps a selected code to the related codes shown beside it
	Matrix map[string][]string `mapstructure:"matrix"`

	// Source loading
	LoadTimeout time.Duration `mapstructure:"load_timeout"`

	// Grid cache
	CacheEnabled bool          `mapstructure:"cache_enabled"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	CacheMaxSize int           `mapstructure:"cache_max_size"`
}

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		ExportBaselineCode:  "01-EXP",
		WholesaleExportCode: "02-WEX",
		WeightBasedCode:     "03-KG",
		IndustrialCode:      "04-IND",
		Matrix: map[string][]string{
			"05-WHS": {"05-WHS", "06-RET", "02-WEX"},
			"06-RET": {"06-RET", "05-WHS"},
			"07-HRC": {"07-HRC", "06-RET", "08-DST"},
			"08-DST": {"08-DST", "05-WHS"},
			"04-IND": {"04-IND", "05-WHS"},
		},
		LoadTimeout:  30 * time.Second,
		CacheEnabled: true,
		CacheTTL:     5 * time.Minute,
		CacheMaxSize: 1000,
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ExportBaselineCode) == "" {
		return ErrInvalidConfig{Field: "export_baseline_code", Reason: "cannot be empty"}
	}
	if strings.TrimSpace(c.WeightBasedCode) == "" {
		return ErrInvalidConfig{Field: "weight_based_code", Reason: "cannot be empty"}
	}
	if c.WeightBasedCode == c.ExportBaselineCode {
		return ErrInvalidConfig{Field: "weight_based_code", Reason: "must differ from export_baseline_code"}
	}
	for code, related := range c.Matrix {
		if strings.TrimSpace(code) == "" {
			return ErrInvalidConfig{Field: "matrix", Reason: "contains an empty code"}
		}
		for _, r := range related {
			if strings.TrimSpace(r) == "" {
				return ErrInvalidConfig{Field: "matrix", Reason: "code " + code + " lists an empty related code"}
			}
		}
	}
	if c.LoadTimeout <= 0 {
		return ErrInvalidConfig{Field: "load_timeout", Reason: "must be positive"}
	}
	if c.CacheEnabled {
		if c.CacheTTL <= 0 {
			return ErrInvalidConfig{Field: "cache_ttl", Reason: "must be positive"}
		}
		if c.CacheMaxSize < 1 {
			return ErrInvalidConfig{Field: "cache_max_size", Reason: "must be at least 1"}
		}
	}
	return nil
}

// ColumnMatrix builds the immutable column matrix described by the configuration.
func (c *Config) ColumnMatrix() *ColumnMatrix {
	return NewColumnMatrix(c.Matrix, c.ExportBaselineCode, c.WeightBasedCode, c.IndustrialCode)
}

// ErrInvalidConfig is returned when the configuration is invalid.
type ErrInvalidConfig struct {
	Field  string
	Reason string
}

func (e ErrInvalidConfig) Error() string {
	return e.Field + ": " + e.Reason
}
