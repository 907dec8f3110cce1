package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/tidwall/jsonc"
	"golang.org/x/text/language"
)

// Defaults applied by the Get* methods when a field is unset.
const (
	DefaultInteriorScale = 1.0
	DefaultPageWindow    = 5 * time.Second
	DefaultPresetDB      = "presets.db"
	DefaultLanguage      = "en"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Config holds the housing tool settings. Every field is optional; the
// Get* methods supply defaults for fields left unset.
type Config struct {
	InteriorScale *float64 `json:"interior_scale,omitempty" env:"HOUSING_INTERIOR_SCALE"`
	PageWindow    *string  `json:"page_window,omitempty" env:"HOUSING_PAGE_WINDOW"` // duration string like "5s"
	CatalogPath   *string  `json:"catalog_path,omitempty" env:"HOUSING_CATALOG_PATH"`
	RemapPath     *string  `json:"remap_path,omitempty" env:"HOUSING_REMAP_PATH"`
	PresetDB      *string  `json:"preset_db,omitempty" env:"HOUSING_PRESET_DB"`
	Language      *string  `json:"language,omitempty" env:"HOUSING_LANGUAGE"`
	HouseSize     *string  `json:"house_size,omitempty" env:"HOUSING_HOUSE_SIZE"`
	HouseName     *string  `json:"house_name,omitempty" env:"HOUSING_HOUSE_NAME"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }

// DefaultConfig returns a Config with every field set to its default.
func DefaultConfig() *Config {
	return &Config{
		InteriorScale: ptrFloat64(DefaultInteriorScale),
		PageWindow:    ptrString(DefaultPageWindow.String()),
		CatalogPath:   ptrString(""),
		RemapPath:     ptrString(""),
		PresetDB:      ptrString(DefaultPresetDB),
		Language:      ptrString(DefaultLanguage),
		HouseSize:     ptrString(""),
		HouseName:     ptrString(""),
	}
}

// LoadConfig loads a Config from a JSON file. Comments and trailing
// commas are allowed. Fields omitted from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Load reads the file at path, if any, then applies HOUSING_*
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overwrites fields whose HOUSING_* variable is set.
func (c *Config) ApplyEnv() error {
	var overrides Config
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	c.Merge(&overrides)
	return nil
}

// Merge copies every field set in o into c.
func (c *Config) Merge(o *Config) {
	if o.InteriorScale != nil {
		c.InteriorScale = o.InteriorScale
	}
	if o.PageWindow != nil {
		c.PageWindow = o.PageWindow
	}
	if o.CatalogPath != nil {
		c.CatalogPath = o.CatalogPath
	}
	if o.RemapPath != nil {
		c.RemapPath = o.RemapPath
	}
	if o.PresetDB != nil {
		c.PresetDB = o.PresetDB
	}
	if o.Language != nil {
		c.Language = o.Language
	}
	if o.HouseSize != nil {
		c.HouseSize = o.HouseSize
	}
	if o.HouseName != nil {
		c.HouseName = o.HouseName
	}
}

var houseSizes = map[string]bool{
	"": true, "Small": true, "Medium": true, "Large": true, "Apartment": true,
	"Unknown0": true, "Unknown1": true, "Unknown2": true,
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.InteriorScale != nil && *c.InteriorScale <= 0 {
		return fmt.Errorf("interior_scale must be positive, got %f", *c.InteriorScale)
	}

	if c.PageWindow != nil && *c.PageWindow != "" {
		d, err := time.ParseDuration(*c.PageWindow)
		if err != nil {
			return fmt.Errorf("invalid page_window '%s': %w", *c.PageWindow, err)
		}
		if d <= 0 {
			return fmt.Errorf("page_window must be positive, got %s", d)
		}
	}

	if c.Language != nil && *c.Language != "" {
		if _, err := language.Parse(*c.Language); err != nil {
			return fmt.Errorf("invalid language '%s': %w", *c.Language, err)
		}
	}

	if c.HouseSize != nil && !houseSizes[*c.HouseSize] {
		return fmt.Errorf("unknown house_size '%s'", *c.HouseSize)
	}
	return nil
}

// GetInteriorScale returns the export location scale or the default.
func (c *Config) GetInteriorScale() float64 {
	if c.InteriorScale == nil {
		return DefaultInteriorScale
	}
	return *c.InteriorScale
}

// GetPageWindow parses and returns the PageWindow as a time.Duration.
func (c *Config) GetPageWindow() time.Duration {
	if c.PageWindow == nil || *c.PageWindow == "" {
		return DefaultPageWindow
	}
	d, err := time.ParseDuration(*c.PageWindow)
	if err != nil || d <= 0 {
		return DefaultPageWindow // default on parse error
	}
	return d
}

// GetCatalogPath returns the catalog location, "" when unset.
func (c *Config) GetCatalogPath() string {
	if c.CatalogPath == nil {
		return ""
	}
	return *c.CatalogPath
}

// GetRemapPath returns the remap override file, "" when unset.
func (c *Config) GetRemapPath() string {
	if c.RemapPath == nil {
		return ""
	}
	return *c.RemapPath
}

// GetPresetDB returns the preset database path or the default.
func (c *Config) GetPresetDB() string {
	if c.PresetDB == nil || *c.PresetDB == "" {
		return DefaultPresetDB
	}
	return *c.PresetDB
}

// GetLanguage returns the collation language or English.
func (c *Config) GetLanguage() language.Tag {
	if c.Language == nil || *c.Language == "" {
		return language.English
	}
	tag, err := language.Parse(*c.Language)
	if err != nil {
		return language.English
	}
	return tag
}

// GetHouseSize returns the exported house size name.
func (c *Config) GetHouseSize() string {
	if c.HouseSize == nil {
		return ""
	}
	return *c.HouseSize
}

// GetHouseName returns the exported district name.
func (c *Config) GetHouseName() string {
	if c.HouseName == nil {
		return ""
	}
	return *c.HouseName
}
