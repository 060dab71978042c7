package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override values from the config file
const (
	EnvConfig     = "ICONSMITH_CONFIG"
	EnvSource     = "ICONSMITH_SOURCE"
	EnvIconsDir   = "ICONSMITH_ICONS_DIR"
	EnvFaviconDir = "ICONSMITH_FAVICON_DIR"
	EnvWatch      = "ICONSMITH_WATCH"
)

// DefaultConfigFile is looked up in the working directory when ICONSMITH_CONFIG is unset
const DefaultConfigFile = "iconsmith.yaml"

// MaxFaviconSize is the largest dimension an ICO directory entry can describe
const MaxFaviconSize = 256

// Config represents the application configuration
type Config struct {
	Source   string         `yaml:"source"`
	Icons    IconsConfig    `yaml:"icons"`
	Favicon  FaviconConfig  `yaml:"favicon"`
	Manifest ManifestConfig `yaml:"manifest"`
	Watch    bool           `yaml:"watch"`
}

// IconsConfig controls the per-size PNG app icons
type IconsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	OutputDir string `yaml:"output_dir"`
	Sizes     []int  `yaml:"sizes"`
	Normalize bool   `yaml:"normalize"`
	Crop      bool   `yaml:"crop"`
}

// FaviconConfig controls the multi-resolution favicon.ico
type FaviconConfig struct {
	Enabled   bool   `yaml:"enabled"`
	OutputDir string `yaml:"output_dir"`
	Sizes     []int  `yaml:"sizes"`
	Normalize bool   `yaml:"normalize"`
	Crop      bool   `yaml:"crop"`
}

// ManifestConfig controls the web manifest icons fragment
type ManifestConfig struct {
	Enabled  bool   `yaml:"enabled"`
	FileName string `yaml:"file_name"`
	Prefix   string `yaml:"prefix"`
}

// Default returns the configuration used when no file is present.
// Relative paths are resolved against baseDir.
func Default(baseDir string) *Config {
	public := filepath.Join(baseDir, "public")
	return &Config{
		Source: filepath.Join(public, "app-icon.png"),
		Icons: IconsConfig{
			Enabled:   true,
			OutputDir: filepath.Join(public, "icons"),
			Sizes:     []int{72, 96, 128, 144, 152, 192, 384, 512},
			Normalize: true,
			Crop:      true,
		},
		Favicon: FaviconConfig{
			Enabled:   true,
			OutputDir: public,
			Sizes:     []int{16, 32, 48, 64},
			Normalize: true,
			Crop:      true,
		},
		Manifest: ManifestConfig{
			FileName: "icons.json",
			Prefix:   "/icons/",
		},
	}
}

// Load reads and parses the configuration file on top of Default(baseDir)
func Load(path, baseDir string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default(baseDir)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.resolve(baseDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnvironment loads .env (if present), the config file named by
// ICONSMITH_CONFIG or iconsmith.yaml in baseDir (if present), then applies
// environment overrides. A missing config file is not an error.
func LoadFromEnvironment(baseDir string) (*Config, error) {
	// Variables already set in the process win over .env
	if err := godotenv.Load(filepath.Join(baseDir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	path := os.Getenv(EnvConfig)
	explicit := path != ""
	if !explicit {
		path = filepath.Join(baseDir, DefaultConfigFile)
	}

	var cfg *Config
	if _, err := os.Stat(path); err == nil {
		cfg, err = Load(path, baseDir)
		if err != nil {
			return nil, err
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s not found: %w", path, err)
	} else {
		cfg = Default(baseDir)
	}

	if err := cfg.ApplyEnv(baseDir); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides paths and flags from ICONSMITH_* variables
func (c *Config) ApplyEnv(baseDir string) error {
	if v := os.Getenv(EnvSource); v != "" {
		c.Source = absPath(baseDir, v)
	}
	if v := os.Getenv(EnvIconsDir); v != "" {
		c.Icons.OutputDir = absPath(baseDir, v)
	}
	if v := os.Getenv(EnvFaviconDir); v != "" {
		c.Favicon.OutputDir = absPath(baseDir, v)
	}
	if v := os.Getenv(EnvWatch); v != "" {
		watch, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvWatch, v, err)
		}
		c.Watch = watch
	}
	return nil
}

// Validate checks if required configuration fields are set
func (c *Config) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("source is required")
	}
	if !c.Icons.Enabled && !c.Favicon.Enabled {
		return fmt.Errorf("at least one of icons or favicon must be enabled")
	}
	if c.Icons.Enabled {
		if c.Icons.OutputDir == "" {
			return fmt.Errorf("icons.output_dir is required")
		}
		if err := validateSizes("icons.sizes", c.Icons.Sizes, 0); err != nil {
			return err
		}
	}
	if c.Favicon.Enabled {
		if c.Favicon.OutputDir == "" {
			return fmt.Errorf("favicon.output_dir is required")
		}
		if err := validateSizes("favicon.sizes", c.Favicon.Sizes, MaxFaviconSize); err != nil {
			return err
		}
	}
	if c.Manifest.Enabled && c.Manifest.FileName == "" {
		return fmt.Errorf("manifest.file_name is required when manifest is enabled")
	}
	return nil
}

func validateSizes(field string, sizes []int, limit int) error {
	if len(sizes) == 0 {
		return fmt.Errorf("%s must not be empty", field)
	}
	for _, s := range sizes {
		if s <= 0 {
			return fmt.Errorf("%s: size %d must be positive", field, s)
		}
		if limit > 0 && s > limit {
			return fmt.Errorf("%s: size %d exceeds %d", field, s, limit)
		}
	}
	return nil
}

// resolve makes paths from the config file relative to baseDir
func (c *Config) resolve(baseDir string) {
	c.Source = absPath(baseDir, c.Source)
	c.Icons.OutputDir = absPath(baseDir, c.Icons.OutputDir)
	c.Favicon.OutputDir = absPath(baseDir, c.Favicon.OutputDir)
}

func absPath(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
