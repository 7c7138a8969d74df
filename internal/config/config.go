package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// AppName names the config directory and env prefix
const AppName = "lazygrid"

// Config holds all application configuration
type Config struct {
	API         APIConfig         `mapstructure:"api"`
	UI          UIConfig          `mapstructure:"ui"`
	Data        DataConfig        `mapstructure:"data"`
	Performance PerformanceConfig `mapstructure:"performance"`
	Export      ExportConfig      `mapstructure:"export"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type UIConfig struct {
	MouseEnabled    bool `mapstructure:"mouse_enabled"`
	PanelWidthRatio int  `mapstructure:"panel_width_ratio"`
}

type DataConfig struct {
	PageSize             int `mapstructure:"page_size"`
	ScrollThreshold      int `mapstructure:"scroll_threshold"`
	ScrollDebounceMs     int `mapstructure:"scroll_debounce_ms"`
	MaxCellDisplayLength int `mapstructure:"max_cell_display_length"`
}

type PerformanceConfig struct {
	RequestTimeoutMs int `mapstructure:"request_timeout_ms"`
	ExportTimeoutMs  int `mapstructure:"export_timeout_ms"`
}

type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// ScrollDebounce returns the scroll debounce window
func (c *Config) ScrollDebounce() time.Duration {
	return time.Duration(c.Data.ScrollDebounceMs) * time.Millisecond
}

// RequestTimeout returns the per-request timeout for page and metadata fetches
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Performance.RequestTimeoutMs) * time.Millisecond
}

// ExportTimeout returns the timeout applied to a whole export download
func (c *Config) ExportTimeout() time.Duration {
	return time.Duration(c.Performance.ExportTimeoutMs) * time.Millisecond
}

// Validate checks values the rest of the program relies on
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required (set LAZYGRID_API_BASE_URL or pass --api)")
	}
	if c.Data.PageSize <= 0 {
		return fmt.Errorf("data.page_size must be positive, got %d", c.Data.PageSize)
	}
	if c.Data.ScrollDebounceMs < 0 {
		return fmt.Errorf("data.scroll_debounce_ms must not be negative, got %d", c.Data.ScrollDebounceMs)
	}
	return nil
}

// GetDefaults returns a Config with all default values
func GetDefaults() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000",
		},
		UI: UIConfig{
			MouseEnabled:    true,
			PanelWidthRatio: 25,
		},
		Data: DataConfig{
			PageSize:             35,
			ScrollThreshold:      3,
			ScrollDebounceMs:     200,
			MaxCellDisplayLength: 50,
		},
		Performance: PerformanceConfig{
			RequestTimeoutMs: 30000,
			ExportTimeoutMs:  600000,
		},
		Export: ExportConfig{
			Dir: ".",
		},
		Logging: LoggingConfig{
			File:  defaultLogFile(),
			Level: "info",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := GetDefaults()
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("ui.mouse_enabled", d.UI.MouseEnabled)
	v.SetDefault("ui.panel_width_ratio", d.UI.PanelWidthRatio)
	v.SetDefault("data.page_size", d.Data.PageSize)
	v.SetDefault("data.scroll_threshold", d.Data.ScrollThreshold)
	v.SetDefault("data.scroll_debounce_ms", d.Data.ScrollDebounceMs)
	v.SetDefault("data.max_cell_display_length", d.Data.MaxCellDisplayLength)
	v.SetDefault("performance.request_timeout_ms", d.Performance.RequestTimeoutMs)
	v.SetDefault("performance.export_timeout_ms", d.Performance.ExportTimeoutMs)
	v.SetDefault("export.dir", d.Export.Dir)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.level", d.Logging.Level)
}

// Load loads configuration from files, the environment and an optional .env
// file. cfgFile overrides the search path when non-empty; flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 1. User config directory
		if configDir, err := GetConfigPath(); err == nil {
			v.AddConfigPath(configDir)
		}
		// 2. Current directory
		v.AddConfigPath(".")
		// 3. Default config directory
		v.AddConfigPath("./config")
	}

	// Read config (it's okay if file doesn't exist, we have defaults)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	if flags != nil {
		if f := flags.Lookup("api"); f != nil {
			if err := v.BindPFlag("api.base_url", f); err != nil {
				return nil, fmt.Errorf("error binding --api: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// GetConfigPath returns the user config directory path
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}

func defaultLogFile() string {
	dir, err := GetConfigPath()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName+".log")
	}
	return filepath.Join(dir, AppName+".log")
}
