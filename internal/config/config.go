package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	gerr "github.com/nicobailon/remotegrid/internal/err"
	"github.com/nicobailon/remotegrid/internal/grid"
)

const (
	defaultPageSize        = grid.DefaultPageSize
	defaultRowHeight       = 1
	defaultEnterNavigation = "row"
	defaultTabNavigation   = "cell-and-row"
	defaultRequestTimeout  = 10 * time.Second
	defaultTheme           = "catppuccin-mocha"
	defaultLocale          = "en"
	defaultLogLevel        = "info"

	envPrefix = "REMOTEGRID"
)

type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

type Config struct {
	DBPath          string        `mapstructure:"db_path"`
	Table           string        `mapstructure:"table"`
	Addr            string        `mapstructure:"addr"`
	PageSize        int           `mapstructure:"page_size"`
	RowHeight       int           `mapstructure:"row_height"`
	AutoFit         bool          `mapstructure:"auto_fit"`
	EnterNavigation string        `mapstructure:"enter_navigation"`
	TabNavigation   string        `mapstructure:"tab_navigation"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	Theme           string        `mapstructure:"theme"`
	Locale          string        `mapstructure:"locale"`
	Log             LogConfig     `mapstructure:"log"`
}

// Dir is where the config file, the recent list and the default log live.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "remotegrid")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "remotegrid")
}

// Default is the configuration used when nothing is configured.
func Default() *Config {
	return &Config{
		PageSize:        defaultPageSize,
		RowHeight:       defaultRowHeight,
		AutoFit:         true,
		EnterNavigation: defaultEnterNavigation,
		TabNavigation:   defaultTabNavigation,
		RequestTimeout:  defaultRequestTimeout,
		Theme:           defaultTheme,
		Locale:          defaultLocale,
		Log: LogConfig{
			File:  filepath.Join(Dir(), "remotegrid.log"),
			Level: defaultLogLevel,
		},
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("db_path", "")
	v.SetDefault("table", "")
	v.SetDefault("addr", "")
	v.SetDefault("page_size", defaultPageSize)
	v.SetDefault("row_height", defaultRowHeight)
	v.SetDefault("auto_fit", true)
	v.SetDefault("enter_navigation", defaultEnterNavigation)
	v.SetDefault("tab_navigation", defaultTabNavigation)
	v.SetDefault("request_timeout", defaultRequestTimeout)
	v.SetDefault("theme", defaultTheme)
	v.SetDefault("locale", defaultLocale)
	v.SetDefault("log.file", filepath.Join(Dir(), "remotegrid.log"))
	v.SetDefault("log.level", defaultLogLevel)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads config.yaml from the config directories, falling back to
// config.toml, then to defaults. REMOTEGRID_* variables override the file.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		v.AddConfigPath(filepath.Join(xdg, "remotegrid"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "remotegrid"))
	}
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		// fallback to TOML if yaml missing
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, &gerr.ConfigurationError{Err: fmt.Errorf("reading config: %w", err)}
			}
		}
	}
	return decode(v)
}

// LoadFile reads an explicit config file; its extension selects the format.
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, &gerr.ConfigurationError{Err: fmt.Errorf("reading config %s: %w", path, err)}
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, &gerr.ConfigurationError{Err: fmt.Errorf("decoding config: %w", err)}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	bucket := gerr.ErrorsBucket{Msg: "invalid configuration:"}
	if c.PageSize <= 0 {
		bucket.Add(fmt.Errorf("page_size must be positive, got %d", c.PageSize))
	}
	if c.RowHeight <= 0 {
		bucket.Add(fmt.Errorf("row_height must be positive, got %d", c.RowHeight))
	}
	if _, err := grid.ParseNavigationMode(c.EnterNavigation); err != nil {
		bucket.Add(fmt.Errorf("enter_navigation: %w", err))
	}
	if _, err := grid.ParseNavigationMode(c.TabNavigation); err != nil {
		bucket.Add(fmt.Errorf("tab_navigation: %w", err))
	}
	if c.RequestTimeout < 0 {
		bucket.Add(fmt.Errorf("request_timeout must not be negative"))
	}
	if c.Theme != defaultTheme {
		bucket.Add(fmt.Errorf("theme %q is not available, use %s", c.Theme, defaultTheme))
	}
	if _, err := grid.ParseLocale(c.Locale); err != nil {
		bucket.Add(fmt.Errorf("locale %q: %w", c.Locale, err))
	}
	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "error":
	default:
		bucket.Add(fmt.Errorf("log.level %q is not one of trace, debug, info, warn, error", c.Log.Level))
	}
	if c.DBPath != "" && c.Addr != "" {
		bucket.Add(fmt.Errorf("db_path and addr are mutually exclusive"))
	}
	if err := bucket.ErrOrNil(); err != nil {
		return &gerr.ConfigurationError{Err: err}
	}
	return nil
}

// GridOptions maps the settings onto grid options. Callers fill in the data
// provider, source, store and logger.
func (c *Config) GridOptions() grid.Options {
	enter, _ := grid.ParseNavigationMode(c.EnterNavigation)
	tab, _ := grid.ParseNavigationMode(c.TabNavigation)
	locale, _ := grid.ParseLocale(c.Locale)
	return grid.Options{
		PageSize:        c.PageSize,
		RowHeight:       c.RowHeight,
		AutoFit:         c.AutoFit,
		EnterNavigation: enter,
		TabNavigation:   tab,
		Locale:          locale,
		RequestTimeout:  c.RequestTimeout,
	}
}
