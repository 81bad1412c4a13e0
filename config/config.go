// Package config loads tesskit settings from a config file, TESSKIT_*
// environment variables and defaults, and turns them into engine options.
package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/wudi/tesskit/tess"
)

// EnvPrefix prefixes every environment override, e.g. TESSKIT_POOL_SIZE for
// pool.size.
const EnvPrefix = "TESSKIT"

// Engine backends.
const (
	EngineNative    = "native"
	EngineGosseract = "gosseract"
)

// Config is the application configuration.
type Config struct {
	TessData      string            `mapstructure:"tessdata" toml:"tessdata"`
	Language      string            `mapstructure:"language" toml:"language"`
	EngineMode    int               `mapstructure:"engine_mode" toml:"engine_mode"`
	PageSegMode   int               `mapstructure:"page_seg_mode" toml:"page_seg_mode"`
	Configs       []string          `mapstructure:"configs" toml:"configs"`
	Variables     map[string]string `mapstructure:"variables" toml:"variables"`
	InitVariables map[string]string `mapstructure:"init_variables" toml:"init_variables"`
	Engine        string            `mapstructure:"engine" toml:"engine"`
	Pool          PoolConfig        `mapstructure:"pool" toml:"pool"`
	Process       ProcessConfig     `mapstructure:"process" toml:"process"`
	Logging       LoggingConfig     `mapstructure:"logging" toml:"logging"`
}

type PoolConfig struct {
	Size           int           `mapstructure:"size" toml:"size"`
	AcquireTimeout time.Duration `mapstructure:"acquire_timeout" toml:"acquire_timeout"`
}

type ProcessConfig struct {
	// TimeoutMs bounds multi-page processing; 0 means no limit.
	TimeoutMs int `mapstructure:"timeout_ms" toml:"timeout_ms"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" toml:"level"`
	Format string `mapstructure:"format" toml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Language:      "eng",
		EngineMode:    int(tess.EngineDefault),
		PageSegMode:   int(tess.PSMAuto),
		Configs:       []string{},
		Variables:     map[string]string{},
		InitVariables: map[string]string{},
		Engine:        EngineNative,
		Pool: PoolConfig{
			Size:           1,
			AcquireTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// SetDefaults registers the defaults on v so that every key is known to
// environment lookups.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("tessdata", d.TessData)
	v.SetDefault("language", d.Language)
	v.SetDefault("engine_mode", d.EngineMode)
	v.SetDefault("page_seg_mode", d.PageSegMode)
	v.SetDefault("configs", d.Configs)
	v.SetDefault("variables", d.Variables)
	v.SetDefault("init_variables", d.InitVariables)
	v.SetDefault("engine", d.Engine)
	v.SetDefault("pool.size", d.Pool.Size)
	v.SetDefault("pool.acquire_timeout", d.Pool.AcquireTimeout)
	v.SetDefault("process.timeout_ms", d.Process.TimeoutMs)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// ConfigDir returns the user's tesskit config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tesskit")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tesskit"
	}
	return filepath.Join(home, ".config", "tesskit")
}

// NewViper builds a viper instance with defaults and environment overrides.
// With an empty path it looks for tesskit.{toml,yaml,json} in the working
// directory and ConfigDir; a missing file is not an error.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		return v, nil
	}
	v.SetConfigName("tesskit")
	v.AddConfigPath(".")
	v.AddConfigPath(ConfigDir())
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Load reads and validates the configuration.
func Load(path string) (*Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	return Decode(v)
}

// Decode unmarshals v into a validated Config.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// Watch loads the configuration at path and calls onChange with the newly
// decoded configuration every time the file changes. A change that fails to
// decode or validate is reported through the error argument.
func Watch(path string, onChange func(*Config, error)) (*Config, error) {
	if path == "" {
		return nil, errors.New("watch: config file path required")
	}
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Decode(v)
	if err != nil {
		return nil, err
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(Decode(v))
	})
	v.WatchConfig()
	return cfg, nil
}

// MarshalTOML renders cfg as TOML.
func MarshalTOML(cfg *Config) ([]byte, error) {
	out, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return out, nil
}

// InitOptions are the engine initializer arguments.
func (c *Config) InitOptions() tess.InitOptions {
	return tess.InitOptions{
		DataPath:      c.TessData,
		Language:      c.Language,
		Mode:          tess.EngineMode(c.EngineMode),
		Configs:       slices.Clone(c.Configs),
		InitVariables: maps.Clone(c.InitVariables),
	}
}

// TessConfig is the engine snapshot this configuration describes.
func (c *Config) TessConfig() tess.Config {
	o := c.InitOptions()
	vars := maps.Clone(c.Variables)
	if vars == nil {
		vars = map[string]string{}
	}
	return tess.Config{
		DataPath:      o.DataPath,
		Language:      o.Language,
		Mode:          o.Mode,
		Configs:       o.Configs,
		InitVariables: o.InitVariables,
		Variables:     vars,
	}
}

// ProcessTimeout is the multi-page timeout as a duration.
func (c *Config) ProcessTimeout() time.Duration {
	return time.Duration(c.Process.TimeoutMs) * time.Millisecond
}
