// Package config handles feedergraph configuration: a YAML file under
// XDG_CONFIG_HOME, an optional .env file and FG_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the merged feedergraph configuration.
type Config struct {
	Datasets   []string `yaml:"datasets,omitempty" json:"datasets" validate:"dive,required"`
	Scale      float64  `yaml:"scale,omitempty" json:"scale" validate:"gt=0"`
	MaxDepth   int      `yaml:"max_depth,omitempty" json:"max_depth" validate:"gt=0,lte=100000"`
	GridRoot   bool     `yaml:"grid_root,omitempty" json:"grid_root"`
	MetricsDB  string   `yaml:"metrics_db,omitempty" json:"metrics_db,omitempty"`
	ListenAddr string   `yaml:"listen_addr,omitempty" json:"listen_addr" validate:"required"`
	RateLimit  float64  `yaml:"rate_limit,omitempty" json:"rate_limit" validate:"gte=0"`
	RateBurst  int      `yaml:"rate_burst,omitempty" json:"rate_burst" validate:"gte=0"`
	LogLevel   string   `yaml:"log_level,omitempty" json:"log_level" validate:"oneof=debug info warn error"`

	// Path is the file the config was read from, if any.
	Path string `yaml:"-" json:"path,omitempty"`
}

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "fg"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "FG_"
)

// ErrInvalidConfig wraps every configuration problem.
var ErrInvalidConfig = errors.New("invalid configuration")

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Scale:      4.0,
		MaxDepth:   100,
		ListenAddr: "127.0.0.1:8080",
		RateLimit:  20,
		RateBurst:  40,
		LogLevel:   "info",
	}
}

// cache holds the config loaded by Load.
var cache *Config

// Path returns the path to the config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/fg/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// Load reads .env, the config file at Path and the environment, in that
// order of increasing precedence. The result is cached.
func Load() (*Config, error) {
	if cache != nil {
		return cache, nil
	}

	// A missing .env is fine.
	_ = godotenv.Load()

	cfg, err := LoadFile(Path())
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cache = cfg
	return cfg, nil
}

// ResetCache clears the cached config.
// Useful for testing.
func ResetCache() {
	cache = nil
}

// LoadFile reads a config file over the defaults. A missing file yields the
// defaults. Relative dataset and database paths resolve against the file's
// directory.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrInvalidConfig, path, err)
	}
	cfg.Path = path

	dir := filepath.Dir(path)
	for i, p := range cfg.Datasets {
		cfg.Datasets[i] = resolve(dir, p)
	}
	if cfg.MetricsDB != "" {
		cfg.MetricsDB = resolve(dir, cfg.MetricsDB)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from FG_* variables found by lookup.
// FG_DATASETS is a comma-separated list.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("DATASETS"); ok {
		c.Datasets = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				c.Datasets = append(c.Datasets, ExpandPath(p))
			}
		}
	}
	if v, ok := get("METRICS_DB"); ok {
		c.MetricsDB = ExpandPath(v)
	}
	if v, ok := get("LISTEN_ADDR"); ok {
		c.ListenAddr = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.LogLevel = strings.ToLower(v)
	}

	var err error
	parse := func(key string, fn func(string) error) {
		if err != nil {
			return
		}
		if v, ok := get(key); ok {
			if perr := fn(v); perr != nil {
				err = fmt.Errorf("%w: %s%s=%q: %v", ErrInvalidConfig, EnvPrefix, key, v, perr)
			}
		}
	}
	parse("SCALE", func(v string) (e error) { c.Scale, e = strconv.ParseFloat(v, 64); return })
	parse("MAX_DEPTH", func(v string) (e error) { c.MaxDepth, e = strconv.Atoi(v); return })
	parse("GRID_ROOT", func(v string) (e error) { c.GridRoot, e = strconv.ParseBool(v); return })
	parse("RATE_LIMIT", func(v string) (e error) { c.RateLimit, e = strconv.ParseFloat(v, 64); return })
	parse("RATE_BURST", func(v string) (e error) { c.RateBurst, e = strconv.Atoi(v); return })
	return err
}

var validate = validator.New()

// Validate checks field constraints and the listen address.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s fails %q (value %v)", ErrInvalidConfig, fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return fmt.Errorf("%w: listen_addr %q: %v", ErrInvalidConfig, c.ListenAddr, err)
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}

func resolve(dir, p string) string {
	p = ExpandPath(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// HelpfulConfigMessage returns a hint for when no dataset is configured.
func HelpfulConfigMessage() string {
	configPath := Path()
	return fmt.Sprintf(`No network dataset configured.

Tip: pass --dataset, set FG_DATASETS, or create %s:
  mkdir -p %s
  echo 'datasets: [/path/to/network.json]' > %s`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
