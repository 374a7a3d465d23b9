package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	path := Path()
	want := "/custom/config/fg/config.yml"
	if path != want {
		t.Errorf("Path() = %q, want %q", path, want)
	}

	// Test with empty XDG_CONFIG_HOME (should use ~/.config)
	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	want = filepath.Join(home, ".config", "fg", "config.yml")
	if got := Path(); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Scale != 4.0 || cfg.MaxDepth != 100 || cfg.LogLevel != "info" {
		t.Errorf("LoadFile() = %+v, want defaults", cfg)
	}
	if cfg.Path != "" {
		t.Errorf("Path = %q, want empty", cfg.Path)
	}
}

func TestLoadFile_ResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := `datasets:
  - nets/a.json
  - /abs/b.jsonl
metrics_db: metrics.db
scale: 2.5
grid_root: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if got, want := cfg.Datasets[0], filepath.Join(dir, "nets", "a.json"); got != want {
		t.Errorf("Datasets[0] = %q, want %q", got, want)
	}
	if cfg.Datasets[1] != "/abs/b.jsonl" {
		t.Errorf("Datasets[1] = %q, want /abs/b.jsonl", cfg.Datasets[1])
	}
	if got, want := cfg.MetricsDB, filepath.Join(dir, "metrics.db"); got != want {
		t.Errorf("MetricsDB = %q, want %q", got, want)
	}
	if cfg.Scale != 2.5 || !cfg.GridRoot {
		t.Errorf("Scale = %v, GridRoot = %v", cfg.Scale, cfg.GridRoot)
	}
	if cfg.MaxDepth != 100 {
		t.Errorf("MaxDepth = %d, want default 100", cfg.MaxDepth)
	}
	if cfg.Path != path {
		t.Errorf("Path = %q, want %q", cfg.Path, path)
	}
}

func TestLoadFile_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("scale: [oops"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	_, err := LoadFile(path)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("LoadFile() error = %v, want ErrInvalidConfig", err)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"FG_DATASETS":    "a.json, b.jsonl ,",
		"FG_SCALE":       "1.5",
		"FG_MAX_DEPTH":   "7",
		"FG_GRID_ROOT":   "true",
		"FG_LOG_LEVEL":   "DEBUG",
		"FG_LISTEN_ADDR": ":9000",
		"FG_RATE_LIMIT":  "  ",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if len(cfg.Datasets) != 2 || cfg.Datasets[0] != "a.json" || cfg.Datasets[1] != "b.jsonl" {
		t.Errorf("Datasets = %v", cfg.Datasets)
	}
	if cfg.Scale != 1.5 || cfg.MaxDepth != 7 || !cfg.GridRoot {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.LogLevel != "debug" || cfg.ListenAddr != ":9000" {
		t.Errorf("LogLevel = %q, ListenAddr = %q", cfg.LogLevel, cfg.ListenAddr)
	}
	if cfg.RateLimit != 20 {
		t.Errorf("blank FG_RATE_LIMIT changed RateLimit to %v", cfg.RateLimit)
	}
}

func TestApplyEnv_BadNumber(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{"FG_MAX_DEPTH": "lots"}))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("ApplyEnv() error = %v, want ErrInvalidConfig", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero scale", func(c *Config) { c.Scale = 0 }, true},
		{"negative burst", func(c *Config) { c.RateBurst = -1 }, true},
		{"bad level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"empty dataset path", func(c *Config) { c.Datasets = []string{""} }, true},
		{"listen addr without port", func(c *Config) { c.ListenAddr = "localhost" }, true},
		{"listen addr port only", func(c *Config) { c.ListenAddr = ":8080" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoad_CachesAndReads(t *testing.T) {
	ResetCache()
	defer ResetCache()

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("FG_LOG_LEVEL", "warn")
	if err := os.MkdirAll(filepath.Join(dir, ConfigDir), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(Path(), []byte("log_level: error\nmax_depth: 12\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want env override warn", cfg.LogLevel)
	}
	if cfg.MaxDepth != 12 {
		t.Errorf("MaxDepth = %d, want 12", cfg.MaxDepth)
	}

	again, _ := Load()
	if again != cfg {
		t.Error("Load() did not return the cached config")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
