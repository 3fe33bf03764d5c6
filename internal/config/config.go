package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	exeDirCache string
)

// getExecutableDir returns the directory where the executable is located
func getExecutableDir() string {
	if exeDirCache != "" {
		return exeDirCache
	}
	execPath, err := os.Executable()
	if err != nil {
		exeDirCache = "."
		return exeDirCache
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		exeDirCache = "."
		return exeDirCache
	}
	exeDirCache = filepath.Dir(execPath)
	return exeDirCache
}

type Config struct {
	// RootDir anchors every relative path below. Default ".".
	RootDir  string         `yaml:"root_dir,omitempty"`
	Composer ComposerConfig `yaml:"composer"`
	Logging  LoggingConfig  `yaml:"logging"`
	Audit    AuditConfig    `yaml:"audit,omitempty"`
	History  HistoryConfig  `yaml:"history,omitempty"`
	Server   ServerConfig   `yaml:"server,omitempty"`
}

// ComposerConfig points at the schema and library files.
type ComposerConfig struct {
	SchemaPath     string `yaml:"schema_path"`
	LibrariesDir   string `yaml:"libraries_dir"`
	DefaultModel   string `yaml:"default_model,omitempty"`
	DefaultLibrary string `yaml:"default_library,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// AuditConfig controls the JSONL composition audit trail.
type AuditConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Dir           string `yaml:"dir,omitempty"`
	RetentionDays int    `yaml:"retention_days,omitempty"`
	FilePrefix    string `yaml:"file_prefix,omitempty"`
}

// HistoryConfig controls the SQLite composition history.
type HistoryConfig struct {
	Enabled    bool   `yaml:"enabled"`
	SQLitePath string `yaml:"sqlite_path,omitempty"`
	// RetentionDays prunes older compositions in serve mode. 0 keeps everything.
	RetentionDays int `yaml:"retention_days,omitempty"`
}

type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
	// CleanupSchedule is a cron expression for audit retention cleanup.
	CleanupSchedule string `yaml:"cleanup_schedule,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		RootDir: ".",
		Composer: ComposerConfig{
			SchemaPath:     "schema/connector.json",
			LibrariesDir:   "libraries",
			DefaultModel:   "sdxl",
			DefaultLibrary: "default",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Audit: AuditConfig{
			Enabled:       false,
			Dir:           ".modprompt/audit",
			RetentionDays: 7,
			FilePrefix:    "compose",
		},
		History: HistoryConfig{
			Enabled:    false,
			SQLitePath: ".modprompt/history.db",
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8787",
			CleanupSchedule: "@daily",
		},
	}
}

// ResolvePath anchors p at RootDir unless it is absolute.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	root := c.RootDir
	if root == "" {
		root = "."
	}
	return filepath.Join(root, p)
}

func ConfigPath() string {
	exeDir := getExecutableDir()
	return filepath.Join(exeDir, ".modprompt.yaml")
}

func Load() (*Config, error) {
	return LoadFromPath(ConfigPath())
}

// LoadFromPath reads a config file over the defaults. A missing file yields the defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveTo writes the config as YAML to path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
