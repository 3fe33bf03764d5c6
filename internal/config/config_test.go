package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromPathOverridesDefaults(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, ".modprompt.yaml")
	content := `root_dir: /srv/prompts
composer:
  schema_path: schema/v2.yaml
  libraries_dir: packs
logging:
  level: debug
audit:
  enabled: true
  retention_days: 30
history:
  enabled: true
`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Composer.SchemaPath != "schema/v2.yaml" || cfg.Composer.LibrariesDir != "packs" {
		t.Fatalf("unexpected composer config: %#v", cfg.Composer)
	}
	if cfg.Composer.DefaultModel != "sdxl" {
		t.Fatalf("expected default model to survive partial config, got %q", cfg.Composer.DefaultModel)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected logging level debug, got %q", cfg.Logging.Level)
	}
	if !cfg.Audit.Enabled || cfg.Audit.RetentionDays != 30 || cfg.Audit.FilePrefix != "compose" {
		t.Fatalf("unexpected audit config: %#v", cfg.Audit)
	}
	if !cfg.History.Enabled || cfg.History.SQLitePath != ".modprompt/history.db" {
		t.Fatalf("unexpected history config: %#v", cfg.History)
	}
	if got := cfg.ResolvePath("packs"); got != filepath.Join("/srv/prompts", "packs") {
		t.Fatalf("unexpected resolved path: %s", got)
	}
	if got := cfg.ResolvePath("/abs/schema.json"); got != "/abs/schema.json" {
		t.Fatalf("absolute paths must be kept, got %s", got)
	}
}

func TestLoadFromPathMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Composer.SchemaPath != "schema/connector.json" {
		t.Fatalf("expected default schema path, got %q", cfg.Composer.SchemaPath)
	}
}

func TestLoadFromPathInvalidYAML(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(cfgPath, []byte("composer: [unterminated"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFromPath(cfgPath); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cfg.yaml")
	cfg := DefaultConfig()
	cfg.Server.Addr = "0.0.0.0:9000"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("save config: %v", err)
	}
	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if loaded.Server.Addr != "0.0.0.0:9000" {
		t.Fatalf("expected saved addr, got %q", loaded.Server.Addr)
	}
}
