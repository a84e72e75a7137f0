package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/c2h5oh/datasize"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Theme != "solarized-dark" {
		t.Errorf("expected default theme 'solarized-dark', got %q", cfg.Theme)
	}
	if cfg.PollInterval != 18*time.Second {
		t.Errorf("expected poll interval 18s, got %v", cfg.PollInterval)
	}
	if cfg.DefaultDisableDuration != 30*time.Second {
		t.Errorf("expected disable duration 30s, got %v", cfg.DefaultDisableDuration)
	}
	if !cfg.ReloadAfterDisable || cfg.ReloadAfterAllow {
		t.Errorf("unexpected reload defaults: disable=%t allow=%t", cfg.ReloadAfterDisable, cfg.ReloadAfterAllow)
	}
	if cfg.ListAPI.Path != "control/list" {
		t.Errorf("expected list path 'control/list', got %q", cfg.ListAPI.Path)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should be valid: %v", err)
	}
}

func TestConfigSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.Theme = "dracula"
	cfg.PollInterval = time.Minute
	cfg.MaxResponseSize = 64 * datasize.KB
	cfg.ReloadCommand = []string{"xdotool", "key", "F5"}
	cfg.ListAPI.Path = "admin/api.php"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if loaded.Theme != "dracula" {
		t.Errorf("expected theme 'dracula', got %q", loaded.Theme)
	}
	if loaded.PollInterval != time.Minute {
		t.Errorf("expected poll interval 1m, got %v", loaded.PollInterval)
	}
	if loaded.MaxResponseSize != 64*datasize.KB {
		t.Errorf("expected max response size 64KB, got %v", loaded.MaxResponseSize)
	}
	if !slices.Equal(loaded.ReloadCommand, cfg.ReloadCommand) {
		t.Errorf("expected reload command %v, got %v", cfg.ReloadCommand, loaded.ReloadCommand)
	}
	if loaded.ListAPI.Path != "admin/api.php" || loaded.ListAPI.AddParam != "add" {
		t.Errorf("unexpected list api %+v", loaded.ListAPI)
	}
}

func TestConfigLoadMissing(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("LoadConfig() should return defaults for missing file, got error: %v", err)
	}
	if cfg.Theme != "solarized-dark" {
		t.Errorf("expected default theme, got %q", cfg.Theme)
	}
}

func TestConfigLoadPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "poll_interval = \"1m\"\nmax_response_size = \"2MB\"\n\n[list_api]\nallow_value = \"white\"\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.PollInterval != time.Minute {
		t.Errorf("expected poll interval 1m, got %v", cfg.PollInterval)
	}
	if cfg.MaxResponseSize != 2*datasize.MB {
		t.Errorf("expected 2MB, got %v", cfg.MaxResponseSize)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("expected default request timeout, got %v", cfg.RequestTimeout)
	}
	if cfg.ListAPI.AllowValue != "white" || cfg.ListAPI.DenyValue != "deny" {
		t.Errorf("unexpected list values %+v", cfg.ListAPI)
	}
}

func TestConfigLoadInvalid(t *testing.T) {
	cases := map[string]string{
		"bad_duration": "poll_interval = \"soon\"\n",
		"zero_poll":    "poll_interval = \"0s\"\n",
		"bad_toml":     "theme = \n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestConfigSet(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Set("default_disable_duration", "5m"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if cfg.DefaultDisableDuration != 5*time.Minute {
		t.Errorf("expected 5m, got %v", cfg.DefaultDisableDuration)
	}
	if err := cfg.Set("reload_after_allow", "true"); err != nil || !cfg.ReloadAfterAllow {
		t.Errorf("Set(reload_after_allow) failed: %v", err)
	}
	if err := cfg.Set("reload_command", "xdotool key F5"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if len(cfg.ReloadCommand) != 3 {
		t.Errorf("expected 3 command fields, got %v", cfg.ReloadCommand)
	}
	if err := cfg.Set("no_such_key", "1"); err == nil {
		t.Error("expected error for unknown key")
	}
	if err := cfg.Set("poll_interval", "-1s"); err == nil {
		t.Error("expected error for negative poll interval")
	}
	for _, k := range Keys() {
		if k == "" {
			t.Error("empty key")
		}
	}
}
