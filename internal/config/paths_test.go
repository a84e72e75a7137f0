package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestGetConfigDir(t *testing.T) {
	dir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error: %v", err)
	}
	if filepath.Base(dir) != "agtoggle" {
		t.Errorf("expected dir to end with 'agtoggle', got %q", filepath.Base(dir))
	}
}

func TestGetConfigDirXDG(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("XDG test not applicable on Windows")
	}
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	dir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error: %v", err)
	}
	expected := filepath.Join(tmp, "agtoggle")
	if dir != expected {
		t.Errorf("expected %q, got %q", expected, dir)
	}
}

func TestGetDataDirXDG(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("XDG test not applicable on Windows")
	}
	tmp := t.TempDir()
	t.Setenv("XDG_STATE_HOME", tmp)
	dir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir() error: %v", err)
	}
	if dir != filepath.Join(tmp, "agtoggle") {
		t.Errorf("unexpected data dir %q", dir)
	}
}

func TestResolvePathsOverride(t *testing.T) {
	tmp := t.TempDir()
	p, err := ResolvePaths(tmp)
	if err != nil {
		t.Fatalf("ResolvePaths() error: %v", err)
	}

	files := map[string]string{
		p.ConfigFile(): "config.toml",
		p.VaultFile():  "instances.enc",
		p.AlarmFile():  "alarm.json",
		p.BadgeFile():  "badge.json",
		p.LogFile():    "agtoggle.log",
	}
	for path, name := range files {
		if path != filepath.Join(tmp, name) {
			t.Errorf("expected %q under %q, got %q", name, tmp, path)
		}
	}
}

func TestEnsureDirs(t *testing.T) {
	tmp := t.TempDir()
	p := &Paths{
		ConfigDir: filepath.Join(tmp, "cfg"),
		DataDir:   filepath.Join(tmp, "data", "nested"),
	}
	if err := p.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs() error: %v", err)
	}
	for _, dir := range []string{p.ConfigDir, p.DataDir} {
		fi, err := os.Stat(dir)
		if err != nil || !fi.IsDir() {
			t.Errorf("expected directory %q to exist", dir)
		}
	}
}
