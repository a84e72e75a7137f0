package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "agtoggle"

// File names inside the config and data directories.
const (
	configFileName = "config.toml"
	vaultFileName  = "instances.enc"
	alarmFileName  = "alarm.json"
	badgeFileName  = "badge.json"
	logFileName    = "agtoggle.log"
)

// GetConfigDir returns the platform-specific config directory.
// Unix: $XDG_CONFIG_HOME/agtoggle or ~/.config/agtoggle
// Windows: %APPDATA%\agtoggle
func GetConfigDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	default:
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, appName), nil
}

// GetDataDir returns the platform-specific directory for state and logs.
// Unix: $XDG_STATE_HOME/agtoggle or ~/.local/state/agtoggle
// Windows: %LOCALAPPDATA%\agtoggle
func GetDataDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local")
		}
	default:
		base = os.Getenv("XDG_STATE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			base = filepath.Join(home, ".local", "state")
		}
	}
	return filepath.Join(base, appName), nil
}

// Paths holds the locations of every file the program uses.
type Paths struct {
	ConfigDir string
	DataDir   string
}

// ResolvePaths returns the platform paths.  A non-empty dir overrides both
// directories, which keeps all files of one setup together.
func ResolvePaths(dir string) (*Paths, error) {
	if dir != "" {
		return &Paths{ConfigDir: dir, DataDir: dir}, nil
	}

	cfgDir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}

	dataDir, err := GetDataDir()
	if err != nil {
		return nil, err
	}

	return &Paths{ConfigDir: cfgDir, DataDir: dataDir}, nil
}

// ConfigFile returns the path of the preferences file.
func (p *Paths) ConfigFile() string { return filepath.Join(p.ConfigDir, configFileName) }

// VaultFile returns the path of the encrypted instance store.
func (p *Paths) VaultFile() string { return filepath.Join(p.ConfigDir, vaultFileName) }

// AlarmFile returns the path of the persisted refresh schedule.
func (p *Paths) AlarmFile() string { return filepath.Join(p.DataDir, alarmFileName) }

// BadgeFile returns the path of the indicator badge.
func (p *Paths) BadgeFile() string { return filepath.Join(p.DataDir, badgeFileName) }

// LogFile returns the path of the log used while the TUI owns the terminal.
func (p *Paths) LogFile() string { return filepath.Join(p.DataDir, logFileName) }

// EnsureDirs creates all required directories if they don't exist.
func (p *Paths) EnsureDirs() error {
	for _, dir := range []string{p.ConfigDir, p.DataDir} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return nil
}
