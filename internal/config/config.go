// Package config handles the preferences file and the platform paths.
package config

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/BurntSushi/toml"
	"github.com/c2h5oh/datasize"
	"github.com/google/renameio/v2"
	"github.com/tonhe/agtoggle/internal/adguard"
)

// Config is the preferences file.  Durations are kept as strings in the file
// and parsed on load.
type Config struct {
	Theme string `toml:"theme"`

	PollInterval    time.Duration `toml:"-"`
	PollIntervalStr string        `toml:"poll_interval"`

	RequestTimeout    time.Duration `toml:"-"`
	RequestTimeoutStr string        `toml:"request_timeout"`

	DefaultDisableDuration    time.Duration `toml:"-"`
	DefaultDisableDurationStr string        `toml:"default_disable_duration"`

	MaxResponseSize datasize.ByteSize `toml:"max_response_size"`
	MaxHistory      int               `toml:"max_history"`

	ReloadAfterDisable bool     `toml:"reload_after_disable"`
	ReloadAfterAllow   bool     `toml:"reload_after_allow"`
	ReloadCommand      []string `toml:"reload_command"`
	DomainCommand      []string `toml:"domain_command"`

	MetricsAddr string `toml:"metrics_addr"`

	ListAPI adguard.ListAPI `toml:"list_api"`
}

// DefaultConfig returns the preferences used when there is no file.
func DefaultConfig() *Config {
	return &Config{
		Theme:                     "solarized-dark",
		PollInterval:              18 * time.Second,
		PollIntervalStr:           "18s",
		RequestTimeout:            adguard.DefaultTimeout,
		RequestTimeoutStr:         adguard.DefaultTimeout.String(),
		DefaultDisableDuration:    30 * time.Second,
		DefaultDisableDurationStr: "30s",
		MaxResponseSize:           adguard.DefaultMaxRespSize,
		MaxHistory:                60,
		ReloadAfterDisable:        true,
		ListAPI:                   *adguard.DefaultListAPI(),
	}
}

// LoadConfig reads the preferences at path.  A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if _, err = toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err = cfg.parseDurations(); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.ListAPI = *cfg.ListAPI.WithDefaults()

	return cfg, cfg.Validate()
}

// parseDurations fills the duration fields from their string forms.
func (c *Config) parseDurations() error {
	fields := []struct {
		dst  *time.Duration
		name string
		str  string
	}{
		{&c.PollInterval, "poll_interval", c.PollIntervalStr},
		{&c.RequestTimeout, "request_timeout", c.RequestTimeoutStr},
		{&c.DefaultDisableDuration, "default_disable_duration", c.DefaultDisableDurationStr},
	}
	for _, f := range fields {
		if f.str == "" {
			continue
		}
		d, err := time.ParseDuration(f.str)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = d
	}
	return nil
}

// Validate returns an error if c has values the program cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval: %w", errors.ErrOutOfRange))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request_timeout: %w", errors.ErrOutOfRange))
	}
	if c.DefaultDisableDuration < 0 {
		errs = append(errs, fmt.Errorf("default_disable_duration: %w", errors.ErrOutOfRange))
	}
	if c.MaxResponseSize == 0 {
		errs = append(errs, fmt.Errorf("max_response_size: %w", errors.ErrEmptyValue))
	}
	if c.MaxHistory <= 0 {
		errs = append(errs, fmt.Errorf("max_history: %w", errors.ErrOutOfRange))
	}
	return errors.Join(errs...)
}

// SaveConfig writes cfg to path atomically.
func SaveConfig(cfg *Config, path string) error {
	cfg.PollIntervalStr = cfg.PollInterval.String()
	cfg.RequestTimeoutStr = cfg.RequestTimeout.String()
	cfg.DefaultDisableDurationStr = cfg.DefaultDisableDuration.String()

	buf := &bytes.Buffer{}
	if err := toml.NewEncoder(buf).Encode(cfg); err != nil {
		return err
	}
	return renameio.WriteFile(path, buf.Bytes(), 0o600)
}

// Keys returns the names accepted by Set, sorted.
func Keys() []string {
	keys := []string{
		"theme",
		"poll_interval",
		"request_timeout",
		"default_disable_duration",
		"max_response_size",
		"max_history",
		"reload_after_disable",
		"reload_after_allow",
		"reload_command",
		"domain_command",
		"metrics_addr",
	}
	slices.Sort(keys)
	return keys
}

// Set changes a single preference from its text form.  Commands are split on
// whitespace.
func (c *Config) Set(key, value string) error {
	var err error
	switch key {
	case "theme":
		c.Theme = value
	case "poll_interval":
		c.PollInterval, err = time.ParseDuration(value)
	case "request_timeout":
		c.RequestTimeout, err = time.ParseDuration(value)
	case "default_disable_duration":
		c.DefaultDisableDuration, err = time.ParseDuration(value)
	case "max_response_size":
		err = c.MaxResponseSize.UnmarshalText([]byte(value))
	case "max_history":
		c.MaxHistory, err = strconv.Atoi(value)
	case "reload_after_disable":
		c.ReloadAfterDisable, err = strconv.ParseBool(value)
	case "reload_after_allow":
		c.ReloadAfterAllow, err = strconv.ParseBool(value)
	case "reload_command":
		c.ReloadCommand = strings.Fields(value)
	case "domain_command":
		c.DomainCommand = strings.Fields(value)
	case "metrics_addr":
		c.MetricsAddr = value
	default:
		return fmt.Errorf("key %q: %w", key, errors.ErrBadEnumValue)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return c.Validate()
}
