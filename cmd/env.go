package cmd

import (
	"fmt"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/caarlos0/env/v7"
)

// environment is the configuration that is kept in the environment.
type environment struct {
	ConfigDir   string `env:"AGTOGGLE_CONFIG_DIR"`
	LogFormat   string `env:"AGTOGGLE_LOG_FORMAT" envDefault:"text"`
	MasterKey   string `env:"AGTOGGLE_MASTER_KEY"`
	MetricsAddr string `env:"AGTOGGLE_METRICS_ADDR"`

	Verbosity uint8 `env:"AGTOGGLE_VERBOSE" envDefault:"0"`

	LogTimestamp strictBool `env:"AGTOGGLE_LOG_TIMESTAMP" envDefault:"1"`
}

// parseEnvironment reads the environment configuration.
func parseEnvironment() (envs *environment, err error) {
	envs = &environment{}
	err = env.Parse(envs)
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	return envs, nil
}

// Validate returns an error if envs contains invalid values.
func (envs *environment) Validate() (err error) {
	var errs []error

	_, err = slogutil.NewFormat(envs.LogFormat)
	if err != nil {
		errs = append(errs, fmt.Errorf("AGTOGGLE_LOG_FORMAT: %w", err))
	}

	_, err = slogutil.VerbosityToLevel(envs.Verbosity)
	if err != nil {
		errs = append(errs, fmt.Errorf("AGTOGGLE_VERBOSE: %w", err))
	}

	return errors.Join(errs...)
}

// strictBool is a boolean that only accepts "0" and "1".
type strictBool bool

// UnmarshalText implements the encoding.TextUnmarshaler interface for
// *strictBool.
func (sb *strictBool) UnmarshalText(b []byte) (err error) {
	switch string(b) {
	case "0":
		*sb = false
	case "1":
		*sb = true
	default:
		return fmt.Errorf("invalid value %q, supported: %q, %q", b, "0", "1")
	}

	return nil
}
