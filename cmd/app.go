package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/tonhe/agtoggle/internal/adguard"
	"github.com/tonhe/agtoggle/internal/alarm"
	"github.com/tonhe/agtoggle/internal/command"
	"github.com/tonhe/agtoggle/internal/config"
	"github.com/tonhe/agtoggle/internal/engine"
	"github.com/tonhe/agtoggle/internal/indicator"
	"github.com/tonhe/agtoggle/internal/settings"
	"github.com/tonhe/agtoggle/internal/status"
	"github.com/tonhe/agtoggle/internal/vault"
	"golang.org/x/term"
)

// alarmName is the name of the recurring refresh in the alarm file.
const alarmName = "refresh"

// passwordFunc reads a password after showing prompt.
type passwordFunc func(prompt string) (pass []byte, err error)

// app holds the components shared by the commands.
type app struct {
	envs   *environment
	out    io.Writer
	errOut io.Writer
	in     io.Reader

	readPassword passwordFunc

	logger  *slog.Logger
	logFile *os.File
	paths   *config.Paths
	conf    *config.Config
	store   *vault.FileStore

	verbose bool
}

// newApp returns an app writing to stdout and stderr.
func newApp(envs *environment) (a *app) {
	return &app{
		envs:         envs,
		out:          os.Stdout,
		errOut:       os.Stderr,
		in:           os.Stdin,
		readPassword: terminalPassword,
		logger:       slogutil.NewDiscardLogger(),
	}
}

// terminalPassword prompts on stderr and reads a password from the terminal
// without echoing it.
func terminalPassword(prompt string) (pass []byte, err error) {
	fmt.Fprint(os.Stderr, prompt)
	pass, err = term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)

	return pass, err
}

// init resolves the paths, reads the preferences and sets up the logger.  If
// toFile is true, logs go to the log file instead of stderr.
func (a *app) init(toFile bool) (err error) {
	a.paths, err = config.ResolvePaths(a.envs.ConfigDir)
	if err != nil {
		return fmt.Errorf("resolving paths: %w", err)
	}

	err = a.paths.EnsureDirs()
	if err != nil {
		return fmt.Errorf("creating directories: %w", err)
	}

	a.conf, err = config.LoadConfig(a.paths.ConfigFile())
	if err != nil {
		return fmt.Errorf("loading preferences: %w", err)
	}

	return a.initLogger(toFile)
}

// initLogger builds the logger from the environment.
func (a *app) initLogger(toFile bool) (err error) {
	lvl, err := slogutil.VerbosityToLevel(a.envs.Verbosity)
	if err != nil {
		return fmt.Errorf("AGTOGGLE_VERBOSE: %w", err)
	}

	if a.verbose {
		lvl = slog.LevelDebug
	}

	out := a.errOut
	if toFile {
		a.logFile, err = os.OpenFile(a.paths.LogFile(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}

		out = a.logFile
	}

	a.logger = slogutil.New(&slogutil.Config{
		Output:       out,
		Format:       slogutil.Format(a.envs.LogFormat),
		AddTimestamp: bool(a.envs.LogTimestamp),
		Level:        lvl,
	})

	return nil
}

// close releases the log file, if any.
func (a *app) close() (err error) {
	if a.logFile == nil {
		return nil
	}

	return a.logFile.Close()
}

// openVault opens the instance store.  A new store is sealed with the master
// key from the environment or a prompted one; an existing store is tried with
// the empty password first.
func (a *app) openVault() (s *vault.FileStore, err error) {
	if a.store != nil {
		return a.store, nil
	}

	path := a.paths.VaultFile()
	if !vault.Exists(path) {
		pass := []byte(a.envs.MasterKey)
		if len(pass) == 0 {
			pass, err = a.readPassword("New master password (empty for none): ")
			if err != nil {
				return nil, fmt.Errorf("reading password: %w", err)
			}
		}

		a.store, err = vault.NewFileStore(path, pass)

		return a.store, err
	}

	a.store, err = vault.NewFileStore(path, nil)
	if err == nil {
		return a.store, nil
	} else if !errors.Is(err, vault.ErrDecrypt) {
		return nil, err
	}

	pass := []byte(a.envs.MasterKey)
	if len(pass) == 0 {
		pass, err = a.readPassword("Master password: ")
		if err != nil {
			return nil, fmt.Errorf("reading password: %w", err)
		}
	}

	a.store, err = vault.NewFileStore(path, pass)
	if err != nil {
		return nil, fmt.Errorf("opening instance store: %w", err)
	}

	return a.store, nil
}

// components are the wired domain objects of one command run.
type components struct {
	settings   *settings.Provider
	sink       *indicator.FileSink
	aggregator *status.Aggregator
	dispatcher *command.Dispatcher
}

// metricsSet are the optional metrics of the components.  Nil fields use the
// empty implementations.
type metricsSet struct {
	status  status.Metrics
	engine  engine.Metrics
	command command.Metrics
}

// build wires the components from the preferences and the vault.
func (a *app) build(tab command.Tab, m *metricsSet) (c *components, err error) {
	store, err := a.openVault()
	if err != nil {
		return nil, err
	}

	if m == nil {
		m = &metricsSet{}
	}

	prov := settings.New(a.logger, a.paths.ConfigFile(), store, a.conf)
	t := adguard.NewTransport(&adguard.TransportConfig{
		UserAgent:   "agtoggle/" + version,
		Timeout:     a.conf.RequestTimeout,
		MaxRespSize: a.conf.MaxResponseSize,
	})

	newClient := func(inst adguard.InstanceConfig) (cli *adguard.Client) {
		conf := prov.Config(context.Background())

		return adguard.NewClient(t, inst, &conf.ListAPI)
	}

	if tab == nil {
		tab = command.NewExecTab(a.logger, a.conf.DomainCommand, a.conf.ReloadCommand)
	}

	sink := indicator.NewFileSink(a.paths.BadgeFile())

	return &components{
		settings: prov,
		sink:     sink,
		aggregator: status.NewAggregator(&status.Config{
			Logger: a.logger,
			Source: prov,
			NewClient: func(inst adguard.InstanceConfig) (cli status.Client) {
				return newClient(inst)
			},
			Metrics: m.status,
		}),
		dispatcher: command.New(&command.Config{
			Logger:   a.logger,
			Settings: prov,
			Sink:     sink,
			Tab:      tab,
			NewClient: func(inst adguard.InstanceConfig) (cli command.Client) {
				return newClient(inst)
			},
			Metrics: m.command,
		}),
	}, nil
}

// reconciler returns a reconciler over c.
func (a *app) reconciler(c *components, m *metricsSet) (rec *engine.Reconciler) {
	if m == nil {
		m = &metricsSet{}
	}

	return engine.NewReconciler(&engine.ReconcilerConfig{
		Logger:     a.logger,
		Aggregator: c.aggregator,
		Sink:       c.sink,
		Metrics:    m.engine,
		MaxHistory: a.conf.MaxHistory,
	})
}

// manager returns a stopped reconciliation manager over c.
func (a *app) manager(c *components, m *metricsSet) (mgr *engine.Manager, err error) {
	if m == nil {
		m = &metricsSet{}
	}

	sched, err := alarm.New(&alarm.Config{
		Logger: a.logger,
		Path:   a.paths.AlarmFile(),
		Name:   alarmName,
		Period: a.conf.PollInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("creating alarm: %w", err)
	}

	return engine.NewManager(&engine.ManagerConfig{
		Logger:     a.logger,
		Reconciler: a.reconciler(c, m),
		Sink:       c.sink,
		Alarm:      sched,
	}), nil
}
