// Package command translates user intents into sequenced calls to all
// configured instances and updates the indicator with their outcome.
package command

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/tonhe/agtoggle/internal/adguard"
	"github.com/tonhe/agtoggle/internal/indicator"
	"github.com/tonhe/agtoggle/internal/status"
)

// ReloadDelay is the delay before the current page is reloaded, so that the
// instances have time to apply the change.
const ReloadDelay = 1500 * time.Millisecond

// DefaultDisableDuration is used when the settings provide no positive disable
// duration.
const DefaultDisableDuration = 30 * time.Second

const (
	// ErrAmbiguousState is returned by Toggle when the indicator shows
	// neither On nor Off.
	ErrAmbiguousState errors.Error = "indicator state is ambiguous"

	// ErrNotAcknowledged is returned when an instance answers a protection
	// change with something other than the acknowledgement token.
	ErrNotAcknowledged errors.Error = "change not acknowledged"

	// ErrNoDomain is returned when there is no current domain to act on.
	ErrNoDomain errors.Error = "no current domain"
)

// Settings provides the instance configuration and the command preferences.
type Settings interface {
	InstanceConfigs(ctx context.Context) (insts []adguard.InstanceConfig, err error)
	DefaultDisableDuration(ctx context.Context) (d time.Duration)
	ReloadAfterDisable(ctx context.Context) (ok bool)
	ReloadAfterAllow(ctx context.Context) (ok bool)
}

// Client is the subset of *adguard.Client operations used by the dispatcher.
type Client interface {
	SetProtection(ctx context.Context, enabled bool, dur time.Duration) (ack *adguard.Ack, err error)
	AddToList(ctx context.Context, l adguard.List, domain string) (st *adguard.ListStatus, err error)
	RemoveFromList(ctx context.Context, l adguard.List, domain string) (st *adguard.ListStatus, err error)
}

// NewClientFunc returns a client for inst.
type NewClientFunc func(inst adguard.InstanceConfig) (c Client)

// Metrics is the interface for the command metrics.
type Metrics interface {
	// ObserveCommand records the outcome of a command by name.
	ObserveCommand(ctx context.Context, name string, err error)
}

// EmptyMetrics is the implementation of Metrics that does nothing.
type EmptyMetrics struct{}

// type check
var _ Metrics = EmptyMetrics{}

// ObserveCommand implements the Metrics interface for EmptyMetrics.
func (EmptyMetrics) ObserveCommand(_ context.Context, _ string, _ error) {}

// Config is the configuration structure for Dispatcher.
type Config struct {
	// Logger is used for command diagnostics.  It must not be nil.
	Logger *slog.Logger

	// Settings provides instances and preferences.  It must not be nil.
	Settings Settings

	// Sink is the indicator updated with command outcomes.  It must not be
	// nil.
	Sink indicator.Sink

	// Tab is the current page.  It must not be nil.
	Tab Tab

	// NewClient creates instance clients.  It must not be nil.
	NewClient NewClientFunc

	// Metrics is used for the collection of statistics.  If nil,
	// EmptyMetrics is used.
	Metrics Metrics
}

// Dispatcher runs commands against all configured instances.  A command that
// fails on some instances does not roll back the others; the indicator shows
// Err instead.
type Dispatcher struct {
	logger    *slog.Logger
	settings  Settings
	sink      indicator.Sink
	tab       Tab
	newClient NewClientFunc
	metrics   Metrics
}

// New returns a new dispatcher.  c must not be nil.
func New(c *Config) (d *Dispatcher) {
	m := c.Metrics
	if m == nil {
		m = EmptyMetrics{}
	}

	return &Dispatcher{
		logger:    c.Logger.With(slogutil.KeyPrefix, "command"),
		settings:  c.Settings,
		sink:      c.Sink,
		tab:       c.Tab,
		newClient: c.NewClient,
		metrics:   m,
	}
}

// Toggle flips the protection of all instances based on the indicator: Off
// enables it, On disables it for the default duration.  Any other symbol makes
// Toggle return ErrAmbiguousState without touching anything.
func (d *Dispatcher) Toggle(ctx context.Context) (err error) {
	defer func() { d.metrics.ObserveCommand(ctx, "toggle", err) }()

	cur, err := d.sink.Indicator(ctx)
	if err != nil {
		return fmt.Errorf("reading indicator: %w", err)
	}

	switch cur {
	case indicator.Off:
		return d.setProtection(ctx, true, 0)
	case indicator.On:
		return d.setProtection(ctx, false, d.disableDuration(ctx))
	default:
		d.logger.DebugContext(ctx, "not toggling", "indicator", cur)

		return fmt.Errorf("indicator %q: %w", cur, ErrAmbiguousState)
	}
}

// SetProtection enables protection on all instances, or disables it for dur.
// A zero dur when disabling uses the default duration.
func (d *Dispatcher) SetProtection(ctx context.Context, enabled bool, dur time.Duration) (err error) {
	defer func() { d.metrics.ObserveCommand(ctx, "set_protection", err) }()

	if !enabled && dur == 0 {
		dur = d.disableDuration(ctx)
	}

	return d.setProtection(ctx, enabled, dur)
}

// disableDuration returns the configured disable duration or the default.
func (d *Dispatcher) disableDuration(ctx context.Context) (dur time.Duration) {
	dur = d.settings.DefaultDisableDuration(ctx)
	if dur <= 0 {
		return DefaultDisableDuration
	}

	return dur
}

// setProtection changes protection on all instances and writes On or Off if
// every instance acknowledges, or Err otherwise.
func (d *Dispatcher) setProtection(ctx context.Context, enabled bool, dur time.Duration) (err error) {
	insts, err := d.settings.InstanceConfigs(ctx)
	if err == nil && len(insts) == 0 {
		err = status.ErrNoInstances
	}
	if err != nil {
		return d.fail(ctx, fmt.Errorf("reading instances: %w", err))
	}

	errs := make([]error, len(insts))
	d.fanOut(insts, func(i int, c Client) {
		ack, aerr := c.SetProtection(ctx, enabled, dur)
		if aerr != nil {
			errs[i] = aerr
		} else if !ack.Acknowledged() {
			errs[i] = fmt.Errorf("instance %q: %w: %q", insts[i].Name, ErrNotAcknowledged, ack.Body)
		}
	})

	err = errors.Join(errs...)
	if err != nil {
		return d.fail(ctx, err)
	}

	sym := indicator.On
	if !enabled {
		sym = indicator.Off
	}

	err = d.sink.SetIndicator(ctx, sym)
	if err != nil {
		return fmt.Errorf("writing indicator: %w", err)
	}

	d.logger.InfoContext(ctx, "protection changed", "enabled", enabled, "duration", dur, "instances", len(insts))

	if !enabled && d.settings.ReloadAfterDisable(ctx) {
		d.tab.ReloadCurrentTab(ctx, ReloadDelay)
	}

	return nil
}

// Denylist moves the current domain to the deny list of every instance.
func (d *Dispatcher) Denylist(ctx context.Context) (err error) {
	defer func() { d.metrics.ObserveCommand(ctx, "denylist", err) }()

	_, err = d.moveCurrent(ctx, adguard.ListDeny)

	return err
}

// Allowlist moves the current domain to the allow list of every instance and
// reloads the page if the domain was newly added and the settings ask for it.
func (d *Dispatcher) Allowlist(ctx context.Context) (err error) {
	defer func() { d.metrics.ObserveCommand(ctx, "allowlist", err) }()

	added, err := d.moveCurrent(ctx, adguard.ListAllow)
	if err != nil {
		return err
	}

	if added && d.settings.ReloadAfterAllow(ctx) {
		d.tab.ReloadCurrentTab(ctx, ReloadDelay)
	}

	return nil
}

// moveCurrent moves the current domain to l.  An empty domain is a no-op.
func (d *Dispatcher) moveCurrent(ctx context.Context, l adguard.List) (added bool, err error) {
	domain := d.tab.CurrentDomain(ctx)
	if domain == "" {
		d.logger.DebugContext(ctx, "no current domain", "list", l)

		return false, ErrNoDomain
	}

	return d.Move(ctx, l, domain)
}

// Move removes domain from the list opposite to l on every instance and then
// adds it to l on every instance.  On success the indicator shows Ok; on any
// fault it shows Err and the addition phase is skipped if removal failed.
// added is true if any instance reported the domain as newly added.
func (d *Dispatcher) Move(ctx context.Context, l adguard.List, domain string) (added bool, err error) {
	if domain == "" {
		return false, ErrNoDomain
	}

	insts, err := d.settings.InstanceConfigs(ctx)
	if err == nil && len(insts) == 0 {
		err = status.ErrNoInstances
	}
	if err != nil {
		return false, d.fail(ctx, fmt.Errorf("reading instances: %w", err))
	}

	errs := make([]error, len(insts))
	d.fanOut(insts, func(i int, c Client) {
		_, errs[i] = c.RemoveFromList(ctx, l.Opposite(), domain)
	})

	err = errors.Join(errs...)
	if err != nil {
		return false, d.fail(ctx, fmt.Errorf("removing from %s list: %w", l.Opposite(), err))
	}

	statuses := make([]*adguard.ListStatus, len(insts))
	d.fanOut(insts, func(i int, c Client) {
		statuses[i], errs[i] = c.AddToList(ctx, l, domain)
	})

	err = errors.Join(errs...)
	if err != nil {
		return false, d.fail(ctx, fmt.Errorf("adding to %s list: %w", l, err))
	}

	for _, st := range statuses {
		added = added || st.Added()
	}

	err = d.sink.SetIndicator(ctx, indicator.Ok)
	if err != nil {
		return added, fmt.Errorf("writing indicator: %w", err)
	}

	d.logger.InfoContext(ctx, "domain listed", "list", l, "domain", domain, "added", added)

	return added, nil
}

// fanOut calls f for every instance concurrently and waits for all of them.
func (d *Dispatcher) fanOut(insts []adguard.InstanceConfig, f func(i int, c Client)) {
	wg := &sync.WaitGroup{}
	for i, inst := range insts {
		wg.Add(1)
		go func() {
			defer wg.Done()

			f(i, d.newClient(inst))
		}()
	}

	wg.Wait()
}

// fail writes Err to the indicator and returns err.
func (d *Dispatcher) fail(ctx context.Context, err error) (res error) {
	d.logger.WarnContext(ctx, "command failed", slogutil.KeyError, err)

	werr := d.sink.SetIndicator(ctx, indicator.Err)
	if werr != nil {
		return errors.Join(err, fmt.Errorf("writing indicator: %w", werr))
	}

	return err
}
