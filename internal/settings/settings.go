// Package settings provides the instance configuration and the command
// preferences, re-reading them on every call.
package settings

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/tonhe/agtoggle/internal/adguard"
	"github.com/tonhe/agtoggle/internal/config"
)

// InstanceSource is the store of instance credentials.
type InstanceSource interface {
	// Reload picks up changes made by other processes.
	Reload() (err error)

	// Instances returns the stored instances in order.
	Instances() (insts []adguard.InstanceConfig, err error)
}

// Provider reads the preferences file and the instance store.  When the
// preferences file becomes unreadable the last good preferences are used.
type Provider struct {
	logger     *slog.Logger
	source     InstanceSource
	configPath string

	mu   sync.Mutex
	last *config.Config
}

// New returns a provider over the preferences at configPath and source.
// initial is used until the file is read successfully; if nil, the defaults
// are used.
func New(logger *slog.Logger, configPath string, source InstanceSource, initial *config.Config) (p *Provider) {
	if initial == nil {
		initial = config.DefaultConfig()
	}

	return &Provider{
		logger:     logger.With(slogutil.KeyPrefix, "settings"),
		source:     source,
		configPath: configPath,
		last:       initial,
	}
}

// Config returns the current preferences.
func (p *Provider) Config(ctx context.Context) (c *config.Config) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, err := config.LoadConfig(p.configPath)
	if err != nil {
		p.logger.WarnContext(ctx, "using previous preferences", slogutil.KeyError, err)

		return p.last
	}

	p.last = c

	return c
}

// InstanceConfigs returns the configured instances.  A failed reload of the
// store is an error, so that stale credentials are never used silently.
func (p *Provider) InstanceConfigs(_ context.Context) (insts []adguard.InstanceConfig, err error) {
	err = p.source.Reload()
	if err != nil {
		return nil, err
	}

	return p.source.Instances()
}

// DefaultDisableDuration returns the duration of a toggle-triggered disable.
func (p *Provider) DefaultDisableDuration(ctx context.Context) (d time.Duration) {
	return p.Config(ctx).DefaultDisableDuration
}

// ReloadAfterDisable returns true if the page is reloaded after protection is
// disabled.
func (p *Provider) ReloadAfterDisable(ctx context.Context) (ok bool) {
	return p.Config(ctx).ReloadAfterDisable
}

// ReloadAfterAllow returns true if the page is reloaded after its domain is
// newly allowlisted.
func (p *Provider) ReloadAfterAllow(ctx context.Context) (ok bool) {
	return p.Config(ctx).ReloadAfterAllow
}
