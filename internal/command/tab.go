package command

import (
	"context"
	"log/slog"
	"net/url"
	"os/exec"
	"strings"
	"time"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
)

// Tab is the page the user is currently looking at.
type Tab interface {
	// CurrentDomain returns the host name of the current page, or an empty
	// string if there is none.
	CurrentDomain(ctx context.Context) (domain string)

	// ReloadCurrentTab reloads the current page after delay.
	ReloadCurrentTab(ctx context.Context, delay time.Duration)
}

// ExecTab is a Tab backed by external commands.  The current domain is either
// fixed or printed by a command as a URL or a bare host name; the reload is
// another command.
type ExecTab struct {
	logger *slog.Logger

	// Domain, if set, is returned as is.
	Domain string

	// DomainCommand prints the address of the current page.
	DomainCommand []string

	// ReloadCommand reloads the current page.
	ReloadCommand []string
}

// type check
var _ Tab = (*ExecTab)(nil)

// NewExecTab returns a tab that runs the given commands.  Either command may
// be empty.
func NewExecTab(logger *slog.Logger, domainCmd, reloadCmd []string) (t *ExecTab) {
	return &ExecTab{
		logger:        logger.With(slogutil.KeyPrefix, "tab"),
		DomainCommand: domainCmd,
		ReloadCommand: reloadCmd,
	}
}

// WithDomain returns a copy of t whose current domain is domain.
func (t *ExecTab) WithDomain(domain string) (c *ExecTab) {
	cp := *t
	cp.Domain = domain

	return &cp
}

// CurrentDomain implements the Tab interface for *ExecTab.
func (t *ExecTab) CurrentDomain(ctx context.Context) (domain string) {
	if t.Domain != "" {
		return HostOf(t.Domain)
	} else if len(t.DomainCommand) == 0 {
		return ""
	}

	out, err := exec.CommandContext(ctx, t.DomainCommand[0], t.DomainCommand[1:]...).Output()
	if err != nil {
		t.logger.WarnContext(ctx, "getting current page", slogutil.KeyError, err)

		return ""
	}

	return HostOf(string(out))
}

// ReloadCurrentTab implements the Tab interface for *ExecTab.  It blocks until
// the reload command finishes or ctx is canceled.
func (t *ExecTab) ReloadCurrentTab(ctx context.Context, delay time.Duration) {
	if len(t.ReloadCommand) == 0 {
		t.logger.DebugContext(ctx, "no reload command")

		return
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	err := exec.CommandContext(ctx, t.ReloadCommand[0], t.ReloadCommand[1:]...).Run()
	if err != nil {
		t.logger.WarnContext(ctx, "reloading page", slogutil.KeyError, err)
	}
}

// HostOf returns the host name of s, which is either a URL or a host name with
// an optional port.  It returns an empty string if s has no host.
func HostOf(s string) (host string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if !strings.Contains(s, "://") {
		s = "http://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return ""
	}

	return strings.ToLower(u.Hostname())
}
