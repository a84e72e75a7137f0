// Package alarm implements a named recurring trigger whose schedule survives
// process restarts.
package alarm

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/timeutil"
	"github.com/google/renameio/v2"
)

// State is the persisted schedule of an alarm.
type State struct {
	NextFire time.Time         `json:"next_fire"`
	Name     string            `json:"name"`
	Period   timeutil.Duration `json:"period"`
}

// Config is the configuration structure for Scheduler.
type Config struct {
	// Logger is used for scheduling diagnostics.  It must not be nil.
	Logger *slog.Logger

	// Clock is used to get the current time.  If nil, timeutil.SystemClock
	// is used.
	Clock timeutil.Clock

	// Path is the file the schedule is persisted to.  It must not be empty.
	Path string

	// Name identifies the alarm in the state file.  It must not be empty.
	Name string

	// Period is the interval between firings.  It must be positive.
	Period time.Duration
}

// Scheduler fires a callback every period.  The time of the next firing is
// persisted, so a restarted process keeps the schedule; an alarm that became
// due while no process was running fires once as soon as Run starts.
type Scheduler struct {
	logger *slog.Logger
	clock  timeutil.Clock
	path   string
	name   string
	period time.Duration
}

// New returns a new scheduler.  c must not be nil.
func New(c *Config) (s *Scheduler, err error) {
	switch {
	case c.Path == "":
		return nil, fmt.Errorf("path: %w", errors.ErrEmptyValue)
	case c.Name == "":
		return nil, fmt.Errorf("name: %w", errors.ErrEmptyValue)
	case c.Period <= 0:
		return nil, fmt.Errorf("period: %w", errors.ErrOutOfRange)
	}

	clock := c.Clock
	if clock == nil {
		clock = timeutil.SystemClock{}
	}

	return &Scheduler{
		logger: c.Logger.With(slogutil.KeyPrefix, "alarm", "name", c.Name),
		clock:  clock,
		path:   c.Path,
		name:   c.Name,
		period: c.Period,
	}, nil
}

// Load returns the persisted state.  ok is false if there is no state for this
// alarm.
func (s *Scheduler) Load() (st *State, ok bool, err error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("reading alarm state: %w", err)
	}

	st = &State{}
	err = json.Unmarshal(data, st)
	if err != nil {
		return nil, false, fmt.Errorf("decoding alarm state: %w", err)
	}

	if st.Name != s.name {
		return nil, false, nil
	}

	return st, true, nil
}

// save persists the schedule with next as the next firing time.
func (s *Scheduler) save(next time.Time) (err error) {
	b, err := json.Marshal(&State{
		NextFire: next,
		Name:     s.name,
		Period:   timeutil.Duration(s.period),
	})
	if err != nil {
		return fmt.Errorf("encoding alarm state: %w", err)
	}

	err = renameio.WriteFile(s.path, b, 0o600)
	if err != nil {
		return fmt.Errorf("writing alarm state: %w", err)
	}

	return nil
}

// initial returns the time of the first firing.  A persisted schedule with the
// same period is kept; a changed period or a corrupt file restarts it.
func (s *Scheduler) initial(ctx context.Context) (next time.Time) {
	now := s.clock.Now()

	st, ok, err := s.Load()
	if err != nil {
		s.logger.WarnContext(ctx, "restarting schedule", slogutil.KeyError, err)
	}

	if !ok || time.Duration(st.Period) != s.period {
		return now.Add(s.period)
	}

	return st.NextFire
}

// Run fires f according to the schedule until ctx is canceled.  It returns
// ctx.Err() or an error persisting the schedule.  Firings that are missed
// while f runs or while the process is stopped coalesce into one.
func (s *Scheduler) Run(ctx context.Context, f func(ctx context.Context)) (err error) {
	next := s.initial(ctx)
	err = s.save(next)
	if err != nil {
		return err
	}

	timer := time.NewTimer(max(next.Sub(s.clock.Now()), 0))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		next = s.clock.Now().Add(s.period)
		err = s.save(next)
		if err != nil {
			return err
		}

		s.logger.DebugContext(ctx, "firing", "next", next)
		f(ctx)

		timer.Reset(max(next.Sub(s.clock.Now()), 0))
	}
}
