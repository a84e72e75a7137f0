package status

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/tonhe/agtoggle/internal/adguard"
)

// ConfigSource returns the current instance configuration.  It is read on
// every aggregation.
type ConfigSource interface {
	InstanceConfigs(ctx context.Context) (insts []adguard.InstanceConfig, err error)
}

// Client is the subset of *adguard.Client operations used by the aggregator.
type Client interface {
	Status(ctx context.Context) (info *adguard.StatusInfo, err error)
	Version(ctx context.Context) (info *adguard.VersionInfo, err error)
}

// NewClientFunc returns a client for inst.
type NewClientFunc func(inst adguard.InstanceConfig) (c Client)

// Metrics is the interface for the aggregator metrics.
type Metrics interface {
	// ObserveInstance records the result of a single status query.
	ObserveInstance(ctx context.Context, r InstanceResult)

	// ObserveCombined records the combined status of a polling cycle.
	ObserveCombined(ctx context.Context, s Status)
}

// EmptyMetrics is the implementation of Metrics that does nothing.
type EmptyMetrics struct{}

// type check
var _ Metrics = EmptyMetrics{}

// ObserveInstance implements the Metrics interface for EmptyMetrics.
func (EmptyMetrics) ObserveInstance(_ context.Context, _ InstanceResult) {}

// ObserveCombined implements the Metrics interface for EmptyMetrics.
func (EmptyMetrics) ObserveCombined(_ context.Context, _ Status) {}

// ErrNoInstances is returned when no instances are configured.
const ErrNoInstances errors.Error = "no instances configured"

// Config is the configuration structure for Aggregator.
type Config struct {
	// Logger is used for per-instance diagnostics.  It must not be nil.
	Logger *slog.Logger

	// Source provides the instance configuration.  It must not be nil.
	Source ConfigSource

	// NewClient creates instance clients.  It must not be nil.
	NewClient NewClientFunc

	// Metrics is used for the collection of statistics.  If nil,
	// EmptyMetrics is used.
	Metrics Metrics
}

// Aggregator queries all configured instances concurrently and combines their
// status.
type Aggregator struct {
	logger    *slog.Logger
	source    ConfigSource
	newClient NewClientFunc
	metrics   Metrics
}

// NewAggregator returns a new aggregator.  c must not be nil.
func NewAggregator(c *Config) (a *Aggregator) {
	m := c.Metrics
	if m == nil {
		m = EmptyMetrics{}
	}

	return &Aggregator{
		logger:    c.Logger.With(slogutil.KeyPrefix, "status"),
		source:    c.Source,
		newClient: c.NewClient,
		metrics:   m,
	}
}

// Combined returns the combined status of all configured instances.  It never
// fails: any problem, including an unreadable configuration, yields Error.
func (a *Aggregator) Combined(ctx context.Context) (s Status) {
	results, err := a.Results(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "querying instances", slogutil.KeyError, err)

		return Error
	}

	return Combine(results)
}

// Results queries the status of every configured instance concurrently and
// returns the results in configuration order once all of them are in.  err is
// only returned if the configuration cannot be read or is empty; per-instance
// faults are reported in the results.
func (a *Aggregator) Results(ctx context.Context) (results []InstanceResult, err error) {
	insts, err := a.source.InstanceConfigs(ctx)
	if err != nil {
		return nil, err
	} else if len(insts) == 0 {
		return nil, ErrNoInstances
	}

	results = make([]InstanceResult, len(insts))

	wg := &sync.WaitGroup{}
	for i, inst := range insts {
		wg.Add(1)
		go func() {
			defer wg.Done()

			results[i] = a.query(ctx, inst)
		}()
	}

	wg.Wait()

	a.metrics.ObserveCombined(ctx, Combine(results))

	return results, nil
}

// query returns the status result of a single instance.
func (a *Aggregator) query(ctx context.Context, inst adguard.InstanceConfig) (r InstanceResult) {
	start := time.Now()
	info, err := a.newClient(inst).Status(ctx)

	r = InstanceResult{
		Info:    info,
		Err:     err,
		Name:    inst.Name,
		Latency: time.Since(start),
	}
	if err != nil {
		r.Info = nil
		a.logger.DebugContext(
			ctx,
			"instance status",
			"instance", inst.Name,
			"kind", adguard.KindOf(err),
			slogutil.KeyError, err,
		)
	}

	a.metrics.ObserveInstance(ctx, r)

	return r
}

// VersionResult is the outcome of a version query to a single instance.
type VersionResult struct {
	Info *adguard.VersionInfo
	Err  error
	Name string
}

// Versions queries the version of every configured instance concurrently.
func (a *Aggregator) Versions(ctx context.Context) (results []VersionResult, err error) {
	insts, err := a.source.InstanceConfigs(ctx)
	if err != nil {
		return nil, err
	} else if len(insts) == 0 {
		return nil, ErrNoInstances
	}

	results = make([]VersionResult, len(insts))

	wg := &sync.WaitGroup{}
	for i, inst := range insts {
		wg.Add(1)
		go func() {
			defer wg.Done()

			info, verr := a.newClient(inst).Version(ctx)
			results[i] = VersionResult{Info: info, Err: verr, Name: inst.Name}
		}()
	}

	wg.Wait()

	return results, nil
}
