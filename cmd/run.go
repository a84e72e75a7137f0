package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/httphdr"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/tonhe/agtoggle/internal/engine"
	"github.com/tonhe/agtoggle/internal/metrics"
)

// shutdownTimeout is the time given to the engine and the HTTP server to
// stop.
const shutdownTimeout = 5 * time.Second

// newRunCommand returns the run command.
func newRunCommand(a *app) (cmd *cobra.Command) {
	var addr string

	cmd = &cobra.Command{
		Use:   "run",
		Short: "Keep the badge up to date in the foreground",
		Long: "run polls the instances on the poll_interval schedule and keeps the " +
			"badge file up to date until interrupted.  With a metrics address it " +
			"also serves /metrics, /health-check and POST /refresh.",
		Args: cobra.NoArgs,
		RunE: cliRun(a, func(ctx context.Context, _ io.Writer, _ []string) (err error) {
			if addr == "" {
				addr = a.envs.MetricsAddr
			}

			if addr == "" {
				addr = a.conf.MetricsAddr
			}

			return a.runDaemon(ctx, addr)
		}),
	}

	cmd.Flags().StringVar(&addr, "metrics-addr", "", "address to serve metrics on, e.g. 127.0.0.1:9171")

	return cmd
}

// newMetrics registers all metrics in reg.
func newMetrics(reg prometheus.Registerer) (m *metricsSet, err error) {
	st, err := metrics.NewStatus(metrics.Namespace, reg)
	if err != nil {
		return nil, err
	}

	eng, err := metrics.NewEngine(metrics.Namespace, reg)
	if err != nil {
		return nil, err
	}

	cmd, err := metrics.NewCommand(metrics.Namespace, reg)
	if err != nil {
		return nil, err
	}

	return &metricsSet{
		status:  st,
		engine:  eng,
		command: cmd,
	}, nil
}

// runDaemon runs the engine until ctx is canceled.  If addr is not empty, the
// metrics server listens on it.
func (a *app) runDaemon(ctx context.Context, addr string) (err error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	m, err := newMetrics(reg)
	if err != nil {
		return err
	}

	c, err := a.build(nil, m)
	if err != nil {
		return err
	}

	mgr, err := a.manager(c, m)
	if err != nil {
		return err
	}

	logger := a.logger.With(slogutil.KeyPrefix, "run")
	logger.InfoContext(ctx, "starting", "version", version, "badge", c.sink.Path())

	err = mgr.Start(ctx)
	if err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}

	var srv *http.Server
	if addr != "" {
		srv, err = a.serveMetrics(ctx, logger, addr, reg, mgr)
		if err != nil {
			return errors.WithDeferred(err, mgr.Shutdown(context.WithoutCancel(ctx)))
		}
	}

	<-ctx.Done()

	logger.InfoContext(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	var errs []error
	if srv != nil {
		errs = append(errs, srv.Shutdown(shutdownCtx))
	}

	errs = append(errs, mgr.Shutdown(shutdownCtx))

	return errors.Join(errs...)
}

// serveMetrics starts the HTTP server on addr in the background.
func (a *app) serveMetrics(
	ctx context.Context,
	logger *slog.Logger,
	addr string,
	reg *prometheus.Registry,
	mgr *engine.Manager,
) (srv *http.Server, err error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}

	srv = &http.Server{
		Handler:           newDaemonMux(reg, mgr),
		ReadHeaderTimeout: shutdownTimeout,
	}

	go func() {
		serveErr := srv.Serve(l)
		if !errors.Is(serveErr, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "serving metrics", slogutil.KeyError, serveErr)
		}
	}()

	logger.InfoContext(ctx, "serving metrics", "addr", l.Addr())

	return srv, nil
}

// refreshResponse is the body of a successful POST /refresh.
type refreshResponse struct {
	Combined  string `json:"combined"`
	Indicator string `json:"indicator"`
	RequestID string `json:"request_id"`
	Throttled bool   `json:"throttled"`
}

// newDaemonMux returns the handler of the daemon HTTP server.
func newDaemonMux(reg *prometheus.Registry, mgr *engine.Manager) (mux *http.ServeMux) {
	mux = http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /health-check", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(httphdr.ContentType, "text/plain")
		_, _ = io.WriteString(w, "OK\n")
	})
	mux.HandleFunc("POST /refresh", func(w http.ResponseWriter, r *http.Request) {
		snap, err := mgr.Refresh(r.Context())
		throttled := errors.Is(err, engine.ErrThrottled)
		if err != nil && !throttled {
			http.Error(w, err.Error(), http.StatusInternalServerError)

			return
		}

		w.Header().Set(httphdr.ContentType, "application/json")
		if throttled {
			w.WriteHeader(http.StatusTooManyRequests)
		}

		_ = json.NewEncoder(w).Encode(&refreshResponse{
			Combined:  snap.Combined.String(),
			Indicator: string(snap.Indicator),
			RequestID: snap.RequestID,
			Throttled: throttled,
		})
	})

	return mux
}
