package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/angeloszaimis/proxy-dashboard/config"
	"github.com/angeloszaimis/proxy-dashboard/internal/checker"
	"github.com/angeloszaimis/proxy-dashboard/internal/handler"
	"github.com/angeloszaimis/proxy-dashboard/internal/httpserver"
	"github.com/angeloszaimis/proxy-dashboard/internal/metrics"
	"github.com/angeloszaimis/proxy-dashboard/internal/refresher"
	"github.com/angeloszaimis/proxy-dashboard/internal/status"
	"github.com/angeloszaimis/proxy-dashboard/internal/view"
	"github.com/angeloszaimis/proxy-dashboard/internal/watch"
	"github.com/angeloszaimis/proxy-dashboard/pkg/logger"
)

const (
	commandServe = "serve"
	commandWatch = "watch"
	commandCheck = "check"
)

const metricsBufferSize = 1000

const usage = `Usage: proxydash [serve|watch|check] [flags]

Commands:
  serve   serve the dashboard page and the status API (default)
  watch   show the dashboard in the terminal
  check   probe the configured proxies and write the status file,
          once or every --interval
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	command, args := splitCommand(args)

	flags := newFlagSet(command, os.Stderr)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(flags)
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		return 1
	}

	log := logger.New(os.Stderr, cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch command {
	case commandWatch:
		once, _ := flags.GetBool("once")
		err = runWatch(ctx, cfg, log, once)
	case commandCheck:
		err = runCheck(ctx, cfg, log)
	default:
		err = runServe(ctx, cfg, log)
	}

	if err != nil {
		log.Error("Command failed", slog.String("command", command), slog.Any("err", err))
		return 1
	}

	return 0
}

// splitCommand separates the subcommand from its flags. Without one,
// serve is assumed.
func splitCommand(args []string) (string, []string) {
	if len(args) == 0 {
		return commandServe, args
	}

	switch args[0] {
	case commandServe, commandWatch, commandCheck:
		return args[0], args[1:]
	default:
		return commandServe, args
	}
}

func newFlagSet(command string, output io.Writer) *pflag.FlagSet {
	flags := pflag.NewFlagSet(command, pflag.ContinueOnError)
	flags.SetOutput(output)
	flags.Usage = func() {
		fmt.Fprint(output, usage)
		fmt.Fprintf(output, "\nFlags for %s:\n", command)
		flags.PrintDefaults()
	}

	flags.String("env", config.EnvDev, "environment: dev, staging or prod")
	flags.String("log-level", config.LogLevelInfo, "log level: debug, info, warn or error")

	switch command {
	case commandServe:
		flags.String("addr", ":5000", "address to listen on")
		flags.String("status-file", "proxy_status.json", "status file served at /api/status")
		flags.String("endpoint", "http://127.0.0.1:5000/api/status", "status endpoint the page refreshes from")
		flags.String("timeout", "0s", "status fetch timeout, 0 for none")
		flags.String("locale", config.LocaleEnglish, "dashboard language: en or zh")

	case commandWatch:
		flags.String("endpoint", "http://127.0.0.1:5000/api/status", "status endpoint to refresh from")
		flags.String("timeout", "0s", "status fetch timeout, 0 for none")
		flags.String("locale", config.LocaleEnglish, "dashboard language: en or zh")
		flags.Bool("once", false, "refresh once, print the dashboard and exit")

	case commandCheck:
		flags.String("status-file", "proxy_status.json", "status file to write")
		flags.String("proxies", "proxies.json", "JSON array of proxy URLs")
		flags.String("test-url", "http://www.gstatic.com/generate_204", "URL fetched through each proxy, must answer 204")
		flags.String("check-timeout", "10s", "timeout of a single probe")
		flags.String("slow-threshold", "2s", "delay above which a proxy is reported slow")
		flags.Int("concurrency", 1, "number of proxies probed at once")
		flags.Int("samples", 1, "probes per proxy, averaged")
		flags.String("interval", "0s", "re-check every interval until stopped, 0 for a single check")
	}

	return flags
}

func newStatusClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func newDashboard(cfg *config.Config, log *slog.Logger, collector *metrics.Collector) (*view.Dashboard, *refresher.Refresher) {
	dashboard := view.NewDashboard(view.NewMessages(cfg.Dashboard.Locale))
	client := newStatusClient(cfg.Dashboard.TimeoutDuration())

	return dashboard, refresher.New(log, client, cfg.Dashboard.Endpoint, dashboard, dashboard.Messages(), collector)
}

func runServe(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	collector := metrics.NewCollector(metricsBufferSize, log)
	collector.Start(ctx)

	dashboard, ref := newDashboard(cfg, log, collector)

	router := setupRouter(log,
		handler.NewDashboardHandler(log, dashboard, ref),
		handler.NewStatusHandler(log, cfg.Status.File, collector),
		collector)

	srv, err := httpserver.New(cfg.Server.Address, router)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	if err := srv.Listen(); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	log.Info("Dashboard listening",
		slog.String("addr", srv.Addr().String()),
		slog.String("endpoint", ref.Endpoint()),
		slog.String("status_file", cfg.Status.File))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(srv.Serve)

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down gracefully...")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func runWatch(ctx context.Context, cfg *config.Config, log *slog.Logger, once bool) error {
	dashboard, ref := newDashboard(cfg, log, nil)

	options := watch.Options{
		In:       os.Stdin,
		Out:      os.Stdout,
		Renderer: lipgloss.NewRenderer(os.Stdout),
		Once:     once || !watch.IsTerminal(os.Stdin),
	}

	if !options.Once {
		restore, err := watch.MakeRaw(os.Stdin)
		if err != nil {
			return fmt.Errorf("enable raw mode: %w", err)
		}
		defer restore()
		options.Raw = true
	}

	return watch.New(log, ref, dashboard, options).Run(ctx)
}

func runCheck(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	log = log.With(slog.String("status_file", cfg.Status.File))

	c := checker.New(log, checker.Options{
		TestURL:       cfg.Checker.TestURL,
		Timeout:       cfg.Checker.TimeoutDuration(),
		SlowThreshold: cfg.Checker.SlowThresholdDuration(),
		Concurrency:   cfg.Checker.Concurrency,
		Samples:       cfg.Checker.Samples,
	})

	load := func() ([]string, error) {
		proxies, err := checker.LoadProxies(cfg.Checker.ProxiesFile)
		if err != nil {
			return nil, fmt.Errorf("load proxies: %w", err)
		}
		return proxies, nil
	}

	publish := func(snap status.Snapshot) error {
		if err := status.WriteFile(cfg.Status.File, snap); err != nil {
			return fmt.Errorf("write status: %w", err)
		}
		return nil
	}

	if interval := cfg.Checker.IntervalDuration(); interval > 0 {
		log.Info("Checking proxies periodically", slog.Duration("interval", interval))
		c.Loop(ctx, interval, load, publish)
		return nil
	}

	_, err := c.Pass(ctx, load, publish)
	return err
}
