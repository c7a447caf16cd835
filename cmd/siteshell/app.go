package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/harborlight/siteshell/internal/config"
	"github.com/harborlight/siteshell/internal/errors"
	"github.com/harborlight/siteshell/pkg/chrome"
	"github.com/harborlight/siteshell/pkg/loader"
	"github.com/harborlight/siteshell/pkg/middleware"
	"github.com/harborlight/siteshell/pkg/routes"
	"github.com/harborlight/siteshell/pkg/shell"
)

// app holds everything built from the configuration.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	tracer   trace.TracerProvider
	registry *prometheus.Registry
	metrics  *middleware.Metrics
	shell    *shell.Shell
	doc      *shell.Document

	closers []func(context.Context) error
}

// parseLevel maps a level name or number to a slog level.
func parseLevel(value string, def slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	switch level {
	case "":
		return def
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}
	return def
}

// newLogger builds the process logger. A configured file is rotated with
// lumberjack; otherwise logs go to stderr.
func newLogger(c config.LogConfig, stderr io.Writer) (*slog.Logger, io.Closer) {
	var (
		w      = stderr
		closer io.Closer
	)
	if c.File != "" {
		lj := &lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    c.MaxSize,
			MaxBackups: c.MaxBackups,
			MaxAge:     c.MaxAge,
			Compress:   c.Compress,
		}
		w, closer = lj, lj
	}

	opts := &slog.HandlerOptions{Level: parseLevel(c.Level, slog.LevelInfo)}
	var h slog.Handler
	if c.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), closer
}

// newTracerProvider returns an SDK provider exporting to stdout (or a file)
// when tracing is enabled, and a no-op provider otherwise.
func newTracerProvider(c config.TracingConfig) (trace.TracerProvider, func(context.Context) error, error) {
	if !c.Enabled {
		return noop.NewTracerProvider(), func(context.Context) error { return nil }, nil
	}

	opts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
	var file *os.File
	if c.File != "" {
		f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open trace file: %w", err)
		}
		file = f
		opts = append(opts, stdouttrace.WithWriter(f))
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("create exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)

	shutdown := func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if file != nil {
			file.Close()
		}
		return err
	}
	return tp, shutdown, nil
}

// loadConfig reads the config file and binds the command's flags.
func loadConfig(path string, bind func(v *viper.Viper) error) (*config.Config, error) {
	v := config.NewViper(path)
	if bind != nil {
		if err := bind(v); err != nil {
			return nil, err
		}
	}
	return config.Load(v)
}

// newSource builds the module source for cfg. Builtin modules are chained
// last so a site can override them.
func newSource(ctx context.Context, cfg *config.Config) (loader.Source, error) {
	var primary loader.Source
	switch cfg.Modules.Source {
	case config.SourceS3:
		src, err := loader.NewS3Source(ctx, loader.S3Options{
			Bucket:   cfg.Modules.S3.Bucket,
			Prefix:   cfg.Modules.S3.Prefix,
			Region:   cfg.Modules.S3.Region,
			Endpoint: cfg.Modules.S3.Endpoint,
			MaxBytes: cfg.Modules.MaxBytes,
		})
		if err != nil {
			return nil, err
		}
		src.Ext = cfg.Modules.Ext
		primary = src
	default:
		primary = &loader.DirSource{
			Root:     cfg.Resolve(cfg.Modules.Dir),
			Ext:      cfg.Modules.Ext,
			MaxBytes: cfg.Modules.MaxBytes,
		}
	}
	return loader.Chain{primary, shell.Builtins()}, nil
}

// newLoaderFactory returns a function building loaders over src.
func (a *app) newLoaderFactory(src loader.Source) func() (*loader.Loader, error) {
	return func() (*loader.Loader, error) {
		opts := []loader.Option{
			loader.WithLogger(a.logger),
			loader.WithObserver(a.metrics),
			loader.WithTracerProvider(a.tracer),
			loader.WithFetchTimeout(a.cfg.Modules.FetchTimeout),
		}
		if n := a.cfg.Modules.WarmConcurrency; n > 0 {
			opts = append(opts, loader.WithWarmConcurrency(n))
		}
		return loader.New(src, opts...), nil
	}
}

// readDocument loads and parses the host document. A missing mount point is
// fatal: nothing is served.
func readDocument(cfg *config.Config) (*shell.Document, error) {
	path := cfg.Resolve(cfg.Document.Path)
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E005").WithSubject(path).Wrap(err)
	}
	doc, err := shell.Bootstrap(src, cfg.Document.MountID)
	if err != nil {
		return nil, errors.New("E003").WithSubject(fmt.Sprintf("#%s in %s", cfg.Document.MountID, path)).Wrap(err)
	}
	return doc, nil
}

// newApp builds the shell and its ambient stack from cfg.
func newApp(ctx context.Context, cfg *config.Config, stderr io.Writer) (*app, loader.Source, error) {
	a := &app{cfg: cfg}

	logger, logCloser := newLogger(cfg.Log, stderr)
	a.logger = logger
	slog.SetDefault(logger)
	if logCloser != nil {
		a.closers = append(a.closers, func(context.Context) error { return logCloser.Close() })
	}

	tp, shutdown, err := newTracerProvider(cfg.Tracing)
	if err != nil {
		a.close(ctx)
		return nil, nil, err
	}
	a.tracer = tp
	a.closers = append(a.closers, shutdown)

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = middleware.NewMetrics(middleware.WithRegistry(a.registry))

	doc, err := readDocument(cfg)
	if err != nil {
		a.close(ctx)
		return nil, nil, err
	}
	a.doc = doc

	table, err := routes.NewTable(cfg.RouteEntries())
	if err != nil {
		a.close(ctx)
		return nil, nil, errors.New("E123").Wrap(err)
	}
	ch, err := chrome.New(cfg.Chrome)
	if err != nil {
		a.close(ctx)
		return nil, nil, errors.New("E122").WithSubject("chrome").Wrap(err)
	}

	src, err := newSource(ctx, cfg)
	if err != nil {
		a.close(ctx)
		return nil, nil, err
	}
	l, _ := a.newLoaderFactory(src)()

	a.shell = shell.New(table, l,
		shell.WithChrome(ch),
		shell.WithLogger(logger),
		shell.WithReporter(a.metrics),
		shell.WithNavigationRecorder(a.metrics),
		shell.WithScrollObserver(a.metrics),
		shell.WithFragmentDelay(cfg.Scroll.FragmentDelay),
		shell.WithAmbientSmooth(cfg.Scroll.AmbientSmooth),
		shell.WithTracerProvider(tp),
	)
	return a, src, nil
}

// close releases the loader, tracer and log file.
func (a *app) close(ctx context.Context) {
	if a.shell != nil {
		a.shell.Loader().Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i](ctx)
	}
}
