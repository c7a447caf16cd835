package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/harborlight/siteshell/internal/config"
	"github.com/harborlight/siteshell/internal/dev"
	"github.com/harborlight/siteshell/internal/errors"
	"github.com/harborlight/siteshell/pkg/server"
)

func serveCmd(configPath *string) *cobra.Command {
	var (
		port     int
		host     string
		logLevel string
		warm     bool
		watch    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site",
		Long: `Serve the host document and run a shell session for every browser tab.

Flags override values from siteshell.yaml.

Examples:
  siteshell serve
  siteshell serve --port=9000 --warm
  siteshell serve --watch --log-level=debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, func(v *viper.Viper) error {
				return bindFlags(v, cmd, map[string]string{
					"server.port": "port",
					"server.host": "host",
					"log.level":   "log-level",
				})
			})
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, warm, watch)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", config.DefaultPort, "Port to listen on")
	cmd.Flags().StringVarP(&host, "host", "H", config.DefaultHost, "Host to bind to")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&warm, "warm", false, "Load every routed module before accepting connections")
	cmd.Flags().BoolVar(&watch, "watch", false, "Reload modules when the module directory changes")

	return cmd
}

// bindFlags binds config keys to flags.
func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) error {
	for key, name := range keys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}

func runServe(ctx context.Context, cfg *config.Config, warm, watch bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, src, err := newApp(ctx, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	printBanner()
	fmt.Println("  serve")
	fmt.Println()
	if cfg.Path() != "" {
		info("Config:   %s", cfg.Path())
	}
	info("Document: %s (#%s)", cfg.Resolve(cfg.Document.Path), cfg.Document.MountID)
	info("Routes:   %d", a.shell.Table().Len())
	info("Modules:  %s", moduleSourceLabel(cfg))

	if warm {
		start := time.Now()
		if err := a.shell.Check(ctx); err != nil {
			warn("Module warm-up incomplete: %v", err)
		} else {
			success("Warmed %d modules in %s", len(a.shell.Table().ModuleIDs()), time.Since(start).Round(time.Millisecond))
		}
	}

	srv := server.New(a.shell, a.doc, cfg.ServerConfig(),
		server.WithMetrics(a.metrics, a.registry),
		server.WithTracerProvider(a.tracer),
		server.WithLogger(a.logger),
	)

	reloader := dev.NewReloader(a.shell, a.newLoaderFactory(src), srv.Sessions(), a.logger)

	if watch {
		if cfg.Modules.Source != config.SourceDir {
			warn("--watch needs the dir module source; ignoring")
		} else {
			w, err := dev.NewWatcher(dev.WatcherConfig{
				Paths:  []string{cfg.Resolve(cfg.Modules.Dir)},
				Logger: a.logger,
			})
			if err != nil {
				return errors.New("E160").WithDetail("Could not watch the module directory.").Wrap(err)
			}
			w.OnChange(reloader.OnChange)
			go w.Start(ctx)
			defer w.Stop()
			info("Watching: %s", cfg.Resolve(cfg.Modules.Dir))
		}
	}

	// SIGHUP starts a new loader generation without restarting.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-hup:
				reloader.Reload("SIGHUP")
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Println()
	success("Listening on http://%s", cfg.Address())
	fmt.Println()

	if err := srv.Run(ctx); err != nil {
		return errors.New("E160").Wrap(err)
	}
	return nil
}

func moduleSourceLabel(cfg *config.Config) string {
	if cfg.Modules.Source == config.SourceS3 {
		return fmt.Sprintf("s3://%s/%s", cfg.Modules.S3.Bucket, cfg.Modules.S3.Prefix)
	}
	return cfg.Resolve(cfg.Modules.Dir)
}
