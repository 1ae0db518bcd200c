// Package main runs the product catalog: an HTTP API over a JSON-file store, or a scripted demo session.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "net/http/pprof"

	"github.com/abgdnv/gocatalog/internal/catalog/app"
	"github.com/abgdnv/gocatalog/internal/catalog/config"
	"github.com/abgdnv/gocatalog/internal/catalog/demo"
	"github.com/abgdnv/gocatalog/internal/catalog/watch"
	"github.com/abgdnv/gocatalog/pkg/auth"
	"github.com/abgdnv/gocatalog/pkg/bootstrap"
	"github.com/abgdnv/gocatalog/pkg/config/configloader"
	"github.com/abgdnv/gocatalog/pkg/messaging"
	"github.com/abgdnv/gocatalog/pkg/nats"
	"github.com/abgdnv/gocatalog/pkg/telemetry"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  app.ServiceName,
		Usage: "product catalog backed by a JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML config file",
				Value:   configloader.DefaultConfigFile,
			},
			&cli.StringFlag{
				Name:  "file",
				Usage: "catalog file, overrides catalog.path",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "serve the catalog HTTP API",
				Action: serve,
			},
			{
				Name:  "demo",
				Usage: "replay the demo session against the catalog file and print a report",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "reset",
						Usage: "remove the catalog file before running",
					},
				},
				Action: runDemo,
			},
			{
				Name:   "watch",
				Usage:  "follow catalog events published on NATS and log them",
				Action: runWatch,
			},
		},
		DefaultCommand: "serve",
	}
}

// loadConfig reads the configuration and applies command line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := configloader.Load[*config.Config](app.ServiceName, c.String("config"), config.Defaults())
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if file := c.String("file"); file != "" {
		cfg.Catalog.Path = file
	}
	return cfg, nil
}

// serve starts the HTTP and pprof servers and blocks until the context is canceled.
func serve(c *cli.Context) error {
	ctx := c.Context
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	shutdownTracing, err := telemetry.Setup(ctx, app.ServiceName, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("Failed to shut down tracer provider", "error", err)
		}
	}()

	publisher, closePublisher, err := bootstrap.NewPublisher(ctx, cfg.NATS, logger)
	if err != nil {
		return fmt.Errorf("failed to set up event publisher: %w", err)
	}
	defer closePublisher()

	deps := app.SetupDependencies(app.NewStore(*cfg, logger), publisher, logger)
	if cfg.Auth.Enabled {
		startupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		verifier, err := auth.NewJWTVerifier(startupCtx, cfg.Auth)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to set up token verifier: %w", err)
		}
		deps.Verifier = verifier
	}
	httpServer := app.SetupHttpServer(deps, cfg)
	pprofServer := &http.Server{
		Addr: cfg.PProf.Addr,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start the HTTP server
	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr), slog.String("catalog", cfg.Catalog.Path))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	// gracefully shutdown HTTP server on context cancellation
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	// Start the pprof server if enabled
	if cfg.PProf.Enabled {
		g.Go(func() error {
			logger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		// gracefully shutdown pprof server on context cancellation
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down pprof server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	logger.Info("application stopped gracefully")
	return nil
}

// runDemo replays the demo session and prints its report as JSON on stdout.
func runDemo(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := bootstrap.NewLoggerTo(os.Stderr, cfg.Log)

	if c.Bool("reset") {
		if err := os.Remove(cfg.Catalog.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to reset catalog file: %w", err)
		}
	}

	report, runErr := demo.Run(c.Context, app.NewStore(*cfg, logger), logger)

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to print report: %w", err)
	}
	return runErr
}

// runWatch consumes catalog events until the context is canceled.
func runWatch(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if !cfg.NATS.Enabled {
		return errors.New("watch requires nats.enabled to be true")
	}
	logger := bootstrap.NewLogger(cfg.Log)

	nc, err := nats.NewClient(cfg.NATS.Url, cfg.NATS.Timeout)
	if err != nil {
		return err
	}
	defer func() {
		if err := nc.Drain(); err != nil {
			logger.Error("Failed to drain NATS connection", "error", err)
		}
	}()
	js, err := nats.NewJetStreamContext(nc)
	if err != nil {
		return err
	}
	if err := nats.EnsureStream(c.Context, js, cfg.NATS.Stream, messaging.ProductSubjectPrefix+">"); err != nil {
		return err
	}

	if err := watch.Start(c.Context, js, cfg.NATS.Stream, cfg.Watch, logger); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch failed: %w", err)
	}
	logger.Info("watch stopped")
	return nil
}
