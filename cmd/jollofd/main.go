package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/resocorp/jollofexpress-sub000/internal/api"
	"github.com/resocorp/jollofexpress-sub000/internal/api/handlers"
	"github.com/resocorp/jollofexpress-sub000/internal/config"
	"github.com/resocorp/jollofexpress-sub000/internal/db"
	"github.com/resocorp/jollofexpress-sub000/internal/intake"
	"github.com/resocorp/jollofexpress-sub000/internal/printer"
	"github.com/resocorp/jollofexpress-sub000/internal/queue"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatalf("[jollofd] %v", err)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	database, err := db.Open(db.Config{Path: cfg.Database.Path})
	if err != nil {
		return err
	}
	defer database.Close()

	jobs := db.NewJobStore(database)
	orders := db.NewOrderStore(database)
	settings := db.NewSettingsStore(database)

	client := printer.New(cfg.Printer)
	if !client.Configured() {
		log.Printf("[jollofd] no printer configured, jobs will accumulate as pending")
	}

	processor := queue.New(jobs, orders, client, cfg.Queue)

	hub := handlers.NewHub()
	processor.SetNotifier(hub)

	router, err := api.NewRouter(api.RouterDeps{
		Jobs:      jobs,
		Orders:    orders,
		Settings:  settings,
		Processor: processor,
		Printer:   client,
		Hub:       hub,
	})
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("[jollofd] listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return hub.Run(ctx)
	})

	// Retry loop. New jobs are printed via the fast path; this pass only
	// exists to pick up jobs the fast path could not finish.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.Queue.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				report, err := processor.ProcessQueue(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					log.Printf("[jollofd] queue pass failed: %v", err)
					continue
				}
				if report.Processed > 0 {
					log.Printf("[jollofd] queue pass: printed=%d retried=%d failed=%d skipped=%d",
						report.Printed, report.Retried, report.Failed, report.Skipped)
				}
			}
		}
	})

	if cfg.Intake.AMQPURL != "" {
		consumer := intake.NewConsumer(cfg.Intake, orders, processor)
		g.Go(func() error {
			return consumer.Run(ctx)
		})
	} else {
		log.Printf("[jollofd] no broker configured, orders arrive via HTTP only")
	}

	return g.Wait()
}
