package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/alt-audit-service/internal/delivery/http/handler"
	"github.com/user/alt-audit-service/internal/delivery/http/router"
	"github.com/user/alt-audit-service/internal/entity"
	"github.com/user/alt-audit-service/internal/progress"
	"github.com/user/alt-audit-service/internal/repository"
	"github.com/user/alt-audit-service/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), root)
		},
	}
}

// demoScans forces demo mode on every submitted scan.
type demoScans struct {
	handler.ScanService
}

func (d demoScans) Submit(ctx context.Context, urls []string, opts usecase.SubmitOptions) (*entity.Scan, error) {
	opts.Demo = true
	return d.ScanService.Submit(ctx, urls, opts)
}

func runServe(ctx context.Context, root *rootOptions) (retErr error) {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(root.configPath)
	if err != nil {
		return err
	}
	defer a.closeInto(&retErr)
	log := a.logger

	var fetcher repository.PageFetcher
	if !a.cfg.ScanDemoMode {
		if fetcher, err = a.fetcher(); err != nil {
			return err
		}
	}
	store, err := a.scanStore(ctx)
	if err != nil {
		return err
	}
	publishers, err := a.publishers(ctx)
	if err != nil {
		return err
	}
	exporter, err := a.exporter(ctx)
	if err != nil {
		return err
	}

	hub := progress.NewHub(log)
	hub.Subscribe(progress.LogListener(log.Named("scan")))
	hub.Subscribe(progress.MetricsListener())

	cfg := a.scanConfig()
	scanner := usecase.NewPageScanner(fetcher, cfg, log)
	orchestrator := usecase.NewScanOrchestrator(cfg, scanner, hub, log)

	managerOpts := []usecase.ManagerOption{usecase.WithPublishers(publishers...)}
	if exporter != nil {
		managerOpts = append(managerOpts, usecase.WithExporter(exporter))
	}
	manager := usecase.NewScanManager(orchestrator, store, hub, log, managerOpts...)

	var scans handler.ScanService = manager
	if a.cfg.ScanDemoMode {
		log.Warn("Demo mode is on; pages are not fetched")
		scans = demoScans{manager}
	}

	server := &http.Server{
		Addr: ":" + a.cfg.ServerPort,
		Handler: router.New(handler.NewHandler(scans, log), log, router.Options{
			RateLimitRPS:   a.cfg.RateLimitRPS,
			RateLimitBurst: a.cfg.RateLimitBurst,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("port", a.cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error("Could not listen", zap.String("port", a.cfg.ServerPort), zap.Error(err))
			return err
		}
	case <-sigCtx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := manager.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	log.Info("Server exited")
	return errors.Join(errs...)
}
