package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"imghead/internal/cleanup"
	"imghead/internal/config"
	"imghead/internal/handler"
	"imghead/internal/image"
	"imghead/internal/logging"
	"imghead/internal/metrics"
	"imghead/internal/middleware"
	"imghead/internal/scan"
	"imghead/internal/storage"
)

func main() {
	cfg := config.Load()

	if err := logging.Init(cfg.LogDir); err != nil {
		log.Printf("Failed to init logs in %s: %v", cfg.LogDir, err)
	}
	defer logging.Close()

	db, err := storage.NewDB(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to init DB: %v", err)
	}
	defer db.Close()

	fs, err := storage.NewFilesystem(cfg.LibraryDir)
	if err != nil {
		log.Fatalf("Failed to init library: %v", err)
	}

	extractor := &image.Extractor{
		MaxJPEGScan:     int64(cfg.JPEGMaxScanMB) << 20,
		MaxJPEGSegments: cfg.JPEGMaxSegments,
	}
	m := metrics.New()
	scanner := scan.NewScanner(db, fs, extractor, m, cfg.ScanWorkers)

	daemon := cleanup.NewDaemon(cfg, db, fs, scanner)
	daemon.Start()
	defer daemon.Stop()

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMin, time.Minute)
	defer limiter.Stop()

	mux := http.NewServeMux()
	mux.Handle("/health", handler.Health(db))
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/measure", limiter.Middleware(handler.NewMeasureHandler(cfg, scanner, extractor, m)))
	mux.Handle("/scan", handler.NewScanHandler(db, scanner))
	mux.Handle("/measurements", handler.NewListHandler(db))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.NewRequestLogger().Middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Starting server on :%s (library %s)", cfg.Port, fs.Root())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
