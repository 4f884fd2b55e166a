package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/daltunay/perfumes/api"
	"github.com/daltunay/perfumes/cache"
	"github.com/daltunay/perfumes/cleaner"
	"github.com/daltunay/perfumes/config"
	"github.com/daltunay/perfumes/engine"
	"github.com/daltunay/perfumes/ingest"
	"github.com/daltunay/perfumes/scraper"
	"github.com/daltunay/perfumes/store"
	"github.com/daltunay/perfumes/webhook"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	slog.SetDefault(cfg.Log.Logger(os.Stdout))
	slog.Info("perfumes starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"browser", cfg.Browser.Enabled,
	)

	// ── 3. Open the product store ───────────────────────────────────
	st, err := store.Open(context.Background(), cfg.Store.DSN)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// ── 4. Fetch engines (HTTP, plus Rod when enabled) ──────────────
	eng, closeEngine, err := engine.Build(cfg.Browser, cfg.Engine)
	if err != nil {
		slog.Error("failed to initialise fetch engine", "error", err)
		os.Exit(1)
	}
	defer closeEngine()

	// ── 5. Scraper core and ingest jobs ─────────────────────────────
	opts := scraper.OptionsFromConfig(cfg.Source, cfg.Fetch)
	walker := scraper.NewWalker(eng, opts)
	extractor := scraper.NewExtractor(eng, cleaner.NewCleaner(), opts)

	cc := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	defer cc.Stop()

	sender := webhook.NewSender()
	jobs := ingest.NewJobs(ingest.NewPipeline(walker, extractor, st, cc), sender)

	// ── 6. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(cfg, st, cc, jobs, time.Now())

	// ── 7. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// Cancels a running ingest.
	jobs.Stop()
	sender.Wait()

	slog.Info("perfumes stopped")
}
