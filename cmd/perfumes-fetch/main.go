// Command perfumes-fetch discovers the catalog, extracts every product and
// writes the slug list and a CSV export.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/daltunay/perfumes/cleaner"
	"github.com/daltunay/perfumes/config"
	"github.com/daltunay/perfumes/engine"
	"github.com/daltunay/perfumes/export"
	"github.com/daltunay/perfumes/ingest"
	"github.com/daltunay/perfumes/models"
	"github.com/daltunay/perfumes/scraper"
	"github.com/daltunay/perfumes/store"
	"github.com/spf13/cobra"
)

type flags struct {
	slugsFile   string
	csvFile     string
	db          string
	concurrency int
	rediscover  bool
	refresh     bool
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "perfumes-fetch [--slugs-file path] [--csv path] [--db dsn]",
		Short: "Scrapes the PellWall ingredient catalog into a CSV file.",
		Long: `Reads product slugs from --slugs-file, or walks the catalog listing and
writes that file when it does not exist. Every product is then extracted and
written to --csv. With --db the products are also stored, and slugs already
in the store are skipped unless --refresh is set.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVar(&f.slugsFile, "slugs-file", "assets/slugs.txt", "slug list to read, or to write after discovery")
	cmd.Flags().StringVar(&f.csvFile, "csv", "assets/products.csv", "CSV output path")
	cmd.Flags().StringVar(&f.db, "db", "", "optional store DSN (SQLite path or libsql:// URL)")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "parallel extractions (default from PERFUMES_CONCURRENCY)")
	cmd.Flags().BoolVar(&f.rediscover, "rediscover", false, "walk the catalog even if the slugs file exists")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "re-extract products already in the store")
	return cmd
}

func run(ctx context.Context, f flags) error {
	cfg := config.Load()
	slog.SetDefault(cfg.Log.Logger(os.Stderr))

	concurrency := f.concurrency
	if concurrency <= 0 {
		concurrency = cfg.Fetch.Concurrency
	}

	eng, closeEngine, err := engine.Build(cfg.Browser, cfg.Engine)
	if err != nil {
		return fmt.Errorf("initialise fetch engine: %w", err)
	}
	defer closeEngine()

	opts := scraper.OptionsFromConfig(cfg.Source, cfg.Fetch)
	walker := scraper.NewWalker(eng, opts)
	extractor := scraper.NewExtractor(eng, cleaner.NewCleaner(), opts)

	slugs, err := loadSlugs(ctx, walker, f)
	if err != nil {
		return err
	}

	var ps ingest.ProductStore
	var st *store.Store
	if f.db != "" {
		st, err = store.Open(ctx, f.db)
		if err != nil {
			return err
		}
		defer st.Close()
		ps = st
	}

	report, err := ingest.NewPipeline(walker, extractor, ps, nil).Run(ctx, ingest.RunOptions{
		Refresh:     f.refresh,
		Concurrency: concurrency,
		Slugs:       slugs,
	})
	if err != nil {
		return err
	}

	products := report.Products
	if st != nil {
		// The export covers the whole store, not only this run.
		if products, err = st.List(ctx, models.ProductFilter{}); err != nil {
			return err
		}
	}
	if err := export.WriteCSVFile(f.csvFile, products); err != nil {
		return err
	}

	slog.Info("process completed",
		"status", report.Status(),
		"succeeded", len(report.Products),
		"failed", len(report.Failures),
		"duration", report.Duration,
	)
	return nil
}

// loadSlugs returns the slug list from the slugs file, or walks the catalog
// and writes the file when it is missing, empty or --rediscover is set. The
// result is never nil, so the pipeline does not walk a second time.
func loadSlugs(ctx context.Context, walker ingest.Walker, f flags) ([]string, error) {
	if !f.rediscover {
		slugs, err := export.ReadSlugsFile(f.slugsFile)
		switch {
		case err == nil && len(slugs) > 0:
			return slugs, nil
		case err == nil:
			slog.Warn("slugs file is empty, rediscovering", "path", f.slugsFile)
		case !errors.Is(err, fs.ErrNotExist):
			return nil, err
		}
	}

	slog.Info("fetching all slugs from website")
	slugs, err := walker.DiscoverIdentifiers(ctx)
	if err != nil {
		return nil, err
	}
	if slugs == nil {
		slugs = []string{}
	}
	if err := export.WriteSlugsFile(f.slugsFile, slugs); err != nil {
		return nil, err
	}
	return slugs, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
