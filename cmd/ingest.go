package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yuhao0/newsrag/internal/app"
	"github.com/yuhao0/newsrag/internal/config"
	"github.com/yuhao0/newsrag/internal/log"
	"github.com/yuhao0/newsrag/internal/scraper"
)

var ingestMock bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [seed-url...]",
	Short: "Scrape news articles and index them into the vector store",
	Long: `Ingest fetches news articles, splits them into chunks, embeds each
chunk, and upserts the vectors into PostgreSQL.

Seed URLs given as arguments override scraper.seed_urls from the config
file. With --mock a small fixed set of sample articles is indexed
instead, which is useful for local development without network access.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(args)
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestMock, "mock", false, "index built-in sample articles instead of scraping")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(log.Config{Level: cfg.SlogLevel(), JSON: cfg.LogJSON})

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	source, err := buildSource(cfg, args, logger)
	if err != nil {
		return err
	}

	items, err := source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetching articles: %w", err)
	}
	if len(items) == 0 {
		logger.Warn("no articles fetched, nothing to index")
		return nil
	}
	logger.Info("fetched articles", "count", len(items))

	chunks := scraper.Chunk(items)
	logger.Info("chunked articles", "chunks", len(chunks))

	result, err := a.Indexer.IndexDocuments(ctx, chunks)
	if err != nil {
		return fmt.Errorf("indexing documents: %w", err)
	}

	logger.Info("ingest complete",
		"articles", len(items),
		"chunks_indexed", result.Indexed,
		"batches", result.Batches,
	)
	return nil
}

// buildSource selects the article source for this run. Positional seed
// URLs take precedence over the configured ones.
func buildSource(cfg *config.Config, args []string, logger log.Logger) (scraper.Source, error) {
	if ingestMock {
		return scraper.NewMockSource(), nil
	}

	seeds := cfg.Scraper.SeedURLs
	if len(args) > 0 {
		seeds = args
	}
	if len(seeds) == 0 {
		return nil, fmt.Errorf("no seed URLs: pass them as arguments, set scraper.seed_urls, or use --mock")
	}

	return scraper.NewWeb(scraper.Config{
		Parallelism: cfg.Scraper.Parallelism,
		Delay:       cfg.ScraperDelay(),
		Timeout:     cfg.ScraperTimeout(),
		SeedURLs:    seeds,
	}, logger), nil
}
