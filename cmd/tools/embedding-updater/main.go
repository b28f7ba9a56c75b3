// cmd/tools/embedding-updater/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"referwell-matching/internal/common/cache"
	"referwell-matching/internal/common/config"
	"referwell-matching/internal/common/database"
	"referwell-matching/internal/common/logger"
	"referwell-matching/internal/matching/embedding"
	"referwell-matching/internal/repository"
)

func main() {
	batchSize := flag.Int("batch-size", 50, "Providers embedded per API call")
	force := flag.Bool("force", false, "Re-embed providers that already have a vector")
	dryRun := flag.Bool("dry-run", false, "Report what would be embedded without writing")
	flag.Parse()

	log := logger.NewStructured("info", "console")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		fmt.Printf("Error connecting to PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pg.Close()

	ctx := context.Background()
	if err := pg.Ping(ctx); err != nil {
		fmt.Printf("Error pinging PostgreSQL: %v\n", err)
		os.Exit(1)
	}

	embedder := embedding.NewClient(cfg.Embedding, log)
	repo := repository.NewCandidateRepository(pg.DB, log)

	var store cache.Store
	if rdb, err := database.NewRedis(cfg.Database.Redis); err == nil && rdb.Ping(ctx) == nil {
		store = cache.NewRedis(rdb.Client, log)
		defer rdb.Close()
	}

	updated, failed := 0, 0
	cursor := ""
	for {
		batch, err := repo.FetchForEmbedding(ctx, *force, cursor, *batchSize)
		if err != nil {
			fmt.Printf("Error fetching providers: %v\n", err)
			os.Exit(1)
		}
		if len(batch) == 0 {
			break
		}
		cursor = batch[len(batch)-1].ID

		if *dryRun {
			for _, c := range batch {
				fmt.Printf("  would embed %s (%s)\n", c.ID, c.Name)
			}
			updated += len(batch)
			continue
		}

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Document()
		}

		vectors, err := embedBatch(ctx, embedder, texts, cfg.Embedding.TimeoutDuration())
		if err != nil {
			fmt.Printf("Error embedding batch: %v\n", err)
			failed += len(batch)
			break
		}

		for i, c := range batch {
			if err := repo.UpdateEmbedding(ctx, c.ID, vectors[i]); err != nil {
				fmt.Printf("  failed %s: %v\n", c.ID, err)
				failed++
				continue
			}
			updated++
		}
		fmt.Printf("Embedded batch of %d (total %d)\n", len(batch), updated)
	}

	// Stored vectors changed, cached ones are stale.
	if store != nil && updated > 0 && !*dryRun {
		store.DeleteByPrefix(ctx, cache.PrefixEmbedding)
	}

	fmt.Printf("Done: %d updated, %d failed\n", updated, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func embedBatch(ctx context.Context, e *embedding.Client, texts []string, timeout time.Duration) ([][]float64, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout+5*time.Second)
	defer cancel()
	return e.EmbedBatch(callCtx, texts)
}
