package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/paperflow/paperflow-backend/internal/config"
	"github.com/paperflow/paperflow-backend/internal/database"
	"github.com/paperflow/paperflow-backend/internal/logger"
	"github.com/paperflow/paperflow-backend/internal/repository"
)

func main() {
	count := flag.Int("count", 0, "number of papers to build (1-based paper numbers)")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	if *count < 1 {
		log.Fatal().Msg("Usage: build-papers -count <n>")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	layoutRepo := repository.NewLayoutRepository(pool)
	paperRepo := repository.NewPaperRepository(pool)

	layout, err := layoutRepo.Get(ctx)
	if err != nil {
		if err == pgx.ErrNoRows {
			log.Fatal().Msg("No assessment layout configured; upload one before building papers")
		}
		log.Fatal().Err(err).Msg("Failed to load assessment layout")
	}

	fmt.Printf("=== Building %d Papers (%d pages, %d versions) ===\n", *count, layout.Pages, layout.Versions)

	built, err := paperRepo.BuildPapers(ctx, layout, *count)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build papers")
	}

	fmt.Printf("Done. %d new papers created, %d already existed.\n", built, *count-built)
}
