package main

import (
	"context"

	"github.com/joho/godotenv"

	"jewelry-storefront/internal/config"
	"jewelry-storefront/internal/db"
	"jewelry-storefront/internal/logger"
	"jewelry-storefront/internal/seed"
)

func main() {
	_ = godotenv.Load()

	log := logger.New(logger.Options{ServiceName: "seed"})
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	log = logger.New(logger.Options{ServiceName: "seed", Level: logger.ParseLevel(cfg.LogLevel), Format: cfg.LogFormat})

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, db.Options{}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	if err := seed.Apply(ctx, pool, log); err != nil {
		log.Fatal().Err(err).Msg("seed apply")
	}

	log.Info().Msg("seed applied")
}
