package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/utsav2110/Orderbook-Deploy/internal/app"
	"github.com/utsav2110/Orderbook-Deploy/internal/config"
	"github.com/utsav2110/Orderbook-Deploy/internal/engine"
	"github.com/utsav2110/Orderbook-Deploy/internal/journal"
	"github.com/utsav2110/Orderbook-Deploy/internal/snapshot"
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	cfg, err := config.Load("./config")
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("creating data dir")
	}

	store := snapshot.NewStore(cfg.DataDir)

	// Restore the id seed and any resting orders from the last run.
	lastID, err := store.ReadLastID()
	if err != nil {
		log.Fatal().Err(err).Msg("reading id seed")
	}
	eng := engine.New(lastID)

	bids, asks, err := store.ReadBook()
	if err != nil {
		log.Fatal().Err(err).Msg("reading book snapshot")
	}
	if err := eng.Seed(bids); err != nil {
		log.Fatal().Err(err).Msg("seeding bids")
	}
	if err := eng.Seed(asks); err != nil {
		log.Fatal().Err(err).Msg("seeding asks")
	}

	j, err := journal.Open(cfg.DataDir, cfg.Console)
	if err != nil {
		log.Fatal().Err(err).Msg("opening journal")
	}
	defer j.Close()

	var source io.Reader = os.Stdin
	if cfg.CommandFile != "" {
		f, err := os.Open(cfg.CommandFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.CommandFile).Msg("opening command file")
		}
		defer f.Close()
		source = f
	}

	log.Info().
		Uint64("last_id", eng.LastAssignedID()).
		Int("seeded_bids", len(bids)).
		Int("seeded_asks", len(asks)).
		Msg("engine running")

	if err := app.New(eng, j, store, source).Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("engine exited")
	}
}
