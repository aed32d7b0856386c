package main

import (
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/playgrid/sudoku-server/internal/config"
	"github.com/playgrid/sudoku-server/internal/game"
	"github.com/playgrid/sudoku-server/internal/httpserver"
	"github.com/playgrid/sudoku-server/internal/puzzlecache"
	"github.com/playgrid/sudoku-server/internal/records"
	"github.com/playgrid/sudoku-server/internal/state"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("failed to create data dir")
	}
	kv, err := badger.Open(badger.DefaultOptions(cfg.DataDir).WithLogger(nil))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open kv store")
	}
	defer kv.Close()

	db, err := openDB(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()
	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to apply migrations")
	}

	cache := puzzlecache.New(kv)
	refiller := puzzlecache.NewRefiller(cache, nil)
	refiller.TopUpAll() // pre-warm in the background; never blocks startup

	rec := records.New(db)
	proc := game.NewProcessor(state.NewBadgerStore(kv), refiller, rec, rec)
	srv := httpserver.New(proc, cache, rec, httpserver.Options{
		SessionSecret: cfg.SessionSecret,
		CookieName:    cfg.CookieName,
		ClientOrigin:  cfg.ClientOrigin,
		Secure:        cfg.Production,
	})

	log.Info().Str("port", cfg.Port).Msg("starting sudoku-server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
