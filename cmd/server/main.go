package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/scythe504/hangman-rooms/internal/broadcast"
	"github.com/scythe504/hangman-rooms/internal/config"
	"github.com/scythe504/hangman-rooms/internal/game"
	"github.com/scythe504/hangman-rooms/internal/logger"
	"github.com/scythe504/hangman-rooms/internal/server"
	"github.com/scythe504/hangman-rooms/internal/session"
	"github.com/scythe504/hangman-rooms/internal/storage"
	"github.com/scythe504/hangman-rooms/internal/utils"
)

func main() {
	cfg := &config.Config{}
	if err := config.NewCommand(cfg, run).Execute(); err != nil {
		log.Error().Err(err).Msg("[main] Server exited")
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, cfg *config.Config) error {
	if err := logger.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	words := utils.DefaultWords
	if cfg.WordsFile != "" {
		loaded, err := utils.ReadCsvFile(cfg.WordsFile)
		if err != nil {
			return err
		}
		words = loaded
	}
	log.Info().Int("words", len(words)).Msg("[main] Word list loaded")

	var (
		recorder game.Recorder
		history  server.HistoryReader
	)
	if cfg.DatabaseURL != "" {
		store, err := storage.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()
		recorder, history = store, store
		log.Info().Msg("[main] Round history enabled")
	}

	sessions := session.NewRegistry(cfg.RateLimit, cfg.RateBurst)
	rooms := game.NewRegistry(cfg.TimeLimit)
	notifier := broadcast.New(sessions, rooms)
	engine := game.NewEngine(ctx, game.EngineConfig{
		Notifier:     notifier,
		Recorder:     recorder,
		Words:        utils.NewRandomWords(words),
		TickInterval: cfg.TickInterval,
		SettleDelay:  cfg.SettleDelay,
	})

	srv := server.New(server.Config{
		Addr:           cfg.Addr(),
		HTTPAddr:       cfg.HTTPAddr(),
		MaxLineLength:  cfg.MaxLineLength,
		OutboxSize:     cfg.OutboxSize,
		ResyncInterval: cfg.ResyncInterval,
	}, server.Deps{
		Sessions: sessions,
		Rooms:    rooms,
		Notifier: notifier,
		Engine:   engine,
		History:  history,
	})

	return srv.Serve(ctx)
}
