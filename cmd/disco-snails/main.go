package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mmgoodnow/disco-snails/internal/config"
	"github.com/mmgoodnow/disco-snails/internal/discord"
	"github.com/mmgoodnow/disco-snails/internal/httpapi"
	"github.com/mmgoodnow/disco-snails/internal/logging"
	"github.com/mmgoodnow/disco-snails/internal/store"
	"github.com/mmgoodnow/disco-snails/internal/summarize"
	"github.com/mmgoodnow/disco-snails/internal/syncer"
)

func main() {
	once := flag.Bool("once", false, "run one sync cycle and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("configuration failed")
	}
	logger := logging.New(cfg.LogLevel, cfg.Verbose)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.BuildFromDSN(rootCtx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	session, err := discord.Login(rootCtx, "", cfg.DiscordBotToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("discord login failed")
	}
	logger.Info().Str("username", session.Username).Msg("logged in to discord")

	client := discord.NewClient(cfg.DiscordAPIBaseURL, cfg.DiscordBotToken, &http.Client{Timeout: 30 * time.Second})

	summarizer, err := summarize.New(rootCtx, summarize.Config{
		Backend:       cfg.Summarizer,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		OpenAIModel:   cfg.OpenAIModel,
		GoogleAPIKey:  cfg.GoogleAPIKey,
		GoogleModel:   cfg.GoogleModel,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build summarizer")
	}

	sync, err := syncer.New(client, st, summarizer, syncer.Options{
		ChannelID:   cfg.ForumChannelID,
		Lookback:    cfg.Lookback,
		MaxMessages: cfg.MaxMessages,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize syncer")
	}

	run := func() {
		stats, err := sync.RunOnce(rootCtx)
		if err != nil {
			logger.Error().Err(err).Msg("sync cycle failed")
			return
		}
		logger.Info().
			Int("processed", stats.Processed).
			Int("skipped", stats.Skipped).
			Int("failed", stats.Failed).
			Msg("sync cycle completed")
	}

	if *once {
		run()
		return
	}

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: httpapi.NewServer(st, httpapi.Options{APIKey: cfg.WebAPIKey, Logger: logger}),
	}
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	run()

	timer := time.NewTimer(cfg.SyncInterval)
	defer timer.Stop()
	for {
		select {
		case <-rootCtx.Done():
			logger.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("http shutdown failed")
			}
			return
		case <-timer.C:
			run()
			timer.Reset(cfg.SyncInterval)
		}
	}
}
