package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"guidechat/internal/config"
	"guidechat/internal/domain/conversation"
	"guidechat/internal/infrastructure/backend"
	"guidechat/internal/infrastructure/logger"
	"guidechat/internal/infrastructure/speech"
	"guidechat/internal/infrastructure/storage"
	"guidechat/internal/interfaces/termui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "guidechat:", err)
		os.Exit(1)
	}

	sink, closeSink, err := logger.Open(cfg.DataDir, cfg.DevMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "guidechat:", err)
		os.Exit(1)
	}
	defer closeSink()

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, sink)
	if err != nil {
		fmt.Fprintln(os.Stderr, "guidechat:", err)
		os.Exit(1)
	}

	profile, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		log.Fatal().Err(err).Msg("load assistant profile")
	}

	docs, err := storage.NewDocumentStore(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("open data directory")
	}

	prefs := storage.NewPreferenceStore(docs)
	speechCtl := speech.NewController(prefs, speech.DetectSynthesizer(profile.Voice))
	client := backend.New(cfg.BackendURL, cfg.HTTPTimeout)
	renderer := termui.NewRenderer(os.Stdout, speechCtl, cfg.RevealInterval, cfg.RevealDelay, cfg.ThinkInterval)

	app := termui.NewApp(client, renderer, speechCtl, profile, log)
	store := conversation.NewStore(storage.NewConversationRepository(docs), profile.Greeting, app.Confirm, app)
	app.SetStore(store)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	renderer.RenderNotice(fmt.Sprintf("%s — type a question, or /help for commands.", profile.Name))
	if err := store.Open(); err != nil {
		log.Fatal().Err(err).Msg("load conversation history")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return app.Run(ctx, os.Stdin)
	})
	g.Go(func() error {
		err := docs.Watch(ctx, func(name string) {
			if name != storage.ConversationsDocument {
				return
			}
			if err := store.Reload(); err != nil {
				log.Warn().Err(err).Msg("reload conversations")
			}
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("shutting down")
	}

	speechCtl.Stop()
	renderer.CancelReveal()
	renderer.StopThinking()
	log.Info().Str("version", config.Version).Msg("guidechat exited")
}
