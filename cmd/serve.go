package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/linguapet/assets"
	"github.com/robalobadob/linguapet/internal/challenge"
	"github.com/robalobadob/linguapet/internal/db"
	"github.com/robalobadob/linguapet/internal/encourage"
	"github.com/robalobadob/linguapet/internal/httpserver"
	"github.com/robalobadob/linguapet/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the game server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if p, _ := cmd.Flags().GetString("port"); p != "" {
			cfg.Port = p
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	serveCmd.Flags().String("port", "", "Port to listen on (overrides PORT env var)")
}

func serve(ctx context.Context) error {
	d, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer d.Close()
	if err := db.Migrate(d, assets.Migrations()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	seed := cfg.Seed()
	bank, err := challenge.Load(cfg.ChallengesFile, rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	if err != nil {
		return fmt.Errorf("load challenges: %w", err)
	}
	log.Info().Interface("challenges", bank.Stats()).Msg("challenge bank loaded")

	sessions := store.NewMemoryStore()
	srv := httpserver.New(httpserver.Deps{
		Config:   cfg,
		DB:       d,
		Bank:     bank,
		Sessions: sessions,
		Picker:   encourage.NewSeeded(seed),
	})
	hs := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.ChallengesFile != "" {
		g.Go(func() error { return challenge.Watch(gctx, bank, cfg.ChallengesFile) })
	}
	g.Go(func() error {
		sessions.RunJanitor(gctx, time.Minute, cfg.SessionTTL())
		return nil
	})
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msg("starting linguapet server")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info().Msg("shutting down")
		return hs.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
