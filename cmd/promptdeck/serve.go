package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm/logger"

	"github.com/promptdeck/promptdeck/internal/builtin"
	"github.com/promptdeck/promptdeck/internal/identity"
	"github.com/promptdeck/promptdeck/internal/prefs"
	"github.com/promptdeck/promptdeck/internal/server"
	"github.com/promptdeck/promptdeck/internal/session"
	"github.com/promptdeck/promptdeck/internal/store"
	"github.com/promptdeck/promptdeck/internal/watcher"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the promptdeck engine",
	Long: `Start the promptdeck HTTP engine.

The engine exposes the session API under /api/v1 and streams change
events over /api/v1/events (SSE). With auth.jwt_secret configured,
clients sign in by presenting a bearer token; otherwise the engine runs
in local mode as a single static user.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if listenAddr != "" {
			cfg.ListenAddr = listenAddr
		}
		if err := cfg.EnsureDataDir(); err != nil {
			return err
		}

		st, err := store.NewStore(store.Config{
			Driver:   cfg.Database.Driver,
			DSN:      cfg.DBDSN(),
			MaxConns: cfg.Database.MaxConns,
			LogLevel: logger.Silent,
		})
		if err != nil {
			return err
		}
		defer st.Close()

		registry, err := builtin.Load(cfg.ListsDir)
		if err != nil {
			return err
		}
		log.Info().Int("lists", registry.Len()).Msg("Built-in lists loaded")

		var provider *identity.TokenProvider
		var verifier *identity.Verifier
		if cfg.Auth.JWTSecret != "" {
			verifier, err = identity.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
			if err != nil {
				return err
			}
			provider = identity.NewTokenProvider()
			log.Info().Msg("Token auth enabled")
		} else {
			provider = identity.Static(identity.User{ID: cfg.Auth.LocalUserID})
			log.Info().Str("userId", cfg.Auth.LocalUserID).Msg("Local mode, static user")
		}

		ctrl := session.NewController(session.Config{
			Registry: registry,
			Store:    store.NewListStore(st),
			Identity: provider,
		})
		defer ctrl.Close()

		srv := server.New(ctrl, provider, verifier, prefs.Load(cfg.PrefsPath()))
		defer srv.Close()

		startListsWatcher(cfg.ListsDir, ctrl)

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.Run(ctx, cfg.ListenAddr)
		})

		log.Info().Str("version", Version).Msg("Promptdeck started")
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "listen address (overrides config)")
}

// startListsWatcher hot-reloads the on-disk built-in lists directory.
func startListsWatcher(dir string, ctrl *session.Controller) {
	if dir == "" {
		return
	}

	w, err := watcher.New(dir, func() {
		reg, err := builtin.Load(dir)
		if err != nil {
			log.Error().Err(err).Str("path", dir).Msg("Failed to reload built-in lists")
			return
		}
		log.Info().Int("lists", reg.Len()).Msg("Built-in lists reloaded")
		ctrl.SetRegistry(reg)
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create lists watcher")
		return
	}
	if err := w.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to start lists watcher")
		return
	}
	log.Info().Str("path", dir).Msg("Lists watcher started")
}
