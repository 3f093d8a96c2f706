package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zhouzirui/persona-chat/backend/internal/config"
	"github.com/zhouzirui/persona-chat/backend/internal/handler"
	"github.com/zhouzirui/persona-chat/backend/internal/logger"
	"github.com/zhouzirui/persona-chat/backend/internal/model/preset"
	"github.com/zhouzirui/persona-chat/backend/internal/service/ai"
	"github.com/zhouzirui/persona-chat/backend/internal/service/chat"
	"github.com/zhouzirui/persona-chat/backend/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "persona-chat",
	Short: "Persona chat session server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx)
	},
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.Flags()
	flags.String("port", "", "HTTP listen port or address (PORT)")
	flags.String("static-dir", "", "directory served at / (STATIC_DIR)")
	flags.String("store-driver", "", "session store: memory, sqlite or mongo (STORE_DRIVER)")
	flags.String("sqlite-path", "", "sqlite database file (SQLITE_PATH)")
	flags.String("log-level", "", "trace, debug, info, warn or error (LOG_LEVEL)")
	flags.String("log-format", "", "json or text (LOG_FORMAT)")

	for _, name := range []string{"port", "static-dir", "store-driver", "sqlite-path", "log-level", "log-format"} {
		cobra.CheckErr(viper.BindPFlag(strings.ReplaceAll(name, "-", "_"), flags.Lookup(name)))
	}
}

func main() {
	// Load .env file
	envErr := godotenv.Load()

	config.SetDefaults(viper.GetViper())
	viper.AutomaticEnv()

	if envErr != nil {
		log.Debug().Err(envErr).Msg("no .env file loaded, using system environment only")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load configuration")
		return err
	}

	logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	sessions, err := store.Open(ctx, cfg.Store)
	if err != nil {
		log.Error().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open session store")
		return err
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close session store")
		}
	}()
	log.Info().Str("driver", cfg.Store.Driver).Msg("session store ready")

	var engine ai.Engine
	if cfg.AI.Enabled() {
		engine, err = ai.NewEngine(ctx, cfg.AI)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize completion engine, turns will fail until configured")
			engine = nil
		} else {
			log.Info().Str("provider", cfg.AI.Provider).Msg("completion engine initialized")
		}
	} else {
		log.Warn().Str("provider", cfg.AI.Provider).Msg("completion engine credentials missing, turns will fail until configured")
	}

	chatSvc := chat.NewService(sessions, engine, chat.WithEngineTimeout(cfg.AI.Timeout))
	presets := preset.NewMemoryStore(preset.Seed())

	router := handler.NewRouter(presets, chatSvc, cfg.Server.StaticDir)

	return startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) error {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", serverCfg.Addr).Msg("persona chat backend listening")
	if err := runServer(ctx, srv); err != nil {
		log.Error().Err(err).Msg("server error")
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
