package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/ai/gemini"
	"github.com/spigell/hh-interviewer/internal/ai/openai"
	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/secrets"
	"github.com/spigell/hh-interviewer/internal/server"
	"github.com/spigell/hh-interviewer/internal/session"
	"github.com/spigell/hh-interviewer/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interview API",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default :3001)")

	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func serve(_ *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := getConfig()
	if err != nil {
		log.Fatalf("getting a config: %s", err)
	}

	if config == nil || config.Server == nil || config.Session == nil || config.AI == nil {
		log.Fatal("config is incomplete")
	}

	logger, err := newLogger(config)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	logger.Info("starting the hh-interviewer", zap.String("version", resolveVersion()))

	telemetryCfg := telemetry.Config{}
	if config.Telemetry != nil {
		telemetryCfg = *config.Telemetry
	}

	providers, err := telemetry.Init(ctx, telemetryCfg, resolveVersion(), logger)
	if err != nil {
		logger.Fatal("initializing telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down telemetry", zap.Error(err))
		}
	}()

	generator, err := newGenerator(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal(
			"building generator",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY (or OPENAI_API_KEY with ai.provider=openai) or the api-key-file key in the configuration file"),
		)
	}

	store := session.NewStore(config.Session.TTL)
	if store.TTL() > 0 {
		janitor := session.NewJanitor(store, config.Session.CleanupInterval, logger)
		janitor.Start(ctx)
		defer janitor.Stop()

		logger.Info("session expiry enabled",
			zap.Duration("ttl", store.TTL()),
			zap.Duration("cleanup_interval", config.Session.CleanupInterval),
		)
	}

	orchestrator, err := interview.New(interview.Deps{
		Store:     store,
		Generator: generator,
		Logger:    logger,
		Tracer:    providers.Tracer,
		Meter:     providers.Meter,
	}, config.AI.MaxLogLength)
	if err != nil {
		logger.Fatal("building orchestrator", zap.Error(err))
	}

	srv, err := server.New(orchestrator, logger, server.Options{
		GenerationTimeout: config.Server.GenerationTimeout,
		AllowedOrigin:     config.Server.AllowedOrigin,
		MaxBodyBytes:      config.Server.MaxBodyBytes,
	})
	if err != nil {
		logger.Fatal("building server", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:              config.Server.Listen,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("address", httpServer.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serving http", zap.Error(err))
		}
		return
	case <-ctx.Done():
		logger.Info("shutting down", zap.String("reason", "signal received"))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func newGenerator(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Generator, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))

	switch provider {
	case "", ai.ProviderGemini:
		if cfg.Gemini == nil {
			return nil, errors.New("gemini configuration is required")
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: cfg.Gemini.APIKey,
			File:  cfg.Gemini.APIKeyFile,
			Env:   "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, err
		}

		generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, logger)
		if err != nil {
			return nil, err
		}
		return generator, nil
	case ai.ProviderOpenAI:
		if cfg.OpenAI == nil {
			return nil, errors.New("openai configuration is required")
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openai api key",
			Value: cfg.OpenAI.APIKey,
			File:  cfg.OpenAI.APIKeyFile,
			Env:   "OPENAI_API_KEY",
		})
		if err != nil {
			return nil, err
		}

		generator, err := openai.NewGenerator(openai.Settings{
			APIKey:  apiKey,
			Model:   cfg.OpenAI.Model,
			BaseURL: cfg.OpenAI.BaseURL,
		}, logger)
		if err != nil {
			return nil, err
		}
		return generator, nil
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}
