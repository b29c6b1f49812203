package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"

	"github.com/pico-voice/pico-skill/pkg/core"
	"github.com/pico-voice/pico-skill/pkg/core/providers/anthropic"
	"github.com/pico-voice/pico-skill/pkg/core/providers/openai"
	"github.com/pico-voice/pico-skill/pkg/notes"
	"github.com/pico-voice/pico-skill/pkg/skill/config"
	"github.com/pico-voice/pico-skill/pkg/skill/handlers"
	skillserver "github.com/pico-voice/pico-skill/pkg/skill/server"
	"github.com/pico-voice/pico-skill/pkg/store"
)

type skillDeps struct {
	loadConfig   func() config.Config
	newEngine    func(context.Context, config.Config, *slog.Logger) (*handlers.Engine, error)
	signalNotify func(chan<- os.Signal, ...os.Signal)
	signalStop   func(chan<- os.Signal)
}

func defaultSkillDeps() skillDeps {
	return skillDeps{
		loadConfig:   config.LoadFromEnv,
		newEngine:    buildEngine,
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) { signal.Notify(c, sig...) },
		signalStop:   signal.Stop,
	}
}

func buildProviderRegistry(cfg config.Config) core.ProviderRegistry {
	hc := &http.Client{Timeout: cfg.HTTPTimeout}
	reg := core.NewProviderRegistry()
	reg.Register(openai.New(cfg.OpenAIAPIKey, openai.WithHTTPClient(hc)))
	reg.Register(anthropic.New(cfg.ClaudeAPIKey, anthropic.WithHTTPClient(hc)))
	return reg
}

func buildStore(ctx context.Context, cfg config.Config, logger *slog.Logger) store.Store {
	if cfg.S3Bucket == "" {
		return nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Warn("aws config load failed, persistence disabled", "error", err)
		return nil
	}
	return store.NewS3Store(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Prefix)
}

func buildEngine(ctx context.Context, cfg config.Config, logger *slog.Logger) (*handlers.Engine, error) {
	var temp *float64
	if cfg.HasTemperature {
		t := cfg.Temperature
		temp = &t
	}
	registry := buildProviderRegistry(cfg)
	provider, ok := registry.Get(cfg.UpstreamName())
	if !ok {
		return nil, fmt.Errorf("provider %q not registered (have %v)", cfg.UpstreamName(), registry.List())
	}
	logger.Info("upstream providers", "registered", registry.List(), "selected", provider.Name())
	dispatcher := core.NewDispatcher(provider, core.DispatcherOptions{
		Model:       cfg.Model(),
		Timeout:     cfg.HTTPTimeout,
		MaxTokens:   cfg.MaxTokens,
		Temperature: temp,
		Logger:      logger,
	})

	var noteSvc notes.Service
	if cfg.NotesToken != "" {
		noteSvc = notes.NewClient(cfg.NotesToken,
			notes.WithVersion(cfg.NotesVersion),
			notes.WithHTTPClient(&http.Client{Timeout: cfg.NotesTimeout}),
		)
	}

	return handlers.New(cfg, dispatcher, noteSvc, buildStore(ctx, cfg, logger), logger), nil
}

func buildHTTPServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
	}
}

func runSkill(ctx context.Context, logger *slog.Logger, deps skillDeps) error {
	if deps.loadConfig == nil || deps.newEngine == nil {
		return errors.New("missing engine dependency")
	}
	if deps.signalNotify == nil || deps.signalStop == nil {
		return errors.New("missing signal dependency")
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg := deps.loadConfig()
	cfg.WarnMissing(logger)

	engine, err := deps.newEngine(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	srv := skillserver.New(cfg, engine, logger)
	httpSrv := buildHTTPServer(cfg, srv.Handler())

	logger.Info("starting skill backend", "addr", cfg.Addr, "provider", cfg.Provider, "model", cfg.Model())

	listenErrCh := make(chan error, 1)
	go func() {
		err := httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErrCh <- err
			return
		}
		listenErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	deps.signalNotify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer deps.signalStop(sigCh)

	select {
	case err := <-listenErrCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	if err := <-listenErrCh; err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("skill backend stopped")
	return nil
}

func runMain(ctx context.Context, stderr io.Writer, deps skillDeps) int {
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(stderr, nil))
	slog.SetDefault(logger)

	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("dotenv load failed", "error", err)
	}

	if err := runSkill(ctx, logger, deps); err != nil {
		fmt.Fprintf(stderr, "pico-skill: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(runMain(context.Background(), os.Stderr, defaultSkillDeps()))
}
