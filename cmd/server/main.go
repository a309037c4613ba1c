// Command server runs the voice ordering backend: it loads configuration,
// initializes logging, tracing, storage, and the speech providers, wires the
// Gin router, and serves HTTP until interrupted.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shamstack/voice-order-backend/internal/config"
	httpapi "github.com/shamstack/voice-order-backend/internal/http"
	"github.com/shamstack/voice-order-backend/internal/lexicon"
	"github.com/shamstack/voice-order-backend/internal/observability"
	"github.com/shamstack/voice-order-backend/internal/repo"
	"github.com/shamstack/voice-order-backend/internal/speech"
	"github.com/shamstack/voice-order-backend/internal/sysutil"
	"github.com/shamstack/voice-order-backend/internal/translog"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	if err := os.MkdirAll(cfg.AudioDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.AudioDir).Msg("create audio dir")
	}

	tlog, err := translog.Open(cfg.TransLogPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.TransLogPath).Msg("open conversation log")
	}
	defer tlog.Close()

	deps := httpapi.Deps{
		Lexicon:  lexicon.New(lexicon.WithFallback(lexicon.Language(cfg.FallbackLanguage))),
		TransLog: tlog,
	}
	if cfg.Speech.Enabled {
		bcfg := speech.BreakerConfig{
			MaxFailures: uint32(cfg.Speech.MaxFailures),
			OpenTimeout: cfg.Speech.OpenTimeout,
			CallTimeout: cfg.Speech.CallTimeout,
		}
		deps.Transcriber = speech.NewGuardedTranscriber(
			speech.NewWhisperTranscriber(cfg.Speech.OpenAIAPIKey), bcfg)
		deps.Synthesizer = speech.NewGuardedSynthesizer(
			speech.NewElevenLabsSynthesizer(cfg.Speech.ElevenLabsAPIKey, cfg.Speech.ElevenLabsVoiceID, nil), bcfg)
	} else {
		log.Warn().Msg("speech disabled, running text-only")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, deps, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("version", version).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
