package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/convoyapp/convoy/internal/adapters/http"
	"github.com/convoyapp/convoy/internal/app"
	"github.com/convoyapp/convoy/internal/cache"
	"github.com/convoyapp/convoy/internal/compliance"
	"github.com/convoyapp/convoy/internal/config"
	"github.com/convoyapp/convoy/internal/core"
	convoycrypto "github.com/convoyapp/convoy/internal/crypto"
	"github.com/convoyapp/convoy/internal/moderation"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	var kv core.Cache
	switch cfg.CacheBackend {
	case "badger":
		b, err := cache.OpenBadger(cfg.CachePath)
		if err != nil {
			log.Error().Err(err).Msg("cache unavailable, falling back to in-process cache")
			kv = cache.NewMemory()
		} else {
			defer b.Close()
			kv = b
		}
	default:
		kv = cache.NewMemory()
	}

	var sealer core.Sealer
	if cfg.PayloadKey != "" {
		s, err := convoycrypto.NewBoxSealer(cfg.PayloadKey)
		if err != nil {
			log.Fatal().Err(err).Msg("payload key configured but unusable")
		}
		sealer = s
	} else {
		log.Warn().Msg("no payload key configured, messages relayed unsealed")
	}

	var sink core.ComplianceSink = compliance.Discard{}
	if cfg.ComplianceLogPath != "" {
		fs, err := compliance.NewFileSink(cfg.ComplianceLogPath)
		if err != nil {
			log.Error().Err(err).Msg("compliance sink unavailable, records will be dropped")
		} else {
			defer fs.Close()
			sink = fs
		}
	}

	presence := core.NewPresenceStore()
	directory := core.NewRoomDirectory(presence, kv, cfg.DirectoryLocalTTL, cfg.DirectoryCacheTTL)
	limiter := core.NewRateLimiter(kv, cfg.RateLimitMax, cfg.RateLimitWindow)
	pipeline := core.NewModerationPipeline(moderation.NewWordlistCleaner(), moderation.NewLexiconScorer(), sealer)
	proximity := core.NewProximityNotifier(presence, cfg.ProximityMeters)
	broadcaster := app.NewBroadcastRouter()

	hub := app.NewHub(presence, directory, limiter, pipeline, proximity, broadcaster, sink)

	r := router.SetupRouter(ctx, cfg, hub)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Convoy server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
