// Command wfapprovald is the external-actor side of the suspend-poll-resume
// protocol: a small HTTP+WebSocket service exposing approve/reject/
// decision/input/review resolution endpoints over whatever graph/hitl/store
// backend a running workflow process shares with it.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mwillis/wfgraph/graph"
	"github.com/mwillis/wfgraph/graph/hitl/notify"
	"github.com/mwillis/wfgraph/graph/hitl/store"
	"github.com/mwillis/wfgraph/graph/hitl/sweep"
	"github.com/mwillis/wfgraph/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "path to a wfgraph YAML config file")
	addr := flag.String("addr", ":8090", "HTTP listen address")
	jwtSecret := flag.String("jwt-secret", "", "HS256 secret for bearer-token auth; empty disables auth (development only)")
	printConfig := flag.Bool("print-config", false, "print the effective configuration as YAML and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading configuration")
	}

	if *printConfig {
		rendered, err := cfg.Dump()
		if err != nil {
			log.Fatal().Err(err).Msg("rendering configuration")
		}
		fmt.Print(rendered)
		return
	}

	logger := newLogger(cfg.Logging.Level, cfg.Logging.Format)

	pendingStore, err := newStore(cfg.Store)
	if err != nil {
		logger.Fatal().Err(err).Msg("constructing pending store")
	}

	hub := notify.NewHub(&logger)
	go hub.Run()

	bgCtx, cancelBg := context.WithCancel(context.Background())
	defer cancelBg()

	// publisher is what ObservedStore notifies on every mutation. With Redis
	// configured it publishes into the bridge instead of the hub directly,
	// so a local mutation round-trips through Redis and arrives back in the
	// hub the same way a remote instance's mutation would, via Subscribe's
	// relay. Without Redis, the hub is the publisher directly.
	var publisher notify.Publisher = hub
	var bridge *notify.RedisBridge
	if cfg.Notify.RedisURL != "" {
		bridge, err = notify.NewRedisBridge(cfg.Notify.RedisURL, hub, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("connecting to redis notify bridge")
		}
		defer bridge.Close()
		publisher = bridge
	}

	observed := notify.NewObservedStore[map[string]any](pendingStore, publisher)

	registry := prometheus.NewRegistry()
	metrics := graph.NewMetrics(registry)

	var auth Authenticator = NoAuth{}
	if *jwtSecret != "" {
		auth = NewJWTAuth(*jwtSecret)
	} else {
		logger.Warn().Msg("running without bearer-token auth; pass -jwt-secret in production")
	}

	srv := &server{
		resolve:     observed,
		scan:        pendingStore,
		auth:        auth,
		logger:      logger,
		redisBridge: bridge,
		bgCtx:       bgCtx,
	}

	if cfg.Sweep.Enabled {
		policy := sweep.PolicyStrict
		if cfg.Sweep.Policy == "lenient-reject" {
			policy = sweep.PolicyLenientReject
		}
		sweeper := sweep.New[map[string]any](pendingStore, hub, policy, cfg.Sweep.MaxAge, &logger)
		sweeper.Metrics = metrics
		if err := sweeper.Start(cfg.Sweep.Schedule); err != nil {
			logger.Fatal().Err(err).Msg("starting sweeper")
		}
		defer sweeper.Stop()
	}

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           newRouter(srv, hub, registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", *addr).Msg("wfapprovald listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
	}
}

func newLogger(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	var l zerolog.Logger
	if format == "text" {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		l = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	return l.Level(lvl)
}

type pendingStoreHandle = interface {
	store.PendingStore[map[string]any]
	store.PendingScanner[map[string]any]
}

func newStore(cfg config.StoreConfig) (pendingStoreHandle, error) {
	switch cfg.Backend {
	case "sqlite":
		return store.NewSQLStore[map[string]any](cfg.DSN)
	case "mysql":
		return store.NewMySQLStore[map[string]any](cfg.DSN)
	case "postgres":
		return store.NewPostgresStore[map[string]any](cfg.DSN)
	default:
		return store.NewMemoryStore[map[string]any](), nil
	}
}
