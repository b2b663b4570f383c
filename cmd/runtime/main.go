package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/hqvu/agent-swap/internal/adapters/persistence"
	"github.com/hqvu/agent-swap/internal/common"
	"github.com/hqvu/agent-swap/internal/config"
	"github.com/hqvu/agent-swap/internal/http"
	"github.com/hqvu/agent-swap/internal/services/market"
	"github.com/hqvu/agent-swap/internal/services/memory"
	"github.com/hqvu/agent-swap/internal/services/router"
)

func main() {
	common.InitRuntime()

	// .env is optional outside dev
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	generalConf := &config.GeneralConfig{}
	if err := generalConf.Load(); err != nil {
		log.Fatal().Err(err).Msg("failed to load general config")
	}

	engineConf := &config.EngineConfig{}
	if err := engineConf.Load(); err != nil {
		log.Fatal().Err(err).Msg("failed to load engine config")
	}

	common.SetupLogger(generalConf.Env, generalConf.LogLevel)

	registry := market.NewDefaultRegistry()
	engine := router.NewEngine(registry, engineConf.SlippageBps, engineConf.QuoteCacheSize, engineConf.MinSwapAmount)
	store := memory.NewStore(engineConf.MemoryCapacity)

	var storage *persistence.Storage
	if engineConf.PersistenceEnabled {
		var err error
		storage, err = persistence.NewStorage(engineConf.DBPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open storage")
		}
		defer storage.Close()

		restoreState(storage, registry, store)
	}

	httpSvc := http.NewHTTPService(generalConf,
		http.NewQuoteHandler(engine),
		http.NewSwapHandler(engine),
		http.NewPoolHandler(registry, engine),
		http.NewHistoryHandler(store),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSvc.Start()
	}()

	stopPersist := make(chan struct{})
	if storage != nil {
		go persistLoop(storage, registry, store, time.Duration(engineConf.PersistInterval)*time.Second, stopPersist)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server failed")
		}
	}

	close(stopPersist)

	if err := httpSvc.Stop(); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}

	if storage != nil {
		persistState(storage, registry, store)
	}
}

func restoreState(storage *persistence.Storage, registry *market.Registry, store *memory.Store) {
	pools, err := storage.LoadAllPools()
	if err != nil {
		log.Error().Err(err).Msg("failed to load pools")
	} else {
		restored := 0
		for _, pool := range pools {
			if err := registry.UpsertPool(pool); err != nil {
				log.Warn().Err(err).Str("address", pool.Address.String()).Msg("skipping persisted pool")
				continue
			}
			restored++
		}
		log.Info().Int("count", restored).Msg("pools restored")
	}

	records, err := storage.LoadRecords()
	if err != nil {
		log.Error().Err(err).Msg("failed to load swap records")
		return
	}
	routes, err := storage.LoadRouteMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to load route metrics")
		return
	}
	store.Restore(records, routes)
	log.Info().Int("records", len(records)).Int("routes", len(routes)).Msg("history restored")
}

func persistLoop(storage *persistence.Storage, registry *market.Registry, store *memory.Store, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			persistState(storage, registry, store)
		}
	}
}

func persistState(storage *persistence.Storage, registry *market.Registry, store *memory.Store) {
	if err := storage.SavePoolBatch(registry.AllPools()); err != nil {
		log.Error().Err(err).Msg("failed to persist pools")
	}

	records, routes := store.Snapshot()
	if err := storage.SaveRecords(records); err != nil {
		log.Error().Err(err).Msg("failed to persist swap records")
	}
	if err := storage.SaveRouteMetrics(routes); err != nil {
		log.Error().Err(err).Msg("failed to persist route metrics")
	}
}
