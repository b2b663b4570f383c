package config

import (
	"errors"

	"github.com/andrew-solarstorm/go-packages/common"
)

type EngineConfig struct {
	// SlippageBps is the default slippage tolerance applied to minimum-out
	// calculations when a request does not override it. Default: 100 (1%).
	SlippageBps uint16

	// MemoryCapacity bounds the historical swap record log (FIFO eviction).
	// Default: 1000.
	MemoryCapacity int

	// QuoteCacheSize bounds the best-quote cache. Default: 1024.
	QuoteCacheSize int

	// MinSwapAmount rejects dust trades before venue math runs. Default: 1000.
	MinSwapAmount uint64

	// DBPath is the BoltDB file for pool and history persistence.
	// Default: "./data/agent-swap.db"
	DBPath string

	// PersistenceEnabled controls whether state is persisted to disk.
	// Default: true
	PersistenceEnabled bool

	// PersistInterval is how often history is batch-saved to disk (seconds).
	// Default: 30
	PersistInterval int
}

func (c *EngineConfig) Load() error {
	c.SlippageBps = uint16(common.GetEnvOrDefaultInt("SLIPPAGE_BPS", 100))
	c.MemoryCapacity = common.GetEnvOrDefaultInt("MEMORY_CAPACITY", 1000)
	c.QuoteCacheSize = common.GetEnvOrDefaultInt("QUOTE_CACHE_SIZE", 1024)
	c.MinSwapAmount = uint64(common.GetEnvOrDefaultInt("MIN_SWAP_AMOUNT", 1000))
	c.DBPath = common.GetEnvOrDefault("ENGINE_DB_PATH", "./data/agent-swap.db")
	c.PersistenceEnabled = common.GetEnvOrDefault("ENGINE_PERSISTENCE_ENABLED", "true") == "true"
	c.PersistInterval = common.GetEnvOrDefaultInt("ENGINE_PERSIST_INTERVAL", 30)
	return c.Validate()
}

func (c *EngineConfig) Validate() error {
	if c.SlippageBps >= 10000 {
		return errors.New("slippage must be below 10000 bps")
	}
	if c.MemoryCapacity <= 0 {
		return errors.New("memory capacity must be positive")
	}
	if c.QuoteCacheSize <= 0 {
		return errors.New("quote cache size must be positive")
	}
	return nil
}
