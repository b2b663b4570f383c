package common

import (
	"os"
	"runtime"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

// Runtime profiles for different server configurations
const (
	// Small server: 2 vCPU, 4GB RAM (test/dev environment)
	smallServerGOGC     = 500
	smallServerMemLimit = int64(2.5 * 1024 * 1024 * 1024)

	// Medium server: 4-8 vCPU, 8-16GB RAM
	mediumServerGOGC     = 800
	mediumServerMemLimit = int64(8 * 1024 * 1024 * 1024)

	// Large server: 16+ vCPU, 32GB+ RAM (production)
	largeServerGOGC     = 1000
	largeServerMemLimit = int64(16 * 1024 * 1024 * 1024)
)

// detectServerProfile returns settings based on available CPUs. RAM detection
// would need cgo or /proc parsing, so CPU count stands in for the whole class.
func detectServerProfile() (gogc int, memLimit int64, maxProcs int) {
	totalCPU := runtime.NumCPU()
	switch {
	case totalCPU <= 2:
		return smallServerGOGC, smallServerMemLimit, 1
	case totalCPU <= 8:
		return mediumServerGOGC, mediumServerMemLimit, totalCPU / 2
	default:
		return largeServerGOGC, largeServerMemLimit, totalCPU / 2
	}
}

// InitRuntime tunes GOGC, GOMEMLIMIT and GOMAXPROCS for a latency-sensitive
// quoting workload. A high GOGC keeps short-lived quote allocations from
// triggering constant collections; GOMEMLIMIT caps the trade-off. Environment
// variables GOGC, GOMEMLIMIT and GOMAXPROCS override the detected profile.
func InitRuntime() {
	defaultGOGC, defaultMemLimit, defaultMaxProcs := detectServerProfile()

	if os.Getenv("GOGC") == "" {
		debug.SetGCPercent(defaultGOGC)
	}
	if os.Getenv("GOMEMLIMIT") == "" {
		debug.SetMemoryLimit(defaultMemLimit)
	}
	if os.Getenv("GOMAXPROCS") == "" && defaultMaxProcs > 0 {
		runtime.GOMAXPROCS(defaultMaxProcs)
	}

	log.Info().
		Int("gomaxprocs", runtime.GOMAXPROCS(0)).
		Int("numcpu", runtime.NumCPU()).
		Msg("[runtime] tuned for quoting workload")
}
