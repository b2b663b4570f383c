package common

import (
	"errors"
	"net/http"
)

// Error kinds surfaced by the quoting and history core. Per-venue failures
// (ErrPoolNotFound, ErrInsufficientLiquidity) are recovered inside the
// aggregator's fan-out; only ErrNoRouteFound and ErrClock reach callers.
var (
	// ErrPoolNotFound means a venue holds no liquidity state for the pair,
	// checked in both directions.
	ErrPoolNotFound = errors.New("pool not found")

	// ErrInsufficientLiquidity means venue math produced a non-positive,
	// overflowing, or reserve-draining output.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")

	// ErrAmountTooSmall means the input is below the configured dust floor.
	ErrAmountTooSmall = errors.New("amount below minimum swap size")

	// ErrNoRouteFound means every configured venue failed for the pair.
	ErrNoRouteFound = errors.New("no route found")

	// ErrClock means the store could not obtain a valid timestamp.
	ErrClock = errors.New("clock error")

	ErrUnsupportedVenue = errors.New("unsupported venue")
	ErrNoExecutor       = errors.New("no executor registered for venue")
)

// StatusForError maps a core error to the HTTP status the API layer reports.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, ErrPoolNotFound), errors.Is(err, ErrNoRouteFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInsufficientLiquidity), errors.Is(err, ErrAmountTooSmall), errors.Is(err, ErrUnsupportedVenue):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
