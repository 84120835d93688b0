// Package feed implements the feed ranking and ordering engine: signal
// fetching, weighted scoring, diversity limiting, pagination, and the
// selectable feed variants built from them.
package feed

import "errors"

// Sentinel errors returned by the feed engine.
var (
	// ErrDataUnavailable indicates an underlying store (graph, post, or
	// interaction) failed or timed out. Fatal to the current request:
	// the engine never converts it into an empty feed. Callers own
	// retry policy.
	ErrDataUnavailable = errors.New("feed data unavailable")

	// ErrInvalidPagination indicates a negative limit or offset.
	// Rejected at the boundary before any store is touched.
	ErrInvalidPagination = errors.New("invalid pagination parameters")
)
