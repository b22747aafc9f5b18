// Package persistence implements the optional persistence status probe
// (SPEC_FULL.md §4.11, ADDED, disabled by default). None of the four CLI
// commands call this package — every run artifact lives on disk via
// pkg/store. This exists only as an opt-in operational check for a
// deployment that also runs a companion Postgres instance for out-of-band
// reporting; the core's correctness never depends on it.
package persistence

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
)

// Status reports whether the probe is enabled and, if so, whether the
// configured database answered a ping within the timeout.
type Status struct {
	Enabled      bool          `json:"enabled"`
	Reachable    bool          `json:"reachable"`
	ResponseTime time.Duration `json:"response_time_ns,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// Probe pings dsn via database/sql + pgx's stdlib driver. An empty dsn
// means the probe is disabled (the default) and Probe returns immediately
// without opening a connection.
func Probe(ctx context.Context, dsn string, timeout time.Duration) Status {
	if dsn == "" {
		return Status{Enabled: false}
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return Status{Enabled: true, Reachable: false, Error: err.Error()}
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	if err := db.PingContext(pingCtx); err != nil {
		return Status{Enabled: true, Reachable: false, ResponseTime: time.Since(start), Error: err.Error()}
	}
	return Status{Enabled: true, Reachable: true, ResponseTime: time.Since(start)}
}
