package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// ErrRealTransportUnconfigured is returned by every Real.Call — this core
// ships the tool-client abstraction and its deterministic stub twin, but
// the real MILP/materials-data MCP transport is a collaborator reached
// only through this interface and is out of scope for the core itself
// (spec.md §1). A full deployment would replace Real's innards with a
// JSON-RPC session to the configured MCP servers; until then, selecting it
// (i.e. running without --dry-run) surfaces a clear transport error rather
// than silently falling back to the stub.
var ErrRealTransportUnconfigured = errors.New("tool: real MCP transport not configured")

// Real is the non-deterministic tool client tag. It satisfies Client so the
// workflow engine's dependency is always the interface, never a concrete
// stub type, but every call fails until a transport is wired in.
type Real struct {
	logger *slog.Logger
}

// NewReal constructs a Real client. logger may be nil, in which case
// slog.Default() is used.
func NewReal(logger *slog.Logger) *Real {
	if logger == nil {
		logger = slog.Default()
	}
	return &Real{logger: logger}
}

// Call implements Client. It validates the tool name (so malformed
// dispatch is caught even before the transport question arises) and then
// always fails with ErrRealTransportUnconfigured.
func (r *Real) Call(ctx context.Context, name Name, input any) (json.RawMessage, error) {
	switch name {
	case SuggestChemistries, FetchPriors, BuildConstraints, RunQLIP, BatchValidate:
		// known tool name, transport is simply absent
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	r.logger.Warn("real tool transport not configured", "tool", name)
	return nil, fmt.Errorf("%s: %w", name, ErrRealTransportUnconfigured)
}
