// Package tool implements the Tool Client Interface (C5) and its two
// implementations: the deterministic Stub (C6) used for dry-run and
// testing, and a Real client stub whose transport is out of scope for this
// core (spec.md §1) but whose presence keeps the interface genuinely
// polymorphic rather than a single-implementation abstraction.
package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Name identifies one of the five fixed tool calls the workflow engine
// makes. Unknown names are a command-level failure (spec.md §6).
type Name string

const (
	SuggestChemistries Name = "materials-data-mcp.suggest_chemistries"
	FetchPriors        Name = "materials-data-mcp.fetch_priors"
	BuildConstraints   Name = "qlip-mcp.build_constraints"
	RunQLIP            Name = "qlip-mcp.run_qlip"
	BatchValidate      Name = "csp-validators-mcp.batch_validate"
)

// ErrUnknownTool is returned by Call when tool is not one of the five names
// above.
var ErrUnknownTool = errors.New("tool: unknown tool name")

// Client is the single-method collaborator contract every tool
// implementation (real or stub) satisfies. Variants are tagged and
// dispatched at construction time (see selectTool in cmd/csp); this interface must never
// be overloaded with transport-specific concerns — those live entirely
// inside a concrete implementation.
type Client interface {
	Call(ctx context.Context, name Name, input any) (json.RawMessage, error)
}

// CallTyped marshals input, calls the client, and unmarshals the result
// into a value of type T. It centralizes the encode/call/decode sequence
// every workflow step needs so that callers work with typed request/
// response structs instead of json.RawMessage.
func CallTyped[T any](ctx context.Context, c Client, name Name, input any) (T, error) {
	var zero T
	out, err := c.Call(ctx, name, input)
	if err != nil {
		return zero, err
	}
	var result T
	if err := json.Unmarshal(out, &result); err != nil {
		return zero, fmt.Errorf("tool: decode %s output: %w", name, err)
	}
	return result, nil
}

// marshalOutput is a small helper used by Stub.Call so each case reads as
// "validate name, do work, marshal output".
func marshalOutput(v any) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("tool: encode output: %w", err)
	}
	return data, nil
}
