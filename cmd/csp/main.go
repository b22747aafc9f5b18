// Command csp is the CLI Dispatcher (C10): four subcommands
// (csp:discover, csp:iterate, csp:validate, csp:export) that each parse
// their flags, resolve configuration, construct the workflow engine with
// the right tool client (Stub under --dry-run, Real otherwise), run one
// operation, and print a single line of strict JSON to stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/qlip-csp/orchestrator/pkg/config"
	"github.com/qlip-csp/orchestrator/pkg/store"
	"github.com/qlip-csp/orchestrator/pkg/tool"
	"github.com/qlip-csp/orchestrator/pkg/version"
	"github.com/qlip-csp/orchestrator/pkg/workflow"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// .env is loaded best-effort from the working directory; a missing file
	// is not an error (spec.md §6: no environment variable drives the
	// core's behavior, but ambient operational knobs like a persistence
	// probe DSN may still arrive this way).
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil)).With("app", version.Full())

	if len(args) == 0 {
		return emitError(fmt.Errorf("missing command (expected csp:discover, csp:iterate, csp:validate, or csp:export)"))
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "csp:discover":
		return runDiscover(logger, rest)
	case "csp:iterate":
		return runIterate(logger, rest)
	case "csp:validate":
		return runValidate(logger, rest)
	case "csp:export":
		return runExport(logger, rest)
	default:
		// Non-CSP argv forwards to an external host CLI in the source
		// deployment; this standalone module has no host process to hand
		// off to, so an unrecognized command is a user-surface error.
		return emitError(fmt.Errorf("unknown command %q", cmd))
	}
}

func runDiscover(logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("csp:discover", flag.ContinueOnError)
	objective := fs.String("objective", "", "materials-science objective text")
	chemSystem := fs.String("chem-system", "", "optional pre-selected chemistry system")
	workspace := fs.String("workspace", "", "run workspace directory")
	seed := fs.Int64("seed", 1, "PRNG seed")
	configPath := fs.String("config", "", "optional JSON config file path")
	dryRun := fs.Bool("dry-run", false, "force the deterministic stub tool client")
	var solverOverride *string
	fs.Func("solver", "MILP solver override (gurobi|cbc|highs)", func(v string) error {
		solverOverride = &v
		return nil
	})
	var maxItersOverride *int
	fs.Func("max-iters", "policy max_iters override", func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid --max-iters: %w", err)
		}
		maxItersOverride = &n
		return nil
	})
	if err := fs.Parse(args); err != nil {
		return emitError(err)
	}
	if *objective == "" {
		return emitError(fmt.Errorf("missing required flag --objective"))
	}
	if *workspace == "" {
		return emitError(fmt.Errorf("missing required flag --workspace"))
	}

	cfg, err := config.Resolve(*configPath, config.CLIOverrides{
		Workspace: workspace,
		Solver:    solverOverride,
		MaxIters:  maxItersOverride,
	})
	if err != nil {
		return emitError(err)
	}

	eng := workflow.New(store.New(cfg.Workspace), selectTool(*dryRun, *seed, logger), *cfg, nil)
	result, err := eng.Discover(context.Background(), *objective, *chemSystem, *seed)
	if err != nil {
		return emitError(err)
	}
	return emitSuccess(result)
}

func runIterate(logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("csp:iterate", flag.ContinueOnError)
	runID := fs.String("run-id", "", "existing run id")
	workspace := fs.String("workspace", "", "run workspace directory")
	seed := fs.Int64("seed", 1, "PRNG seed for the stub tool client")
	configPath := fs.String("config", "", "optional JSON config file path")
	dryRun := fs.Bool("dry-run", false, "force the deterministic stub tool client")
	if err := fs.Parse(args); err != nil {
		return emitError(err)
	}
	if *runID == "" {
		return emitError(fmt.Errorf("missing required flag --run-id"))
	}
	if *workspace == "" {
		return emitError(fmt.Errorf("missing required flag --workspace"))
	}

	cfg, err := config.Resolve(*configPath, config.CLIOverrides{Workspace: workspace})
	if err != nil {
		return emitError(err)
	}

	eng := workflow.New(store.New(cfg.Workspace), selectTool(*dryRun, *seed, logger), *cfg, nil)
	result, err := eng.Iterate(context.Background(), *runID)
	if err != nil {
		return emitError(err)
	}
	return emitSuccess(result)
}

func runValidate(logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("csp:validate", flag.ContinueOnError)
	runID := fs.String("run-id", "", "existing run id")
	workspace := fs.String("workspace", "", "run workspace directory")
	_ = fs.Int("top-k", 0, "unused by validate; accepted for CLI surface symmetry with export")
	seed := fs.Int64("seed", 1, "PRNG seed for the stub tool client")
	dryRun := fs.Bool("dry-run", false, "force the deterministic stub tool client")
	if err := fs.Parse(args); err != nil {
		return emitError(err)
	}
	if *runID == "" {
		return emitError(fmt.Errorf("missing required flag --run-id"))
	}
	if *workspace == "" {
		return emitError(fmt.Errorf("missing required flag --workspace"))
	}

	cfg, err := config.Resolve("", config.CLIOverrides{Workspace: workspace})
	if err != nil {
		return emitError(err)
	}

	eng := workflow.New(store.New(cfg.Workspace), selectTool(*dryRun, *seed, logger), *cfg, nil)
	result, err := eng.Validate(context.Background(), *runID)
	if err != nil {
		return emitError(err)
	}
	return emitSuccess(result)
}

func runExport(logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("csp:export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "existing run id")
	workspace := fs.String("workspace", "", "run workspace directory")
	format := fs.String("format", "cif", "export format: cif|poscar")
	topK := fs.Int("top-k", 5, "number of top candidates to export")
	if err := fs.Parse(args); err != nil {
		return emitError(err)
	}
	if *runID == "" {
		return emitError(fmt.Errorf("missing required flag --run-id"))
	}
	if *workspace == "" {
		return emitError(fmt.Errorf("missing required flag --workspace"))
	}
	if *format != "cif" && *format != "poscar" {
		return emitError(fmt.Errorf("invalid --format %q (must be cif or poscar)", *format))
	}

	cfg, err := config.Resolve("", config.CLIOverrides{Workspace: workspace})
	if err != nil {
		return emitError(err)
	}

	// Export never calls a tool (spec.md §4.9 "Export" only reads
	// candidates already on disk), but the engine still needs a Client to
	// satisfy its constructor; Real is the inert choice since it is never
	// invoked on this path.
	eng := workflow.New(store.New(cfg.Workspace), tool.NewReal(logger), *cfg, nil)
	result, err := eng.Export(context.Background(), *runID, *topK, *format)
	if err != nil {
		return emitError(err)
	}
	return emitSuccess(result)
}

// selectTool forces the Stub implementation under --dry-run, per spec.md
// §4.5; otherwise it constructs Real, whose transport is out of scope for
// this core and always fails a call.
func selectTool(dryRun bool, seed int64, logger *slog.Logger) tool.Client {
	if dryRun {
		return tool.NewStub(seed)
	}
	return tool.NewReal(logger)
}

type errorEnvelope struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func emitSuccess(v any) int {
	data, err := json.Marshal(v)
	if err != nil {
		return emitError(fmt.Errorf("encode result: %w", err))
	}
	fmt.Println(string(data))
	return 0
}

func emitError(err error) int {
	data, marshalErr := json.Marshal(errorEnvelope{Status: "error", Error: err.Error()})
	if marshalErr != nil {
		fmt.Printf(`{"status":"error","error":%q}`+"\n", err.Error())
		return 1
	}
	fmt.Println(string(data))
	return 1
}
