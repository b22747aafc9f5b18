// Package config implements the Config Resolver (C3): built-in defaults,
// merged with an optional JSON config file, merged with CLI flag overrides,
// with the same increasing-precedence order and deep-merge-for-objects /
// overwrite-for-arrays-and-scalars policy the teacher's pkg/config/loader.go
// applies to its own YAML + mergo pipeline.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"dario.cat/mergo"
)

// DefaultConfigFileName is used when --config is not supplied; its absence
// is not an error (spec.md §4.3).
const DefaultConfigFileName = "config.json"

// DefaultConfigDir is the fallback config directory, mirroring the
// teacher's ~/.claude-flow-csp/config.json convention named in spec.md.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(home, ".claude-flow-csp"), nil
}

// Resolve builds the final Config: defaults ← file (configPath, or the
// default location if configPath is empty and the default file exists) ←
// CLI overrides. A missing config file is not an error; a malformed one is.
func Resolve(configPath string, overrides CLIOverrides) (*Config, error) {
	cfg := DefaultConfig()

	path, err := resolveConfigPath(configPath)
	if err != nil {
		return nil, err
	}

	if path != "" {
		fileCfg, err := loadFileConfig(path)
		if err != nil {
			return nil, err
		}
		if fileCfg != nil {
			// mergo.WithOverride: non-zero fields in fileCfg win over cfg's
			// built-in defaults. Slices (RelaxOrder/TightenOrder) are
			// replaced wholesale when present in the file, matching
			// spec.md's "overwrite for arrays" merge rule; Policy itself
			// deep-merges field by field, matching "deep merge for
			// objects".
			if err := mergo.Merge(&cfg, *fileCfg, mergo.WithOverride); err != nil {
				return nil, fmt.Errorf("config: merge file config: %w", err)
			}
		}
	}

	applyCLIOverrides(&cfg, overrides)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// resolveConfigPath decides which file (if any) to load. An explicit
// configPath that does not exist is an error (the user asked for it
// specifically); the implicit default path is silently skipped if absent.
func resolveConfigPath(configPath string) (string, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return "", NewLoadError(configPath, err)
		}
		return configPath, nil
	}

	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	candidate := filepath.Join(dir, DefaultConfigFileName)
	if _, err := os.Stat(candidate); err != nil {
		return "", nil // missing default config is not an error
	}
	return candidate, nil
}

func loadFileConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewLoadError(path, err)
	}

	var fc Config
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, NewLoadError(path, fmt.Errorf("invalid JSON: %w", err))
	}
	return &fc, nil
}

// applyCLIOverrides applies the three spec-named CLI flags. These always
// win: they are the highest-precedence layer.
func applyCLIOverrides(cfg *Config, overrides CLIOverrides) {
	if overrides.Workspace != nil {
		cfg.Workspace = *overrides.Workspace
	}
	if overrides.Solver != nil {
		cfg.Solver = Solver(*overrides.Solver)
	}
	if overrides.MaxIters != nil {
		cfg.Policy.MaxIters = *overrides.MaxIters
	}
}
