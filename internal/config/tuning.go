package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/banshee-data/particle.report/internal/fsutil"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// Render modes accepted by render_mode.
const (
	RenderCombined = "combined"
	RenderSingle   = "single"
)

// TuningConfig represents the root configuration for extraction and
// rendering. Every field is optional; the Get* methods supply defaults.
type TuningConfig struct {
	// Extraction params
	Reach   *int `json:"reach,omitempty"`
	Workers *int `json:"workers,omitempty"` // 0 means GOMAXPROCS

	// Render params
	RenderScale *int    `json:"render_scale,omitempty"` // pixels per cell
	RenderMode  *string `json:"render_mode,omitempty"`  // "combined" or "single"
}

// Helper functions to create pointers
func ptrInt(v int) *int          { return &v }
func ptrString(v string) *string { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// from the built-in defaults.
func DefaultTuningConfig() *TuningConfig {
	empty := EmptyTuningConfig()
	return &TuningConfig{
		Reach:       ptrInt(empty.GetReach()),
		Workers:     ptrInt(0),
		RenderScale: ptrInt(empty.GetRenderScale()),
		RenderMode:  ptrString(empty.GetRenderMode()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file on disk.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	return LoadTuningConfigFS(fsutil.OSFileSystem{}, path)
}

// LoadTuningConfigFS loads a TuningConfig through fsys.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfigFS(fsys fsutil.FileSystem, path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/particle/pipeline/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.Reach != nil && *c.Reach < 1 {
		return fmt.Errorf("reach must be at least 1, got %d", *c.Reach)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.RenderScale != nil && *c.RenderScale < 1 {
		return fmt.Errorf("render_scale must be at least 1, got %d", *c.RenderScale)
	}
	if c.RenderMode != nil {
		switch *c.RenderMode {
		case RenderCombined, RenderSingle:
		default:
			return fmt.Errorf("render_mode must be %q or %q, got %q", RenderCombined, RenderSingle, *c.RenderMode)
		}
	}
	return nil
}

// GetReach returns the reach value or the default.
func (c *TuningConfig) GetReach() int {
	if c.Reach == nil {
		return 2 // default
	}
	return *c.Reach
}

// GetWorkers returns the classification worker count, resolving 0 to
// GOMAXPROCS.
func (c *TuningConfig) GetWorkers() int {
	if c.Workers == nil || *c.Workers == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return *c.Workers
}

// GetRenderScale returns the render_scale value or the default.
func (c *TuningConfig) GetRenderScale() int {
	if c.RenderScale == nil {
		return 2 // default
	}
	return *c.RenderScale
}

// GetRenderMode returns the render_mode value or the default.
func (c *TuningConfig) GetRenderMode() string {
	if c.RenderMode == nil || *c.RenderMode == "" {
		return RenderCombined // default
	}
	return *c.RenderMode
}

// WithReach returns a copy of c with Reach overridden, for CLI flags that
// take precedence over the file.
func (c *TuningConfig) WithReach(reach int) *TuningConfig {
	out := *c
	out.Reach = ptrInt(reach)
	return &out
}
