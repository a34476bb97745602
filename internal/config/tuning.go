package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// TuningConfig holds the operational knobs for a generation run. Fields
// are pointers so a partial JSON file only overrides what it names; the
// Get* methods supply defaults for everything else.
type TuningConfig struct {
	// DebugTrace prints every record's logic trace to the log while
	// generating. Very noisy on a full coil map.
	DebugTrace *bool `json:"debug_trace,omitempty"`

	// ProgressInterval is the number of rows written between progress
	// log lines.
	ProgressInterval *int `json:"progress_interval,omitempty"`

	// BuildCls controls whether the column lift table is rebuilt after
	// the position write.
	BuildCls *bool `json:"build_cls,omitempty"`

	// CheckMigrations controls the schema version check at startup.
	CheckMigrations *bool `json:"check_migrations,omitempty"`
}

func ptrBool(v bool) *bool { return &v }
func ptrInt(v int) *int    { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
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

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.ProgressInterval != nil {
		if *c.ProgressInterval <= 0 {
			return fmt.Errorf("progress_interval must be positive, got %d", *c.ProgressInterval)
		}
	}
	return nil
}

// GetDebugTrace returns the debug_trace value or the default.
func (c *TuningConfig) GetDebugTrace() bool {
	if c.DebugTrace == nil {
		return false
	}
	return *c.DebugTrace
}

// GetProgressInterval returns the progress_interval value or the default.
func (c *TuningConfig) GetProgressInterval() int {
	if c.ProgressInterval == nil {
		return 500
	}
	return *c.ProgressInterval
}

// GetBuildCls returns the build_cls value or the default.
func (c *TuningConfig) GetBuildCls() bool {
	if c.BuildCls == nil {
		return true
	}
	return *c.BuildCls
}

// GetCheckMigrations returns the check_migrations value or the default.
func (c *TuningConfig) GetCheckMigrations() bool {
	if c.CheckMigrations == nil {
		return true
	}
	return *c.CheckMigrations
}
