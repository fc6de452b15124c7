// Package config loads and validates the pipeline's configuration surface
// (spec.md §6): input/output paths, quality thresholds, engine overrides,
// worker pool sizing, language sets, and output toggles.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the pipeline's effective configuration.
type Config struct {
	InputDir  string
	OutputDir string
	Files     []string // explicit input list; if empty, glob *.pdf in InputDir

	QualityThreshold float64
	ForceEngineA     bool
	ForceEngineB     bool
	StrictGPU        bool

	MaxWorkers int

	LangsEngineA []string // ISO 639-1 codes
	LangsEngineB []string

	TimeoutSeconds    int // per-file total timeout; validated and snapshotted, not enforced during processing
	KeepIntermediates bool
	ExtractText       bool
	Diagnostics       bool
	JSONOutput        bool // suppress progress rendering, emit BatchResult JSON to stdout

	TesseractPath        string
	ModelCacheTTLSeconds int

	EngineBDetectorModelPath   string
	EngineBRecognizerModelPath string

	MemPressureThresholdGB float64 // T_press, spec.md §4.6
	PageMemoryEstimateGB   float64 // M_page, spec.md §4.6
}

// defaults mirrors spec.md's stated defaults (§6, §4.2, §4.5, §4.6).
func defaults(v *viper.Viper) {
	v.SetDefault("quality_threshold", 0.85)
	v.SetDefault("force_engine_a", false)
	v.SetDefault("force_engine_b", false)
	v.SetDefault("strict_gpu", false)
	v.SetDefault("max_workers", 4)
	v.SetDefault("langs_engine_a", []string{"en"})
	v.SetDefault("langs_engine_b", []string{"en"})
	v.SetDefault("timeout", 1800)
	v.SetDefault("keep_intermediates", false)
	v.SetDefault("extract_text", false)
	v.SetDefault("diagnostics", false)
	v.SetDefault("json_output", false)
	v.SetDefault("tesseract_path", "/usr/bin/tesseract")
	v.SetDefault("model_cache_ttl_seconds", 1800)
	v.SetDefault("engine_b_detector_model_path", "models/surya_detector.onnx")
	v.SetDefault("engine_b_recognizer_model_path", "models/surya_recognizer.onnx")
	v.SetDefault("mem_pressure_threshold_gb", 4.0)
	v.SetDefault("page_memory_estimate_gb", 0.7)
}

// Load reads configuration from environment variables (prefixed
// SCHOLAROCR_), an optional scholarocr.yaml/.env file in dir, and the given
// overrides, then validates the result. Mirrors the teacher's env-first
// LoadConfig, generalized to a bindable viper instance instead of
// hand-rolled os.Getenv calls.
func Load(dir string, overrides map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	v := viper.New()
	defaults(v)
	v.SetEnvPrefix("SCHOLAROCR")
	v.AutomaticEnv()

	v.SetConfigName("scholarocr")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	for k, val := range overrides {
		v.Set(k, val)
	}

	cfg := &Config{
		InputDir:               v.GetString("input_dir"),
		OutputDir:              v.GetString("output_dir"),
		Files:                  v.GetStringSlice("files"),
		QualityThreshold:       v.GetFloat64("quality_threshold"),
		ForceEngineA:           v.GetBool("force_engine_a"),
		ForceEngineB:           v.GetBool("force_engine_b"),
		StrictGPU:              v.GetBool("strict_gpu"),
		MaxWorkers:             v.GetInt("max_workers"),
		LangsEngineA:           v.GetStringSlice("langs_engine_a"),
		LangsEngineB:           v.GetStringSlice("langs_engine_b"),
		TimeoutSeconds:         v.GetInt("timeout"),
		KeepIntermediates:      v.GetBool("keep_intermediates"),
		ExtractText:            v.GetBool("extract_text"),
		Diagnostics:            v.GetBool("diagnostics"),
		JSONOutput:             v.GetBool("json_output"),
		TesseractPath:              v.GetString("tesseract_path"),
		ModelCacheTTLSeconds:       v.GetInt("model_cache_ttl_seconds"),
		EngineBDetectorModelPath:   v.GetString("engine_b_detector_model_path"),
		EngineBRecognizerModelPath: v.GetString("engine_b_recognizer_model_path"),
		MemPressureThresholdGB: v.GetFloat64("mem_pressure_threshold_gb"),
		PageMemoryEstimateGB:   v.GetFloat64("page_memory_estimate_gb"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration's invariants (spec.md §6, §7 —
// configuration failures are fatal pre-flight).
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if len(c.Files) == 0 && c.InputDir == "" {
		return fmt.Errorf("input_dir or files is required")
	}
	if c.QualityThreshold < 0 || c.QualityThreshold > 1 {
		return fmt.Errorf("quality_threshold must be in [0,1], got %v", c.QualityThreshold)
	}
	if c.MaxWorkers < 1 {
		return fmt.Errorf("max_workers must be >= 1, got %d", c.MaxWorkers)
	}
	if c.TimeoutSeconds < 1 {
		return fmt.Errorf("timeout must be >= 1 second, got %d", c.TimeoutSeconds)
	}
	if _, err := ResolveEngineALanguages(c.LangsEngineA); err != nil {
		return err
	}
	if _, err := ResolveEngineBLanguages(c.LangsEngineB); err != nil {
		return err
	}
	return nil
}

// Snapshot returns the effective configuration as a plain map, for
// inclusion in BatchResult.Config (spec.md §3, §6).
func (c *Config) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"input_dir":          c.InputDir,
		"output_dir":         c.OutputDir,
		"quality_threshold":  c.QualityThreshold,
		"force_engine_a":     c.ForceEngineA,
		"force_engine_b":     c.ForceEngineB,
		"strict_gpu":         c.StrictGPU,
		"max_workers":        c.MaxWorkers,
		"langs_engine_a":     c.LangsEngineA,
		"langs_engine_b":     c.LangsEngineB,
		"timeout":            c.TimeoutSeconds,
		"keep_intermediates": c.KeepIntermediates,
		"extract_text":       c.ExtractText,
		"diagnostics":        c.Diagnostics,
	}
}
