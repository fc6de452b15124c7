// Command scholarocr is the CLI launcher for the OCR pipeline: a thin
// cobra root command with a run subcommand, grounded on alde-publify's
// cmd/root.go and cmd/convert.go (flag registration, RunE, MarkFlagRequired)
// adapted to this pipeline's configuration surface and a single-file
// layout instead of a multi-file cmd package.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scholardoc/scholarocr/internal/config"
	"github.com/scholardoc/scholarocr/internal/logging"
	"github.com/scholardoc/scholarocr/internal/observer"
	"github.com/scholardoc/scholarocr/internal/orchestrator"
	"github.com/scholardoc/scholarocr/internal/types"
)

var (
	outputDir        string
	qualityThreshold float64
	forceEngineA     bool
	forceEngineB     bool
	strictGPU        bool
	maxWorkers       int
	langsA           string
	langsB           string
	timeoutSeconds   int
	keepIntermediate bool
	extractText      bool
	diagnosticsFlag  bool
	jsonOutput       bool
	verbose          bool
)

var rootCmd = &cobra.Command{
	Use:     "scholarocr",
	Short:   "Hybrid OCR pipeline for scanned academic PDFs",
	Version: "0.1.0",
}

var runCmd = &cobra.Command{
	Use:   "run [input files or directory]...",
	Short: "Run the OCR pipeline over one or more PDFs",
	Long: `Run processes each input PDF through quality-gated OCR: pages whose
existing text is missing or low quality are recognized with Engine-A, and
pages still flagged after that pass are rescored with Engine-B, aggregated
across all input files and split into memory-sized batches.

Examples:
  scholarocr run book.pdf -o out/
  scholarocr run *.pdf -o out/ --workers 8 --diagnostics`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (required)")
	runCmd.Flags().Float64Var(&qualityThreshold, "quality-threshold", 0.85, "Composite quality score below which a page is flagged")
	runCmd.Flags().BoolVar(&forceEngineA, "force-engine-a", false, "Force every page through Engine-A regardless of existing text")
	runCmd.Flags().BoolVar(&forceEngineB, "force-engine-b", false, "Force every page through Engine-B regardless of quality score")
	runCmd.Flags().BoolVar(&strictGPU, "strict-gpu", false, "Fail instead of falling back to CPU if GPU inference fails")
	runCmd.Flags().IntVar(&maxWorkers, "workers", 4, "Maximum concurrent Phase-1 workers")
	runCmd.Flags().StringVar(&langsA, "langs-engine-a", "en", "Comma-separated ISO 639-1 language codes for Engine-A")
	runCmd.Flags().StringVar(&langsB, "langs-engine-b", "en", "Comma-separated ISO 639-1 language codes for Engine-B")
	runCmd.Flags().IntVar(&timeoutSeconds, "timeout", 1800, "Per-file timeout in seconds (validated and recorded in the config snapshot; processing is not interrupted when it elapses)")
	runCmd.Flags().BoolVar(&keepIntermediate, "keep-intermediates", false, "Keep intermediate combined-batch PDFs")
	runCmd.Flags().BoolVar(&extractText, "extract-text", false, "Also write a plain-text sidecar per file")
	runCmd.Flags().BoolVar(&diagnosticsFlag, "diagnostics", false, "Capture extended per-page diagnostics")
	runCmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the BatchResult as JSON on stdout instead of progress output")

	runCmd.MarkFlagRequired("output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	files, err := resolveInputFiles(args)
	if err != nil {
		return fmt.Errorf("resolve input files: %w", err)
	}

	overrides := map[string]interface{}{
		"output_dir":          outputDir,
		"quality_threshold":   qualityThreshold,
		"force_engine_a":      forceEngineA,
		"force_engine_b":      forceEngineB,
		"strict_gpu":          strictGPU,
		"max_workers":         maxWorkers,
		"langs_engine_a":      splitCSV(langsA),
		"langs_engine_b":      splitCSV(langsB),
		"timeout":             timeoutSeconds,
		"keep_intermediates":  keepIntermediate,
		"extract_text":        extractText,
		"diagnostics":         diagnosticsFlag,
		"json_output":         jsonOutput,
		"files":               files,
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	cfg, err := config.Load(cwd, overrides)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log, logFile, err := logging.NewFileLogger("scholarocr", filepath.Join(cfg.OutputDir, "logs"), "pipeline.log")
	if err != nil {
		return fmt.Errorf("open pipeline log: %w", err)
	}
	defer logFile.Close()
	obs := observer.Observer(observer.NullObserver{})
	if !jsonOutput {
		obs = progressLogger{log: log}
	}

	orch := orchestrator.New(cfg, obs, log)
	result, err := orch.Run(context.Background(), files)
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	if jsonOutput {
		return printJSON(result)
	}

	log.Info("run complete",
		"files", len(result.Files),
		"succeeded", result.SuccessCount(),
		"failed", result.ErrorCount(),
		"flagged_pages", result.FlaggedCount(),
		"seconds", fmt.Sprintf("%.1f", result.TotalTimeSeconds),
	)
	return nil
}

func resolveInputFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(arg, "*.pdf"))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", arg, err)
		}
		files = append(files, matches...)
	}
	return files, nil
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func printJSON(result *types.BatchResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// progressLogger renders progress events to the CLI logger instead of
// discarding them, the default Observer used outside --json mode.
type progressLogger struct {
	log *logging.Logger
}

func (p progressLogger) OnPhase(ev types.PhaseEvent) {
	p.log.Info("phase "+ev.Status, "phase", ev.Phase, "files", ev.FileCount, "pages", ev.PageCount)
}

func (p progressLogger) OnProgress(ev types.ProgressEvent) {
	p.log.Info("progress", "phase", ev.Phase, "file", ev.Filename, "current", strconv.Itoa(ev.Current), "total", strconv.Itoa(ev.Total))
}

func (p progressLogger) OnModel(ev types.ModelEvent) {
	p.log.Info("model "+ev.Status, "model", ev.Model)
}
