// Package orchestrator wires every component into the three-phase pipeline
// run (spec.md §4.9): Phase-0 discovery and environment validation,
// Phase-1 a bounded parallel worker pool running quality analysis over
// every page of every file and Engine-A over pages whose existing text is
// missing or flagged, and Phase-2 a sequential cross-file Engine-B
// rescoring pass over whatever Phase-1 flagged. Grounded on
// alde-publify's internal/worker.Pool (bounded fan-out) and the teacher's
// processor.go cascade-style per-page decision logic, using
// golang.org/x/sync/errgroup and golang.org/x/sync/semaphore for the
// worker pool instead of a hand-rolled channel-and-waitgroup pair.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/scholardoc/scholarocr/internal/batch"
	"github.com/scholardoc/scholarocr/internal/config"
	"github.com/scholardoc/scholarocr/internal/device"
	"github.com/scholardoc/scholarocr/internal/diagnostics"
	"github.com/scholardoc/scholarocr/internal/enginea"
	"github.com/scholardoc/scholarocr/internal/engineb"
	"github.com/scholardoc/scholarocr/internal/logging"
	"github.com/scholardoc/scholarocr/internal/modelcache"
	"github.com/scholardoc/scholarocr/internal/observer"
	"github.com/scholardoc/scholarocr/internal/pdfdoc"
	"github.com/scholardoc/scholarocr/internal/pipelineerrors"
	"github.com/scholardoc/scholarocr/internal/postprocess"
	"github.com/scholardoc/scholarocr/internal/quality"
	"github.com/scholardoc/scholarocr/internal/types"
)

// Orchestrator runs the full pipeline over a set of input files.
type Orchestrator struct {
	Cfg      *config.Config
	Observer observer.Observer
	Log      *logging.Logger

	analyzer *quality.Analyzer
	models   *modelcache.Cache
	engineA  *enginea.OCR
	device   device.Info
}

// New constructs an Orchestrator from its configuration. Obs may be nil,
// in which case progress events are discarded.
func New(cfg *config.Config, obs observer.Observer, log *logging.Logger) *Orchestrator {
	if obs == nil {
		obs = observer.NullObserver{}
	}
	engineALangs, _ := config.ResolveEngineALanguages(cfg.LangsEngineA)
	return &Orchestrator{
		Cfg:      cfg,
		Observer: obs,
		Log:      log,
		analyzer: quality.NewAnalyzer(cfg.QualityThreshold),
		models:   modelcache.New(time.Duration(cfg.ModelCacheTTLSeconds) * time.Second),
		engineA:  enginea.New(enginea.Config{Languages: engineALangs}),
	}
}

// Run executes Phase-0 through Phase-2 over the given input files and
// writes final/<name>.{pdf,json} outputs (plus .txt and .diagnostics.json
// when enabled), returning the assembled BatchResult.
func (o *Orchestrator) Run(ctx context.Context, files []string) (*types.BatchResult, error) {
	start := time.Now()

	if err := o.phase0(files); err != nil {
		return nil, err
	}

	results, err := o.phase1(ctx, files)
	if err != nil {
		return nil, err
	}

	if err := o.phase2(ctx, files, results); err != nil {
		o.Log.Error("phase-2 rescoring failed, keeping phase-1 results", "error", err)
	}

	for _, r := range results {
		r.Recompute()
	}

	if err := o.writeOutputs(files, results); err != nil {
		return nil, err
	}

	o.models.Evict(nil)

	return &types.BatchResult{
		Files:            results,
		TotalTimeSeconds: time.Since(start).Seconds(),
		Config:           o.Cfg.Snapshot(),
	}, nil
}

// phase0 validates that every input file exists and that the configured
// language sets resolve for both engines, before any worker is spun up
// (spec.md §4.9 Phase-0).
func (o *Orchestrator) phase0(files []string) error {
	observer.Emit(o.Observer, types.Event{Phase: &types.PhaseEvent{Phase: "discovery", Status: "started", FileCount: len(files)}})

	var missing []string
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return pipelineerrors.NewEnvironmentError(missing)
	}

	if _, err := config.ResolveEngineALanguages(o.Cfg.LangsEngineA); err != nil {
		return pipelineerrors.NewConfigurationError(err.Error())
	}
	if _, err := config.ResolveEngineBLanguages(o.Cfg.LangsEngineB); err != nil {
		return pipelineerrors.NewConfigurationError(err.Error())
	}

	sel := device.Selector{}
	o.device = sel.Select()
	o.Log.Info("device selected", "device", o.device.String())

	observer.Emit(o.Observer, types.Event{Phase: &types.PhaseEvent{Phase: "discovery", Status: "completed", FileCount: len(files)}})
	return nil
}

// poolSize applies spec.md §4.9's worker-count formula: threads_per_file =
// max(1, cores/max(1,n_files)); pool = max(1, min(requested, cores/threads_per_file)).
func poolSize(requested, nFiles int) int {
	cores := runtime.NumCPU()
	if nFiles < 1 {
		nFiles = 1
	}
	threadsPerFile := maxInt(1, cores/nFiles)
	pool := maxInt(1, minInt(requested, cores/threadsPerFile))
	return pool
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// phase1 runs quality analysis over every file's every page, and Engine-A
// over pages whose existing text is missing or flagged (every page when
// ForceEngineA is set), bounded to poolSize concurrent files (spec.md §4.9
// Phase-1).
func (o *Orchestrator) phase1(ctx context.Context, files []string) ([]*types.FileResult, error) {
	observer.Emit(o.Observer, types.Event{Phase: &types.PhaseEvent{Phase: "phase1", Status: "started", FileCount: len(files)}})

	n := poolSize(o.Cfg.MaxWorkers, len(files))
	sem := semaphore.NewWeighted(int64(n))
	results := make([]*types.FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		i, f := i, f
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			results[i] = o.processFile(gctx, f, i, len(files))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	observer.Emit(o.Observer, types.Event{Phase: &types.PhaseEvent{Phase: "phase1", Status: "completed", FileCount: len(files)}})
	return results, nil
}

func (o *Orchestrator) processFile(ctx context.Context, path string, index, total int) *types.FileResult {
	fileStart := time.Now()
	name := filepath.Base(path)
	result := &types.FileResult{Filename: name}

	doc, err := pdfdoc.Open(path)
	if err != nil {
		perr := pipelineerrors.NewPDFLibraryError(name, err)
		result.Success = false
		result.HasError = true
		result.Error = perr.Error()
		return result
	}
	defer doc.Close()

	pageCount := doc.PageCount()
	pages := make([]*types.PageResult, pageCount)

	for p := 0; p < pageCount; p++ {
		observer.Emit(o.Observer, types.Event{Progress: &types.ProgressEvent{Phase: "phase1", Current: index, Total: total, Filename: name}})
		pages[p] = o.processPage(ctx, doc, p)
	}

	result.Pages = pages
	result.Success = true
	result.TimeSeconds = time.Since(fileStart).Seconds()
	result.PhaseTimings = map[string]float64{"phase1": result.TimeSeconds}
	result.OutputPath = outputPathFor(o.Cfg.OutputDir, name)
	result.Recompute()
	return result
}

func (o *Orchestrator) processPage(ctx context.Context, doc pdfdoc.Document, index int) *types.PageResult {
	existingText, _ := doc.PageText(index)
	var existing *types.PageResult
	if strings.TrimSpace(existingText) != "" {
		existing = o.scoredPage(index, existingText, nil, types.EngineExisting)
		if !existing.Flagged && !o.Cfg.ForceEngineA {
			return existing
		}
	}

	out, err := o.engineA.ProcessPage(ctx, doc, index)
	if err != nil {
		if existing != nil {
			return existing
		}
		return &types.PageResult{PageIndex: index, Status: types.StatusError, Engine: types.EngineNone}
	}

	return o.scoredPage(index, out.Text, out.Confidence, types.EngineA)
}

func (o *Orchestrator) scoredPage(index int, text string, confidence []types.TokenConfidence, engine types.Engine) *types.PageResult {
	processed := postprocess.Process(text)
	qr := o.analyzer.Analyze(processed, confidence)

	status := types.StatusGood
	if qr.Flagged {
		status = types.StatusFlagged
	}

	page := &types.PageResult{
		PageIndex:    index,
		Status:       status,
		QualityScore: qr.Composite,
		Engine:       engine,
		Flagged:      qr.Flagged,
		Text:         processed,
		HasText:      processed != "",
	}

	if o.Cfg.Diagnostics {
		page.Diagnostics = diagnostics.BuildAlwaysDiagnostics(qr, o.Cfg.QualityThreshold)
	}

	return page
}

// phase2 rescoring runs Engine-B, sequentially across all flagged pages
// from every file at once, batched to fit memory (spec.md §4.9 Phase-2).
func (o *Orchestrator) phase2(ctx context.Context, files []string, results []*types.FileResult) error {
	flaggedByFile := collectFlagged(results)
	if o.Cfg.ForceEngineB {
		for i, f := range results {
			flaggedByFile[i] = nil
			for _, p := range f.Pages {
				flaggedByFile[i] = append(flaggedByFile[i], p.PageIndex)
			}
		}
	}
	total := countFlagged(flaggedByFile)
	if total == 0 {
		return nil
	}

	observer.Emit(o.Observer, types.Event{Phase: &types.PhaseEvent{Phase: "phase2", Status: "started", PageCount: total}})
	defer observer.Emit(o.Observer, types.Event{Phase: &types.PhaseEvent{Phase: "phase2", Status: "completed", PageCount: total}})

	pages := batch.CollectFlaggedPages(flaggedByFile, files)

	stats, err := batch.AvailableMemory()
	if err != nil {
		o.Log.Warn("could not read system memory, assuming constrained", "error", err)
		stats = batch.MemoryStats{AvailableGB: batch.PressureThresholdGB}
	}
	o.Log.Info("batch planner memory snapshot", "memory", batch.FormatMemoryStats(stats))
	gpu := o.device.Kind == device.KindGPU || o.device.Kind == device.KindMPS
	engineb.ConfigureBatchSizes(gpu, stats.AvailableGB)
	safeSize := batch.ComputeSafeBatchSize(len(pages), stats.AvailableGB, gpu)
	batches := batch.SplitIntoBatches(pages, safeSize)

	loader := engineb.LoadModels(o.Cfg.EngineBDetectorModelPath, o.Cfg.EngineBRecognizerModelPath)
	bundleAny, deviceUsed, err := o.models.GetModels(string(o.device.Kind), func(d string) (interface{}, string, error) {
		return loader(d)
	})
	if err != nil {
		return pipelineerrors.NewEngineBError(err)
	}
	bundle, _ := bundleAny.(*engineb.ModelBundle)
	o.Log.Info("engine-b models loaded", "device", deviceUsed)

	cpuLoader := func() (*engineb.ModelBundle, error) {
		b, _, err := loader("cpu")
		if err != nil {
			return nil, err
		}
		bundle, _ := b.(*engineb.ModelBundle)
		return bundle, nil
	}

	filesByPath := indexFilesByPath(files, results)

	combinedDir := filepath.Join(o.Cfg.OutputDir, "intermediate")
	if err := os.MkdirAll(combinedDir, 0o755); err != nil {
		return fmt.Errorf("create intermediate dir: %w", err)
	}

	for i, group := range batches {
		if i > 0 {
			modelcache.CleanupBetweenDocuments(nil)
		}
		combinedPath := batch.CombinedInputName(combinedDir)
		if err := batch.CreateCombinedInput(group, combinedPath); err != nil {
			o.Log.Error("failed to build combined engine-b input, skipping batch", "error", err)
			continue
		}
		if !o.Cfg.KeepIntermediates {
			defer os.Remove(combinedPath)
		}

		inputs := make([]engineb.PageInput, len(group))
		for i, p := range group {
			inputs[i] = engineb.PageInput{PageIndex: p.PageIndex}
		}

		markdown, fellBack, err := engineb.ConvertWithFallback(ctx, bundle, engineb.Config{StrictGPU: o.Cfg.StrictGPU}, inputs, cpuLoader)
		if err != nil {
			if o.Cfg.StrictGPU {
				return pipelineerrors.NewEngineBError(err)
			}
			o.Log.Error("engine-b batch failed, leaving pages flagged", "error", err)
			continue
		}
		if fellBack {
			o.Log.Warn("engine-b fell back to cpu mid-run")
			modelcache.CleanupBetweenDocuments(nil)
		}

		mapped := batch.MapResultsToFiles(group, markdown)
		for _, m := range mapped {
			file, ok := filesByPath[m.FilePath]
			if !ok || m.PageIndex >= len(file.Pages) {
				continue
			}
			page := file.Pages[m.PageIndex]
			processed := postprocess.Process(m.Text)
			qr := o.analyzer.Analyze(processed, nil)
			page.Text = processed
			page.HasText = processed != ""
			page.Engine = types.EngineB
			page.QualityScore = qr.Composite
			page.Flagged = qr.Flagged
			if page.Flagged {
				page.Status = types.StatusFlagged
			} else {
				page.Status = types.StatusGood
			}
		}
	}

	return nil
}

func collectFlagged(results []*types.FileResult) [][]int {
	flaggedByFile := make([][]int, len(results))
	for i, f := range results {
		for _, p := range f.Pages {
			if p.Flagged {
				flaggedByFile[i] = append(flaggedByFile[i], p.PageIndex)
			}
		}
	}
	return flaggedByFile
}

func countFlagged(flaggedByFile [][]int) int {
	n := 0
	for _, pages := range flaggedByFile {
		n += len(pages)
	}
	return n
}

func indexFilesByPath(files []string, results []*types.FileResult) map[string]*types.FileResult {
	out := make(map[string]*types.FileResult, len(results))
	for i, f := range results {
		if i < len(files) {
			out[files[i]] = f
		}
	}
	return out
}

func outputPathFor(outDir, filename string) string {
	return filepath.Join(outDir, "final", filename)
}

// writeOutputs writes final/<name>.pdf (the source, unmodified: spec.md §8
// guarantees the on-disk PDF is byte-identical to the input) for every
// successful file, plus final/<name>.json for every file, final/<name>.txt
// when ExtractText is set and final/<name>.diagnostics.json when
// Diagnostics is set (spec.md §6).
func (o *Orchestrator) writeOutputs(files []string, results []*types.FileResult) error {
	finalDir := filepath.Join(o.Cfg.OutputDir, "final")
	if err := os.MkdirAll(finalDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for i, f := range results {
		base := strings.TrimSuffix(f.Filename, filepath.Ext(f.Filename))

		if i < len(files) && f.Success {
			if err := pdfdoc.CopyFile(files[i], filepath.Join(finalDir, f.Filename)); err != nil {
				return fmt.Errorf("copy pdf output for %s: %w", f.Filename, err)
			}
		}

		if o.Cfg.ExtractText {
			var sb strings.Builder
			for _, p := range f.Pages {
				sb.WriteString(p.Text)
				sb.WriteString("\n")
			}
			if err := os.WriteFile(filepath.Join(finalDir, base+".txt"), []byte(sb.String()), 0o644); err != nil {
				return fmt.Errorf("write text output for %s: %w", f.Filename, err)
			}
		}

		jsonBytes, err := json.MarshalIndent(f, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result for %s: %w", f.Filename, err)
		}
		if err := os.WriteFile(filepath.Join(finalDir, base+".json"), jsonBytes, 0o644); err != nil {
			return fmt.Errorf("write json output for %s: %w", f.Filename, err)
		}

		if o.Cfg.Diagnostics {
			diagBytes, err := json.MarshalIndent(diagnosticsOnly(f), "", "  ")
			if err != nil {
				return fmt.Errorf("marshal diagnostics for %s: %w", f.Filename, err)
			}
			if err := os.WriteFile(filepath.Join(finalDir, base+".diagnostics.json"), diagBytes, 0o644); err != nil {
				return fmt.Errorf("write diagnostics output for %s: %w", f.Filename, err)
			}
		}
	}
	return nil
}

func diagnosticsOnly(f *types.FileResult) map[string]*types.PageDiagnostics {
	out := make(map[string]*types.PageDiagnostics, len(f.Pages))
	for _, p := range f.Pages {
		if p.Diagnostics != nil {
			out[fmt.Sprintf("page_%d", p.PageIndex)] = p.Diagnostics
		}
	}
	return out
}
