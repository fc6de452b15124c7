// Package batch plans and executes Engine-B's cross-file rescoring pass
// (spec.md §4.6): deciding how many flagged pages fit in memory at once,
// linearizing them across files into safe-sized batches, building the
// combined PDF Engine-B actually sees, and splitting its output back out
// to the right page of the right file. Grounded on original_source's
// batch.py, with memory detection backed by github.com/shirou/gopsutil/v4
// in place of psutil.
package batch

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/scholardoc/scholarocr/internal/pdfdoc"
)

const (
	// MemoryPerPageGB is Engine-B's approximate working-set cost per page.
	MemoryPerPageGB = 0.7
	// PressureThresholdGB is the available-RAM floor under which the
	// planner considers the system memory-constrained.
	PressureThresholdGB = 4.0
	// MaxCPUBatch and MaxGPUBatch cap batch size regardless of memory.
	MaxCPUBatch = 32
	MaxGPUBatch = 100
)

// MemoryStats mirrors the subset of gopsutil's virtual-memory report the
// planner needs.
type MemoryStats struct {
	AvailableGB float64
	TotalGB     float64
}

// AvailableMemory reports current system memory via gopsutil.
func AvailableMemory() (MemoryStats, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return MemoryStats{}, fmt.Errorf("read system memory: %w", err)
	}
	const bytesPerGB = 1024 * 1024 * 1024
	return MemoryStats{
		AvailableGB: float64(v.Available) / bytesPerGB,
		TotalGB:     float64(v.Total) / bytesPerGB,
	}, nil
}

// CheckMemoryPressure reports whether available memory sits below
// PressureThresholdGB.
func CheckMemoryPressure(stats MemoryStats) bool {
	return stats.AvailableGB < PressureThresholdGB
}

// FormatMemoryStats renders available/total memory for a log line, e.g.
// "3.2 GB available / 16 GB total".
func FormatMemoryStats(stats MemoryStats) string {
	const bytesPerGB = 1024 * 1024 * 1024
	available := humanize.Bytes(uint64(stats.AvailableGB * bytesPerGB))
	total := humanize.Bytes(uint64(stats.TotalGB * bytesPerGB))
	return fmt.Sprintf("%s available / %s total", available, total)
}

// ComputeSafeBatchSize returns how many pages Engine-B should process in
// one combined document, given the total pages awaiting rescoring, the
// available memory, and the device it will run on (spec.md §4.6).
//
// Zero pages always yields zero. On CPU the cap is a flat MaxCPUBatch; on
// GPU the cap scales with available memory at MemoryPerPageGB per page,
// clamped to at least 1 and at most min(totalPages, MaxGPUBatch).
func ComputeSafeBatchSize(totalPages int, availableGB float64, gpu bool) int {
	if totalPages <= 0 {
		return 0
	}
	if !gpu {
		return min(totalPages, MaxCPUBatch)
	}
	byMemory := int(math.Floor(availableGB * 0.5 / MemoryPerPageGB))
	upper := min(totalPages, MaxGPUBatch)
	return clamp(byMemory, 1, upper)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// FlaggedPage identifies one page, in one source file, that quality
// analysis flagged for Engine-B rescoring.
type FlaggedPage struct {
	FilePath  string
	FileIndex int
	PageIndex int
}

// CollectFlaggedPages linearizes every flagged page across all files into
// a single sequence, assigning each a contiguous batch index in file,
// then page order (spec.md §4.6's collect_flagged_pages).
func CollectFlaggedPages(flaggedByFile [][]int, filePaths []string) []pdfdoc.SourcePage {
	var out []pdfdoc.SourcePage
	batchIdx := 0
	for fileIdx, pages := range flaggedByFile {
		for _, pageIdx := range pages {
			out = append(out, pdfdoc.SourcePage{
				SourcePath: filePaths[fileIdx],
				PageIndex:  pageIdx,
				BatchIndex: batchIdx,
			})
			batchIdx++
		}
	}
	return out
}

// CreateCombinedInput writes a single PDF replaying the given flagged
// pages in batch-index order, for Engine-B to process as one document.
func CreateCombinedInput(pages []pdfdoc.SourcePage, outputPath string) error {
	return pdfdoc.CombinePages(pages, outputPath)
}

// CombinedInputName generates a unique combined-input file name within
// dir, distinct across concurrent batches in the same run (spec.md §5's
// "distinct file name prefixes" requirement).
func CombinedInputName(dir string) string {
	return dir + "/engineb-batch-" + uuid.New().String() + ".pdf"
}

// SplitIntoBatches chunks pages into groups of at most batchSize,
// preserving each page's original BatchIndex for later remapping.
func SplitIntoBatches(pages []pdfdoc.SourcePage, batchSize int) [][]pdfdoc.SourcePage {
	if batchSize <= 0 {
		batchSize = len(pages)
	}
	var batches [][]pdfdoc.SourcePage
	for i := 0; i < len(pages); i += batchSize {
		end := i + batchSize
		if end > len(pages) {
			end = len(pages)
		}
		batches = append(batches, pages[i:end])
	}
	return batches
}

var (
	hyphenPageBreak  = regexp.MustCompile(`(?m)^-{3,}\s*$`)
	tripleNewline    = regexp.MustCompile(`\n{3,}`)
)

// SplitEngineOutput splits one engine response's markdown text back into
// per-page text, one entry per expected page. It first tries the
// hyphen-rule page-break convention, then falls back to splitting on runs
// of three or more newlines, and if neither produces exactly the expected
// page count
// it puts all text on page 0 and leaves the rest empty (spec.md §4.6's
// split_markdown_by_pages fallback chain).
func SplitEngineOutput(markdown string, expectedPages int) []string {
	if expectedPages <= 0 {
		return nil
	}

	if parts := hyphenPageBreak.Split(markdown, -1); len(parts) == expectedPages {
		return trimAll(parts)
	}

	if parts := tripleNewline.Split(markdown, -1); len(parts) == expectedPages {
		return trimAll(parts)
	}

	out := make([]string, expectedPages)
	out[0] = strings.TrimSpace(markdown)
	return out
}

func trimAll(parts []string) []string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

// PageResult is Engine-B's rescoring result for one original page.
type PageResult struct {
	FilePath  string
	PageIndex int
	Text      string
}

// MapResultsToFiles splits the combined engine output by page and maps
// each slice back to its originating file and page index, using the same
// BatchIndex ordering CollectFlaggedPages assigned (spec.md §4.6's
// map_results_to_files).
func MapResultsToFiles(pages []pdfdoc.SourcePage, engineMarkdown string) []PageResult {
	texts := SplitEngineOutput(engineMarkdown, len(pages))
	results := make([]PageResult, len(pages))
	for i, p := range pages {
		text := ""
		if i < len(texts) {
			text = texts[i]
		}
		results[i] = PageResult{FilePath: p.SourcePath, PageIndex: p.PageIndex, Text: text}
	}
	return results
}
