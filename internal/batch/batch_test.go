package batch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scholardoc/scholarocr/internal/pdfdoc"
)

func TestCheckMemoryPressure(t *testing.T) {
	assert.True(t, CheckMemoryPressure(MemoryStats{AvailableGB: 3.9}))
	assert.False(t, CheckMemoryPressure(MemoryStats{AvailableGB: 4.0}))
	assert.False(t, CheckMemoryPressure(MemoryStats{AvailableGB: 8}))
}

func TestComputeSafeBatchSize_ZeroPages(t *testing.T) {
	assert.Equal(t, 0, ComputeSafeBatchSize(0, 16, true))
	assert.Equal(t, 0, ComputeSafeBatchSize(0, 16, false))
}

func TestComputeSafeBatchSize_CPU(t *testing.T) {
	assert.Equal(t, 10, ComputeSafeBatchSize(10, 2, false))
	assert.Equal(t, MaxCPUBatch, ComputeSafeBatchSize(1000, 64, false))
}

func TestComputeSafeBatchSize_GPU(t *testing.T) {
	// floor(8*0.5/0.7) = floor(5.71) = 5
	assert.Equal(t, 5, ComputeSafeBatchSize(1000, 8, true))
	// clamps to at least 1 even with very little memory
	assert.Equal(t, 1, ComputeSafeBatchSize(1000, 0.1, true))
	// clamps to min(totalPages, MaxGPUBatch) when memory is abundant
	assert.Equal(t, 50, ComputeSafeBatchSize(50, 1000, true))
	assert.Equal(t, MaxGPUBatch, ComputeSafeBatchSize(1000, 1000, true))
}

func TestCollectFlaggedPages_LinearizesInFileThenPageOrder(t *testing.T) {
	files := []string{"a.pdf", "b.pdf"}
	flagged := [][]int{{2, 5}, {0}}

	got := CollectFlaggedPages(flagged, files)

	want := []pdfdoc.SourcePage{
		{SourcePath: "a.pdf", PageIndex: 2, BatchIndex: 0},
		{SourcePath: "a.pdf", PageIndex: 5, BatchIndex: 1},
		{SourcePath: "b.pdf", PageIndex: 0, BatchIndex: 2},
	}
	assert.Equal(t, want, got)
}

func TestSplitIntoBatches_ChunksAndPreservesBatchIndex(t *testing.T) {
	pages := CollectFlaggedPages([][]int{{0, 1, 2, 3, 4}}, []string{"a.pdf"})

	batches := SplitIntoBatches(pages, 2)

	assert.Len(t, batches, 3)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[2], 1)
	assert.Equal(t, 4, batches[2][0].BatchIndex)
}

func TestSplitEngineOutput_HyphenRule(t *testing.T) {
	md := "page one text\n---\npage two text\n---\npage three text"
	got := SplitEngineOutput(md, 3)
	assert.Equal(t, []string{"page one text", "page two text", "page three text"}, got)
}

func TestSplitEngineOutput_TripleNewlineFallback(t *testing.T) {
	md := "page one\n\n\npage two"
	got := SplitEngineOutput(md, 2)
	assert.Equal(t, []string{"page one", "page two"}, got)
}

func TestSplitEngineOutput_FallsBackToPageZero(t *testing.T) {
	md := "all the text runs together with no markers"
	got := SplitEngineOutput(md, 3)
	assert.Equal(t, md, got[0])
	assert.Equal(t, "", got[1])
	assert.Equal(t, "", got[2])
}

func TestSplitEngineOutput_ZeroExpectedIsNil(t *testing.T) {
	assert.Nil(t, SplitEngineOutput("anything", 0))
}

func TestFormatMemoryStats_RendersHumanReadableSizes(t *testing.T) {
	got := FormatMemoryStats(MemoryStats{AvailableGB: 4, TotalGB: 16})
	assert.Contains(t, got, "available")
	assert.Contains(t, got, "total")
	assert.Contains(t, got, "GB")
}

func TestCombinedInputName_UniqueAndNamespacedToDir(t *testing.T) {
	a := CombinedInputName("/tmp/intermediate")
	b := CombinedInputName("/tmp/intermediate")

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "/tmp/intermediate/engineb-batch-"))
	assert.True(t, strings.HasSuffix(a, ".pdf"))
}

func TestMapResultsToFiles_RoundTripsByBatchIndex(t *testing.T) {
	pages := CollectFlaggedPages([][]int{{2, 5}, {0}}, []string{"a.pdf", "b.pdf"})

	results := MapResultsToFiles(pages, "first\n---\nsecond\n---\nthird")

	assert.Len(t, results, 3)
	assert.Equal(t, "a.pdf", results[0].FilePath)
	assert.Equal(t, 2, results[0].PageIndex)
	assert.Equal(t, "first", results[0].Text)
	assert.Equal(t, "b.pdf", results[2].FilePath)
	assert.Equal(t, 0, results[2].PageIndex)
	assert.Equal(t, "third", results[2].Text)
}
