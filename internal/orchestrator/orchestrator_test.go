package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scholardoc/scholarocr/internal/types"
)

func TestPoolSize_NeverExceedsRequested(t *testing.T) {
	got := poolSize(4, 10)
	assert.LessOrEqual(t, got, 4)
	assert.GreaterOrEqual(t, got, 1)
}

func TestPoolSize_AtLeastOne(t *testing.T) {
	assert.Equal(t, 1, poolSize(0, 100))
}

func TestCollectFlagged_OnlyFlaggedPages(t *testing.T) {
	results := []*types.FileResult{
		{Pages: []*types.PageResult{{PageIndex: 0, Flagged: true}, {PageIndex: 1, Flagged: false}}},
		{Pages: []*types.PageResult{{PageIndex: 0, Flagged: true}}},
	}
	got := collectFlagged(results)
	assert.Equal(t, [][]int{{0}, {0}}, got)
}

func TestCountFlagged_SumsAcrossFiles(t *testing.T) {
	assert.Equal(t, 3, countFlagged([][]int{{0, 1}, {2}}))
	assert.Equal(t, 0, countFlagged([][]int{nil, nil}))
}

func TestIndexFilesByPath_MapsPositionally(t *testing.T) {
	files := []string{"a.pdf", "b.pdf"}
	results := []*types.FileResult{{Filename: "a.pdf"}, {Filename: "b.pdf"}}
	idx := indexFilesByPath(files, results)
	assert.Same(t, results[0], idx["a.pdf"])
	assert.Same(t, results[1], idx["b.pdf"])
}
