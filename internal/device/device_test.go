package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelect_CPUIsTerminalFallback(t *testing.T) {
	sel := Selector{}
	info := sel.Select()
	assert.True(t, info.Validated)
	assert.NotEmpty(t, info.Kind)
}

func TestInfo_String_ReportsFallback(t *testing.T) {
	info := Info{Kind: KindCPU, Name: "cpu", Validated: true, FallbackFrom: KindGPU, hadFallback: true}
	assert.Contains(t, info.String(), "fell back from gpu")
	assert.True(t, info.HadFallback())
}

func TestInfo_String_NoFallback(t *testing.T) {
	info := Info{Kind: KindCPU, Name: "cpu", Validated: true}
	assert.NotContains(t, info.String(), "fell back")
	assert.False(t, info.HadFallback())
}
