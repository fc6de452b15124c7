// Package device selects the compute device for Engine-B, in priority
// order GPU (NVIDIA-class) -> MPS (Apple-class) -> CPU, validating each
// candidate by configuring its execution provider on an ONNX Runtime
// session-options object; no tensor is allocated on the device
// (spec.md §4.4).
package device

import (
	"fmt"
	"runtime"

	ort "github.com/yalue/onnxruntime_go"
)

// Kind identifies a class of compute device.
type Kind string

const (
	KindGPU Kind = "gpu"
	KindMPS Kind = "mps"
	KindCPU Kind = "cpu"
)

// Info describes the device selected for Engine-B's model bundle.
type Info struct {
	Kind         Kind
	Name         string
	Validated    bool
	FallbackFrom Kind // zero value means no fallback occurred
	hadFallback  bool
}

// HadFallback reports whether Select had to step down from a higher
// priority candidate.
func (i Info) HadFallback() bool { return i.hadFallback }

// Selector chooses and validates a device. A zero-value Selector is usable;
// it holds no state, so every Select call runs discovery again.
type Selector struct{}

// Select runs the GPU -> MPS -> CPU priority chain, validating each
// candidate by configuring its ONNX Runtime execution provider (see
// validateSession). CPU is the terminal fallback and always succeeds
// (spec.md §4.4).
func (Selector) Select() Info {
	var fallbackFrom Kind
	var hadFallback bool

	if info, ok := tryGPU(); ok {
		info.FallbackFrom = fallbackFrom
		info.hadFallback = hadFallback
		return info
	}
	if gpuPresentButUnvalidated() {
		fallbackFrom = KindGPU
		hadFallback = true
	}

	if info, ok := tryMPS(); ok {
		info.FallbackFrom = fallbackFrom
		info.hadFallback = hadFallback
		return info
	}
	if !hadFallback && mpsPresentButUnvalidated() {
		fallbackFrom = KindMPS
		hadFallback = true
	}

	return Info{
		Kind:         KindCPU,
		Name:         "cpu",
		Validated:    true,
		FallbackFrom: fallbackFrom,
		hadFallback:  hadFallback,
	}
}

// validateSession attempts to build a minimal ONNX Runtime session-options
// object configured for the named execution provider; failure to configure
// the provider is treated as validation failure for that device.
func validateSession(configure func(*ort.SessionOptions) error) bool {
	if err := ort.InitializeEnvironment(); err != nil {
		return false
	}
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return false
	}
	defer opts.Destroy()

	if err := configure(opts); err != nil {
		return false
	}
	return true
}

func tryGPU() (Info, bool) {
	if runtime.GOOS != "linux" && runtime.GOOS != "windows" {
		return Info{}, false
	}
	ok := validateSession(func(o *ort.SessionOptions) error {
		cudaOpts, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return err
		}
		defer cudaOpts.Destroy()
		return o.AppendExecutionProviderCUDA(cudaOpts)
	})
	if !ok {
		return Info{}, false
	}
	return Info{Kind: KindGPU, Name: "cuda", Validated: true}, true
}

func tryMPS() (Info, bool) {
	if runtime.GOOS != "darwin" {
		return Info{}, false
	}
	ok := validateSession(func(o *ort.SessionOptions) error {
		return o.AppendExecutionProviderCoreML(0)
	})
	if !ok {
		return Info{}, false
	}
	return Info{Kind: KindMPS, Name: "Apple Silicon", Validated: true}, true
}

// gpuPresentButUnvalidated and mpsPresentButUnvalidated answer "was this
// platform even a candidate" for fallback-tracking purposes, by operating
// system alone: no hardware probe is made, so on linux/windows a failed GPU
// validation (or on darwin a failed MPS validation) is recorded as a
// fallback even when no such device is installed.
func gpuPresentButUnvalidated() bool {
	return runtime.GOOS == "linux" || runtime.GOOS == "windows"
}

func mpsPresentButUnvalidated() bool {
	return runtime.GOOS == "darwin"
}

// String renders Info for logging.
func (i Info) String() string {
	if i.hadFallback {
		return fmt.Sprintf("%s (%s, fell back from %s)", i.Kind, i.Name, i.FallbackFrom)
	}
	return fmt.Sprintf("%s (%s)", i.Kind, i.Name)
}
