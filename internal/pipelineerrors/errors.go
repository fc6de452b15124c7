// Package pipelineerrors defines the structured error taxonomy for the OCR
// pipeline (spec.md §7): environment, configuration, Engine-A, Engine-B,
// PDF-library, and batch-planner failures, each carrying enough detail to
// serialize into a FileResult.Error field or a JSON sidecar.
package pipelineerrors

import (
	"fmt"
	"time"
)

// Code identifies the kind of pipeline failure.
type Code string

const (
	CodeEnvironment    Code = "ENVIRONMENT"
	CodeConfiguration  Code = "CONFIGURATION"
	CodeEngineAFailed  Code = "ENGINE_A_FAILED"
	CodeEngineBFailed  Code = "ENGINE_B_FAILED"
	CodePDFLibrary     Code = "PDF_LIBRARY_FAILED"
	CodeBatchPlanner   Code = "BATCH_PLANNER_FAILED"
	CodeTimeout        Code = "TIMEOUT"
)

// PipelineError is the pipeline's structured error type.
type PipelineError struct {
	Code      Code
	Message   string
	Filename  string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error { return e.Cause }

// ToMap converts the error into a map suitable for a JSON sidecar or the
// FileResult.Error field's structured detail.
func (e *PipelineError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}
	for k, v := range e.Details {
		result[k] = v
	}
	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}
	return result
}

// Factory functions, one per error kind named in spec.md §7.

func NewEnvironmentError(missing []string) *PipelineError {
	return &PipelineError{
		Code:      CodeEnvironment,
		Message:   "environment validation failed",
		Timestamp: time.Now(),
		Details:   map[string]interface{}{"missing": missing},
	}
}

func NewConfigurationError(reason string) *PipelineError {
	return &PipelineError{
		Code:      CodeConfiguration,
		Message:   reason,
		Timestamp: time.Now(),
	}
}

func NewEngineAError(filename string, cause error) *PipelineError {
	return &PipelineError{
		Code:      CodeEngineAFailed,
		Message:   "engine-a OCR failed",
		Filename:  filename,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewEngineBError(cause error) *PipelineError {
	return &PipelineError{
		Code:      CodeEngineBFailed,
		Message:   "engine-b OCR failed",
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewPDFLibraryError(filename string, cause error) *PipelineError {
	return &PipelineError{
		Code:      CodePDFLibrary,
		Message:   "failed to read PDF",
		Filename:  filename,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewBatchPlannerError(cause error) *PipelineError {
	return &PipelineError{
		Code:      CodeBatchPlanner,
		Message:   "failed to build combined input for engine-b",
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewTimeoutError(filename string, d time.Duration, cause error) *PipelineError {
	return &PipelineError{
		Code:      CodeTimeout,
		Message:   fmt.Sprintf("processing timed out after %v", d),
		Filename:  filename,
		Timestamp: time.Now(),
		Details:   map[string]interface{}{"timeout": d.String()},
		Cause:     cause,
	}
}
