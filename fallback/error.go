package fallback

import (
	"context"
	"errors"
	"fmt"
)

// PipelineError is the typed error every component raises across package
// boundaries. The orchestrator forwards the Kind as-is; it never invents one.
type PipelineError struct {
	Kind  Kind
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s at %s", e.Kind, e.Stage)
	}
	return fmt.Sprintf("%s at %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// E wraps err with a kind and the stage it occurred in.
func E(kind Kind, stage string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Stage: stage, Err: err}
}

// KindOf extracts the kind from err. Deadline expiry maps to Timeout;
// anything unclassified is a SystemError.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindSystemError
}

// StageOf returns the stage recorded on err, or "" when untagged.
func StageOf(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Stage
	}
	return ""
}
