package render

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrRender        = errors.New("render failed")
	ErrRenderTimeout = errors.New("render timed out")
	ErrProcessLaunch = errors.New("failed to launch render engine")
	ErrIO            = errors.New("io error")

	// ErrOutputMissing means the engine reported success without producing
	// a usable PDF.
	ErrOutputMissing = fmt.Errorf("%w: pdf output missing", ErrIO)
)

// RenderError carries the engine's diagnostic output verbatim.
type RenderError struct {
	ExitCode   int
	Diagnostic string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render failed (exit code %d): %s", e.ExitCode, e.Diagnostic)
}

func (e *RenderError) Unwrap() error { return ErrRender }

// Kind classifies err for transports.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRender):
		return "RenderError"
	case errors.Is(err, ErrRenderTimeout):
		return "RenderTimeout"
	case errors.Is(err, ErrProcessLaunch):
		return "ProcessLaunchError"
	case errors.Is(err, context.Canceled):
		return "Cancelled"
	default:
		return "IoError"
	}
}
