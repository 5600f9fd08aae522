package render

import (
	"context"
	"errors"
	"fmt"
)

// Package render turns single PDF pages into cached PNG images. Rasterization
// is delegated to an external process behind the Rasterizer interface; the
// Engine owns the cache-hit/miss decision and the atomic publication of
// results into the page cache.

// maxDiagnosticLen bounds the renderer stderr carried inside RenderFailedError
// so error payloads stay small.
const maxDiagnosticLen = 2048

var (
	// ErrRendererUnavailable means the external renderer binary could not be
	// located or launched at all. Distinct from a renderer that ran and failed.
	ErrRendererUnavailable = errors.New("pdftoppm not found, install poppler-utils")

	// ErrRenderIncomplete means the renderer exited zero but the expected
	// output file is absent or empty. Treated as a renderer bug; no cache
	// entry is published, so a later request retries the render.
	ErrRenderIncomplete = errors.New("render completed but output file not found")

	// ErrRenderTimeout means the render exceeded the configured time bound.
	ErrRenderTimeout = errors.New("render timed out")
)

// RenderFailedError is returned when the external renderer ran and exited
// non-zero. Output carries its diagnostic output truncated to maxDiagnosticLen.
type RenderFailedError struct {
	ExitCode int
	Output   string
}

func (e *RenderFailedError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("renderer failed (exit %d)", e.ExitCode)
	}
	return fmt.Sprintf("renderer failed (exit %d): %s", e.ExitCode, e.Output)
}

// Rasterizer converts one page of a PDF into an image file.
// Implementations write the result to outPrefix plus their own format suffix
// (poppler appends ".png"). The interface exists so the cache engine can be
// tested without invoking a real external binary.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath string, page, dpi int, outPrefix string) error
}

func truncateDiagnostic(s string) string {
	if len(s) <= maxDiagnosticLen {
		return s
	}
	return s[:maxDiagnosticLen] + "... (truncated)"
}
