package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"pdfpages/internal/storage"
)

// Engine is the render cache: given a document and page number it returns the
// canonical cached image location, rasterizing at most once per key in the
// steady state.
//
// Concurrent first requests for the same page are safe without cross-request
// coordination: every render writes to a unique temp prefix and is published
// with an atomic rename, so the canonical path only ever holds a complete
// file (last writer wins).
type Engine struct {
	layout  *storage.Layout
	rast    Rasterizer
	dpi     int
	timeout time.Duration
	metrics *Metrics
}

// NewEngine creates a render cache engine. A zero timeout leaves render time
// unbounded; metrics may be nil.
func NewEngine(layout *storage.Layout, rast Rasterizer, dpi int, timeout time.Duration, metrics *Metrics) *Engine {
	return &Engine{
		layout:  layout,
		rast:    rast,
		dpi:     dpi,
		timeout: timeout,
		metrics: metrics,
	}
}

// Page returns the cache location for (docID, page), rendering it from
// pdfPath on a miss. A non-empty file at the canonical location is a hit and
// the renderer is not invoked; zero-byte artifacts from earlier crashes are
// treated as misses.
func (e *Engine) Page(ctx context.Context, pdfPath, docID string, page int) (string, error) {
	if page < 1 {
		return "", fmt.Errorf("page number must be >= 1, got %d", page)
	}

	out := e.layout.PagePath(docID, page)
	if fi, err := os.Stat(out); err == nil && fi.Size() > 0 {
		e.metrics.hit()
		return out, nil
	}
	e.metrics.miss()

	dir := filepath.Dir(out)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create page dir: %v", storage.ErrStorage, err)
	}

	// Unique prefix per attempt; the rasterizer appends its own ".png" suffix.
	prefix := filepath.Join(dir, ".render-"+uuid.NewString())
	produced := prefix + ".png"

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	if err := e.rast.Rasterize(ctx, pdfPath, page, e.dpi, prefix); err != nil {
		e.metrics.failure()
		os.Remove(produced)
		return "", err
	}

	// The renderer claiming success is not enough; check its output exists.
	fi, err := os.Stat(produced)
	if err != nil || fi.Size() == 0 {
		e.metrics.failure()
		os.Remove(produced)
		return "", ErrRenderIncomplete
	}

	if err := os.Rename(produced, out); err != nil {
		e.metrics.failure()
		os.Remove(produced)
		return "", fmt.Errorf("%w: publish rendered page: %v", storage.ErrStorage, err)
	}

	return out, nil
}
