package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfpages/internal/storage"
)

// stubRasterizer records invocations and writes configurable output in place
// of a real external renderer.
type stubRasterizer struct {
	calls  atomic.Int64
	output []byte // written to outPrefix+".png"; nil writes nothing
	err    error
	delay  time.Duration
}

func (s *stubRasterizer) Rasterize(ctx context.Context, pdfPath string, page, dpi int, outPrefix string) error {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ErrRenderTimeout
		}
	}
	if s.err != nil {
		return s.err
	}
	if s.output != nil {
		return os.WriteFile(outPrefix+".png", s.output, 0o644)
	}
	return nil
}

func newTestEngine(t *testing.T, rast Rasterizer) (*Engine, *storage.Layout) {
	t.Helper()
	layout, err := storage.NewLayout(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, layout.EnsureDirs())
	return NewEngine(layout, rast, 144, 0, nil), layout
}

func TestEnginePage_RenderAndCache(t *testing.T) {
	rast := &stubRasterizer{output: []byte("png-bytes")}
	engine, layout := newTestEngine(t, rast)

	out, err := engine.Page(context.Background(), "/tmp/doc.pdf", "doc1", 2)
	require.NoError(t, err)
	assert.Equal(t, layout.PagePath("doc1", 2), out)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(b))
	assert.EqualValues(t, 1, rast.calls.Load())

	// Second request is a pure cache hit, renderer not invoked again.
	out2, err := engine.Page(context.Background(), "/tmp/doc.pdf", "doc1", 2)
	require.NoError(t, err)
	assert.Equal(t, out, out2)
	assert.EqualValues(t, 1, rast.calls.Load())
}

func TestEnginePage_EmptyCacheFileIsMiss(t *testing.T) {
	rast := &stubRasterizer{output: []byte("fresh")}
	engine, layout := newTestEngine(t, rast)

	// A crashed earlier render left a zero-byte artifact at the canonical path.
	canonical := layout.PagePath("doc1", 1)
	require.NoError(t, os.MkdirAll(filepath.Dir(canonical), 0o755))
	require.NoError(t, os.WriteFile(canonical, nil, 0o644))

	out, err := engine.Page(context.Background(), "/tmp/doc.pdf", "doc1", 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, rast.calls.Load())

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(b))
}

func TestEnginePage_Incomplete(t *testing.T) {
	// Renderer exits zero but writes nothing.
	rast := &stubRasterizer{}
	engine, layout := newTestEngine(t, rast)

	_, err := engine.Page(context.Background(), "/tmp/doc.pdf", "doc1", 1)
	require.ErrorIs(t, err, ErrRenderIncomplete)

	// No phantom cache entry: a subsequent call retries the render.
	_, err = engine.Page(context.Background(), "/tmp/doc.pdf", "doc1", 1)
	require.ErrorIs(t, err, ErrRenderIncomplete)
	assert.EqualValues(t, 2, rast.calls.Load())

	_, statErr := os.Stat(layout.PagePath("doc1", 1))
	assert.True(t, os.IsNotExist(statErr))
}

func TestEnginePage_EmptyOutputIsIncomplete(t *testing.T) {
	rast := &stubRasterizer{output: []byte{}}
	engine, _ := newTestEngine(t, rast)

	_, err := engine.Page(context.Background(), "/tmp/doc.pdf", "doc1", 1)
	require.ErrorIs(t, err, ErrRenderIncomplete)
}

func TestEnginePage_RenderFailed(t *testing.T) {
	wantErr := &RenderFailedError{ExitCode: 1, Output: "Syntax Error: couldn't read xref table"}
	rast := &stubRasterizer{err: wantErr}
	engine, layout := newTestEngine(t, rast)

	_, err := engine.Page(context.Background(), "/tmp/doc.pdf", "doc1", 1)

	var rfe *RenderFailedError
	require.ErrorAs(t, err, &rfe)
	assert.Equal(t, 1, rfe.ExitCode)
	assert.Contains(t, rfe.Error(), "xref table")

	_, statErr := os.Stat(layout.PagePath("doc1", 1))
	assert.True(t, os.IsNotExist(statErr))
}

func TestEnginePage_InvalidPage(t *testing.T) {
	rast := &stubRasterizer{output: []byte("x")}
	engine, _ := newTestEngine(t, rast)

	_, err := engine.Page(context.Background(), "/tmp/doc.pdf", "doc1", 0)
	require.Error(t, err)
	assert.EqualValues(t, 0, rast.calls.Load())
}

func TestEnginePage_ConcurrentFirstRequests(t *testing.T) {
	rast := &stubRasterizer{output: []byte("stable-bytes")}
	engine, layout := newTestEngine(t, rast)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.Page(context.Background(), "/tmp/doc.pdf", "doc1", 3)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "worker %d", i)
	}

	// No torn or partial file is ever visible at the canonical path.
	b, err := os.ReadFile(layout.PagePath("doc1", 3))
	require.NoError(t, err)
	assert.Equal(t, "stable-bytes", string(b))

	// No temp artifacts survive.
	entries, err := os.ReadDir(filepath.Dir(layout.PagePath("doc1", 3)))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".render-"), "leftover temp file %s", e.Name())
	}
}

func TestEnginePage_Timeout(t *testing.T) {
	rast := &stubRasterizer{delay: 200 * time.Millisecond, output: []byte("late")}
	layout, err := storage.NewLayout(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, layout.EnsureDirs())
	engine := NewEngine(layout, rast, 144, 10*time.Millisecond, nil)

	_, err = engine.Page(context.Background(), "/tmp/doc.pdf", "doc1", 1)
	require.ErrorIs(t, err, ErrRenderTimeout)
}

func TestRenderFailedError_TruncatesDiagnostic(t *testing.T) {
	long := strings.Repeat("x", maxDiagnosticLen+500)
	got := truncateDiagnostic(long)
	assert.Len(t, got, maxDiagnosticLen+len("... (truncated)"))
	assert.True(t, strings.HasSuffix(got, "(truncated)"))

	short := "short diagnostic"
	assert.Equal(t, short, truncateDiagnostic(short))
}

func TestPdftoppmArgs(t *testing.T) {
	args := pdftoppmArgs("/data/documents/abc.pdf", 4, 144, "/data/pages/abc/.render-x")
	assert.Equal(t, []string{
		"-f", "4",
		"-l", "4",
		"-singlefile",
		"-png",
		"-r", "144",
		"/data/documents/abc.pdf",
		"/data/pages/abc/.render-x",
	}, args)
}

func TestPdftoppm_Unavailable(t *testing.T) {
	p := NewPdftoppm(filepath.Join(t.TempDir(), "definitely-missing-binary"))
	err := p.Rasterize(context.Background(), "/tmp/doc.pdf", 1, 144, filepath.Join(t.TempDir(), "out"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRendererUnavailable))
}
