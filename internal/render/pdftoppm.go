package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Pdftoppm shells out to poppler's pdftoppm binary.
type Pdftoppm struct {
	binary string
}

// NewPdftoppm creates a Rasterizer invoking the given binary. An empty binary
// falls back to "pdftoppm" resolved via PATH.
func NewPdftoppm(binary string) *Pdftoppm {
	if binary == "" {
		binary = "pdftoppm"
	}
	return &Pdftoppm{binary: binary}
}

var _ Rasterizer = (*Pdftoppm)(nil)

// pdftoppmArgs builds the argument vector for a single-page PNG render:
// pdftoppm -f N -l N -singlefile -png -r <dpi> <pdf> <outprefix>
func pdftoppmArgs(pdfPath string, page, dpi int, outPrefix string) []string {
	return []string{
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		"-singlefile",
		"-png",
		"-r", strconv.Itoa(dpi),
		pdfPath,
		outPrefix,
	}
}

// Rasterize renders one page. pdftoppm writes <outPrefix>.png on success.
func (p *Pdftoppm) Rasterize(ctx context.Context, pdfPath string, page, dpi int, outPrefix string) error {
	cmd := exec.CommandContext(ctx, p.binary, pdftoppmArgs(pdfPath, page, dpi, outPrefix)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s page %d", ErrRenderTimeout, p.binary, page)
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w (binary %q)", ErrRendererUnavailable, p.binary)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &RenderFailedError{
			ExitCode: exitErr.ExitCode(),
			Output:   truncateDiagnostic(strings.TrimSpace(stderr.String())),
		}
	}

	return fmt.Errorf("run %s: %w", p.binary, err)
}
