package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Subtree names under the data root. Documents are the uploaded PDFs, pages
// are the rendered images, meta holds the quota ledger.
const (
	documentsDir = "documents"
	pagesDir     = "pages"
	metaDir      = "meta"

	pageFormat = "png"
)

// Layout maps identifiers to locations under a single data root.
// All path methods are pure functions; only EnsureDirs touches the disk.
type Layout struct {
	root string
}

// NewLayout creates a Layout rooted at dataDir. The directory does not need
// to exist yet; call EnsureDirs before writing.
func NewLayout(dataDir string) (*Layout, error) {
	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	return &Layout{root: abs}, nil
}

// Root returns the absolute data root directory.
func (l *Layout) Root() string {
	return l.root
}

// DocumentPath returns the absolute location for an uploaded document.
func (l *Layout) DocumentPath(docID string) string {
	return filepath.Join(l.root, documentsDir, docID+".pdf")
}

// DocumentKey returns the root-relative, slash-separated key for a document.
// Used as the catalog storage path and as the mirror object key.
func (l *Layout) DocumentKey(docID string) string {
	return documentsDir + "/" + docID + ".pdf"
}

// PagePath returns the canonical cache location for a rendered page.
// The key shape is pages/<doc_id>/<page>.png.
func (l *Layout) PagePath(docID string, page int) string {
	return filepath.Join(l.root, pagesDir, docID, fmt.Sprintf("%d.%s", page, pageFormat))
}

// QuotaPath returns the location of the quota ledger file.
func (l *Layout) QuotaPath() string {
	return filepath.Join(l.root, metaDir, "quota.json")
}

// EnsureDirs creates the data root subtrees. It is idempotent and safe to
// call on every startup and before every write.
func (l *Layout) EnsureDirs() error {
	for _, d := range []string{documentsDir, pagesDir, metaDir} {
		if err := os.MkdirAll(filepath.Join(l.root, d), 0o755); err != nil {
			return fmt.Errorf("%w: create %s dir: %v", ErrStorage, d, err)
		}
	}
	return nil
}
