package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Package storage owns the durable on-disk layout: uploaded documents, the
// rendered-page cache subtree, and the quota ledger location. Documents are
// kept on the local filesystem because the external rasterizer is a
// subprocess that consumes OS file paths.

// ErrStorage marks a durable-storage read/write failure (disk full,
// permission denied). Surfaced to callers as a 5xx condition.
var ErrStorage = errors.New("storage error")

// DocumentStore persists uploaded document bytes under fresh identifiers.
// Documents are write-once; there is no update or delete operation.
type DocumentStore interface {
	// Store writes the bytes from r under a newly generated document ID and
	// returns that ID. Missing directory structure is created first.
	Store(r io.Reader) (string, error)
	// Exists reports whether a document with the given ID is on disk.
	Exists(docID string) bool
	// Path returns the deterministic absolute location for a document ID.
	// Pure function, no I/O.
	Path(docID string) string
}

type fsStore struct {
	layout *Layout
}

// NewDocumentStore creates a filesystem-backed DocumentStore over the layout.
func NewDocumentStore(layout *Layout) DocumentStore {
	return &fsStore{layout: layout}
}

func (s *fsStore) Store(r io.Reader) (string, error) {
	if err := s.layout.EnsureDirs(); err != nil {
		return "", err
	}

	docID := uuid.NewString()
	dest := s.layout.DocumentPath(docID)

	// Write to a temp file in the same directory and rename into place so a
	// crashed upload never leaves a partial document at the canonical path.
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %v", ErrStorage, err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: write document: %v", ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: close document: %v", ErrStorage, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: finalize document: %v", ErrStorage, err)
	}

	return docID, nil
}

func (s *fsStore) Exists(docID string) bool {
	fi, err := os.Stat(s.layout.DocumentPath(docID))
	return err == nil && fi.Mode().IsRegular()
}

func (s *fsStore) Path(docID string) string {
	return s.layout.DocumentPath(docID)
}
