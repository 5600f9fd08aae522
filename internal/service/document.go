package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pdfpages/internal/model"
	"pdfpages/internal/repository"
	"pdfpages/internal/storage"
)

var (
	ErrIDRequired = errors.New("id is required")
	ErrNotFound   = errors.New("document not found")
	ErrReaderNil  = errors.New("reader is nil")
	ErrNotPDF     = errors.New("only PDF documents are accepted")
)

// pdfContentTypes are the media types accepted as PDF uploads. Browsers and
// older tooling are not consistent here, so a few historical aliases are
// allowed alongside the registered type.
var pdfContentTypes = map[string]bool{
	"application/pdf":     true,
	"application/x-pdf":   true,
	"application/acrobat": true,
}

const mirrorTimeout = 30 * time.Second

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Upload validates that the content is a PDF, persists the bytes to the
	// document store, records a catalog row, and rolls back the stored file if
	// the catalog insert fails. The returned document carries the generated ID.
	Upload(ctx context.Context, r io.Reader, originalFilename string, contentType string, size int64) (*model.Document, error)

	// List returns documents using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*DocumentListResult, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store  storage.DocumentStore
	layout *storage.Layout
	repo   repository.DocumentRepository
	mirror storage.Mirror
	loc    *time.Location
}

// NewDocumentService constructs a new DocumentService. The mirror is optional;
// pass nil to disable off-box copies.
func NewDocumentService(store storage.DocumentStore, layout *storage.Layout, repo repository.DocumentRepository, mirror storage.Mirror, loc *time.Location) DocumentService {
	if loc == nil {
		loc = time.UTC
	}
	return &documentService{store: store, layout: layout, repo: repo, mirror: mirror, loc: loc}
}

func (s *documentService) Upload(ctx context.Context, r io.Reader, originalFilename string, contentType string, size int64) (*model.Document, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	if !isPDF(originalFilename, contentType) {
		return nil, ErrNotPDF
	}

	docID, err := s.store.Store(r)
	if err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	doc := &model.Document{
		ID:          docID,
		Filename:    originalFilename,
		StoragePath: s.layout.DocumentKey(docID),
		Size:        size,
		ContentType: contentType,
		CreatedAt:   time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		// Rollback: remove the file so disk and catalog stay in agreement.
		if delErr := os.Remove(s.store.Path(docID)); delErr != nil && !os.IsNotExist(delErr) {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	if s.mirror != nil {
		go s.mirrorDocument(stored.StoragePath, s.store.Path(stored.ID), stored.ContentType, stored.Size)
	}

	return stored, nil
}

// mirrorDocument copies a stored document to the mirror in the background.
// Failures are logged and never surfaced to the uploader.
func (s *documentService) mirrorDocument(key, path, contentType string, size int64) {
	f, err := os.Open(path)
	if err != nil {
		s.logMirrorError(key, err)
		return
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()

	if err := s.mirror.Mirror(ctx, key, f, size, contentType); err != nil {
		s.logMirrorError(key, err)
	}
}

func (s *documentService) logMirrorError(key string, err error) {
	entry := map[string]any{
		"ts":    time.Now().In(s.loc).Format(time.RFC3339Nano),
		"level": "error",
		"msg":   "document_mirror_failed",
		"key":   key,
		"error": err.Error(),
	}
	if b, mErr := json.Marshal(entry); mErr == nil {
		log.Println(string(b))
	}
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, limit, offset int) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// isPDF accepts a known PDF media type or, when the client sent a generic
// content type, a .pdf filename extension.
func isPDF(filename, contentType string) bool {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if pdfContentTypes[mediaType] {
		return true
	}
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}
