package service

import (
	"context"
	"errors"
	"fmt"

	"pdfpages/internal/quota"
	"pdfpages/internal/storage"
)

var (
	ErrInvalidPage    = errors.New("page number must be a positive integer")
	ErrUserIDRequired = errors.New("user_id is required")
)

// QuotaExceededError is returned when a free-tier user has exhausted the
// daily page allowance. Used reflects today's count before the rejected
// request; a denied request consumes nothing.
type QuotaExceededError struct {
	Used  int
	Limit int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily quota exceeded: %d of %d pages used", e.Used, e.Limit)
}

// PageRenderer returns the cached image location for a document page,
// rendering it on a cache miss.
type PageRenderer interface {
	Page(ctx context.Context, pdfPath, docID string, page int) (string, error)
}

// PageService defines the use cases for serving rendered pages.
type PageService interface {
	// RenderPage returns the cache file location for the page without any
	// quota accounting. This backs the raw image endpoint.
	RenderPage(ctx context.Context, docID string, page int) (string, error)

	// ViewPage charges one page against the user's daily quota (paid users
	// bypass the gate) and then returns the cache file location. A denied
	// request returns *QuotaExceededError and renders nothing.
	ViewPage(ctx context.Context, docID string, page int, userID string, isPaid bool) (string, error)
}

type pageService struct {
	store    storage.DocumentStore
	renderer PageRenderer
	gate     quota.Gate
}

// NewPageService constructs a new PageService.
func NewPageService(store storage.DocumentStore, renderer PageRenderer, gate quota.Gate) PageService {
	return &pageService{store: store, renderer: renderer, gate: gate}
}

func (s *pageService) RenderPage(ctx context.Context, docID string, page int) (string, error) {
	if docID == "" {
		return "", ErrIDRequired
	}
	if page < 1 {
		return "", ErrInvalidPage
	}
	if !s.store.Exists(docID) {
		return "", ErrNotFound
	}
	return s.renderer.Page(ctx, s.store.Path(docID), docID, page)
}

func (s *pageService) ViewPage(ctx context.Context, docID string, page int, userID string, isPaid bool) (string, error) {
	if docID == "" {
		return "", ErrIDRequired
	}
	if page < 1 {
		return "", ErrInvalidPage
	}
	if userID == "" {
		return "", ErrUserIDRequired
	}
	// Existence first: a request for a missing document must not consume quota.
	if !s.store.Exists(docID) {
		return "", ErrNotFound
	}

	res, err := s.gate.CheckAndConsume(ctx, userID, isPaid, 1)
	if err != nil {
		return "", err
	}
	if !res.Allowed {
		return "", &QuotaExceededError{Used: res.Used, Limit: res.Limit}
	}

	return s.renderer.Page(ctx, s.store.Path(docID), docID, page)
}
