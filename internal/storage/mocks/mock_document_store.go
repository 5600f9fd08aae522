package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) Store(r io.Reader) (string, error) {
	args := m.Called(r)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentStore) Exists(docID string) bool {
	args := m.Called(docID)
	return args.Bool(0)
}

func (m *MockDocumentStore) Path(docID string) string {
	args := m.Called(docID)
	return args.String(0)
}

type MockMirror struct {
	mock.Mock
}

func (m *MockMirror) Mirror(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, key, r, size, contentType)
	return args.Error(0)
}
