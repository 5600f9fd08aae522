package quota

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists counters as a single JSON ledger keyed
// day -> user -> count. Every successful consume is a full read-modify-write of
// the ledger, serialized by a process-local mutex and published with a
// write-temp-then-rename so readers never observe a torn file.
//
// Old day keys remain in the ledger but are never read again after rollover;
// cleaning them up is a retention concern, not a correctness one.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a file-backed counter store at path. The file is
// created lazily on the first successful consume.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

var _ Store = (*FileStore)(nil)

func (s *FileStore) Consume(ctx context.Context, day, userID string, pages, limit int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.load()
	if err != nil {
		return 0, false, err
	}

	used := ledger[day][userID]
	if used+pages > limit {
		return used, false, nil
	}

	if ledger[day] == nil {
		ledger[day] = map[string]int{}
	}
	ledger[day][userID] = used + pages

	if err := s.save(ledger); err != nil {
		return used, false, err
	}
	return used + pages, true, nil
}

// load reads the ledger. A missing file is an empty ledger; an unreadable or
// corrupt file is ErrQuotaStore (fail closed, never fabricate a fresh ledger
// over existing data).
func (s *FileStore) load() (map[string]map[string]int, error) {
	b, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]map[string]int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuotaStore, err)
	}

	var ledger map[string]map[string]int
	if err := json.Unmarshal(b, &ledger); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrQuotaStore, s.path, err)
	}
	if ledger == nil {
		ledger = map[string]map[string]int{}
	}
	return ledger, nil
}

func (s *FileStore) save(ledger map[string]map[string]int) error {
	b, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode ledger: %v", ErrQuotaStore, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create meta dir: %v", ErrQuotaStore, err)
	}

	tmp, err := os.CreateTemp(dir, ".quota-*")
	if err != nil {
		return fmt.Errorf("%w: create temp ledger: %v", ErrQuotaStore, err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: write ledger: %v", ErrQuotaStore, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: close ledger: %v", ErrQuotaStore, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: publish ledger: %v", ErrQuotaStore, err)
	}
	return nil
}
