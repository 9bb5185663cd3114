package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	insuranceapp "github.com/payroll/backend/internal/application/insurance"
)

// StubExportStorage is an in-memory export store for development and tests.
// Download URLs it hands out are not real and only identify the stored key.
type StubExportStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewStubExportStorage creates a new stub storage
func NewStubExportStorage() *StubExportStorage {
	return &StubExportStorage{objects: make(map[string][]byte)}
}

// Put stores the content in memory
func (s *StubExportStorage) Put(_ context.Context, key, _ string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(content))
	copy(buf, content)
	s.objects[key] = buf
	return nil
}

// PresignDownload returns a synthetic URL naming the key
func (s *StubExportStorage) PresignDownload(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return "", time.Time{}, fmt.Errorf("object %q not found", key)
	}
	if expiresIn <= 0 {
		expiresIn = 15 * time.Minute
	}
	return "stub://exports/" + key, time.Now().Add(expiresIn), nil
}

// Get returns the stored content, for assertions in tests
func (s *StubExportStorage) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.objects[key]
	return content, ok
}

// Ensure StubExportStorage implements the application's ExportStorage port
var _ insuranceapp.ExportStorage = (*StubExportStorage)(nil)
