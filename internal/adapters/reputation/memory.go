// Package reputation provides the ReputationStore backends.
package reputation

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Normalize lower-cases and trims domains, dropping empties and duplicates
func Normalize(domains []string) []string {
	seen := make(map[string]struct{}, len(domains))
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

// MemoryStore is an in-memory implementation of core.ReputationStore
type MemoryStore struct {
	domains map[string]struct{}
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewMemoryStore creates a new in-memory reputation store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		domains: make(map[string]struct{}),
		logger:  logger,
	}
}

// Contains reports whether a domain is blocklisted
func (s *MemoryStore) Contains(_ context.Context, domain string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.domains[strings.ToLower(strings.TrimSpace(domain))]
	return ok
}

// BulkAdd inserts domains and returns how many were new
func (s *MemoryStore) BulkAdd(_ context.Context, domains []string) (int, error) {
	normalized := Normalize(domains)

	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, d := range normalized {
		if _, ok := s.domains[d]; ok {
			continue
		}
		s.domains[d] = struct{}{}
		inserted++
	}

	s.logger.Debug("Bulk added domains", zap.Int("candidates", len(normalized)), zap.Int("inserted", inserted))
	return inserted, nil
}

// Size returns the number of distinct entries
func (s *MemoryStore) Size(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.domains)), nil
}

// Seed inserts domains only when the store is empty
func (s *MemoryStore) Seed(ctx context.Context, domains []string) error {
	if size, _ := s.Size(ctx); size > 0 {
		return nil
	}
	_, err := s.BulkAdd(ctx, domains)
	return err
}

// Close is a no-op for the memory store
func (s *MemoryStore) Close() error {
	return nil
}
