package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/optread/optread-api/internal/domain"
)

// MemoryTrackingCodeRepository implements TrackingCodeRepository using in-memory storage
type MemoryTrackingCodeRepository struct {
	codes map[string]*domain.TrackingCode
	mu    sync.RWMutex
}

// NewMemoryTrackingCodeRepository creates a new in-memory tracking code repository
func NewMemoryTrackingCodeRepository() *MemoryTrackingCodeRepository {
	return &MemoryTrackingCodeRepository{codes: make(map[string]*domain.TrackingCode)}
}

// List returns all codes ordered by platform
func (r *MemoryTrackingCodeRepository) List(ctx context.Context) ([]*domain.TrackingCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]*domain.TrackingCode, 0, len(r.codes))
	for _, code := range r.codes {
		c := *code
		codes = append(codes, &c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i].Platform < codes[j].Platform })
	return codes, nil
}

// GetByID retrieves a tracking code by ID
func (r *MemoryTrackingCodeRepository) GetByID(ctx context.Context, id string) (*domain.TrackingCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	code, exists := r.codes[id]
	if !exists {
		return nil, nil
	}
	c := *code
	return &c, nil
}

// ListActiveByPosition returns active codes for an injection slot
func (r *MemoryTrackingCodeRepository) ListActiveByPosition(ctx context.Context, position domain.Position) ([]*domain.TrackingCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var codes []*domain.TrackingCode
	for _, code := range r.codes {
		if code.Active && code.Position == position {
			c := *code
			codes = append(codes, &c)
		}
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i].CreatedAt.Before(codes[j].CreatedAt) })
	return codes, nil
}

// Create inserts a new tracking code
func (r *MemoryTrackingCodeRepository) Create(ctx context.Context, code *domain.TrackingCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *code
	r.codes[code.ID] = &c
	return nil
}

// Update persists tracking code changes
func (r *MemoryTrackingCodeRepository) Update(ctx context.Context, code *domain.TrackingCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.codes[code.ID]; exists {
		c := *code
		r.codes[code.ID] = &c
	}
	return nil
}

// Delete removes a tracking code
func (r *MemoryTrackingCodeRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.codes, id)
	return nil
}
