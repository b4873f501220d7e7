package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/optread/optread-api/internal/domain"
)

// MemoryCategoryRepository implements CategoryRepository using in-memory storage
type MemoryCategoryRepository struct {
	categories map[string]*domain.Category
	mu         sync.RWMutex
}

// NewMemoryCategoryRepository creates a new in-memory category repository
func NewMemoryCategoryRepository() *MemoryCategoryRepository {
	return &MemoryCategoryRepository{categories: make(map[string]*domain.Category)}
}

// List returns all categories ordered by name
func (r *MemoryCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cats := make([]*domain.Category, 0, len(r.categories))
	for _, cat := range r.categories {
		c := *cat
		cats = append(cats, &c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })
	return cats, nil
}

// GetByID retrieves a category by ID
func (r *MemoryCategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cat, exists := r.categories[id]
	if !exists {
		return nil, nil
	}
	c := *cat
	return &c, nil
}

// Create inserts a new category
func (r *MemoryCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.nameTakenLocked(category.Name, category.ID) {
		return ErrDuplicateCategoryName
	}

	c := *category
	r.categories[category.ID] = &c
	return nil
}

// nameTakenLocked reports whether another category already holds name.
// Callers must hold the lock.
func (r *MemoryCategoryRepository) nameTakenLocked(name, selfID string) bool {
	for _, cat := range r.categories {
		if cat.Name == name && cat.ID != selfID {
			return true
		}
	}
	return false
}

// Update persists category changes
func (r *MemoryCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.categories[category.ID]; exists {
		if r.nameTakenLocked(category.Name, category.ID) {
			return ErrDuplicateCategoryName
		}
		c := *category
		r.categories[category.ID] = &c
	}
	return nil
}

// Delete removes a category
func (r *MemoryCategoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.categories, id)
	return nil
}

// HasChildren reports whether any category names this one as parent
func (r *MemoryCategoryRepository) HasChildren(ctx context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, cat := range r.categories {
		if cat.ParentID != nil && *cat.ParentID == id {
			return true, nil
		}
	}
	return false, nil
}
