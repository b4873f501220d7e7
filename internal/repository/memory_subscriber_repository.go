package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/optread/optread-api/internal/domain"
)

// MemorySubscriberRepository implements SubscriberRepository using in-memory storage
type MemorySubscriberRepository struct {
	subs   map[string]*domain.Subscriber
	byPair map[string]bool // bookID+"\x00"+email
	mu     sync.RWMutex
}

// NewMemorySubscriberRepository creates a new in-memory subscriber repository
func NewMemorySubscriberRepository() *MemorySubscriberRepository {
	return &MemorySubscriberRepository{
		subs:   make(map[string]*domain.Subscriber),
		byPair: make(map[string]bool),
	}
}

func pairKey(bookID, email string) string { return bookID + "\x00" + email }

// Create inserts a subscriber, rejecting duplicate (book, email) pairs
func (r *MemorySubscriberRepository) Create(ctx context.Context, sub *domain.Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pairKey(sub.BookID, sub.Email)
	if r.byPair[key] {
		return domain.ErrDuplicateSubscriber
	}
	s := *sub
	r.subs[sub.ID] = &s
	r.byPair[key] = true
	return nil
}

// ListByBook returns a book's subscribers, oldest first
func (r *MemorySubscriberRepository) ListByBook(ctx context.Context, bookID string) ([]*domain.Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var subs []*domain.Subscriber
	for _, sub := range r.subs {
		if sub.BookID == bookID {
			s := *sub
			subs = append(subs, &s)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].CreatedAt.Before(subs[j].CreatedAt) })
	return subs, nil
}
