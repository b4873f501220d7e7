package domain

import (
	"errors"
	"time"
)

// ErrDuplicateSubscriber is returned when an email has already been captured
// for a given book. Callers treat it as a no-op, not a failure.
var ErrDuplicateSubscriber = errors.New("subscriber already exists for book")

// Subscriber is a per-book email capture from the gate form. It is not a
// login account.
type Subscriber struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"subscribed_at"`
}
