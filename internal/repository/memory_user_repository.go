package repository

import (
	"context"
	"sync"
	"time"

	"github.com/optread/optread-api/internal/domain"
)

// MemoryUserRepository implements UserRepository using in-memory storage.
// This is useful for testing and development.
type MemoryUserRepository struct {
	users   map[string]*domain.User
	byEmail map[string]string // email -> userID
	mu      sync.RWMutex

	// now is injectable so tests can control reset-token expiry
	now func() time.Time
}

// NewMemoryUserRepository creates a new in-memory user repository
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:   make(map[string]*domain.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

// SetNow overrides the clock used for reset-token expiry checks
func (r *MemoryUserRepository) SetNow(now func() time.Time) { r.now = now }

// Create inserts a new user
func (r *MemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return ErrDuplicateEmail
	}

	u := *user
	r.users[user.ID] = &u
	r.byEmail[user.Email] = user.ID
	return nil
}

// GetByID retrieves a user by ID
func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, nil
	}
	u := *user
	return &u, nil
}

// GetByEmail retrieves a user by email
func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byEmail[email]
	if !exists {
		return nil, nil
	}
	u := *r.users[id]
	return &u, nil
}

// GetByResetToken retrieves the user holding a reset token
func (r *MemoryUserRepository) GetByResetToken(ctx context.Context, token string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.ResetToken != nil && *user.ResetToken == token {
			u := *user
			return &u, nil
		}
	}
	return nil, nil
}

// List returns all users
func (r *MemoryUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*domain.User, 0, len(r.users))
	for _, user := range r.users {
		u := *user
		users = append(users, &u)
	}
	return users, nil
}

// Update persists name, email, role and status changes
func (r *MemoryUserRepository) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.users[user.ID]
	if !exists {
		return nil
	}
	if id, taken := r.byEmail[user.Email]; taken && id != user.ID {
		return ErrDuplicateEmail
	}

	delete(r.byEmail, stored.Email)
	stored.FullName = user.FullName
	stored.Email = user.Email
	stored.Role = user.Role
	stored.Status = user.Status
	stored.UpdatedAt = r.now()
	r.byEmail[stored.Email] = stored.ID
	return nil
}

// UpdatePassword replaces the password hash
func (r *MemoryUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, exists := r.users[id]; exists {
		user.PasswordHash = passwordHash
		user.UpdatedAt = r.now()
	}
	return nil
}

// SetResetToken stores a reset token on the user owning the email
func (r *MemoryUserRepository) SetResetToken(ctx context.Context, email, token string, expiry time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, exists := r.byEmail[email]
	if !exists {
		return false, nil
	}
	user := r.users[id]
	user.ResetToken = &token
	user.ResetTokenExpiry = &expiry
	return true, nil
}

// ConsumeResetToken atomically sets the password and clears the token
func (r *MemoryUserRepository) ConsumeResetToken(ctx context.Context, token, passwordHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.ResetToken == nil || *user.ResetToken != token {
			continue
		}
		if user.ResetTokenExpiry == nil || !r.now().Before(*user.ResetTokenExpiry) {
			return false, nil
		}
		user.PasswordHash = passwordHash
		user.ResetToken = nil
		user.ResetTokenExpiry = nil
		user.UpdatedAt = r.now()
		return true, nil
	}
	return false, nil
}

// Delete deletes a user
func (r *MemoryUserRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, exists := r.users[id]; exists {
		delete(r.byEmail, user.Email)
		delete(r.users, id)
	}
	return nil
}
