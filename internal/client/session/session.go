// Package session keeps the client-side login state. The server issues a
// bearer token with a fixed lifetime and no refresh; the manager caches it
// locally, reports its state, and evicts it once the expiry has passed so a
// stale token is never sent.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/optread/optread-api/internal/client/api"
	"github.com/optread/optread-api/internal/client/localstore"
	"github.com/optread/optread-api/internal/dto"
)

const (
	keyToken = "auth_token"
	keyUser  = "auth_user"
)

// State is the client's authentication state
type State int

const (
	// StateAnonymous means no token is cached
	StateAnonymous State = iota
	// StateAuthenticated means a cached token is still within its lifetime
	StateAuthenticated
	// StateExpired means the cached token's lifetime has elapsed; the user
	// must log in again
	StateExpired
)

// ErrNotAuthenticated is returned when an operation needs a live session
var ErrNotAuthenticated = errors.New("not authenticated")

// Manager caches the session token and user locally
type Manager struct {
	store  *localstore.Store
	client *api.Client
	now    func() time.Time
}

// NewManager creates a session manager over the given store and API client
func NewManager(store *localstore.Store, client *api.Client) *Manager {
	return &Manager{
		store:  store,
		client: client,
		now:    time.Now,
	}
}

// Login authenticates against the server and caches the session
func (m *Manager) Login(ctx context.Context, email, password string) (*dto.UserResponse, error) {
	resp, err := m.client.Login(ctx, dto.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	if err := m.save(resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Register creates an account and caches the session
func (m *Manager) Register(ctx context.Context, fullName, email, password string) (*dto.UserResponse, error) {
	resp, err := m.client.Register(ctx, dto.RegisterRequest{
		FullName: fullName,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}
	if err := m.save(resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Logout drops the cached session. There is no server-side session to end.
func (m *Manager) Logout() error {
	m.client.SetToken("")
	if err := m.store.Delete(keyToken); err != nil {
		return err
	}
	return m.store.Delete(keyUser)
}

// State reports the current authentication state, evicting the cached
// session when the token has expired.
func (m *Manager) State() (State, error) {
	raw, ok, err := m.store.Get(keyToken)
	if err != nil {
		return StateAnonymous, err
	}
	if !ok {
		return StateAnonymous, nil
	}

	if m.tokenExpired(string(raw)) {
		if err := m.Logout(); err != nil {
			return StateExpired, err
		}
		return StateExpired, nil
	}

	m.client.SetToken(string(raw))
	return StateAuthenticated, nil
}

// CurrentUser returns the cached user if the session is live
func (m *Manager) CurrentUser() (*dto.UserResponse, error) {
	state, err := m.State()
	if err != nil {
		return nil, err
	}
	if state != StateAuthenticated {
		return nil, ErrNotAuthenticated
	}

	raw, ok, err := m.store.Get(keyUser)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAuthenticated
	}

	var user dto.UserResponse
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("failed to decode cached user: %w", err)
	}
	return &user, nil
}

// Token returns the cached token for a live session
func (m *Manager) Token() (string, error) {
	state, err := m.State()
	if err != nil {
		return "", err
	}
	if state != StateAuthenticated {
		return "", ErrNotAuthenticated
	}

	raw, _, err := m.store.Get(keyToken)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (m *Manager) save(resp *dto.AuthResponse) error {
	userJSON, err := json.Marshal(resp.User)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	// The token already carries its own expiry; the cache entries do not
	// need one of their own.
	if err := m.store.Set(keyToken, []byte(resp.Token), 0); err != nil {
		return err
	}
	if err := m.store.Set(keyUser, userJSON, 0); err != nil {
		return err
	}

	m.client.SetToken(resp.Token)
	return nil
}

// tokenExpired checks the exp claim locally. The signature is the server's
// to verify; the client only needs the timestamp.
func (m *Manager) tokenExpired(token string) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return true
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return m.now().After(exp.Time)
}
