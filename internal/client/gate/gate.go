// Package gate implements the client side of the email gate: a visitor
// trades name and email for access to a book's source link, and the
// submission is remembered locally for a fixed window so the form is not
// shown again on every visit.
package gate

import (
	"context"
	"time"

	"github.com/optread/optread-api/internal/client/api"
	"github.com/optread/optread-api/internal/client/localstore"
	"github.com/optread/optread-api/internal/dto"
)

const markerKey = "bookEmail"

// MarkerTTL is how long a gate submission is remembered locally. After it
// elapses the visitor is gated again and must resubmit; the server keeps the
// subscriber row either way.
const MarkerTTL = 24 * time.Hour

// Gate tracks whether the visitor has passed the email gate
type Gate struct {
	store  *localstore.Store
	client *api.Client
}

// New creates a Gate over the given store and API client
func New(store *localstore.Store, client *api.Client) *Gate {
	return &Gate{store: store, client: client}
}

// Unlocked reports whether a gate submission is still remembered. An expired
// marker is evicted by the read.
func (g *Gate) Unlocked() (bool, error) {
	_, ok, err := g.store.Get(markerKey)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Email returns the remembered email, empty when the gate is locked
func (g *Gate) Email() (string, error) {
	raw, ok, err := g.store.Get(markerKey)
	if err != nil || !ok {
		return "", err
	}
	return string(raw), nil
}

// Submit sends the gate form for a book and unlocks the gate. The server
// response says whether the email was newly captured; the gate opens either
// way.
func (g *Gate) Submit(ctx context.Context, bookID, fullName, email string) (bool, error) {
	resp, err := g.client.Subscribe(ctx, dto.SubscribeRequest{
		BookID:   bookID,
		FullName: fullName,
		Email:    email,
	})
	if err != nil {
		return false, err
	}

	if err := g.store.Set(markerKey, []byte(email), MarkerTTL); err != nil {
		return false, err
	}
	return resp.IsNew, nil
}
