// Package localstore is a small expiring key-value store on top of bbolt.
// The web client keeps its session token and email-gate markers in browser
// localStorage; CLI and desktop clients get the same semantics from this
// store, including eviction of expired entries on read.
package localstore

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var bucketEntries = []byte("entries")

// entry is the stored record. A zero ExpiresAt means the entry never expires.
type entry struct {
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Store is an expiring key-value store backed by a bbolt file
type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens or creates the store at path
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEntries)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize local store: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Set stores value under key. A ttl of zero means no expiry.
func (s *Store) Set(key string, value []byte, ttl time.Duration) error {
	e := entry{Value: value}
	if ttl > 0 {
		e.ExpiresAt = s.now().Add(ttl)
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode entry: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEntries).Put([]byte(key), data)
	})
}

// Get returns the value for key. Expired entries are deleted on read and
// reported as absent; there is no background sweeper.
func (s *Store) Get(key string) ([]byte, bool, error) {
	var value []byte
	found := false
	expired := false

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketEntries).Get([]byte(key))
		if data == nil {
			return nil
		}

		var e entry
		if err := json.Unmarshal(data, &e); err != nil {
			return fmt.Errorf("failed to decode entry: %w", err)
		}
		if !e.ExpiresAt.IsZero() && s.now().After(e.ExpiresAt) {
			expired = true
			return nil
		}

		value = append([]byte(nil), e.Value...)
		found = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if expired {
		if err := s.Delete(key); err != nil {
			return nil, false, err
		}
	}
	return value, found, nil
}

// Delete removes key
func (s *Store) Delete(key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEntries).Delete([]byte(key))
	})
}
