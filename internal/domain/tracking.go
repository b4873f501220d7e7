package domain

import (
	"errors"
	"time"
)

// Position is where a tracking snippet is injected into the page.
type Position string

const (
	PositionHead      Position = "head"
	PositionBodyStart Position = "body-start"
	PositionBodyEnd   Position = "body-end"
)

// Valid reports whether the position is one of the injectable slots.
func (p Position) Valid() bool {
	switch p {
	case PositionHead, PositionBodyStart, PositionBodyEnd:
		return true
	}
	return false
}

var (
	ErrTrackingCodeNotFound = errors.New("tracking code not found")
	ErrInvalidPosition      = errors.New("invalid position")
)

// TrackingCode is a third-party analytics snippet managed by admins.
type TrackingCode struct {
	ID        string    `json:"id"`
	Platform  string    `json:"platform"`
	Code      string    `json:"code"`
	Position  Position  `json:"position"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
