// Package store keeps computed simulations until they expire so they can be
// fetched again, exported or forwarded to the bank.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/loan-simulator/internal/simulation"
)

// ErrNotFound is returned when a simulation does not exist or has expired.
var ErrNotFound = errors.New("simulation not found")

// Record is one stored simulation.
type Record struct {
	ID        uuid.UUID          `json:"id"`
	CreatedAt time.Time          `json:"createdAt"`
	ExpiresAt time.Time          `json:"expiresAt"`
	Request   simulation.Request `json:"request"`
	Summary   simulation.Summary `json:"summary"`
}

// NewRecord stamps a new identifier and expiry on a computed simulation.
func NewRecord(req simulation.Request, summary simulation.Summary, now time.Time, ttl time.Duration) Record {
	return Record{
		ID:        uuid.New(),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		Request:   req,
		Summary:   summary,
	}
}

// Expired reports whether the record is past its expiry at the given time.
func (r Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// Store persists simulation records.
type Store interface {
	Save(ctx context.Context, record Record) error
	Get(ctx context.Context, id uuid.UUID) (Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Close() error
}
