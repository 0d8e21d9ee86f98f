// Package storage provides the persistence boundary for assessments and
// the configuration record: an in-memory store, an embedded SQLite
// store, and a PostgreSQL store behind one interface.
//
// Stores read and write whole records. Serializing concurrent updates
// per assessment id is the service layer's job; the whole-record writes
// here guarantee a reader never observes a partially-written assessment.
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/dealgrid/meddpicc/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
// Absence is an expected outcome for callers probing state.
var ErrNotFound = errors.New("storage: not found")

// ErrConflict is returned when a create collides with an existing
// assessment for the same opportunity.
var ErrConflict = errors.New("storage: assessment already exists for opportunity")

// Store is the persistence boundary consumed by the engine. Backend
// failures are wrapped and surfaced as-is; retry policy belongs to the
// caller.
type Store interface {
	// Get returns the assessment with the given id, or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (model.Assessment, error)

	// GetByOpportunity returns the assessment for an opportunity, or
	// ErrNotFound. At most one assessment exists per opportunity.
	GetByOpportunity(ctx context.Context, opportunityID string) (model.Assessment, error)

	// Put writes the full assessment record, creating or replacing it.
	// A create that reuses another assessment's opportunity id fails
	// with ErrConflict.
	Put(ctx context.Context, a model.Assessment) error

	// List returns all stored assessments in unspecified order.
	List(ctx context.Context) ([]model.Assessment, error)

	// Delete removes an assessment, reporting whether it existed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// GetConfiguration returns the stored configuration record, or
	// ErrNotFound when none has been persisted yet.
	GetConfiguration(ctx context.Context) (model.Configuration, error)

	// PutConfiguration replaces the stored configuration record.
	PutConfiguration(ctx context.Context, cfg model.Configuration) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}
