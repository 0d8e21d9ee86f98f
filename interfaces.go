package meddpicc

import (
	"context"

	"github.com/google/uuid"
)

// AssessmentHook receives notifications when assessment lifecycle
// events occur. Multiple hooks may be registered via multiple
// WithAssessmentHook calls; all registered hooks receive every event.
// Hooks run on the mutating call path after the write is persisted, so
// they must return quickly.
type AssessmentHook interface {
	// OnAssessmentComputed fires after a create or update is persisted.
	OnAssessmentComputed(ctx context.Context, a Assessment)
	// OnAssessmentDeleted fires after a delete is persisted.
	OnAssessmentDeleted(ctx context.Context, id uuid.UUID)
}
