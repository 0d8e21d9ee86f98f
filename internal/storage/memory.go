package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dealgrid/meddpicc/internal/model"
)

// Memory is an in-process Store for tests and embedded use. Records are
// deep-copied on the way in and out so callers can never mutate stored
// state through a shared map or slice.
type Memory struct {
	mu            sync.RWMutex
	assessments   map[uuid.UUID]model.Assessment
	byOpportunity map[string]uuid.UUID
	config        *model.Configuration
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		assessments:   make(map[uuid.UUID]model.Assessment),
		byOpportunity: make(map[string]uuid.UUID),
	}
}

func (m *Memory) Get(_ context.Context, id uuid.UUID) (model.Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assessments[id]
	if !ok {
		return model.Assessment{}, ErrNotFound
	}
	return copyAssessment(a), nil
}

func (m *Memory) GetByOpportunity(_ context.Context, opportunityID string) (model.Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byOpportunity[opportunityID]
	if !ok {
		return model.Assessment{}, ErrNotFound
	}
	return copyAssessment(m.assessments[id]), nil
}

func (m *Memory) Put(_ context.Context, a model.Assessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.byOpportunity[a.OpportunityID]; ok && existing != a.ID {
		return ErrConflict
	}
	m.assessments[a.ID] = copyAssessment(a)
	m.byOpportunity[a.OpportunityID] = a.ID
	return nil
}

func (m *Memory) List(_ context.Context) ([]model.Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Assessment, 0, len(m.assessments))
	for _, a := range m.assessments {
		out = append(out, copyAssessment(a))
	}
	return out, nil
}

func (m *Memory) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assessments[id]
	if !ok {
		return false, nil
	}
	delete(m.assessments, id)
	delete(m.byOpportunity, a.OpportunityID)
	return true, nil
}

func (m *Memory) GetConfiguration(_ context.Context) (model.Configuration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return model.Configuration{}, ErrNotFound
	}
	return *m.config, nil
}

func (m *Memory) PutConfiguration(_ context.Context, cfg model.Configuration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config = &cfg
	return nil
}

func (m *Memory) Close(context.Context) error { return nil }

func copyAssessment(a model.Assessment) model.Assessment {
	out := a
	out.Answers = append([]model.Answer(nil), a.Answers...)
	out.CoachingActions = append([]string(nil), a.CoachingActions...)
	out.CompetitiveStrengths = append([]string(nil), a.CompetitiveStrengths...)
	out.AreasOfConcern = append([]string(nil), a.AreasOfConcern...)
	out.PillarScores = make(map[model.PillarID]int, len(a.PillarScores))
	for k, v := range a.PillarScores {
		out.PillarScores[k] = v
	}
	out.StageReadiness = make(map[model.Stage]bool, len(a.StageReadiness))
	for k, v := range a.StageReadiness {
		out.StageReadiness[k] = v
	}
	return out
}
