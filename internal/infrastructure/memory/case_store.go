// Package memory provides in-memory store implementations used in
// standalone mode and in tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"credit-risk-core/internal/domain/risk"
)

// CaseStore is an in-memory risk.CaseStore
type CaseStore struct {
	mu    sync.RWMutex
	cases map[uuid.UUID]*risk.SuspiciousCase
	order []uuid.UUID
}

var _ risk.CaseStore = (*CaseStore)(nil)

// NewCaseStore creates an empty in-memory case store
func NewCaseStore() *CaseStore {
	return &CaseStore{cases: make(map[uuid.UUID]*risk.SuspiciousCase)}
}

// Save stores a new case
func (s *CaseStore) Save(ctx context.Context, c *risk.SuspiciousCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.cases[c.ID] = &cp
	s.order = append(s.order, c.ID)
	return nil
}

// Update replaces a stored case
func (s *CaseStore) Update(ctx context.Context, c *risk.SuspiciousCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[c.ID]; !ok {
		return risk.ErrCaseNotFound
	}
	cp := *c
	s.cases[c.ID] = &cp
	return nil
}

// FindByID retrieves a case by id
func (s *CaseStore) FindByID(ctx context.Context, id uuid.UUID) (*risk.SuspiciousCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, risk.ErrCaseNotFound
	}
	cp := *c
	return &cp, nil
}

// FindByCustomer retrieves all cases for a subject
func (s *CaseStore) FindByCustomer(ctx context.Context, subjectID uuid.UUID) ([]*risk.SuspiciousCase, error) {
	return s.filter(func(c *risk.SuspiciousCase) bool {
		return c.SubjectID == subjectID
	}), nil
}

// FindByRiskLevel retrieves all cases at a level
func (s *CaseStore) FindByRiskLevel(ctx context.Context, level risk.Level) ([]*risk.SuspiciousCase, error) {
	return s.filter(func(c *risk.SuspiciousCase) bool {
		return c.RiskLevel == level
	}), nil
}

// FindByAmountAbove retrieves cases whose amount exceeds the threshold
func (s *CaseStore) FindByAmountAbove(ctx context.Context, threshold decimal.Decimal) ([]*risk.SuspiciousCase, error) {
	return s.filter(func(c *risk.SuspiciousCase) bool {
		return c.Amount != nil && c.Amount.GreaterThan(threshold)
	}), nil
}

// Len reports how many cases are stored
func (s *CaseStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cases)
}

func (s *CaseStore) filter(keep func(*risk.SuspiciousCase) bool) []*risk.SuspiciousCase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*risk.SuspiciousCase
	for _, id := range s.order {
		c := s.cases[id]
		if keep(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out
}
