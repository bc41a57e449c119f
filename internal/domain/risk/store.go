package risk

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CaseStore persists suspicious cases. Persistence is injected; the
// tracker owns all mutations that go through it.
type CaseStore interface {
	Save(ctx context.Context, c *SuspiciousCase) error
	Update(ctx context.Context, c *SuspiciousCase) error
	FindByID(ctx context.Context, id uuid.UUID) (*SuspiciousCase, error)
	FindByCustomer(ctx context.Context, subjectID uuid.UUID) ([]*SuspiciousCase, error)
	FindByRiskLevel(ctx context.Context, level Level) ([]*SuspiciousCase, error)
	FindByAmountAbove(ctx context.Context, threshold decimal.Decimal) ([]*SuspiciousCase, error)
}

// WindowStore accumulates a count and a sum per key over a rolling time
// window. Both operations perform the lazy window reset; both are atomic
// per key.
type WindowStore interface {
	Increment(ctx context.Context, key string, amount decimal.Decimal) (count int64, sum decimal.Decimal, err error)
	Peek(ctx context.Context, key string) (count int64, sum decimal.Decimal, err error)
}
