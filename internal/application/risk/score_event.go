// Package risk wires the scoring core to the request boundary: the rate
// limit gate runs first, then the scorer; outcomes feed the metrics.
package risk

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"credit-risk-core/internal/application/dto"
	"credit-risk-core/internal/domain/risk"
	"credit-risk-core/internal/infrastructure/ratelimit"
	"credit-risk-core/internal/pkg/metrics"
)

const maxBatchConcurrency = 8

// ScoreEventInput is one event plus the caller's rate limit key.
// ClientKey derivation (API key if present, else client address) happens
// at the transport boundary.
type ScoreEventInput struct {
	Event     risk.Event
	ClientKey string
}

// Service scores inbound events. The interface exists so cross-cutting
// concerns wrap it as decorators.
type Service interface {
	ScoreEvent(ctx context.Context, input ScoreEventInput) (*dto.ScoreEventResponse, error)
	ScoreBatch(ctx context.Context, inputs []ScoreEventInput) ([]dto.ScoreEventResponse, error)
}

// UseCase is the production Service: throttle, then score
type UseCase struct {
	scorer  *risk.Scorer
	limiter *ratelimit.Limiter
}

var _ Service = (*UseCase)(nil)

// NewUseCase creates the scoring use case. limiter may be nil when the
// caller throttles elsewhere.
func NewUseCase(scorer *risk.Scorer, limiter *ratelimit.Limiter) *UseCase {
	return &UseCase{scorer: scorer, limiter: limiter}
}

// ScoreEvent throttles and scores one event. A throttled outcome is a
// normal result the caller branches on, not an error.
func (u *UseCase) ScoreEvent(ctx context.Context, input ScoreEventInput) (*dto.ScoreEventResponse, error) {
	if u.limiter != nil && input.ClientKey != "" && !u.limiter.TryConsume(input.ClientKey) {
		metrics.RequestsThrottled.Inc()
		return &dto.ScoreEventResponse{Throttled: true}, nil
	}

	assessment, err := u.scorer.Score(ctx, input.Event)
	if err != nil {
		return nil, fmt.Errorf("score event: %w", err)
	}

	metrics.EventsScored.WithLabelValues(string(assessment.Level)).Inc()
	if assessment.CaseID != nil {
		metrics.CasesFlagged.WithLabelValues(assessment.Reason).Inc()
	}

	return &dto.ScoreEventResponse{
		Level:  string(assessment.Level),
		Score:  assessment.Score,
		Reason: assessment.Reason,
		CaseID: assessment.CaseID,
	}, nil
}

// ScoreBatch scores events concurrently and returns results in input
// order. One bad event fails the batch; partial application is fine
// because scoring is idempotent per event, not transactional.
func (u *UseCase) ScoreBatch(ctx context.Context, inputs []ScoreEventInput) ([]dto.ScoreEventResponse, error) {
	results := make([]dto.ScoreEventResponse, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxBatchConcurrency)

	for i, input := range inputs {
		g.Go(func() error {
			res, err := u.ScoreEvent(gctx, input)
			if err != nil {
				return err
			}
			results[i] = *res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
