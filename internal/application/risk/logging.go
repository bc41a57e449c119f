package risk

import (
	"context"
	"time"

	"go.uber.org/zap"

	"credit-risk-core/internal/application/dto"
)

// LoggingService decorates a Service with request/outcome logging.
// Explicit wrapping at the call boundary replaces implicit interception.
type LoggingService struct {
	next   Service
	logger *zap.Logger
}

var _ Service = (*LoggingService)(nil)

// WithLogging wraps a Service in the logging decorator
func WithLogging(next Service, logger *zap.Logger) *LoggingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingService{next: next, logger: logger}
}

// ScoreEvent logs the event, delegates, then logs the outcome
func (s *LoggingService) ScoreEvent(ctx context.Context, input ScoreEventInput) (*dto.ScoreEventResponse, error) {
	start := time.Now()
	res, err := s.next.ScoreEvent(ctx, input)
	if err != nil {
		s.logger.Error("event scoring failed",
			zap.String("subject_id", input.Event.SubjectID.String()),
			zap.String("kind", string(input.Event.Kind)),
			zap.Error(err))
		return nil, err
	}

	fields := []zap.Field{
		zap.String("subject_id", input.Event.SubjectID.String()),
		zap.String("kind", string(input.Event.Kind)),
		zap.Duration("elapsed", time.Since(start)),
	}
	if res.Throttled {
		s.logger.Info("event throttled", fields...)
		return res, nil
	}

	fields = append(fields,
		zap.Int("score", res.Score),
		zap.String("level", res.Level))
	if res.CaseID != nil {
		fields = append(fields, zap.String("case_id", res.CaseID.String()))
	}
	s.logger.Info("event scored", fields...)
	return res, nil
}

// ScoreBatch logs the batch size and delegates
func (s *LoggingService) ScoreBatch(ctx context.Context, inputs []ScoreEventInput) ([]dto.ScoreEventResponse, error) {
	start := time.Now()
	results, err := s.next.ScoreBatch(ctx, inputs)
	if err != nil {
		s.logger.Error("batch scoring failed",
			zap.Int("batch_size", len(inputs)),
			zap.Error(err))
		return nil, err
	}
	s.logger.Info("batch scored",
		zap.Int("batch_size", len(inputs)),
		zap.Duration("elapsed", time.Since(start)))
	return results, nil
}
