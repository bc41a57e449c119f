package risk

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"

	"credit-risk-core/internal/domain/risk"
	"credit-risk-core/internal/infrastructure/memory"
	"credit-risk-core/internal/infrastructure/ratelimit"
	"credit-risk-core/internal/infrastructure/window"
)

func setupUseCase(t *testing.T, burst int) (*UseCase, *memory.CaseStore) {
	t.Helper()

	caseStore := memory.NewCaseStore()
	tracker := risk.NewTracker(caseStore, nil, nil)
	windows := window.New(time.Hour, nil)
	scorer := risk.NewScorer(windows, nil, tracker, nil, risk.ScorerConfig{
		Enabled:                  true,
		HighAmountThreshold:      decimal.NewFromInt(50000),
		MediumAmountThreshold:    decimal.NewFromInt(10000),
		FrequencyThreshold:       5,
		CaseWorthyScoreThreshold: 30,
		HighLevelScore:           70,
		MediumLevelScore:         40,
	}, nil)

	limiter := ratelimit.New(ratelimit.Config{
		Enabled:         true,
		Burst:           burst,
		RefillPerSecond: 0,
	}, clockz.NewFakeClock())

	return NewUseCase(scorer, limiter), caseStore
}

func scoreInput(amount int64) ScoreEventInput {
	return ScoreEventInput{
		Event: risk.Event{
			SubjectID:  uuid.New(),
			Kind:       risk.KindTransaction,
			Amount:     decimal.NewFromInt(amount),
			OccurredAt: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		},
		ClientKey: "client-1",
	}
}

func TestUseCase_ScoreEvent(t *testing.T) {
	uc, caseStore := setupUseCase(t, 100)

	res, err := uc.ScoreEvent(context.Background(), scoreInput(60000))
	require.NoError(t, err)

	assert.False(t, res.Throttled)
	assert.Equal(t, 30, res.Score)
	assert.Equal(t, "HIGH_AMOUNT", res.Reason)
	require.NotNil(t, res.CaseID)
	assert.Equal(t, 1, caseStore.Len())
}

func TestUseCase_ThrottledIsNormalOutcome(t *testing.T) {
	uc, caseStore := setupUseCase(t, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := uc.ScoreEvent(ctx, scoreInput(100))
		require.NoError(t, err)
		assert.False(t, res.Throttled)
	}

	// Bucket exhausted: denied, scored as nothing, no case opened
	res, err := uc.ScoreEvent(ctx, scoreInput(60000))
	require.NoError(t, err)
	assert.True(t, res.Throttled)
	assert.Equal(t, 0, res.Score)
	assert.Nil(t, res.CaseID)
	assert.Equal(t, 0, caseStore.Len())
}

func TestUseCase_EmptyClientKeySkipsThrottle(t *testing.T) {
	uc, _ := setupUseCase(t, 1)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		input := scoreInput(100)
		input.ClientKey = ""
		res, err := uc.ScoreEvent(ctx, input)
		require.NoError(t, err)
		assert.False(t, res.Throttled)
	}
}

func TestUseCase_ScoreBatchPreservesOrder(t *testing.T) {
	uc, _ := setupUseCase(t, 1000)

	inputs := make([]ScoreEventInput, 20)
	for i := range inputs {
		amount := int64(100)
		if i%2 == 0 {
			amount = 60000
		}
		inputs[i] = ScoreEventInput{
			Event: risk.Event{
				// Distinct subjects keep window counts out of the picture
				SubjectID:  uuid.New(),
				Kind:       risk.KindTransaction,
				Amount:     decimal.NewFromInt(amount),
				OccurredAt: time.Now(),
			},
			ClientKey: fmt.Sprintf("batch-%d", i),
		}
	}

	results, err := uc.ScoreBatch(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, results, 20)

	for i, res := range results {
		if i%2 == 0 {
			assert.Equal(t, 30, res.Score, "result %d", i)
		} else {
			assert.Equal(t, 0, res.Score, "result %d", i)
		}
	}
}

func TestUseCase_ScoreBatchFailsOnBadEvent(t *testing.T) {
	uc, _ := setupUseCase(t, 1000)

	inputs := []ScoreEventInput{
		scoreInput(100),
		{Event: risk.Event{SubjectID: uuid.Nil, Kind: risk.KindLogin}, ClientKey: "x"},
	}

	_, err := uc.ScoreBatch(context.Background(), inputs)
	assert.ErrorIs(t, err, risk.ErrMissingSubject)
}

func TestLoggingService_Delegates(t *testing.T) {
	uc, _ := setupUseCase(t, 100)
	svc := WithLogging(uc, zap.NewNop())

	res, err := svc.ScoreEvent(context.Background(), scoreInput(60000))
	require.NoError(t, err)
	assert.Equal(t, 30, res.Score)

	results, err := svc.ScoreBatch(context.Background(), []ScoreEventInput{scoreInput(100)})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
