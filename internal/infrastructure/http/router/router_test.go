package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	potp "github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"

	otpapp "credit-risk-core/internal/application/otp"
	riskapp "credit-risk-core/internal/application/risk"
	otpdomain "credit-risk-core/internal/domain/otp"
	"credit-risk-core/internal/domain/risk"
	"credit-risk-core/internal/infrastructure/memory"
	"credit-risk-core/internal/infrastructure/ratelimit"
	"credit-risk-core/internal/infrastructure/window"
	"credit-risk-core/internal/interfaces/http/handler"
)

type testEnv struct {
	router  *Router
	tracker *risk.Tracker
	clock   *clockz.FakeClock
}

func setupRouter(t *testing.T, burst int) *testEnv {
	t.Helper()
	clock := clockz.NewFakeClock()

	caseStore := memory.NewCaseStore()
	tracker := risk.NewTracker(caseStore, clock, nil)
	windows := window.New(time.Hour, clock)
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
		RefillPerSecond: 1,
	}, clock)

	verifier := otpdomain.NewVerifier(memory.NewOtpStore(), nil, clock, otpdomain.VerifierConfig{
		Enabled:    true,
		CodeLength: 6,
		Ttl:        5 * time.Minute,
		Issuer:     "credit-risk-core",
	}, nil)

	riskHandler := handler.NewRiskHandler(riskapp.NewUseCase(scorer, limiter), tracker)
	otpHandler := handler.NewOtpHandler(otpapp.NewUseCase(verifier))
	healthHandler := handler.NewHealthHandler(nil, nil)

	return &testEnv{
		router:  NewRouter(riskHandler, otpHandler, healthHandler, true),
		tracker: tracker,
		clock:   clock,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-Api-Key", "test-key")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func scoreBody(subjectID uuid.UUID, amount string) map[string]interface{} {
	return map[string]interface{}{
		"subject_id":  subjectID.String(),
		"kind":        "TRANSACTION",
		"amount":      amount,
		"occurred_at": "2026-03-14T12:00:00Z",
	}
}

func TestRouter_ScoreEvent(t *testing.T) {
	env := setupRouter(t, 100)

	w := env.do(t, http.MethodPost, "/api/v1/risk/score", scoreBody(uuid.New(), "60000"))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Level  string  `json:"level"`
		Score  int     `json:"score"`
		Reason string  `json:"reason"`
		CaseID *string `json:"case_id"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "low", resp.Level)
	assert.Equal(t, 30, resp.Score)
	assert.Equal(t, "HIGH_AMOUNT", resp.Reason)
	require.NotNil(t, resp.CaseID)
}

func TestRouter_ScoreEventValidation(t *testing.T) {
	env := setupRouter(t, 100)

	w := env.do(t, http.MethodPost, "/api/v1/risk/score", map[string]interface{}{
		"subject_id": "not-a-uuid",
		"kind":       "TRANSACTION",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/risk/score", map[string]interface{}{
		"subject_id": uuid.New().String(),
		"kind":       "TELEPATHY",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_ScoreEventThrottled(t *testing.T) {
	env := setupRouter(t, 2)

	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodPost, "/api/v1/risk/score", scoreBody(uuid.New(), "100"))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := env.do(t, http.MethodPost, "/api/v1/risk/score", scoreBody(uuid.New(), "100"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var resp struct {
		Throttled bool `json:"throttled"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Throttled)
}

func TestRouter_ScoreBatch(t *testing.T) {
	env := setupRouter(t, 100)

	events := []map[string]interface{}{
		scoreBody(uuid.New(), "60000"),
		scoreBody(uuid.New(), "100"),
	}
	w := env.do(t, http.MethodPost, "/api/v1/risk/score/batch", map[string]interface{}{"events": events})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Results []struct {
			Score int `json:"score"`
		} `json:"results"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, 30, resp.Results[0].Score)
	assert.Equal(t, 0, resp.Results[1].Score)
}

func TestRouter_ScoreBatchLimits(t *testing.T) {
	env := setupRouter(t, 1000)

	w := env.do(t, http.MethodPost, "/api/v1/risk/score/batch", map[string]interface{}{
		"events": []map[string]interface{}{},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	oversized := make([]map[string]interface{}, 101)
	for i := range oversized {
		oversized[i] = scoreBody(uuid.New(), "10")
	}
	w = env.do(t, http.MethodPost, "/api/v1/risk/score/batch", map[string]interface{}{"events": oversized})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func flagCase(t *testing.T, env *testEnv, subjectID uuid.UUID, level risk.Level) uuid.UUID {
	t.Helper()
	id, err := env.tracker.Flag(context.Background(), risk.Event{
		SubjectID:  subjectID,
		Kind:       risk.KindTransaction,
		Amount:     decimal.NewFromInt(60000),
		OccurredAt: env.clock.Now(),
	}, 75, level, "HIGH_AMOUNT", "flagged for review")
	require.NoError(t, err)
	return id
}

func TestRouter_CaseLifecycle(t *testing.T) {
	env := setupRouter(t, 100)
	subjectID := uuid.New()
	caseID := flagCase(t, env, subjectID, risk.LevelHigh)

	w := env.do(t, http.MethodGet, "/api/v1/risk/cases/"+caseID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var caseResp struct {
		Status    string `json:"status"`
		SubjectID string `json:"subject_id"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&caseResp))
	assert.Equal(t, "PENDING_REVIEW", caseResp.Status)
	assert.Equal(t, subjectID.String(), caseResp.SubjectID)

	w = env.do(t, http.MethodPost, "/api/v1/risk/cases/"+caseID.String()+"/report",
		map[string]string{"notes": "escalated"})
	require.Equal(t, http.StatusOK, w.Code)

	// Reported is terminal: a second transition conflicts
	w = env.do(t, http.MethodPost, "/api/v1/risk/cases/"+caseID.String()+"/resolve",
		map[string]interface{}{"notes": "x", "resolved_by": "analyst", "is_false_positive": true})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRouter_ResolveCase(t *testing.T) {
	env := setupRouter(t, 100)
	caseID := flagCase(t, env, uuid.New(), risk.LevelMedium)

	w := env.do(t, http.MethodPost, "/api/v1/risk/cases/"+caseID.String()+"/resolve",
		map[string]interface{}{"notes": "customer confirmed", "resolved_by": "analyst-1", "is_false_positive": false})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "CONFIRMED_FRAUD", resp.Status)
}

func TestRouter_CaseNotFound(t *testing.T) {
	env := setupRouter(t, 100)

	w := env.do(t, http.MethodGet, "/api/v1/risk/cases/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/risk/cases/garbage", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_ListCases(t *testing.T) {
	env := setupRouter(t, 100)
	subjectID := uuid.New()
	flagCase(t, env, subjectID, risk.LevelHigh)
	flagCase(t, env, subjectID, risk.LevelMedium)
	flagCase(t, env, uuid.New(), risk.LevelHigh)

	w := env.do(t, http.MethodGet, "/api/v1/risk/cases?customer_id="+subjectID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Cases []json.RawMessage `json:"cases"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.Cases, 2)

	w = env.do(t, http.MethodGet, "/api/v1/risk/cases?level=high", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp.Cases = nil
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.Cases, 2)

	w = env.do(t, http.MethodGet, "/api/v1/risk/cases?level=catastrophic", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/risk/cases", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_CustomerAssessment(t *testing.T) {
	env := setupRouter(t, 100)
	subjectID := uuid.New()
	for i := 0; i < 3; i++ {
		flagCase(t, env, subjectID, risk.LevelHigh)
	}

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/risk/customers/%s/assessment", subjectID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Level      string `json:"level"`
		TotalCases int    `json:"total_cases"`
		HighCases  int    `json:"high_cases"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "high", resp.Level)
	assert.Equal(t, 3, resp.TotalCases)
	assert.Equal(t, 3, resp.HighCases)
}

func TestRouter_OtpAuthenticatorFlow(t *testing.T) {
	env := setupRouter(t, 100)
	userID := uuid.New()

	w := env.do(t, http.MethodPost, "/api/v1/otp/request", map[string]string{
		"user_id":     userID.String(),
		"channel":     "GOOGLE_AUTHENTICATOR",
		"destination": "user@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var genResp struct {
		Sent   bool   `json:"sent"`
		Secret string `json:"secret"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&genResp))
	assert.False(t, genResp.Sent)
	require.NotEmpty(t, genResp.Secret)

	code, err := totp.GenerateCodeCustom(genResp.Secret, env.clock.Now(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    potp.DigitsSix,
		Algorithm: potp.AlgorithmSHA1,
	})
	require.NoError(t, err)

	w = env.do(t, http.MethodPost, "/api/v1/otp/verify", map[string]string{
		"user_id": userID.String(),
		"code":    code,
		"channel": "GOOGLE_AUTHENTICATOR",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var verifyResp struct {
		Verified bool `json:"verified"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&verifyResp))
	assert.True(t, verifyResp.Verified)
}

func TestRouter_OtpValidation(t *testing.T) {
	env := setupRouter(t, 100)

	w := env.do(t, http.MethodPost, "/api/v1/otp/request", map[string]string{
		"user_id": "nope",
		"channel": "SMS",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/otp/request", map[string]string{
		"user_id":     uuid.New().String(),
		"channel":     "FAX",
		"destination": "x",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// SMS without a destination
	w = env.do(t, http.MethodPost, "/api/v1/otp/request", map[string]string{
		"user_id": uuid.New().String(),
		"channel": "SMS",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_Health(t *testing.T) {
	env := setupRouter(t, 100)

	w := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status   string            `json:"status"`
		Services map[string]string `json:"services"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "disabled", resp.Services["database"])

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/ready", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/live", nil).Code)
}

func TestRouter_Metrics(t *testing.T) {
	env := setupRouter(t, 100)

	w := env.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_CorsPreflight(t *testing.T) {
	env := setupRouter(t, 100)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/risk/score", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
