package handler

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"credit-risk-core/internal/application/dto"
	riskapp "credit-risk-core/internal/application/risk"
	"credit-risk-core/internal/domain/risk"
)

const maxBatchSize = 100

// RiskHandler handles risk scoring and case review HTTP requests
type RiskHandler struct {
	scoring riskapp.Service
	tracker *risk.Tracker
}

// NewRiskHandler creates a new risk handler
func NewRiskHandler(scoring riskapp.Service, tracker *risk.Tracker) *RiskHandler {
	return &RiskHandler{scoring: scoring, tracker: tracker}
}

// ScoreEvent handles POST /api/v1/risk/score
func (h *RiskHandler) ScoreEvent(w http.ResponseWriter, r *http.Request) {
	var req dto.ScoreEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	event, err := req.ToEvent()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.scoring.ScoreEvent(r.Context(), riskapp.ScoreEventInput{
		Event:     *event,
		ClientKey: ClientKey(r),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Scoring failed: "+err.Error())
		return
	}

	if result.Throttled {
		writeJSON(w, http.StatusTooManyRequests, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ScoreBatch handles POST /api/v1/risk/score/batch
func (h *RiskHandler) ScoreBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Events []dto.ScoreEventRequest `json:"events"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.Events) == 0 {
		writeError(w, http.StatusBadRequest, "No events provided")
		return
	}
	if len(req.Events) > maxBatchSize {
		writeError(w, http.StatusBadRequest, "Maximum 100 events per batch")
		return
	}

	clientKey := ClientKey(r)
	inputs := make([]riskapp.ScoreEventInput, 0, len(req.Events))
	for _, eventReq := range req.Events {
		event, err := eventReq.ToEvent()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid event: "+err.Error())
			return
		}
		inputs = append(inputs, riskapp.ScoreEventInput{Event: *event, ClientKey: clientKey})
	}

	results, err := h.scoring.ScoreBatch(r.Context(), inputs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Batch scoring failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// GetCase handles GET /api/v1/risk/cases/{id}
func (h *RiskHandler) GetCase(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	c, err := h.tracker.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, risk.ErrCaseNotFound) {
			writeError(w, http.StatusNotFound, "Case not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get case: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dto.FromCase(c))
}

// ListCases handles GET /api/v1/risk/cases with filters: customer_id,
// level, amount_above
func (h *RiskHandler) ListCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		cases []*risk.SuspiciousCase
		err   error
	)
	switch {
	case q.Get("customer_id") != "":
		var subjectID uuid.UUID
		subjectID, err = uuid.Parse(q.Get("customer_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid customer_id")
			return
		}
		cases, err = h.tracker.ByCustomer(r.Context(), subjectID)
	case q.Get("level") != "":
		cases, err = h.tracker.ByRiskLevel(r.Context(), risk.Level(q.Get("level")))
		if errors.Is(err, risk.ErrInvalidLevel) {
			writeError(w, http.StatusBadRequest, "Invalid level")
			return
		}
	case q.Get("amount_above") != "":
		var threshold decimal.Decimal
		threshold, err = decimal.NewFromString(q.Get("amount_above"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid amount_above")
			return
		}
		cases, err = h.tracker.ByAmountAbove(r.Context(), threshold)
	default:
		writeError(w, http.StatusBadRequest, "One of customer_id, level or amount_above is required")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list cases: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"cases": dto.FromCases(cases)})
}

// ReportCase handles POST /api/v1/risk/cases/{id}/report
func (h *RiskHandler) ReportCase(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req dto.ReportCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.tracker.Report(r.Context(), id, req.Notes); err != nil {
		writeCaseTransitionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(risk.CaseStatusReported)})
}

// ResolveCase handles POST /api/v1/risk/cases/{id}/resolve
func (h *RiskHandler) ResolveCase(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req dto.ResolveCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.tracker.Resolve(r.Context(), id, req.Notes, req.ResolvedBy, req.IsFalsePositive); err != nil {
		writeCaseTransitionError(w, err)
		return
	}

	status := risk.CaseStatusConfirmedFraud
	if req.IsFalsePositive {
		status = risk.CaseStatusFalsePositive
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

// AssessCustomer handles GET /api/v1/risk/customers/{id}/assessment
func (h *RiskHandler) AssessCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	assessment, err := h.tracker.AssessCustomer(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to assess customer: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dto.CustomerAssessmentResponse{
		SubjectID:   assessment.SubjectID,
		Level:       string(assessment.Level),
		TotalCases:  assessment.TotalCases,
		HighCases:   assessment.HighCases,
		MediumCases: assessment.MediumCases,
	})
}

// ClientKey derives the rate limit key: API key when present, else the
// client network address.
func ClientKey(r *http.Request) string {
	if apiKey := r.Header.Get("X-Api-Key"); apiKey != "" {
		return "key:" + apiKey
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "addr:" + r.RemoteAddr
	}
	return "addr:" + host
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := r.PathValue("id")
	if idStr == "" {
		writeError(w, http.StatusBadRequest, "ID is required")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ID")
		return uuid.Nil, false
	}
	return id, true
}

func writeCaseTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, risk.ErrCaseNotFound):
		writeError(w, http.StatusNotFound, "Case not found")
	case errors.Is(err, risk.ErrInvalidCaseStatus):
		writeError(w, http.StatusConflict, "Case is not pending review")
	default:
		writeError(w, http.StatusInternalServerError, "Case update failed: "+err.Error())
	}
}
