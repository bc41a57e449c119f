package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"credit-risk-core/internal/application/dto"
	otpapp "credit-risk-core/internal/application/otp"
	"credit-risk-core/internal/domain/otp"
)

// OtpHandler handles OTP issuance and verification requests
type OtpHandler struct {
	usecase *otpapp.UseCase
}

// NewOtpHandler creates a new OTP handler
func NewOtpHandler(usecase *otpapp.UseCase) *OtpHandler {
	return &OtpHandler{usecase: usecase}
}

// Request handles POST /api/v1/otp/request
func (h *OtpHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req dto.OtpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	userID, err := req.Validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.usecase.Request(r.Context(), userID, otp.Channel(req.Channel), req.Destination)
	if err != nil {
		switch {
		case errors.Is(err, otp.ErrInvalidChannel):
			writeError(w, http.StatusBadRequest, "Invalid channel")
		case errors.Is(err, otp.ErrMissingContact):
			writeError(w, http.StatusBadRequest, "Destination is required")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to issue code: "+err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Verify handles POST /api/v1/otp/verify
func (h *OtpHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req dto.OtpVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	userID, err := req.Validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.usecase.Verify(r.Context(), userID, req.Code, otp.Channel(req.Channel))
	if err != nil {
		if errors.Is(err, otp.ErrInvalidChannel) {
			writeError(w, http.StatusBadRequest, "Invalid channel")
			return
		}
		writeError(w, http.StatusInternalServerError, "Verification failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
