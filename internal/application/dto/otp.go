package dto

import (
	"errors"

	"github.com/google/uuid"
)

// OtpRequest asks for a code on a channel. Destination is the phone
// number or email address; for authenticator enrollment it is the
// account label shown in the app.
type OtpRequest struct {
	UserID      string `json:"user_id"`
	Channel     string `json:"channel"`
	Destination string `json:"destination"`
}

// Validate checks the request and parses the user id
func (r *OtpRequest) Validate() (uuid.UUID, error) {
	userID, err := uuid.Parse(r.UserID)
	if err != nil {
		return uuid.Nil, errors.New("invalid user_id")
	}
	if r.Channel == "" {
		return uuid.Nil, errors.New("channel is required")
	}
	return userID, nil
}

// OtpVerifyRequest submits a code for verification
type OtpVerifyRequest struct {
	UserID  string `json:"user_id"`
	Code    string `json:"code"`
	Channel string `json:"channel"`
}

// Validate checks the request and parses the user id
func (r *OtpVerifyRequest) Validate() (uuid.UUID, error) {
	userID, err := uuid.Parse(r.UserID)
	if err != nil {
		return uuid.Nil, errors.New("invalid user_id")
	}
	if r.Code == "" {
		return uuid.Nil, errors.New("code is required")
	}
	if r.Channel == "" {
		return uuid.Nil, errors.New("channel is required")
	}
	return userID, nil
}

// OtpVerifyResponse reports the verification outcome
type OtpVerifyResponse struct {
	Verified bool `json:"verified"`
}

// OtpGenerateResponse reports issuance. Secret is only set for
// authenticator enrollment; SMS/EMAIL codes never leave the channel.
type OtpGenerateResponse struct {
	Sent   bool   `json:"sent"`
	Secret string `json:"secret,omitempty"`
}
