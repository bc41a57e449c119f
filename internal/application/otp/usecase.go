// Package otp wires the OTP verifier to the request boundary.
package otp

import (
	"context"

	"github.com/google/uuid"

	"credit-risk-core/internal/application/dto"
	"credit-risk-core/internal/domain/otp"
	"credit-risk-core/internal/pkg/metrics"
)

// UseCase exposes OTP issuance and verification to the transport layer
type UseCase struct {
	verifier *otp.Verifier
}

// NewUseCase creates the OTP use case
func NewUseCase(verifier *otp.Verifier) *UseCase {
	return &UseCase{verifier: verifier}
}

// Request issues a code for the user on the requested channel
func (u *UseCase) Request(ctx context.Context, userID uuid.UUID, channel otp.Channel, destination string) (*dto.OtpGenerateResponse, error) {
	code, err := u.verifier.Generate(ctx, userID, channel, destination)
	if err != nil {
		return nil, err
	}

	resp := &dto.OtpGenerateResponse{Sent: true}
	if channel == otp.ChannelGoogleAuthenticator {
		// Enrollment returns the secret for provisioning
		resp.Secret = code
		resp.Sent = false
	}
	return resp, nil
}

// Verify checks a submitted code. A mismatch is a normal negative
// result, never an error.
func (u *UseCase) Verify(ctx context.Context, userID uuid.UUID, code string, channel otp.Channel) (*dto.OtpVerifyResponse, error) {
	ok, err := u.verifier.Verify(ctx, userID, code, channel)
	if err != nil {
		return nil, err
	}

	outcome := "failed"
	if ok {
		outcome = "verified"
	}
	metrics.OtpVerifications.WithLabelValues(string(channel), outcome).Inc()

	return &dto.OtpVerifyResponse{Verified: ok}, nil
}
