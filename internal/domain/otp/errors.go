package otp

import "errors"

var (
	ErrRecordNotFound  = errors.New("otp record not found")
	ErrSecretNotFound  = errors.New("authenticator secret not found")
	ErrInvalidChannel  = errors.New("invalid otp channel")
	ErrMissingContact  = errors.New("destination address is required")
	ErrGenerateFailed  = errors.New("failed to generate otp code")
)
