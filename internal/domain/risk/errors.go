package risk

import "errors"

var (
	// Case errors
	ErrCaseNotFound      = errors.New("suspicious case not found")
	ErrInvalidCaseStatus = errors.New("case is not pending review")

	// Scoring errors
	ErrMissingSubject = errors.New("event subject id is required")
	ErrInvalidLevel   = errors.New("invalid risk level")
)
