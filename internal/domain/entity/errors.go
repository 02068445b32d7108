package entity

import "errors"

// Standard domain errors. Handlers map these to HTTP error codes.
var (
	ErrInvalidKeyword   = errors.New("keyword must be between 1 and 30 characters")
	ErrRateLimited      = errors.New("rate limit exceeded: too many requests from this address")
	ErrMissingConfig    = errors.New("generation is not configured")
	ErrGenerationFailed = errors.New("trivia generation failed for all configured models")
	ErrUnauthorized     = errors.New("admin session is missing or expired")
)
