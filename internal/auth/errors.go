package auth

import "errors"

var (
	ErrNotFound     = errors.New("auth: not found")
	ErrInvalidInput = errors.New("auth: invalid input")
	ErrUnauthorized = errors.New("auth: unauthorized")

	// Credential verification failures. All three surface as
	// "unauthenticated" at the gateway but are distinguished for logging.
	ErrInvalidSignature = errors.New("auth: invalid token signature")
	ErrExpiredToken     = errors.New("auth: token expired")
	ErrMalformedToken   = errors.New("auth: malformed token")
)
