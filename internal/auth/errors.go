package auth

import "errors"

var (
	// ErrMalformedSegment is returned when a token segment is not canonical base64url.
	ErrMalformedSegment = errors.New("malformed token segment")
	// ErrInvalidFormat covers tokens without three segments or with undecodable claims.
	ErrInvalidFormat = errors.New("invalid token format")
	// ErrInvalidSignature is returned when the recomputed signature differs.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrExpired is returned once exp lies in the past.
	ErrExpired = errors.New("token expired")
	// ErrMissingSecret is returned when signing is attempted without a key.
	ErrMissingSecret = errors.New("signing secret not configured")
)
