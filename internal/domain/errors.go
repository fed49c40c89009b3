package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrContentRejected  = errors.New("content rejected")
	ErrQuotaExceeded    = errors.New("quota exceeded")
	ErrProviderFailure  = errors.New("provider failure")
	ErrResponseTooLarge = errors.New("response too large")
	ErrJobTimeout       = errors.New("job timed out")
)
