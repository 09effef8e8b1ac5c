package domain

import "errors"

var (
	// ErrNotFound is returned by stores when a row is absent.
	ErrNotFound = errors.New("not found")
	// ErrTenantNotFound means the tenant slug did not resolve.
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrInvalidConfig means a chain option has the wrong shape.
	ErrInvalidConfig = errors.New("invalid chain config")
	// ErrInsufficientResearch stops generation when no facts exist.
	ErrInsufficientResearch = errors.New("insufficient research data")
	// ErrPublishFailed wraps a publisher failure after retries.
	ErrPublishFailed = errors.New("publish failed")
)
