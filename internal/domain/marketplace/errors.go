package marketplace

import "errors"

var (
	// Adapter errors
	ErrNotConfigured   = errors.New("marketplace: marketplace not configured")
	ErrNotEnabled      = errors.New("marketplace: marketplace not enabled")
	ErrUnavailable     = errors.New("marketplace: marketplace temporarily unavailable")
	ErrRequestFailed   = errors.New("marketplace: marketplace request failed")
	ErrInvalidResponse = errors.New("marketplace: invalid marketplace response")
	ErrAuthFailed      = errors.New("marketplace: marketplace authentication failed")
	ErrRateLimited     = errors.New("marketplace: marketplace rate limited")

	// Mapper errors
	ErrMapperNotRegistered = errors.New("marketplace: no product mapper registered for marketplace")
	ErrUnmappableRecord    = errors.New("marketplace: record is missing required identity fields")
)
