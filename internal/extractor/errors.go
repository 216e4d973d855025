package extractor

import "errors"

var (
	// ErrTransient marks failures worth retrying: rate limits, server
	// errors, network failures and per-call timeouts.
	ErrTransient = errors.New("extractor transient failure")
	// ErrPermanent marks failures that retrying will not fix.
	ErrPermanent = errors.New("extractor permanent failure")
	// ErrUnavailable is returned when no model backend is configured.
	ErrUnavailable = errors.New("extractor unavailable")
	// ErrParseResponse is returned when a model reply holds no usable JSON.
	ErrParseResponse = errors.New("failed to parse model response")
)
