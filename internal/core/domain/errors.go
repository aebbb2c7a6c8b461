package domain

import "errors"

// Engine error kinds. Validation errors are raised before any computation
// starts; ErrComputationFailed wraps failures of the asynchronous steps.
var (
	ErrInvalidGeoPoint       = errors.New("geo point out of range")
	ErrInvalidTrafficFactor  = errors.New("traffic factor must be greater than zero")
	ErrComputationFailed     = errors.New("route computation failed")
	ErrNoFacilitiesAvailable = errors.New("no facilities available")
)
