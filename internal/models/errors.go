package models

import "errors"

// Custom errors
var (
	ErrUnknownLeague    = errors.New("league not present in configuration")
	ErrMalformedEvent   = errors.New("event record is missing required fields")
	ErrProbabilityRange = errors.New("probability outside (0,1)")
)
