package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidStrategy    = errors.New("invalid strategy")
	ErrInvalidRiskProfile = errors.New("invalid risk profile")
	ErrInvalidAllocation  = errors.New("invalid allocation")
)
