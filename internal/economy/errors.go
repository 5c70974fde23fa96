package economy

import (
	"errors"
	"fmt"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Every economic operation is all-or-nothing: when one of these is returned,
// no account, production rate, or researched set has changed.

var (
	// Transactions
	ErrInsufficientResources  = errors.New("insufficient resources")
	ErrInsufficientTechPoints = fmt.Errorf("insufficient technology points: %w", ErrInsufficientResources)
	ErrUnknownResource        = errors.New("unknown resource")
	ErrNegativeAmount         = errors.New("amount must not be negative")

	// Catalog lookups
	ErrUnknownBuilding   = errors.New("unknown building")
	ErrUnknownTechnology = errors.New("unknown technology")
	ErrUnknownUpgrade    = errors.New("unknown upgrade")

	// Research
	ErrPrerequisitesUnmet = errors.New("prerequisites not met")
	ErrAlreadyResearched  = errors.New("technology already researched")
)
