package models

import "errors"

// Application-wide standard errors
var (
	// Project collection
	ErrGameNotFound   = errors.New("game not found")
	ErrNotInitialized = errors.New("game collection not initialized")

	// Editor invariants
	ErrLastFile        = errors.New("cannot remove the last remaining file")
	ErrFileNotFound    = errors.New("file not found in project")
	ErrSessionNotFound = errors.New("editor session not found")
	ErrResizeBusy      = errors.New("another panel resize is already active")
	ErrExchangeBusy    = errors.New("a copilot exchange is already in flight")

	// Wizard
	ErrWizardNotFound = errors.New("wizard session not found")
	ErrStepGate       = errors.New("step requirements not met")
	ErrSpecRequired   = errors.New("specification has not been synthesized")

	// Forge
	ErrForgeNotFound = errors.New("forge run not found")

	// Auth
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrTokenInvalid       = errors.New("token is invalid")
	ErrTokenExpired       = errors.New("token has expired")

	// General
	ErrInvalidInput = errors.New("invalid input data")
)
