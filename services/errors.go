package services

import "errors"

// Sentinel errors shared across the engine services and the HTTP mapping.
// Three classes: invalid input, not found, conflict. All are per-request
// recoverable; no operation leaves partial state behind.
var (
	// Invalid input / precondition failures
	ErrNotEnoughParticipants = errors.New("at least 2 participants are required")
	ErrWrongPhaseType        = errors.New("operation not allowed for this phase type")
	ErrWinnerNotInMatch      = errors.New("winner is not a participant of this match")
	ErrSeriesNeedsTwo        = errors.New("a best-of-3 series requires exactly 2 participants")
	ErrInvalidRankPosition   = errors.New("manual rank position must be positive")

	// Not found
	ErrPhaseNotFound    = errors.New("phase not found")
	ErrMatchNotFound    = errors.New("match not found")
	ErrStandingNotFound = errors.New("standing not found")
	ErrNoFinalMatch     = errors.New("phase has no final match")

	// Conflicts
	ErrDuplicateRegistration = errors.New("duplicate registration in participant list")
	ErrPhaseAlreadyPopulated = errors.New("phase already has matches")
	ErrMatchAlreadyResolved  = errors.New("match is already resolved")
	ErrMatchCancelled        = errors.New("match is cancelled")
	ErrNoDeterminableWinner  = errors.New("match has no determinable winner")
	ErrBracketNotComplete    = errors.New("bracket is not complete yet")
)
