package core

import "errors"

// Every rejection leaves all ledgers exactly as they were before the call.
var (
	// Phase/timing violations.
	ErrPhaseViolation = errors.New("operation not valid in current phase or time window")

	// Commitment ledger violations.
	ErrAlreadyCommitted = errors.New("bidder already committed")
	ErrEmptyCommitment  = errors.New("commitment must not be empty")
	ErrEmptyCiphertext  = errors.New("encrypted bid must not be empty")
	ErrNotAllowed       = errors.New("bidder is not on the allowlist")

	// Reveal violations.
	ErrNoCommitment       = errors.New("no commitment recorded for bidder")
	ErrCommitmentMismatch = errors.New("revealed bid does not match commitment")
	ErrPriceOutOfRange    = errors.New("price outside auction bounds")
	ErrZeroQuantity       = errors.New("quantity must be positive")
	ErrAlreadyRevealed    = errors.New("bid already revealed")

	// Settlement violations.
	ErrNoAllocation   = errors.New("no allocation to claim")
	ErrAlreadyClaimed = errors.New("allocation already claimed")
	ErrTransferFailed = errors.New("payment transfer failed")

	// Authorization violations.
	ErrUnauthorized = errors.New("caller is not the auction operator")

	// Initialization violations.
	ErrInvalidParams = errors.New("invalid auction parameters")
)
