package core

import (
	"fmt"
)

// Claim settles a winning bid: it pulls the payment into escrow, then mints
// the allocated instrument quantity to the bidder. Valid only once finalized
// and before the claim deadline. The payment is allocation * clearingPrice
// scaled back down by Scale. The claimed flag is set before the mint call so
// a re-entrant caller cannot claim twice between the pull and the mint.
func (a *Auction) Claim(bidder string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	if a.state != PhaseFinalized || !now.Before(a.claimDeadline) {
		return fmt.Errorf("claim in phase %s at %s: %w", a.state, now.Format(timeFormat), ErrPhaseViolation)
	}

	bid, ok := a.bids[bidder]
	if !ok || !bid.Revealed || !bid.Allocation.IsPositive() {
		return fmt.Errorf("bidder %s: %w", bidder, ErrNoAllocation)
	}
	if bid.Claimed {
		return fmt.Errorf("bidder %s: %w", bidder, ErrAlreadyClaimed)
	}

	payment := floorDiv(bid.Allocation.Mul(a.clearingPrice), Scale)

	// A zero payment is possible when the auction clears at a zero minimum
	// price; there is nothing to pull in that case.
	if payment.IsPositive() {
		if err := a.payment.TransferFrom(bidder, payment); err != nil {
			return fmt.Errorf("collect %s from %s: %v: %w", payment, bidder, err, ErrTransferFailed)
		}
	}

	bid.Claimed = true

	if err := a.instrument.Mint(bidder, bid.Allocation); err != nil {
		return fmt.Errorf("mint %s to %s: %w", bid.Allocation, bidder, err)
	}

	a.emit(Event{
		Kind:       EventTokensClaimed,
		Bidder:     bidder,
		Allocation: bid.Allocation,
		Payment:    payment,
	})
	return nil
}

// WithdrawProceeds sweeps the entire escrowed payment balance to the
// operator. Operator only, valid once finalized. There is no partial
// withdrawal and no per-bidder accounting of proceeds.
func (a *Auction) WithdrawProceeds(caller string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if caller != a.operator {
		return fmt.Errorf("withdraw by %s: %w", caller, ErrUnauthorized)
	}
	if a.state != PhaseFinalized {
		return fmt.Errorf("withdraw in phase %s: %w", a.state, ErrPhaseViolation)
	}

	proceeds := a.payment.Balance()
	if proceeds.IsPositive() {
		if err := a.payment.Transfer(a.operator, proceeds); err != nil {
			return fmt.Errorf("sweep %s to operator: %v: %w", proceeds, err, ErrTransferFailed)
		}
	}

	a.emit(Event{
		Kind:     EventProceedsWithdrawn,
		Proceeds: proceeds,
	})
	return nil
}
