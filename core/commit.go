package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Commit records a binding commitment and its opaque ciphertext for a bidder.
// Valid only in the commit phase before the commit deadline. A bidder commits
// at most once; the ciphertext is stored verbatim and never interpreted.
func (a *Auction) Commit(bidder, commitment string, ciphertext []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	if a.state != PhaseCommit || !now.Before(a.commitDeadline) {
		return fmt.Errorf("commit in phase %s at %s: %w", a.state, now.Format(timeFormat), ErrPhaseViolation)
	}
	if a.allowlist != nil && !a.allowlist.IsAllowed(bidder) {
		return fmt.Errorf("bidder %s: %w", bidder, ErrNotAllowed)
	}
	if commitment == "" {
		return fmt.Errorf("bidder %s: %w", bidder, ErrEmptyCommitment)
	}
	if len(ciphertext) == 0 {
		return fmt.Errorf("bidder %s: %w", bidder, ErrEmptyCiphertext)
	}
	if existing, ok := a.bids[bidder]; ok && existing.Commitment != "" {
		return fmt.Errorf("bidder %s: %w", bidder, ErrAlreadyCommitted)
	}

	stored := make([]byte, len(ciphertext))
	copy(stored, ciphertext)
	a.bids[bidder] = &Bid{
		Commitment:   commitment,
		EncryptedBid: stored,
	}
	a.bidders = append(a.bidders, bidder)

	a.emit(Event{
		Kind:       EventBidCommitted,
		Bidder:     bidder,
		Commitment: commitment,
		Ciphertext: stored,
	})
	return nil
}

// Reveal discloses the true bid behind a prior commitment. Valid in the
// reveal phase, or in the commit phase once the commit deadline has passed;
// always rejected at or after the reveal deadline. The recomputed commitment
// must equal the stored one exactly; hash equality over the caller's own
// identity is the sole authentication mechanism. The first successful reveal
// advances the phase to reveal.
func (a *Auction) Reveal(bidder string, price, quantity decimal.Decimal, salt string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	if !now.Before(a.revealDeadline) {
		return fmt.Errorf("reveal at %s after reveal deadline: %w", now.Format(timeFormat), ErrPhaseViolation)
	}
	switch a.state {
	case PhaseReveal:
		// Open.
	case PhaseCommit:
		if now.Before(a.commitDeadline) {
			return fmt.Errorf("reveal before commit deadline: %w", ErrPhaseViolation)
		}
	default:
		return fmt.Errorf("reveal in phase %s: %w", a.state, ErrPhaseViolation)
	}

	bid, ok := a.bids[bidder]
	if !ok || bid.Commitment == "" {
		return fmt.Errorf("bidder %s: %w", bidder, ErrNoCommitment)
	}
	if bid.Revealed {
		return fmt.Errorf("bidder %s: %w", bidder, ErrAlreadyRevealed)
	}
	if price.LessThan(a.params.MinPrice) || price.GreaterThan(a.params.MaxPrice) {
		return fmt.Errorf("price %s outside [%s, %s]: %w",
			price, a.params.MinPrice, a.params.MaxPrice, ErrPriceOutOfRange)
	}
	if !quantity.IsPositive() {
		return fmt.Errorf("quantity %s: %w", quantity, ErrZeroQuantity)
	}
	if ComputeBidCommitment(bidder, price, quantity, salt) != bid.Commitment {
		return fmt.Errorf("bidder %s: %w", bidder, ErrCommitmentMismatch)
	}

	bid.Price = price
	bid.Quantity = quantity
	bid.Revealed = true

	// First successful reveal advances the phase.
	if a.state == PhaseCommit {
		a.state = PhaseReveal
	}

	a.emit(Event{
		Kind:     EventBidRevealed,
		Bidder:   bidder,
		Price:    price,
		Quantity: quantity,
		Salt:     salt,
	})
	return nil
}

const timeFormat = "2006-01-02T15:04:05Z07:00"
