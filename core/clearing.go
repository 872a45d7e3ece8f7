package core

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// clearingBid pairs a registry position with its bid for the clearing walk.
type clearingBid struct {
	bidder string
	bid    *Bid
}

// clearingResult is the write-once output of a clearing run.
type clearingResult struct {
	clearingPrice  decimal.Decimal
	totalAllocated decimal.Decimal
	allocations    map[string]decimal.Decimal
}

// Finalize computes the clearing price and allocations. Operator only,
// callable exactly once: permitted while the auction is in the reveal phase,
// or still in the commit phase once the reveal deadline has passed (nobody
// ever revealed). The transition to finalized makes repeat calls fail the
// phase check.
func (a *Auction) Finalize(caller string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if caller != a.operator {
		return fmt.Errorf("finalize by %s: %w", caller, ErrUnauthorized)
	}
	now := a.now()
	switch a.state {
	case PhaseReveal:
		// Open.
	case PhaseCommit:
		if now.Before(a.revealDeadline) {
			return fmt.Errorf("finalize before reveal deadline with no reveals: %w", ErrPhaseViolation)
		}
	default:
		return fmt.Errorf("finalize in phase %s: %w", a.state, ErrPhaseViolation)
	}

	ordered := make([]clearingBid, 0, len(a.bidders))
	for _, bidder := range a.bidders {
		ordered = append(ordered, clearingBid{bidder: bidder, bid: a.bids[bidder]})
	}

	result := clearBids(ordered, a.params.BondSupply, a.params.MinPrice)

	for bidder, allocation := range result.allocations {
		a.bids[bidder].Allocation = allocation
	}
	a.clearingPrice = result.clearingPrice
	a.totalAllocated = result.totalAllocated
	a.state = PhaseFinalized

	a.emit(Event{
		Kind:           EventAuctionFinalized,
		ClearingPrice:  a.clearingPrice,
		TotalAllocated: a.totalAllocated,
	})
	return nil
}

// clearBids runs the uniform-price clearing algorithm over bids already in
// registry (commit) order.
//
// The ordering is by descending revealed price with the registry order kept
// among equal prices; unrevealed bids carry an implicit price of zero and
// sort last. The walk grants full allocations while supply lasts. At the
// first bidder whose demand exceeds the remaining supply, that bidder's price
// becomes the marginal price and every revealed bidder from that position
// onward with exactly the marginal price shares the remainder pro rata by
// floor division. Equal-priced bidders already granted in full before that
// point are not revisited: the split at the margin is deliberately
// order-dependent, and changing it would change observable outcomes.
func clearBids(ordered []clearingBid, supply, minPrice decimal.Decimal) clearingResult {
	sort.SliceStable(ordered, func(i, j int) bool {
		return effectivePrice(ordered[i].bid).GreaterThan(effectivePrice(ordered[j].bid))
	})

	remaining := supply
	marginalPrice := minPrice
	marginalDemand := decimal.Zero
	var marginalGroup []clearingBid
	allocations := make(map[string]decimal.Decimal, len(ordered))

	for i := 0; i < len(ordered); i++ {
		entry := ordered[i]
		if !entry.bid.Revealed {
			continue
		}

		if remaining.GreaterThanOrEqual(entry.bid.Quantity) {
			allocations[entry.bidder] = entry.bid.Quantity
			remaining = remaining.Sub(entry.bid.Quantity)
			marginalPrice = entry.bid.Price
			continue
		}

		// Demand exceeds the remaining supply here. Collect the marginal
		// group scanning forward from the current position only.
		marginalPrice = entry.bid.Price
		for j := i; j < len(ordered); j++ {
			tied := ordered[j]
			if !tied.bid.Revealed {
				continue
			}
			if tied.bid.Price.Equal(marginalPrice) {
				marginalGroup = append(marginalGroup, tied)
				marginalDemand = marginalDemand.Add(tied.bid.Quantity)
			}
		}
		break
	}

	if marginalDemand.IsPositive() && remaining.IsPositive() {
		for _, entry := range marginalGroup {
			allocations[entry.bidder] = floorDiv(entry.bid.Quantity.Mul(remaining), marginalDemand)
		}
		// The marginal group consumes the remainder in full for reporting
		// purposes; floor division may leave the summed allocations short by
		// a small amount of dust, and totalAllocated is not reduced for it.
		remaining = decimal.Zero
	}

	return clearingResult{
		clearingPrice:  marginalPrice,
		totalAllocated: supply.Sub(remaining),
		allocations:    allocations,
	}
}

// effectivePrice treats unrevealed bids as price zero so they sort last.
func effectivePrice(bid *Bid) decimal.Decimal {
	if !bid.Revealed {
		return decimal.Zero
	}
	return bid.Price
}

// floorDiv is exact integer floor division for non-negative decimals.
func floorDiv(a, b decimal.Decimal) decimal.Decimal {
	q, _ := a.QuoRem(b, 0)
	return q
}
