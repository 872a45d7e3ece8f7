// Package validation verifies a signed auction audit trail off-line: it
// checks the operator's COSE signature, replays the records, and confirms the
// invariants that make the published outcome trustworthy without access to
// engine state.
package validation

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cloudx-io/bondauction/auctionapi"
	"github.com/cloudx-io/bondauction/core"
)

// AuditValidationInput contains everything needed to validate a signed trail.
type AuditValidationInput struct {
	SignedTrail       []byte            // COSE Sign1 message over the CBOR trail
	OperatorPublicKey *ecdsa.PublicKey  // operator's trail-signing key
	BondSupply        decimal.Decimal   // published auction parameters
	MinPrice          decimal.Decimal
	MaxPrice          decimal.Decimal
}

// AuditValidationResult carries per-check outcomes. Call IsValid for the
// overall status; ValidationDetails explains each failure.
type AuditValidationResult struct {
	SignatureValid     bool
	CommitmentsValid   bool
	PricesInBounds     bool
	ClearingPriceValid bool
	SupplyConserved    bool
	PaymentsValid      bool

	Records           []auctionapi.AuditRecord
	ValidationDetails []string
}

// IsValid reports whether every check passed.
func (r *AuditValidationResult) IsValid() bool {
	return r.SignatureValid &&
		r.CommitmentsValid &&
		r.PricesInBounds &&
		r.ClearingPriceValid &&
		r.SupplyConserved &&
		r.PaymentsValid
}

func (r *AuditValidationResult) detail(format string, args ...any) {
	r.ValidationDetails = append(r.ValidationDetails, fmt.Sprintf(format, args...))
}

// ValidateAuditTrail verifies the trail signature and replays the records:
//   - every reveal re-derives the stored commitment exactly
//   - every revealed price is within the published bounds
//   - the clearing price is within bounds
//   - claimed allocations sum to at most the reported total, which is at most
//     the bond supply (floor-division dust may leave the sum short)
//   - every claim payment equals allocation * clearingPrice / scale
func ValidateAuditTrail(input *AuditValidationInput) (*AuditValidationResult, error) {
	if input == nil || input.OperatorPublicKey == nil {
		return nil, fmt.Errorf("operator public key is required")
	}

	result := &AuditValidationResult{
		CommitmentsValid:   true,
		PricesInBounds:     true,
		ClearingPriceValid: true,
		SupplyConserved:    true,
		PaymentsValid:      true,
	}

	records, err := auctionapi.VerifyTrail(input.SignedTrail, input.OperatorPublicKey)
	if err != nil {
		result.detail("Signature verification failed: %v", err)
		return result, nil
	}
	result.SignatureValid = true
	result.Records = records

	commitments := make(map[string]string)
	clearingPrice := decimal.Zero
	finalized := false
	claimedTotal := decimal.Zero
	totalAllocated := decimal.Zero

	for i, rec := range records {
		switch rec.Type {
		case string(core.EventBidCommitted):
			commitments[rec.Bidder] = rec.Commitment

		case string(core.EventBidRevealed):
			price, quantity, ok := parseAmounts(result, i, rec.Price, rec.Quantity)
			if !ok {
				result.CommitmentsValid = false
				continue
			}
			stored, hasCommitment := commitments[rec.Bidder]
			if !hasCommitment {
				result.CommitmentsValid = false
				result.detail("Record %d: reveal by %s without a prior commitment", i, rec.Bidder)
				continue
			}
			if core.ComputeBidCommitment(rec.Bidder, price, quantity, rec.Salt) != stored {
				result.CommitmentsValid = false
				result.detail("Record %d: reveal by %s does not re-derive its commitment", i, rec.Bidder)
			}
			if price.LessThan(input.MinPrice) || price.GreaterThan(input.MaxPrice) {
				result.PricesInBounds = false
				result.detail("Record %d: price %s outside [%s, %s]", i, price, input.MinPrice, input.MaxPrice)
			}

		case string(core.EventAuctionFinalized):
			if finalized {
				result.ClearingPriceValid = false
				result.detail("Record %d: duplicate finalization record", i)
				continue
			}
			finalized = true
			cp, ta, ok := parseAmounts(result, i, rec.ClearingPrice, rec.TotalAllocated)
			if !ok {
				result.ClearingPriceValid = false
				continue
			}
			clearingPrice = cp
			totalAllocated = ta
			if cp.LessThan(input.MinPrice) || cp.GreaterThan(input.MaxPrice) {
				result.ClearingPriceValid = false
				result.detail("Record %d: clearing price %s outside [%s, %s]", i, cp, input.MinPrice, input.MaxPrice)
			}
			if ta.GreaterThan(input.BondSupply) {
				result.SupplyConserved = false
				result.detail("Record %d: total allocated %s exceeds supply %s", i, ta, input.BondSupply)
			}

		case string(core.EventTokensClaimed):
			if !finalized {
				result.PaymentsValid = false
				result.detail("Record %d: claim by %s before finalization", i, rec.Bidder)
				continue
			}
			allocation, payment, ok := parseAmounts(result, i, rec.Allocation, rec.Payment)
			if !ok {
				result.PaymentsValid = false
				continue
			}
			expected, _ := allocation.Mul(clearingPrice).QuoRem(core.Scale, 0)
			if !payment.Equal(expected) {
				result.PaymentsValid = false
				result.detail("Record %d: claim payment %s, expected %s", i, payment, expected)
			}
			claimedTotal = claimedTotal.Add(allocation)
		}
	}

	if finalized && claimedTotal.GreaterThan(totalAllocated) {
		result.SupplyConserved = false
		result.detail("Claimed allocations %s exceed total allocated %s", claimedTotal, totalAllocated)
	}

	return result, nil
}

func parseAmounts(result *AuditValidationResult, index int, a, b string) (decimal.Decimal, decimal.Decimal, bool) {
	da, err := decimal.NewFromString(a)
	if err != nil {
		result.detail("Record %d: malformed amount %q: %v", index, a, err)
		return decimal.Zero, decimal.Zero, false
	}
	db, err := decimal.NewFromString(b)
	if err != nil {
		result.detail("Record %d: malformed amount %q: %v", index, b, err)
		return decimal.Zero, decimal.Zero, false
	}
	return da, db, true
}
