package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Scale is the fixed-point scale shared by prices and quantities.
// All amounts are integers at 18 decimal places, so a clearing payment of
// allocation * price must be divided back down by Scale once.
var Scale = decimal.New(1, 18)

// Phase is the lifecycle state of an auction.
type Phase int

const (
	// PhaseCommit accepts binding bid commitments.
	PhaseCommit Phase = iota

	// PhaseReveal accepts disclosures against stored commitments.
	PhaseReveal

	// PhaseFinalized means the clearing price and allocations are fixed.
	// Claims proceed in this phase until the claim deadline.
	PhaseFinalized

	// PhaseDistributed is reserved. No transition enters it.
	PhaseDistributed
)

func (p Phase) String() string {
	switch p {
	case PhaseCommit:
		return "commit"
	case PhaseReveal:
		return "reveal"
	case PhaseFinalized:
		return "finalized"
	case PhaseDistributed:
		return "distributed"
	default:
		return "unknown"
	}
}

// Params holds the immutable auction parameters provided at initialization.
type Params struct {
	// BondSupply is the total quantity of the instrument offered.
	BondSupply decimal.Decimal

	// MinPrice and MaxPrice are the inclusive bounds on a disclosed price.
	MinPrice decimal.Decimal
	MaxPrice decimal.Decimal

	// Phase durations, applied cumulatively from creation time.
	CommitDuration time.Duration
	RevealDuration time.Duration
	ClaimDuration  time.Duration

	// IssuerPublicKey is the opaque key blob bidders seal their bids under.
	// The engine stores it for distribution and never interprets it.
	IssuerPublicKey []byte
}

// Bid is the per-bidder record, created on first commitment and never deleted.
type Bid struct {
	// Commitment is the binding hash over (bidder, price, quantity, salt).
	// Empty means no bid yet.
	Commitment string

	// EncryptedBid is the opaque ciphertext stored verbatim at commit time.
	// Informational only; the engine validates nothing beyond non-emptiness.
	EncryptedBid []byte

	// Price and Quantity are the disclosed values, valid only once Revealed.
	Price    decimal.Decimal
	Quantity decimal.Decimal

	// Revealed and Claimed are monotonic flags, never reset.
	Revealed bool
	Claimed  bool

	// Allocation is the quantity awarded at finalization, write-once.
	Allocation decimal.Decimal
}

// PaymentLedger is the escrow rail the engine settles against. The
// implementation is bound to the auction's escrow account: TransferFrom pulls
// into escrow against the payer's prior approval, Transfer pays out of
// escrow, Balance reports the amount currently escrowed.
type PaymentLedger interface {
	TransferFrom(payer string, amount decimal.Decimal) error
	Transfer(recipient string, amount decimal.Decimal) error
	Balance() decimal.Decimal
}

// InstrumentLedger mints the auctioned instrument to winning bidders. The
// implementation is bound to the engine's minter identity.
type InstrumentLedger interface {
	Mint(to string, amount decimal.Decimal) error
}

// Allowlist gates which accounts may commit. A nil allowlist admits everyone.
type Allowlist interface {
	IsAllowed(account string) bool
}
