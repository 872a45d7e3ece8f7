package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Deps are the external collaborators an auction is wired to at creation.
type Deps struct {
	// Payment is the escrow-bound payment asset ledger. Required.
	Payment PaymentLedger

	// Instrument mints the auctioned instrument to winners. Required.
	Instrument InstrumentLedger

	// Allowlist gates committers. Optional; nil admits everyone.
	Allowlist Allowlist

	// TimeFunc supplies the shared clock for all timing gates.
	// Optional; defaults to time.Now.
	TimeFunc func() time.Time

	// Audit receives audit events. Optional; defaults to LogSink.
	Audit AuditSink
}

// Auction is a single sealed-bid, uniform-price auction instance. All state
// lives on the struct; there is no ambient global state. Every mutating
// operation is serialized by one lock and either fully applies or rejects
// with no state change.
type Auction struct {
	mu sync.Mutex

	id       string
	operator string
	params   Params

	commitDeadline time.Time
	revealDeadline time.Time
	claimDeadline  time.Time

	state          Phase
	clearingPrice  decimal.Decimal
	totalAllocated decimal.Decimal

	bids map[string]*Bid

	// bidders preserves first-commit order. The order is load-bearing: it is
	// the tie-break order used by clearing for equal-priced bids.
	bidders []string

	payment    PaymentLedger
	instrument InstrumentLedger
	allowlist  Allowlist
	timeFunc   func() time.Time
	audit      AuditSink
}

// NewAuction initializes an auction. Parameters are immutable thereafter.
// Deadlines are derived from the configured durations at creation time and
// are strictly increasing.
func NewAuction(params Params, operator string, deps Deps) (*Auction, error) {
	if operator == "" {
		return nil, fmt.Errorf("operator account is required: %w", ErrInvalidParams)
	}
	if !params.BondSupply.IsPositive() {
		return nil, fmt.Errorf("bond supply %s must be positive: %w", params.BondSupply, ErrInvalidParams)
	}
	if params.MinPrice.GreaterThanOrEqual(params.MaxPrice) {
		return nil, fmt.Errorf("min price %s must be below max price %s: %w",
			params.MinPrice, params.MaxPrice, ErrInvalidParams)
	}
	if params.MinPrice.IsNegative() {
		return nil, fmt.Errorf("min price %s must not be negative: %w", params.MinPrice, ErrInvalidParams)
	}
	if len(params.IssuerPublicKey) == 0 {
		return nil, fmt.Errorf("issuer public key is required: %w", ErrInvalidParams)
	}
	if params.CommitDuration <= 0 || params.RevealDuration <= 0 || params.ClaimDuration <= 0 {
		return nil, fmt.Errorf("phase durations must be positive: %w", ErrInvalidParams)
	}
	if deps.Payment == nil || deps.Instrument == nil {
		return nil, fmt.Errorf("payment and instrument ledgers are required: %w", ErrInvalidParams)
	}

	timeFunc := deps.TimeFunc
	if timeFunc == nil {
		timeFunc = time.Now
	}
	audit := deps.Audit
	if audit == nil {
		audit = LogSink{}
	}

	now := timeFunc()
	a := &Auction{
		id:             uuid.NewString(),
		operator:       operator,
		params:         params,
		commitDeadline: now.Add(params.CommitDuration),
		revealDeadline: now.Add(params.CommitDuration + params.RevealDuration),
		claimDeadline:  now.Add(params.CommitDuration + params.RevealDuration + params.ClaimDuration),
		state:          PhaseCommit,
		clearingPrice:  decimal.Zero,
		totalAllocated: decimal.Zero,
		bids:           make(map[string]*Bid),
		payment:        deps.Payment,
		instrument:     deps.Instrument,
		allowlist:      deps.Allowlist,
		timeFunc:       timeFunc,
		audit:          audit,
	}
	return a, nil
}

// now reads the shared clock. Timing gates compare against a single
// monotonically non-decreasing time source.
func (a *Auction) now() time.Time {
	return a.timeFunc()
}

// ID returns the auction instance identifier.
func (a *Auction) ID() string {
	return a.id
}

// Operator returns the privileged operator account.
func (a *Auction) Operator() string {
	return a.operator
}

// Params returns a copy of the immutable auction parameters.
func (a *Auction) Params() Params {
	return a.params
}

// Phase returns the current lifecycle phase.
func (a *Auction) Phase() Phase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// ClearingPrice is valid only after finalization; zero before.
func (a *Auction) ClearingPrice() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.clearingPrice
}

// TotalAllocated is valid only after finalization; zero before.
func (a *Auction) TotalAllocated() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totalAllocated
}

// Deadlines returns the commit, reveal and claim deadlines.
func (a *Auction) Deadlines() (commit, reveal, claim time.Time) {
	return a.commitDeadline, a.revealDeadline, a.claimDeadline
}

// BidderCount returns the number of registered bidders.
func (a *Auction) BidderCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.bidders)
}

// Bidder returns the bidder address at the given registry index.
func (a *Auction) Bidder(index int) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if index < 0 || index >= len(a.bidders) {
		return "", false
	}
	return a.bidders[index], true
}

// EncryptedBid returns the ciphertext stored for a bidder, or nil if none.
func (a *Auction) EncryptedBid(bidder string) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	bid, ok := a.bids[bidder]
	if !ok {
		return nil
	}
	out := make([]byte, len(bid.EncryptedBid))
	copy(out, bid.EncryptedBid)
	return out
}

// BidOf returns a copy of the bidder's record.
func (a *Auction) BidOf(bidder string) (Bid, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	bid, ok := a.bids[bidder]
	if !ok {
		return Bid{}, false
	}
	return *bid, true
}

func (a *Auction) emit(ev Event) {
	ev.AuctionID = a.id
	ev.Timestamp = a.now()
	a.audit.Record(ev)
}
