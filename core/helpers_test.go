package core

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/shopspring/decimal"

	"github.com/cloudx-io/bondauction/ledger"
)

const (
	testOperator = "operator"
	testEscrow   = "escrow"
)

// testClock is an injectable time source so timing windows are deterministic.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// discardSink keeps test output quiet.
type discardSink struct{}

func (discardSink) Record(Event) {}

type fixture struct {
	auction    *Auction
	clock      *testClock
	payment    *ledger.PaymentToken
	instrument *ledger.InstrumentToken
}

func defaultParams() Params {
	return Params{
		BondSupply:      decimal.NewFromInt(100000),
		MinPrice:        decimal.NewFromInt(10),
		MaxPrice:        decimal.NewFromInt(100),
		CommitDuration:  time.Hour,
		RevealDuration:  time.Hour,
		ClaimDuration:   time.Hour,
		IssuerPublicKey: []byte("issuer-public-key"),
	}
}

func newFixture(t *testing.T, params Params) *fixture {
	t.Helper()

	clock := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	payment := ledger.NewPaymentToken("PAY")
	instrument := ledger.NewInstrumentToken("BOND", params.BondSupply)
	instrument.AddMinter(testEscrow)

	auction, err := NewAuction(params, testOperator, Deps{
		Payment:    ledger.NewEscrowAccount(payment, testEscrow),
		Instrument: ledger.NewBoundMinter(instrument, testEscrow),
		TimeFunc:   clock.Now,
		Audit:      discardSink{},
	})
	assert.NoError(t, err)

	return &fixture{
		auction:    auction,
		clock:      clock,
		payment:    payment,
		instrument: instrument,
	}
}

// commitBid commits a bid for the given tuple and returns the salt's
// commitment so tests can reveal it later.
func (f *fixture) commitBid(t *testing.T, bidder string, price, quantity int64, salt string) string {
	t.Helper()
	commitment := ComputeBidCommitment(bidder, decimal.NewFromInt(price), decimal.NewFromInt(quantity), salt)
	assert.NoError(t, f.auction.Commit(bidder, commitment, []byte("sealed-"+bidder)))
	return commitment
}

func (f *fixture) reveal(t *testing.T, bidder string, price, quantity int64, salt string) {
	t.Helper()
	assert.NoError(t, f.auction.Reveal(bidder, decimal.NewFromInt(price), decimal.NewFromInt(quantity), salt))
}

// advancePastCommit moves the clock exactly to the commit deadline.
func (f *fixture) advancePastCommit() {
	commit, _, _ := f.auction.Deadlines()
	f.clock.now = commit
}

// advancePastReveal moves the clock exactly to the reveal deadline.
func (f *fixture) advancePastReveal() {
	_, reveal, _ := f.auction.Deadlines()
	f.clock.now = reveal
}

// advancePastClaim moves the clock exactly to the claim deadline.
func (f *fixture) advancePastClaim() {
	_, _, claim := f.auction.Deadlines()
	f.clock.now = claim
}

func dec(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}
