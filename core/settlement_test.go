package core

import (
	"errors"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

// scaled returns n expressed in the 18-decimal fixed-point representation
// shared by on-ledger prices and quantities.
func scaled(n int64) decimal.Decimal {
	return decimal.New(n, 18)
}

func scaledParams() Params {
	p := defaultParams()
	p.BondSupply = scaled(100000)
	p.MinPrice = scaled(10)
	p.MaxPrice = scaled(100)
	return p
}

// commitScaled commits and later reveals with full fixed-point amounts,
// which the int64 fixture helpers cannot express.
func (f *fixture) commitScaled(t *testing.T, bidder string, price, quantity decimal.Decimal, salt string) {
	t.Helper()
	commitment := ComputeBidCommitment(bidder, price, quantity, salt)
	assert.NoError(t, f.auction.Commit(bidder, commitment, []byte("sealed-"+bidder)))
}

// fundBidder issues payment balance to a bidder and approves the escrow
// account to pull it.
func (f *fixture) fundBidder(bidder string, amount decimal.Decimal) {
	f.payment.Issue(bidder, amount)
	f.payment.Approve(bidder, testEscrow, amount)
}

// finalizedFixture runs a full commit/reveal/finalize cycle with one winner
// holding the entire supply at a clearing price of 10.
func finalizedFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t, scaledParams())
	f.commitScaled(t, "bidder_a", scaled(10), scaled(100000), "sa")
	f.advancePastCommit()
	assert.NoError(t, f.auction.Reveal("bidder_a", scaled(10), scaled(100000), "sa"))
	assert.NoError(t, f.auction.Finalize(testOperator))
	return f
}

func TestClaim_PullsPaymentAndMints(t *testing.T) {
	f := newFixture(t, scaledParams())
	f.commitScaled(t, "bidder_a", scaled(92), scaled(2000), "sa")
	f.commitScaled(t, "bidder_b", scaled(87), scaled(150000), "sb")
	f.advancePastCommit()
	assert.NoError(t, f.auction.Reveal("bidder_a", scaled(92), scaled(2000), "sa"))
	assert.NoError(t, f.auction.Reveal("bidder_b", scaled(87), scaled(150000), "sb"))
	assert.NoError(t, f.auction.Finalize(testOperator))
	check.True(t, f.auction.ClearingPrice().Equal(scaled(87)))

	// bidder_a pays 2000 * 87 at the clearing price, not its own bid of 92.
	wantPayment := scaled(2000 * 87)
	f.fundBidder("bidder_a", wantPayment)

	assert.NoError(t, f.auction.Claim("bidder_a"))

	check.True(t, f.payment.BalanceOf("bidder_a").Equal(decimal.Zero))
	check.True(t, f.payment.BalanceOf(testEscrow).Equal(wantPayment))
	check.True(t, f.instrument.BalanceOf("bidder_a").Equal(scaled(2000)))

	bid, _ := f.auction.BidOf("bidder_a")
	check.True(t, bid.Claimed)
}

func TestClaim_RejectsSecondClaim(t *testing.T) {
	f := finalizedFixture(t)
	f.fundBidder("bidder_a", scaled(2*10*100000))

	assert.NoError(t, f.auction.Claim("bidder_a"))

	err := f.auction.Claim("bidder_a")
	check.Error(t, err)
	check.True(t, errors.Is(err, ErrAlreadyClaimed))
	check.True(t, f.instrument.BalanceOf("bidder_a").Equal(scaled(100000)))
}

func TestClaim_RejectsBeforeFinalization(t *testing.T) {
	f := newFixture(t, scaledParams())
	f.commitScaled(t, "bidder_a", scaled(10), scaled(100000), "sa")
	f.advancePastCommit()
	assert.NoError(t, f.auction.Reveal("bidder_a", scaled(10), scaled(100000), "sa"))

	err := f.auction.Claim("bidder_a")
	check.True(t, errors.Is(err, ErrPhaseViolation))
}

func TestClaim_RejectsAtClaimDeadline(t *testing.T) {
	f := finalizedFixture(t)
	f.fundBidder("bidder_a", scaled(10*100000))
	f.advancePastClaim()

	err := f.auction.Claim("bidder_a")
	check.True(t, errors.Is(err, ErrPhaseViolation))
}

func TestClaim_RejectsWithoutAllocation(t *testing.T) {
	f := newFixture(t, scaledParams())
	f.commitScaled(t, "bidder_a", scaled(10), scaled(100000), "sa")
	f.commitScaled(t, "bidder_b", scaled(50), scaled(1), "sb") // never revealed
	f.advancePastCommit()
	assert.NoError(t, f.auction.Reveal("bidder_a", scaled(10), scaled(100000), "sa"))
	assert.NoError(t, f.auction.Finalize(testOperator))

	// Unknown bidder, unrevealed bidder: both surface as no allocation.
	check.True(t, errors.Is(f.auction.Claim("stranger"), ErrNoAllocation))
	check.True(t, errors.Is(f.auction.Claim("bidder_b"), ErrNoAllocation))
}

func TestClaim_TransferFailureLeavesStateUntouched(t *testing.T) {
	f := finalizedFixture(t)
	// Balance present but no allowance for the escrow account.
	f.payment.Issue("bidder_a", scaled(10*100000))

	err := f.auction.Claim("bidder_a")
	check.Error(t, err)
	check.True(t, errors.Is(err, ErrTransferFailed))

	bid, _ := f.auction.BidOf("bidder_a")
	check.False(t, bid.Claimed)
	check.True(t, f.instrument.BalanceOf("bidder_a").Equal(decimal.Zero))

	// Funding properly afterwards lets the claim through.
	f.payment.Approve("bidder_a", testEscrow, scaled(10*100000))
	check.NoError(t, f.auction.Claim("bidder_a"))
}

func TestClaim_PaymentUsesFloorDivision(t *testing.T) {
	// A single base unit of allocation at a fractional price: the payment
	// floor(1 * 10.5e18 / 1e18) drops the half base unit and pulls 10.
	params := scaledParams()
	params.BondSupply = decimal.NewFromInt(1)
	f := newFixture(t, params)
	price := decimal.New(105, 17) // 10.5 scaled
	f.commitScaled(t, "bidder_a", price, decimal.NewFromInt(1), "sa")
	f.advancePastCommit()
	assert.NoError(t, f.auction.Reveal("bidder_a", price, decimal.NewFromInt(1), "sa"))
	assert.NoError(t, f.auction.Finalize(testOperator))

	f.fundBidder("bidder_a", decimal.NewFromInt(11))
	assert.NoError(t, f.auction.Claim("bidder_a"))

	check.True(t, f.payment.BalanceOf(testEscrow).Equal(decimal.NewFromInt(10)))
	check.True(t, f.payment.BalanceOf("bidder_a").Equal(decimal.NewFromInt(1)))
}

func TestWithdrawProceeds_SweepsEscrow(t *testing.T) {
	f := finalizedFixture(t)
	proceeds := scaled(10 * 100000)
	f.fundBidder("bidder_a", proceeds)
	assert.NoError(t, f.auction.Claim("bidder_a"))

	assert.NoError(t, f.auction.WithdrawProceeds(testOperator))

	check.True(t, f.payment.BalanceOf(testOperator).Equal(proceeds))
	check.True(t, f.payment.BalanceOf(testEscrow).Equal(decimal.Zero))
}

func TestWithdrawProceeds_RequiresOperator(t *testing.T) {
	f := finalizedFixture(t)

	err := f.auction.WithdrawProceeds("bidder_a")
	check.Error(t, err)
	check.True(t, errors.Is(err, ErrUnauthorized))
}

func TestWithdrawProceeds_RejectsBeforeFinalization(t *testing.T) {
	f := newFixture(t, scaledParams())

	err := f.auction.WithdrawProceeds(testOperator)
	check.True(t, errors.Is(err, ErrPhaseViolation))
}

func TestWithdrawProceeds_EmptyEscrowIsNoError(t *testing.T) {
	f := finalizedFixture(t)

	// Nothing claimed yet, so the escrow balance is zero.
	check.NoError(t, f.auction.WithdrawProceeds(testOperator))
	check.True(t, f.payment.BalanceOf(testOperator).Equal(decimal.Zero))
}
