package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrNotMinter   = errors.New("account is not an authorized minter")
	ErrCapExceeded = errors.New("mint would exceed supply cap")
)

// InstrumentToken is a capped, mintable fungible-token ledger for the
// auctioned instrument. Minting is role-gated to authorized accounts; in the
// auction wiring the only minter is the engine's escrow identity.
type InstrumentToken struct {
	mu       sync.Mutex
	name     string
	cap      decimal.Decimal
	minted   decimal.Decimal
	balances map[string]decimal.Decimal
	minters  map[string]bool
}

func NewInstrumentToken(name string, cap decimal.Decimal) *InstrumentToken {
	return &InstrumentToken{
		name:     name,
		cap:      cap,
		balances: make(map[string]decimal.Decimal),
		minters:  make(map[string]bool),
	}
}

func (t *InstrumentToken) Name() string {
	return t.name
}

func (t *InstrumentToken) Cap() decimal.Decimal {
	return t.cap
}

func (t *InstrumentToken) TotalMinted() decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.minted
}

func (t *InstrumentToken) BalanceOf(account string) decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[account]
}

// AddMinter authorizes an account to mint.
func (t *InstrumentToken) AddMinter(account string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.minters[account] = true
}

// Mint issues amount to an account, gated on the caller's minter role and the
// supply cap.
func (t *InstrumentToken) Mint(minter, to string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("mint %s: %w", amount, ErrInvalidAmount)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.minters[minter] {
		return fmt.Errorf("account %s: %w", minter, ErrNotMinter)
	}
	next := t.minted.Add(amount)
	if next.GreaterThan(t.cap) {
		return fmt.Errorf("minted %s + %s over cap %s: %w", t.minted, amount, t.cap, ErrCapExceeded)
	}
	t.minted = next
	t.balances[to] = t.balances[to].Add(amount)
	return nil
}

// Transfer moves instrument units between holders.
func (t *InstrumentToken) Transfer(from, to string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("transfer %s: %w", amount, ErrInvalidAmount)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	balance := t.balances[from]
	if balance.LessThan(amount) {
		return fmt.Errorf("account %s has %s, needs %s: %w", from, balance, amount, ErrInsufficientBalance)
	}
	t.balances[from] = balance.Sub(amount)
	t.balances[to] = t.balances[to].Add(amount)
	return nil
}

// BoundMinter fixes the minter identity on an InstrumentToken, satisfying the
// mint entry point the auction engine invokes after settlement.
type BoundMinter struct {
	token  *InstrumentToken
	minter string
}

func NewBoundMinter(token *InstrumentToken, minter string) *BoundMinter {
	return &BoundMinter{token: token, minter: minter}
}

func (b *BoundMinter) Mint(to string, amount decimal.Decimal) error {
	return b.token.Mint(b.minter, to, amount)
}
