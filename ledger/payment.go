// Package ledger provides in-memory implementations of the external
// collaborators the auction engine settles against: the payment asset, the
// instrument token, and the bidder allowlist.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// PaymentToken is a fungible payment-asset ledger with standard
// transfer/approve/transferFrom semantics. The auction engine treats it as an
// opaque escrow rail.
type PaymentToken struct {
	mu         sync.Mutex
	name       string
	balances   map[string]decimal.Decimal
	allowances map[string]map[string]decimal.Decimal // owner -> spender -> amount
}

func NewPaymentToken(name string) *PaymentToken {
	return &PaymentToken{
		name:       name,
		balances:   make(map[string]decimal.Decimal),
		allowances: make(map[string]map[string]decimal.Decimal),
	}
}

func (t *PaymentToken) Name() string {
	return t.name
}

// Issue credits newly issued units to an account.
func (t *PaymentToken) Issue(to string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("issue %s: %w", amount, ErrInvalidAmount)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[to] = t.balances[to].Add(amount)
	return nil
}

func (t *PaymentToken) BalanceOf(account string) decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[account]
}

// Transfer moves amount from one account to another.
func (t *PaymentToken) Transfer(from, to string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("transfer %s: %w", amount, ErrInvalidAmount)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.move(from, to, amount)
}

// Approve sets the exact allowance a spender may pull from an owner.
func (t *PaymentToken) Approve(owner, spender string, amount decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[string]decimal.Decimal)
	}
	t.allowances[owner][spender] = amount
}

func (t *PaymentToken) Allowance(owner, spender string) decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.allowances[owner][spender]
}

// TransferFrom moves amount from owner to recipient on behalf of spender,
// consuming the spender's allowance.
func (t *PaymentToken) TransferFrom(spender, owner, recipient string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("transferFrom %s: %w", amount, ErrInvalidAmount)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	allowed := t.allowances[owner][spender]
	if allowed.LessThan(amount) {
		return fmt.Errorf("spender %s owner %s has %s, needs %s: %w",
			spender, owner, allowed, amount, ErrInsufficientAllowance)
	}
	if err := t.move(owner, recipient, amount); err != nil {
		return err
	}
	t.allowances[owner][spender] = allowed.Sub(amount)
	return nil
}

// move requires the caller to hold the lock.
func (t *PaymentToken) move(from, to string, amount decimal.Decimal) error {
	balance := t.balances[from]
	if balance.LessThan(amount) {
		return fmt.Errorf("account %s has %s, needs %s: %w", from, balance, amount, ErrInsufficientBalance)
	}
	t.balances[from] = balance.Sub(amount)
	t.balances[to] = t.balances[to].Add(amount)
	return nil
}

// EscrowAccount binds one holder account on a PaymentToken to the escrow-rail
// interface the auction engine consumes. Pulls land in the bound account,
// payouts leave it.
type EscrowAccount struct {
	token   *PaymentToken
	account string
}

func NewEscrowAccount(token *PaymentToken, account string) *EscrowAccount {
	return &EscrowAccount{token: token, account: account}
}

func (e *EscrowAccount) Account() string {
	return e.account
}

func (e *EscrowAccount) TransferFrom(payer string, amount decimal.Decimal) error {
	return e.token.TransferFrom(e.account, payer, e.account, amount)
}

func (e *EscrowAccount) Transfer(recipient string, amount decimal.Decimal) error {
	return e.token.Transfer(e.account, recipient, amount)
}

func (e *EscrowAccount) Balance() decimal.Decimal {
	return e.token.BalanceOf(e.account)
}
