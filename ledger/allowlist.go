package ledger

import (
	"errors"
	"fmt"
	"sync"
)

var ErrNotAdmin = errors.New("caller is not the allowlist administrator")

// Allowlist is a flat access-control map keyed by account, toggled by a
// single administrator.
type Allowlist struct {
	mu      sync.RWMutex
	admin   string
	allowed map[string]bool
}

func NewAllowlist(admin string) *Allowlist {
	return &Allowlist{
		admin:   admin,
		allowed: make(map[string]bool),
	}
}

// SetAllowed toggles an account. Administrator only.
func (l *Allowlist) SetAllowed(caller, account string, allowed bool) error {
	if caller != l.admin {
		return fmt.Errorf("caller %s: %w", caller, ErrNotAdmin)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if allowed {
		l.allowed[account] = true
	} else {
		delete(l.allowed, account)
	}
	return nil
}

func (l *Allowlist) IsAllowed(account string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.allowed[account]
}
