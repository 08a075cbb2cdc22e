// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger implements mana accounting and token-class resource
// ledgers: the spend/credit/transfer primitives every mesh job and trust
// operation settles against.
package ledger

import (
	"sync"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

// ManaLedger is the narrow contract every mana backend (in-memory,
// file-backed, embedded-KV) implements. Implementations must make spend
// atomic with respect to concurrent callers: either the full amount is
// deducted or the balance is left untouched.
type ManaLedger interface {
	GetBalance(account coordcore.DID) uint64
	SetBalance(account coordcore.DID, amount uint64) error
	Spend(account coordcore.DID, amount uint64) error
	Credit(account coordcore.DID, amount uint64) error
	CreditAll(amount uint64) error
	AllAccounts() []coordcore.DID
}

// MemManaLedger is a mutex-guarded in-memory ManaLedger, the backend used by
// tests and ephemeral single-process deployments.
type MemManaLedger struct {
	mu       sync.Mutex
	balances map[coordcore.DID]uint64
}

// NewMemManaLedger returns an empty in-memory mana ledger.
func NewMemManaLedger() *MemManaLedger {
	return &MemManaLedger{balances: make(map[coordcore.DID]uint64)}
}

// GetBalance returns 0 for an account never credited or set.
func (l *MemManaLedger) GetBalance(account coordcore.DID) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

// SetBalance overwrites account's balance unconditionally.
func (l *MemManaLedger) SetBalance(account coordcore.DID, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] = amount
	return nil
}

// Spend deducts amount from account, failing with KindInsufficientFunds iff
// the current balance is less than amount. An account with no prior balance
// is treated as a zero balance, not a not-found error.
func (l *MemManaLedger) Spend(account coordcore.DID, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	bal := l.balances[account]
	if bal < amount {
		return coordcore.New(coordcore.KindInsufficientFunds, "insufficient mana for "+string(account))
	}
	l.balances[account] = bal - amount
	return nil
}

// Credit increases account's balance by amount, creating the account entry
// if absent.
func (l *MemManaLedger) Credit(account coordcore.DID, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += amount
	return nil
}

// CreditAll adds amount to every account currently tracked by the ledger,
// the primitive behind periodic mana regeneration.
func (l *MemManaLedger) CreditAll(amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for did := range l.balances {
		l.balances[did] += amount
	}
	return nil
}

// AllAccounts returns every account with a tracked balance, in no
// particular order.
func (l *MemManaLedger) AllAccounts() []coordcore.DID {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]coordcore.DID, 0, len(l.balances))
	for did := range l.balances {
		out = append(out, did)
	}
	return out
}

var _ ManaLedger = (*MemManaLedger)(nil)

// Transfer moves amount from one account to another under a single
// ledger-wide mutex acquisition is not guaranteed by this helper (it calls
// Spend then Credit); callers needing atomic cross-account transfer should
// use a ledger implementation that offers one directly. For the mana
// ledgers in this package, Spend failing leaves Credit uncalled, so a
// failed transfer never double-counts.
func Transfer(l ManaLedger, from, to coordcore.DID, amount uint64) error {
	if err := l.Spend(from, amount); err != nil {
		return err
	}
	return l.Credit(to, amount)
}
