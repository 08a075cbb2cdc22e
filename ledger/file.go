// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

// FileManaLedger persists balances as a single JSON document, writing
// through a temp-file-then-rename sequence so a crash mid-write never
// leaves a torn file behind: readers always see either the previous
// complete state or the new one, never a partial write.
type FileManaLedger struct {
	mu       sync.Mutex
	path     string
	balances map[coordcore.DID]uint64
}

type manaFileFormat struct {
	Balances map[coordcore.DID]uint64 `json:"balances"`
}

// NewFileManaLedger loads an existing ledger file at path, or starts empty
// if the file does not yet exist.
func NewFileManaLedger(path string) (*FileManaLedger, error) {
	l := &FileManaLedger{path: path, balances: make(map[coordcore.DID]uint64)}

	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, coordcore.Wrap(coordcore.KindStorageError, "ledger: open mana file", err)
	}
	if len(buf) == 0 {
		return l, nil
	}
	var format manaFileFormat
	if err := json.Unmarshal(buf, &format); err != nil {
		return nil, coordcore.Wrap(coordcore.KindDeserializationErr, "ledger: parse mana file", err)
	}
	if format.Balances != nil {
		l.balances = format.Balances
	}
	return l, nil
}

// persistLocked must be called with mu held.
func (l *FileManaLedger) persistLocked() error {
	format := manaFileFormat{Balances: l.balances}
	buf, err := json.Marshal(format)
	if err != nil {
		return coordcore.Wrap(coordcore.KindSerializationError, "ledger: marshal mana file", err)
	}

	tmpPath := l.path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return coordcore.Wrap(coordcore.KindStorageError, "ledger: open temp mana file", err)
	}
	if _, err := f.Write(buf); err != nil {
		f.Close()
		return coordcore.Wrap(coordcore.KindStorageError, "ledger: write temp mana file", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return coordcore.Wrap(coordcore.KindStorageError, "ledger: sync temp mana file", err)
	}
	if err := f.Close(); err != nil {
		return coordcore.Wrap(coordcore.KindStorageError, "ledger: close temp mana file", err)
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		return coordcore.Wrap(coordcore.KindStorageError, "ledger: rename mana file", err)
	}
	return nil
}

// GetBalance returns 0 for an unknown account.
func (l *FileManaLedger) GetBalance(account coordcore.DID) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

// SetBalance overwrites and durably persists account's balance.
func (l *FileManaLedger) SetBalance(account coordcore.DID, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] = amount
	return l.persistLocked()
}

// Spend deducts amount and persists the new balance, or leaves the file
// untouched and returns KindInsufficientFunds if the balance is too low.
func (l *FileManaLedger) Spend(account coordcore.DID, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	bal := l.balances[account]
	if bal < amount {
		return coordcore.New(coordcore.KindInsufficientFunds, "insufficient mana for "+string(account))
	}
	l.balances[account] = bal - amount
	return l.persistLocked()
}

// Credit increases and persists account's balance.
func (l *FileManaLedger) Credit(account coordcore.DID, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += amount
	return l.persistLocked()
}

// CreditAll adds amount to every tracked account and persists once.
func (l *FileManaLedger) CreditAll(amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for did := range l.balances {
		l.balances[did] += amount
	}
	return l.persistLocked()
}

// AllAccounts returns every account with a tracked balance.
func (l *FileManaLedger) AllAccounts() []coordcore.DID {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]coordcore.DID, 0, len(l.balances))
	for did := range l.balances {
		out = append(out, did)
	}
	return out
}

var _ ManaLedger = (*FileManaLedger)(nil)

// ensureDir creates the parent directory of path if it does not yet exist,
// for a FileManaLedger/FileResourceLedger path under a fresh data
// directory. Nothing in this module calls it; the constructors do not
// create directories.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return coordcore.Wrap(coordcore.KindStorageError, "ledger: create data dir", err)
	}
	return nil
}
