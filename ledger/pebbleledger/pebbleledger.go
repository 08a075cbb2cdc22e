// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pebbleledger is the embedded-KV mana ledger backend, used when a
// coordinator node wants durable balances without the single-JSON-document
// write amplification of ledger.FileManaLedger.
package pebbleledger

import (
	"encoding/binary"

	"github.com/cockroachdb/pebble"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
	"github.com/InterCooperative-Network/icn-coord/ledger"
)

// ManaLedger persists one uint64 balance per DID as an 8-byte big-endian
// value under the account's raw bytes as key.
type ManaLedger struct {
	db *pebble.DB
}

// Open opens (creating if absent) a pebble database at dir for mana
// accounting.
func Open(dir string) (*ManaLedger, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, coordcore.Wrap(coordcore.KindStorageError, "pebbleledger: open", err)
	}
	return &ManaLedger{db: db}, nil
}

// Close releases the underlying database handle.
func (l *ManaLedger) Close() error {
	if err := l.db.Close(); err != nil {
		return coordcore.Wrap(coordcore.KindStorageError, "pebbleledger: close", err)
	}
	return nil
}

func (l *ManaLedger) read(account coordcore.DID) (uint64, error) {
	val, closer, err := l.db.Get([]byte(account))
	if err == pebble.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, coordcore.Wrap(coordcore.KindStorageError, "pebbleledger: get", err)
	}
	defer closer.Close()
	return binary.BigEndian.Uint64(val), nil
}

func (l *ManaLedger) write(account coordcore.DID, amount uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], amount)
	if err := l.db.Set([]byte(account), buf[:], pebble.Sync); err != nil {
		return coordcore.Wrap(coordcore.KindStorageError, "pebbleledger: set", err)
	}
	return nil
}

// GetBalance returns 0 for an unknown account.
func (l *ManaLedger) GetBalance(account coordcore.DID) uint64 {
	bal, err := l.read(account)
	if err != nil {
		return 0
	}
	return bal
}

// SetBalance overwrites account's persisted balance.
func (l *ManaLedger) SetBalance(account coordcore.DID, amount uint64) error {
	return l.write(account, amount)
}

// Spend deducts amount from account's persisted balance, failing with
// KindInsufficientFunds without touching the database if the balance is
// too low.
func (l *ManaLedger) Spend(account coordcore.DID, amount uint64) error {
	bal, err := l.read(account)
	if err != nil {
		return err
	}
	if bal < amount {
		return coordcore.New(coordcore.KindInsufficientFunds, "insufficient mana for "+string(account))
	}
	return l.write(account, bal-amount)
}

// Credit increases account's persisted balance by amount.
func (l *ManaLedger) Credit(account coordcore.DID, amount uint64) error {
	bal, err := l.read(account)
	if err != nil {
		return err
	}
	return l.write(account, bal+amount)
}

// CreditAll adds amount to every account currently present in the
// database.
func (l *ManaLedger) CreditAll(amount uint64) error {
	accounts := l.AllAccounts()
	for _, did := range accounts {
		if err := l.Credit(did, amount); err != nil {
			return err
		}
	}
	return nil
}

// AllAccounts iterates the full keyspace and returns every tracked DID.
func (l *ManaLedger) AllAccounts() []coordcore.DID {
	iter, err := l.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil
	}
	defer iter.Close()

	var out []coordcore.DID
	for iter.First(); iter.Valid(); iter.Next() {
		key := make([]byte, len(iter.Key()))
		copy(key, iter.Key())
		out = append(out, coordcore.DID(key))
	}
	return out
}

var _ ledger.ManaLedger = (*ManaLedger)(nil)
