// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

// TokenClassID names a token class within a ResourceLedger.
type TokenClassID string

// TokenClass is the metadata attached to a token class at creation time.
type TokenClass struct {
	Name string `json:"name"`
}

// ResourceLedger is the generic token-accounting contract: mint, burn,
// and transfer balances scoped to a token class and owner DID.
type ResourceLedger interface {
	CreateClass(classID TokenClassID, class TokenClass) error
	GetClass(classID TokenClassID) (TokenClass, bool)
	Mint(classID TokenClassID, owner coordcore.DID, amount uint64) error
	Burn(classID TokenClassID, owner coordcore.DID, amount uint64) error
	Transfer(classID TokenClassID, from, to coordcore.DID, amount uint64) error
	GetBalance(classID TokenClassID, owner coordcore.DID) uint64
}

// MemResourceLedger is an in-memory ResourceLedger.
type MemResourceLedger struct {
	mu       sync.Mutex
	classes  map[TokenClassID]TokenClass
	balances map[TokenClassID]map[coordcore.DID]uint64
}

// NewMemResourceLedger returns an empty in-memory resource ledger.
func NewMemResourceLedger() *MemResourceLedger {
	return &MemResourceLedger{
		classes:  make(map[TokenClassID]TokenClass),
		balances: make(map[TokenClassID]map[coordcore.DID]uint64),
	}
}

func (l *MemResourceLedger) CreateClass(classID TokenClassID, class TokenClass) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.classes[classID] = class
	return nil
}

func (l *MemResourceLedger) GetClass(classID TokenClassID) (TokenClass, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.classes[classID]
	return c, ok
}

func (l *MemResourceLedger) Mint(classID TokenClassID, owner coordcore.DID, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[classID] == nil {
		l.balances[classID] = make(map[coordcore.DID]uint64)
	}
	l.balances[classID][owner] += amount
	return nil
}

func (l *MemResourceLedger) Burn(classID TokenClassID, owner coordcore.DID, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	bal := l.balances[classID][owner]
	if bal < amount {
		return coordcore.New(coordcore.KindInsufficientFunds, "insufficient balance for class "+string(classID))
	}
	if l.balances[classID] == nil {
		l.balances[classID] = make(map[coordcore.DID]uint64)
	}
	l.balances[classID][owner] = bal - amount
	return nil
}

func (l *MemResourceLedger) Transfer(classID TokenClassID, from, to coordcore.DID, amount uint64) error {
	if err := l.Burn(classID, from, amount); err != nil {
		return err
	}
	return l.Mint(classID, to, amount)
}

func (l *MemResourceLedger) GetBalance(classID TokenClassID, owner coordcore.DID) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[classID][owner]
}

var _ ResourceLedger = (*MemResourceLedger)(nil)

// FileResourceLedger is a file-backed ResourceLedger using the same
// temp-file-then-rename durability pattern as FileManaLedger.
type FileResourceLedger struct {
	mu   sync.Mutex
	path string
	data resourceFileFormat
}

type resourceFileFormat struct {
	Classes  map[TokenClassID]TokenClass                  `json:"classes"`
	Balances map[TokenClassID]map[coordcore.DID]uint64    `json:"balances"`
}

// NewFileResourceLedger loads an existing ledger file at path, or starts
// empty if absent.
func NewFileResourceLedger(path string) (*FileResourceLedger, error) {
	l := &FileResourceLedger{
		path: path,
		data: resourceFileFormat{
			Classes:  make(map[TokenClassID]TokenClass),
			Balances: make(map[TokenClassID]map[coordcore.DID]uint64),
		},
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, coordcore.Wrap(coordcore.KindStorageError, "ledger: open resource file", err)
	}
	if len(buf) == 0 {
		return l, nil
	}
	if err := json.Unmarshal(buf, &l.data); err != nil {
		return nil, coordcore.Wrap(coordcore.KindDeserializationErr, "ledger: parse resource file", err)
	}
	if l.data.Classes == nil {
		l.data.Classes = make(map[TokenClassID]TokenClass)
	}
	if l.data.Balances == nil {
		l.data.Balances = make(map[TokenClassID]map[coordcore.DID]uint64)
	}
	return l, nil
}

func (l *FileResourceLedger) persistLocked() error {
	buf, err := json.Marshal(l.data)
	if err != nil {
		return coordcore.Wrap(coordcore.KindSerializationError, "ledger: marshal resource file", err)
	}
	tmpPath := l.path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return coordcore.Wrap(coordcore.KindStorageError, "ledger: open temp resource file", err)
	}
	if _, err := f.Write(buf); err != nil {
		f.Close()
		return coordcore.Wrap(coordcore.KindStorageError, "ledger: write temp resource file", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return coordcore.Wrap(coordcore.KindStorageError, "ledger: sync temp resource file", err)
	}
	if err := f.Close(); err != nil {
		return coordcore.Wrap(coordcore.KindStorageError, "ledger: close temp resource file", err)
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		return coordcore.Wrap(coordcore.KindStorageError, "ledger: rename resource file", err)
	}
	return nil
}

func (l *FileResourceLedger) CreateClass(classID TokenClassID, class TokenClass) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data.Classes[classID] = class
	return l.persistLocked()
}

func (l *FileResourceLedger) GetClass(classID TokenClassID) (TokenClass, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.data.Classes[classID]
	return c, ok
}

func (l *FileResourceLedger) Mint(classID TokenClassID, owner coordcore.DID, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.data.Balances[classID] == nil {
		l.data.Balances[classID] = make(map[coordcore.DID]uint64)
	}
	l.data.Balances[classID][owner] += amount
	return l.persistLocked()
}

func (l *FileResourceLedger) Burn(classID TokenClassID, owner coordcore.DID, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	bal := l.data.Balances[classID][owner]
	if bal < amount {
		return coordcore.New(coordcore.KindInsufficientFunds, "insufficient balance for class "+string(classID))
	}
	l.data.Balances[classID][owner] = bal - amount
	return l.persistLocked()
}

func (l *FileResourceLedger) Transfer(classID TokenClassID, from, to coordcore.DID, amount uint64) error {
	if err := l.Burn(classID, from, amount); err != nil {
		return err
	}
	return l.Mint(classID, to, amount)
}

func (l *FileResourceLedger) GetBalance(classID TokenClassID, owner coordcore.DID) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.data.Balances[classID][owner]
}

var _ ResourceLedger = (*FileResourceLedger)(nil)
