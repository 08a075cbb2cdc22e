// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package mesh

import (
	"crypto/ed25519"
	"sync"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

// ReceiptSigner produces the executor's signature over a receipt's
// signable bytes. A remote executor signs with its own key before
// reporting back; an in-process executor signs through a KeyStore.
type ReceiptSigner interface {
	SignReceipt(receipt *Receipt) (coordcore.Signature, error)
}

// KeyStore is an in-process ReceiptSigner holding the private keys of the
// executor DIDs this node runs jobs as.
type KeyStore struct {
	mu   sync.RWMutex
	keys map[coordcore.DID]ed25519.PrivateKey
}

// NewKeyStore returns an empty key store.
func NewKeyStore() *KeyStore {
	return &KeyStore{keys: make(map[coordcore.DID]ed25519.PrivateKey)}
}

// Register installs the private key for did, replacing any previous key.
func (k *KeyStore) Register(did coordcore.DID, priv ed25519.PrivateKey) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys[did] = priv
}

// SignReceipt signs receipt with the key held for its executor DID.
func (k *KeyStore) SignReceipt(receipt *Receipt) (coordcore.Signature, error) {
	k.mu.RLock()
	priv, ok := k.keys[receipt.ExecutorDID]
	k.mu.RUnlock()
	if !ok {
		return nil, coordcore.New(coordcore.KindIdentityError, "mesh: no key held for executor "+string(receipt.ExecutorDID))
	}
	return ed25519.Sign(priv, receipt.SignableBytes()), nil
}
