// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

func TestMemManaLedgerSpendCreditRestoresBalance(t *testing.T) {
	require := require.New(t)
	l := NewMemManaLedger()
	did := coordcore.DID("did:icn:alice")

	require.NoError(l.SetBalance(did, 100))
	require.NoError(l.Spend(did, 40))
	require.EqualValues(60, l.GetBalance(did))
	require.NoError(l.Credit(did, 40))
	require.EqualValues(100, l.GetBalance(did))
}

func TestMemManaLedgerSpendFailsOnInsufficientBalance(t *testing.T) {
	require := require.New(t)
	l := NewMemManaLedger()
	did := coordcore.DID("did:icn:bob")
	require.NoError(l.SetBalance(did, 10))

	err := l.Spend(did, 11)
	require.Error(err)
	require.Equal(coordcore.KindInsufficientFunds, coordcore.KindOf(err))
	require.EqualValues(10, l.GetBalance(did))
}

func TestMemManaLedgerCreditAll(t *testing.T) {
	require := require.New(t)
	l := NewMemManaLedger()
	a := coordcore.DID("did:icn:a")
	b := coordcore.DID("did:icn:b")
	require.NoError(l.SetBalance(a, 1))
	require.NoError(l.SetBalance(b, 2))

	require.NoError(l.CreditAll(5))
	require.EqualValues(6, l.GetBalance(a))
	require.EqualValues(7, l.GetBalance(b))
}

func TestTransferMovesBalanceAtomically(t *testing.T) {
	require := require.New(t)
	l := NewMemManaLedger()
	from := coordcore.DID("did:icn:from")
	to := coordcore.DID("did:icn:to")
	require.NoError(l.SetBalance(from, 50))

	require.NoError(Transfer(l, from, to, 20))
	require.EqualValues(30, l.GetBalance(from))
	require.EqualValues(20, l.GetBalance(to))

	err := Transfer(l, from, to, 1000)
	require.Error(err)
	require.EqualValues(30, l.GetBalance(from))
	require.EqualValues(20, l.GetBalance(to))
}

func TestFileManaLedgerPersistsAcrossReopen(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "mana.json")
	did := coordcore.DID("did:icn:carol")

	l1, err := NewFileManaLedger(path)
	require.NoError(err)
	require.NoError(l1.SetBalance(did, 77))
	require.NoError(l1.Spend(did, 27))

	l2, err := NewFileManaLedger(path)
	require.NoError(err)
	require.EqualValues(50, l2.GetBalance(did))
}

func TestMemResourceLedgerMintBurnTransfer(t *testing.T) {
	require := require.New(t)
	l := NewMemResourceLedger()
	class := TokenClassID("compute-credit")
	require.NoError(l.CreateClass(class, TokenClass{Name: "Compute Credit"}))

	alice := coordcore.DID("did:icn:alice")
	bob := coordcore.DID("did:icn:bob")
	require.NoError(l.Mint(class, alice, 10))
	require.NoError(l.Transfer(class, alice, bob, 4))
	require.EqualValues(6, l.GetBalance(class, alice))
	require.EqualValues(4, l.GetBalance(class, bob))

	err := l.Burn(class, bob, 100)
	require.Error(err)
	require.Equal(coordcore.KindInsufficientFunds, coordcore.KindOf(err))
}
