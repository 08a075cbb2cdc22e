// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package pebbleledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
	"github.com/InterCooperative-Network/icn-coord/ledger"
)

func openTestLedger(t *testing.T) *ManaLedger {
	t.Helper()
	l, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, l.Close()) })
	return l
}

func TestPebbleManaLedgerSpendCreditRestoresBalance(t *testing.T) {
	require := require.New(t)
	l := openTestLedger(t)
	did := coordcore.DID("did:icn:alice")

	require.NoError(l.SetBalance(did, 100))
	require.NoError(l.Spend(did, 40))
	require.EqualValues(60, l.GetBalance(did))
	require.NoError(l.Credit(did, 40))
	require.EqualValues(100, l.GetBalance(did))
}

func TestPebbleManaLedgerSpendFailsOnInsufficientBalance(t *testing.T) {
	require := require.New(t)
	l := openTestLedger(t)
	did := coordcore.DID("did:icn:bob")
	require.NoError(l.SetBalance(did, 10))

	err := l.Spend(did, 11)
	require.Error(err)
	require.Equal(coordcore.KindInsufficientFunds, coordcore.KindOf(err))
	require.EqualValues(10, l.GetBalance(did))
}

func TestPebbleManaLedgerCreditAll(t *testing.T) {
	require := require.New(t)
	l := openTestLedger(t)
	a := coordcore.DID("did:icn:a")
	b := coordcore.DID("did:icn:b")
	require.NoError(l.SetBalance(a, 1))
	require.NoError(l.SetBalance(b, 2))

	require.NoError(l.CreditAll(5))
	require.EqualValues(6, l.GetBalance(a))
	require.EqualValues(7, l.GetBalance(b))
}

func TestPebbleManaLedgerTransferAtomicViaGenericHelper(t *testing.T) {
	require := require.New(t)
	l := openTestLedger(t)
	from := coordcore.DID("did:icn:from")
	to := coordcore.DID("did:icn:to")
	require.NoError(l.SetBalance(from, 50))

	require.NoError(ledger.Transfer(l, from, to, 20))
	require.EqualValues(30, l.GetBalance(from))
	require.EqualValues(20, l.GetBalance(to))
}

func TestPebbleManaLedgerPersistsAcrossReopen(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	did := coordcore.DID("did:icn:carol")

	l1, err := Open(dir)
	require.NoError(err)
	require.NoError(l1.SetBalance(did, 77))
	require.NoError(l1.Spend(did, 27))
	require.NoError(l1.Close())

	l2, err := Open(dir)
	require.NoError(err)
	defer l2.Close()
	require.EqualValues(50, l2.GetBalance(did))
}
