// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package mesh

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
	"github.com/InterCooperative-Network/icn-coord/ledger"
)

type fakeReputation map[coordcore.DID]uint64

func (f fakeReputation) GetReputation(did coordcore.DID) uint64 { return f[did] }

func TestSelectExecutorFavorsHigherReputationOverLowerPrice(t *testing.T) {
	require := require.New(t)
	mana := ledger.NewMemManaLedger()
	require.NoError(mana.SetBalance("did:key:a", 1000))
	require.NoError(mana.SetBalance("did:key:b", 1000))
	rep := fakeReputation{"did:key:a": 5, "did:key:b": 4}

	bids := []*Bid{
		{ExecutorDID: "did:key:a", PriceMana: 12},
		{ExecutorDID: "did:key:b", PriceMana: 10},
	}

	selected, err := SelectExecutor(bids, DefaultSelectionWeights(), rep, mana, 1, RequiredResources{})
	require.NoError(err)
	require.Equal(coordcore.DID("did:key:a"), selected.ExecutorDID)
}

func TestSelectExecutorDropsInsolventBids(t *testing.T) {
	require := require.New(t)
	mana := ledger.NewMemManaLedger()
	require.NoError(mana.SetBalance("did:key:a", 0))
	require.NoError(mana.SetBalance("did:key:b", 1000))
	rep := fakeReputation{"did:key:a": 100, "did:key:b": 1}

	bids := []*Bid{
		{ExecutorDID: "did:key:a", PriceMana: 5},
		{ExecutorDID: "did:key:b", PriceMana: 5},
	}

	selected, err := SelectExecutor(bids, DefaultSelectionWeights(), rep, mana, 1, RequiredResources{})
	require.NoError(err)
	require.Equal(coordcore.DID("did:key:b"), selected.ExecutorDID)
}

func TestSelectExecutorNoSolventBids(t *testing.T) {
	require := require.New(t)
	mana := ledger.NewMemManaLedger()
	rep := fakeReputation{}
	_, err := SelectExecutor([]*Bid{{ExecutorDID: "did:key:a", PriceMana: 5}}, DefaultSelectionWeights(), rep, mana, 1, RequiredResources{})
	require.Error(err)
}

func TestFitPenalizesUnderAndOverProvisioning(t *testing.T) {
	require := require.New(t)
	required := RequiredResources{CPUCores: 2, MemoryMB: 1024, StorageMB: 100}
	exact := fit(required, required)
	under := fit(RequiredResources{CPUCores: 1, MemoryMB: 512, StorageMB: 50}, required)
	over := fit(RequiredResources{CPUCores: 20, MemoryMB: 10240, StorageMB: 1000}, required)

	require.InDelta(1.0, exact, 1e-9)
	require.Less(under, exact)
	require.Less(over, exact)
}
