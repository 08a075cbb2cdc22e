// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package pebblestore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/InterCooperative-Network/icn-coord/dag"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestPebbleStorePutGetContains(t *testing.T) {
	require := require.New(t)
	store := openTestStore(t)
	ts := time.Unix(1700000000, 0).UTC()

	b, err := dag.NewBlock([]byte("hello"), nil, ts, "method:scheme:author")
	require.NoError(err)
	require.NoError(store.Put(b))

	ok, err := store.Contains(b.CID)
	require.NoError(err)
	require.True(ok)

	got, ok, err := store.Get(b.CID)
	require.NoError(err)
	require.True(ok)
	require.Equal(b.Data, got.Data)
	require.Equal(b.CID, got.CID)
}

func TestPebbleStoreRejectsMismatchedCID(t *testing.T) {
	require := require.New(t)
	store := openTestStore(t)
	ts := time.Unix(1700000000, 0).UTC()

	b, err := dag.NewBlock([]byte("payload"), nil, ts, "method:scheme:author")
	require.NoError(err)
	b.Data = []byte("tampered")

	err = store.Put(b)
	require.Error(err)
}

func TestPebbleStoreDeleteAndList(t *testing.T) {
	require := require.New(t)
	store := openTestStore(t)
	ts := time.Unix(1700000000, 0).UTC()

	a, err := dag.NewBlock([]byte("a"), nil, ts, "method:scheme:x")
	require.NoError(err)
	b, err := dag.NewBlock([]byte("b"), nil, ts.Add(time.Second), "method:scheme:y")
	require.NoError(err)
	require.NoError(store.Put(a))
	require.NoError(store.Put(b))

	blocks, err := store.ListBlocks()
	require.NoError(err)
	require.Len(blocks, 2)

	require.NoError(store.Delete(a.CID))
	ok, err := store.Contains(a.CID)
	require.NoError(err)
	require.False(ok)

	blocks, err = store.ListBlocks()
	require.NoError(err)
	require.Len(blocks, 1)
}

func TestPebbleStoreGetMissing(t *testing.T) {
	require := require.New(t)
	store := openTestStore(t)
	ts := time.Unix(1700000000, 0).UTC()

	b, err := dag.NewBlock([]byte("unstored"), nil, ts, "method:scheme:x")
	require.NoError(err)

	got, ok, err := store.Get(b.CID)
	require.NoError(err)
	require.False(ok)
	require.Nil(got)
}

func TestPebbleStoreChainFrom(t *testing.T) {
	require := require.New(t)
	store := openTestStore(t)
	ts := time.Unix(1700000000, 0).UTC()

	genesis, err := dag.NewBlock([]byte("genesis"), nil, ts, "method:scheme:x")
	require.NoError(err)
	require.NoError(store.Put(genesis))

	child, err := dag.NewBlock([]byte("child"), []dag.Link{{CID: genesis.CID, Name: "parent"}}, ts.Add(time.Second), "method:scheme:x")
	require.NoError(err)
	require.NoError(store.Put(child))

	chain, err := dag.ChainFrom(store, child.CID)
	require.NoError(err)
	require.Len(chain, 2)
}
