// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pebblestore is the embedded-KV DAG backend, feature-gated behind
// its own package so that in-memory-only deployments never pull in
// cockroachdb/pebble. It stores each block under its CID's byte encoding,
// keeping the rest of the dag.Store contract identical to dag.MemStore.
package pebblestore

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
	"github.com/InterCooperative-Network/icn-coord/dag"
)

// Store persists DAG blocks in an on-disk pebble database, one key-value
// pair per block keyed by the CID's canonical bytes. On-disk format is not
// part of the stable contract; migration is this backend's
// responsibility.
type Store struct {
	db *pebble.DB
}

// Open opens (creating if absent) a pebble database at dir.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, coordcore.Wrap(coordcore.KindStorageError, "pebblestore: open", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return coordcore.Wrap(coordcore.KindStorageError, "pebblestore: close", err)
	}
	return nil
}

type wireBlock struct {
	CID       coordcore.CID       `json:"cid"`
	Data      []byte              `json:"data"`
	Links     []dag.Link          `json:"links"`
	Timestamp int64               `json:"timestamp"`
	Author    coordcore.DID       `json:"author"`
	Signature coordcore.Signature `json:"signature,omitempty"`
	Scope     string              `json:"scope,omitempty"`
}

// Put flushes after every write, and rejects a block whose CID does not
// match its contents before touching disk.
func (s *Store) Put(block *dag.Block) error {
	if err := block.Verify(); err != nil {
		return err
	}
	wb := wireBlock{
		CID:       block.CID,
		Data:      block.Data,
		Links:     block.Links,
		Timestamp: block.Timestamp.UnixNano(),
		Author:    block.Author,
		Signature: block.Signature,
		Scope:     block.Scope,
	}
	buf, err := json.Marshal(wb)
	if err != nil {
		return coordcore.Wrap(coordcore.KindSerializationError, "pebblestore: marshal block", err)
	}
	if err := s.db.Set(block.CID.Bytes(), buf, pebble.Sync); err != nil {
		return coordcore.Wrap(coordcore.KindStorageError, "pebblestore: put", errors.WithStack(err))
	}
	return nil
}

// Get looks up a block by CID, deserializing its stored form.
func (s *Store) Get(cid coordcore.CID) (*dag.Block, bool, error) {
	val, closer, err := s.db.Get(cid.Bytes())
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, coordcore.Wrap(coordcore.KindStorageError, "pebblestore: get", err)
	}
	defer closer.Close()

	var wb wireBlock
	if err := json.Unmarshal(val, &wb); err != nil {
		return nil, false, coordcore.Wrap(coordcore.KindDeserializationErr, "pebblestore: unmarshal block", err)
	}
	return &dag.Block{
		CID:       wb.CID,
		Data:      wb.Data,
		Links:     wb.Links,
		Timestamp: nsecToTime(wb.Timestamp),
		Author:    wb.Author,
		Signature: wb.Signature,
		Scope:     wb.Scope,
	}, true, nil
}

// Delete removes a block by CID; deleting an absent key is a no-op.
func (s *Store) Delete(cid coordcore.CID) error {
	if err := s.db.Delete(cid.Bytes(), pebble.Sync); err != nil {
		return coordcore.Wrap(coordcore.KindStorageError, "pebblestore: delete", err)
	}
	return nil
}

// Contains reports whether cid is stored, without deserializing the value.
func (s *Store) Contains(cid coordcore.CID) (bool, error) {
	_, closer, err := s.db.Get(cid.Bytes())
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, coordcore.Wrap(coordcore.KindStorageError, "pebblestore: contains", err)
	}
	closer.Close()
	return true, nil
}

// ListBlocks iterates the full keyspace; callers with large stores should
// prefer targeted Get calls where possible.
func (s *Store) ListBlocks() ([]*dag.Block, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, coordcore.Wrap(coordcore.KindStorageError, "pebblestore: list", err)
	}
	defer iter.Close()

	var out []*dag.Block
	for iter.First(); iter.Valid(); iter.Next() {
		var wb wireBlock
		if err := json.Unmarshal(iter.Value(), &wb); err != nil {
			return nil, coordcore.Wrap(coordcore.KindDeserializationErr, "pebblestore: unmarshal block", err)
		}
		out = append(out, &dag.Block{
			CID:       wb.CID,
			Data:      wb.Data,
			Links:     wb.Links,
			Timestamp: nsecToTime(wb.Timestamp),
			Author:    wb.Author,
			Signature: wb.Signature,
			Scope:     wb.Scope,
		})
	}
	return out, iter.Error()
}

var _ dag.Store = (*Store)(nil)
