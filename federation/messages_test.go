// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package federation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/InterCooperative-Network/icn-coord/codec"
	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

func TestEncodeEnvelopeStampsCurrentCodecVersion(t *testing.T) {
	require := require.New(t)
	req := SyncStatusRequest{}

	env, err := EncodeEnvelope(PayloadSyncStatusRequest, req, coordcore.DID("did:icn:node-a"), time.Now().Unix())
	require.NoError(err)
	require.Equal(codec.CurrentVersion, env.Version)
	require.Equal(PayloadSyncStatusRequest, env.PayloadType)
}

func TestDecodePayloadRoundTrips(t *testing.T) {
	require := require.New(t)
	original := SyncStatusResponse{
		CurrentRoot:     coordcore.CID{},
		BlockCount:      42,
		LastUpdate:      1700000000,
		AvailableBlocks: []coordcore.CID{{}},
	}

	env, err := EncodeEnvelope(PayloadSyncStatusResponse, original, coordcore.DID("did:icn:node-a"), time.Now().Unix())
	require.NoError(err)

	var decoded SyncStatusResponse
	require.NoError(DecodePayload(env, &decoded))
	require.Equal(original.BlockCount, decoded.BlockCount)
	require.Equal(original.LastUpdate, decoded.LastUpdate)
}

func TestMarshalEnvelopeRoundTripsThroughCodec(t *testing.T) {
	require := require.New(t)
	env, err := EncodeEnvelope(PayloadBlockAnnouncement, BlockAnnouncement{Priority: coordcore.PriorityHigh}, coordcore.DID("did:icn:node-a"), 1700000000)
	require.NoError(err)

	buf, err := marshalEnvelope(env)
	require.NoError(err)

	var roundTripped Envelope
	_, err = codec.Codec.Unmarshal(buf, &roundTripped)
	require.NoError(err)
	require.Equal(env.PayloadType, roundTripped.PayloadType)
	require.Equal(env.Version, roundTripped.Version)
}
