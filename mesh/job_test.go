// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package mesh

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseJobRequiresKind(t *testing.T) {
	require := require.New(t)
	_, err := ParseJob([]byte(`{"creator_did":"did:key:alice"}`))
	require.Error(err)
}

func TestParseJobDefaultsToQueued(t *testing.T) {
	require := require.New(t)
	job, err := ParseJob([]byte(`{"spec":{"kind":"echo"},"creator_did":"did:key:alice","cost_mana":30}`))
	require.NoError(err)
	require.Equal(StateQueued, job.State)
	require.EqualValues(30, job.CostMana)
	require.Equal(KindEcho, job.Spec.Kind)
}
