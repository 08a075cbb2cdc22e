// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package adversarial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

func TestEmergencyCoordinatorGlobalFreeze(t *testing.T) {
	require := require.New(t)
	c := NewEmergencyCoordinator(nil)
	did := coordcore.DID("did:icn:alice")

	require.True(c.IsOperationAllowed(did))

	c.ActivateProtocol(GlobalFreeze())
	require.True(c.IsGloballyFrozen())
	require.False(c.IsOperationAllowed(did))

	require.NoError(c.DeactivateProtocol(KindGlobalFreeze))
	require.True(c.IsOperationAllowed(did))
}

func TestEmergencyCoordinatorAccountFreeze(t *testing.T) {
	require := require.New(t)
	c := NewEmergencyCoordinator(nil)
	alice := coordcore.DID("did:icn:alice")
	bob := coordcore.DID("did:icn:bob")

	c.ActivateProtocol(AccountFreeze(alice))
	require.False(c.IsOperationAllowed(alice))
	require.True(c.IsOperationAllowed(bob))

	require.NoError(c.DeactivateProtocol(KindAccountFreeze))
	require.True(c.IsOperationAllowed(alice))
}

func TestEmergencyCoordinatorRateLimit(t *testing.T) {
	require := require.New(t)
	now := time.Unix(1_700_000_000, 0)
	c := NewEmergencyCoordinator(func() time.Time { return now })
	did := coordcore.DID("did:icn:alice")

	c.ActivateProtocol(RateLimit(2))
	require.True(c.IsOperationAllowed(did))
	require.True(c.IsOperationAllowed(did))
	require.False(c.IsOperationAllowed(did))

	now = now.Add(time.Hour + time.Second)
	require.True(c.IsOperationAllowed(did))
}

func TestEmergencyCoordinatorDeactivateUnknownKind(t *testing.T) {
	c := NewEmergencyCoordinator(nil)
	require.Error(t, c.DeactivateProtocol(EmergencyKind("bogus")))
}

func TestEmergencyCoordinatorActiveProtocolsSnapshot(t *testing.T) {
	require := require.New(t)
	c := NewEmergencyCoordinator(nil)
	c.ActivateProtocol(GlobalFreeze())
	c.ActivateProtocol(EnhancedValidation())
	require.Len(c.ActiveProtocols(), 2)
}
