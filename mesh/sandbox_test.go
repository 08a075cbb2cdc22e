// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package mesh

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

func TestInProcessSandboxEchoesInput(t *testing.T) {
	require := require.New(t)
	sb := InProcessSandbox{}
	res, err := sb.Run(context.Background(), KindEcho, Input{Data: []byte("hello")}, LimitsFor(RequiredResources{}, time.Second), DefaultSecurityProfile())
	require.NoError(err)
	require.Equal([]byte("hello"), res.Stdout)
	require.Equal(0, res.ExitCode)
}

func TestInProcessSandboxRejectsCclWasm(t *testing.T) {
	require := require.New(t)
	sb := InProcessSandbox{}
	_, err := sb.Run(context.Background(), KindCclWasm, Input{}, LimitsFor(RequiredResources{}, time.Second), DefaultSecurityProfile())
	require.Error(err)
	require.Equal(coordcore.KindInvalidOperation, coordcore.KindOf(err))
}

type slowRunner struct{ delay time.Duration }

func (s slowRunner) RunContainer(ctx context.Context, image string, input Input, limits ResourceLimits, sec SecurityProfile) (Result, error) {
	select {
	case <-time.After(s.delay):
		return Result{ExitCode: 0}, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func TestDockerSandboxTimesOut(t *testing.T) {
	require := require.New(t)
	sb := &DockerSandbox{Runner: slowRunner{delay: 200 * time.Millisecond}}
	limits := LimitsFor(RequiredResources{}, 10*time.Millisecond)
	res, err := sb.Run(context.Background(), KindEcho, Input{}, limits, DefaultSecurityProfile())
	require.Error(err)
	require.True(res.TimedOut)
	require.Equal(coordcore.KindTimeout, coordcore.KindOf(err))
}

func TestDockerSandboxSucceeds(t *testing.T) {
	require := require.New(t)
	sb := &DockerSandbox{Runner: slowRunner{delay: time.Millisecond}}
	limits := LimitsFor(RequiredResources{}, time.Second)
	res, err := sb.Run(context.Background(), KindEcho, Input{}, limits, DefaultSecurityProfile())
	require.NoError(err)
	require.Equal(0, res.ExitCode)
}

func TestLimitsForDerivesFromRequiredResources(t *testing.T) {
	require := require.New(t)
	l := LimitsFor(RequiredResources{CPUCores: 2, MemoryMB: 512}, time.Second)
	require.EqualValues(2048, l.CPUShares)
	require.EqualValues(512*1024*1024, l.MemoryBytes)
}
