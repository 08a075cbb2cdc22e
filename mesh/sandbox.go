// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package mesh

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

// ResourceLimits derives container constraints from RequiredResources:
// CPU shares, memory bytes, PID limit, I/O caps, and a wall clock
// timeout.
type ResourceLimits struct {
	CPUShares  uint64 // cores * 1024
	MemoryBytes uint64
	PIDLimit   uint32
	IOBytesCap uint64
	Timeout    time.Duration
}

// LimitsFor derives the sandbox's ResourceLimits from a job's declared
// resources.
func LimitsFor(r RequiredResources, timeout time.Duration) ResourceLimits {
	return ResourceLimits{
		CPUShares:   uint64(r.CPUCores) * 1024,
		MemoryBytes: r.MemoryMB * 1024 * 1024,
		PIDLimit:    256,
		IOBytesCap:  1 << 30, // 1 GiB
		Timeout:     timeout,
	}
}

// SecurityProfile fixes the sandbox's isolation posture:
// read-only rootfs, no-new-privileges, all capabilities dropped,
// unprivileged user, no network by default, seccomp enabled.
type SecurityProfile struct {
	ReadOnlyRootfs  bool
	NoNewPrivileges bool
	DropAllCaps     bool
	UnprivilegedUID uint32
	NetworkMode     string // "none", "bridge", ...
	SeccompProfile  string
}

// DefaultSecurityProfile is the locked-down default every job runs under
// unless a policy explicitly relaxes it.
func DefaultSecurityProfile() SecurityProfile {
	return SecurityProfile{
		ReadOnlyRootfs:  true,
		NoNewPrivileges: true,
		DropAllCaps:     true,
		UnprivilegedUID: 65534,
		NetworkMode:     "none",
		SeccompProfile:  "default",
	}
}

// Result is what a sandbox run reports back to the mesh pipeline.
type Result struct {
	ExitCode       int
	Stdout         []byte
	Stderr         []byte
	ExecutionTime  time.Duration
	ResourceUsage  ResourceUsage
	ContainerID    string
	TimedOut       bool
	ArtifactHashes [][32]byte // hashed contents of any output artifact directory
}

// ResourceUsage reports what the run actually consumed.
type ResourceUsage struct {
	CPUMS           uint64
	PeakMemoryBytes uint64
	IOBytes         uint64
}

// Input stages read-only input data and (optionally) bytecode into the
// container workspace.
type Input struct {
	Data     []byte
	Bytecode []byte // populated for KindCclWasm, fetched by manifest CID
	Args     []byte
}

// Sandbox runs one job's executable content under ResourceLimits and
// SecurityProfile, returning a Result or a coordcore.Error (KindTimeout on
// deadline, KindInternal on an unexpected runtime failure).
type Sandbox interface {
	Run(ctx context.Context, kind Kind, input Input, limits ResourceLimits, sec SecurityProfile) (Result, error)
}

// DockerSandbox is the production Sandbox: every run is a freshly created,
// tightly constrained container. The actual container runtime client is
// supplied by the integrator; this type focuses on resource derivation,
// security defaults, and timeout handling, and delegates the low-level
// run to Runner.
type DockerSandbox struct {
	Runner ContainerRunner
}

// ContainerRunner is the narrow trait a real container engine client
// implements; DockerSandbox is a thin, policy-enforcing wrapper around it.
type ContainerRunner interface {
	RunContainer(ctx context.Context, image string, input Input, limits ResourceLimits, sec SecurityProfile) (Result, error)
}

// imageFor maps a job Kind to the container image the sandbox invokes.
func imageFor(kind Kind) string {
	switch kind {
	case KindEcho:
		return "icn-coord/echo:latest"
	case KindCclWasm:
		return "icn-coord/ccl-wasm-runtime:latest"
	default:
		return "icn-coord/unknown:latest"
	}
}

// Run implements Sandbox by delegating to Runner under a hard deadline;
// on timeout the Runner's context is canceled and a Result with TimedOut
// set is returned together with a KindTimeout error.
func (d *DockerSandbox) Run(ctx context.Context, kind Kind, input Input, limits ResourceLimits, sec SecurityProfile) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, limits.Timeout)
	defer cancel()

	resultCh := make(chan Result, 1)
	errCh := make(chan error, 1)
	go func() {
		res, err := d.Runner.RunContainer(ctx, imageFor(kind), input, limits, sec)
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- res
	}()

	select {
	case <-ctx.Done():
		return Result{TimedOut: true}, coordcore.New(coordcore.KindTimeout, "mesh: sandbox execution timed out")
	case err := <-errCh:
		return Result{}, coordcore.Wrap(coordcore.KindInternal, "mesh: sandbox run failed", err)
	case res := <-resultCh:
		return res, nil
	}
}

// InProcessSandbox runs KindEcho jobs in-process without any container
// engine, and is used by tests and the load-test Driver so the pipeline
// can be exercised without Docker. CclWasm is rejected: bytecode execution
// belongs to the contract runtime, not this module.
type InProcessSandbox struct{}

// Run implements Sandbox.
func (InProcessSandbox) Run(ctx context.Context, kind Kind, input Input, limits ResourceLimits, _ SecurityProfile) (Result, error) {
	if kind != KindEcho {
		return Result{}, coordcore.New(coordcore.KindInvalidOperation, "mesh: in-process sandbox only supports echo jobs")
	}
	select {
	case <-ctx.Done():
		return Result{TimedOut: true}, coordcore.New(coordcore.KindTimeout, "mesh: sandbox execution timed out")
	default:
	}
	start := time.Now()
	return Result{
		ExitCode:      0,
		Stdout:        input.Data,
		ExecutionTime: time.Since(start),
		ContainerID:   "inproc-" + uuid.NewString(),
	}, nil
}

var (
	_ Sandbox = (*DockerSandbox)(nil)
	_ Sandbox = InProcessSandbox{}
)
