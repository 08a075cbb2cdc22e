// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package adversarial

import (
	"sync"
	"time"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

type rateLimitState struct {
	count       uint64
	windowStart time.Time
	maxPerHour  uint64
}

// EmergencyCoordinator maintains the set of active EmergencyProtocols and
// answers IsOperationAllowed for every economic operation.
type EmergencyCoordinator struct {
	mu           sync.Mutex
	active       []EmergencyProtocol
	globalFreeze bool
	frozen       map[coordcore.DID]struct{}
	rateLimits   map[coordcore.DID]*rateLimitState
	now          func() time.Time
}

// NewEmergencyCoordinator returns a coordinator with no active protocols.
func NewEmergencyCoordinator(now func() time.Time) *EmergencyCoordinator {
	if now == nil {
		now = time.Now
	}
	return &EmergencyCoordinator{
		frozen:     make(map[coordcore.DID]struct{}),
		rateLimits: make(map[coordcore.DID]*rateLimitState),
		now:        now,
	}
}

// ActivateProtocol records protocol as active and applies its immediate
// effect (freezing accounts, flipping the global freeze, or seeding rate
// limits).
func (c *EmergencyCoordinator) ActivateProtocol(protocol EmergencyProtocol) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch protocol.Kind {
	case KindGlobalFreeze:
		c.globalFreeze = true
	case KindAccountFreeze:
		for _, a := range protocol.Accounts {
			c.frozen[a] = struct{}{}
		}
	case KindRateLimit:
		now := c.now()
		for account := range c.rateLimits {
			c.rateLimits[account] = &rateLimitState{windowStart: now, maxPerHour: protocol.MaxOpsPerHour}
		}
		// New accounts encountered after activation pick up the limit
		// lazily in IsOperationAllowed via activeRateLimitLocked.
	}
	c.active = append(c.active, protocol)
}

// activeRateLimitLocked returns the configured max-ops-per-hour from the
// most recently activated RateLimit protocol, or 0 if none is active.
func (c *EmergencyCoordinator) activeRateLimitLocked() uint64 {
	for i := len(c.active) - 1; i >= 0; i-- {
		if c.active[i].Kind == KindRateLimit {
			return c.active[i].MaxOpsPerHour
		}
	}
	return 0
}

// IsOperationAllowed returns false if a global freeze is active, account is
// frozen, or account is over its rate limit; otherwise it increments the
// rate-limit counter and returns true.
func (c *EmergencyCoordinator) IsOperationAllowed(account coordcore.DID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.globalFreeze {
		return false
	}
	if _, frozen := c.frozen[account]; frozen {
		return false
	}

	limit := c.activeRateLimitLocked()
	if limit == 0 {
		return true
	}

	now := c.now()
	state := c.rateLimits[account]
	if state == nil {
		state = &rateLimitState{windowStart: now, maxPerHour: limit}
		c.rateLimits[account] = state
	}
	if now.Sub(state.windowStart) >= time.Hour {
		state.count = 0
		state.windowStart = now
	}
	if state.count >= state.maxPerHour {
		return false
	}
	state.count++
	return true
}

// DeactivateProtocol clears every active protocol of kind, reversing its
// effect.
func (c *EmergencyCoordinator) DeactivateProtocol(kind EmergencyKind) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch kind {
	case KindGlobalFreeze:
		c.globalFreeze = false
	case KindAccountFreeze:
		c.frozen = make(map[coordcore.DID]struct{})
	case KindRateLimit:
		c.rateLimits = make(map[coordcore.DID]*rateLimitState)
	case KindRollback, KindEnhancedValidation:
		// no persistent state to clear beyond the active list below
	default:
		return coordcore.New(coordcore.KindInvalidOperation, "adversarial: unknown protocol kind "+string(kind))
	}

	kept := c.active[:0]
	for _, p := range c.active {
		if p.Kind != kind {
			kept = append(kept, p)
		}
	}
	c.active = kept
	return nil
}

// ActiveProtocols returns a snapshot of every currently active protocol.
func (c *EmergencyCoordinator) ActiveProtocols() []EmergencyProtocol {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]EmergencyProtocol(nil), c.active...)
}

// IsGloballyFrozen reports whether a GlobalFreeze is currently active.
func (c *EmergencyCoordinator) IsGloballyFrozen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.globalFreeze
}
