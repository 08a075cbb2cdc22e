// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package trust

import (
	"fmt"
	"sync"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

// levelFromValue maps a numeric trust value back to the nearest Level not
// exceeding it, the inverse of Level.Value used by degradation math.
func levelFromValue(v float64) Level {
	switch {
	case v >= LevelFull.Value():
		return LevelFull
	case v >= LevelPartial.Value():
		return LevelPartial
	case v >= LevelBasic.Value():
		return LevelBasic
	default:
		return LevelNone
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Engine indexes relationships, federation memberships, and bridges, and
// answers ValidateTrust queries against configured policy rules.
type Engine struct {
	mu          sync.RWMutex
	rules       map[Context][]Rule
	relations   map[relKey]*Relationship
	memberships map[coordcore.DID]map[coordcore.FederationID]struct{}
	bridges     map[bridgeKey]*Bridge
	now         func() int64
}

type relKey struct {
	attestor coordcore.DID
	subject  coordcore.DID
	context  Context
}

type bridgeKey struct {
	from coordcore.FederationID
	to   coordcore.FederationID
}

// NewEngine returns an empty trust engine. now supplies the current unix
// timestamp used to evaluate relationship expiry; callers in production
// pass a real clock, tests a fixed function.
func NewEngine(now func() int64) *Engine {
	return &Engine{
		rules:       make(map[Context][]Rule),
		relations:   make(map[relKey]*Relationship),
		memberships: make(map[coordcore.DID]map[coordcore.FederationID]struct{}),
		bridges:     make(map[bridgeKey]*Bridge),
		now:         now,
	}
}

// AddRule registers a policy rule for every context it applies to.
func (e *Engine) AddRule(rule Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for ctx := range rule.ApplicableContexts {
		e.rules[ctx] = append(e.rules[ctx], rule)
	}
}

// AddMembership records that did belongs to federation fed.
func (e *Engine) AddMembership(did coordcore.DID, fed coordcore.FederationID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.memberships[did] == nil {
		e.memberships[did] = make(map[coordcore.FederationID]struct{})
	}
	e.memberships[did][fed] = struct{}{}
}

// PutRelationship installs (or replaces) a direct trust relationship.
func (e *Engine) PutRelationship(r *Relationship) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.relations[relKey{r.Attestor, r.Subject, r.Context}] = r
}

// AddBridge installs a cross-federation trust bridge.
func (e *Engine) AddBridge(b *Bridge) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bridges[bridgeKey{b.From, b.To}] = b
}

// ValidateTrust consults, in order, direct trust, federation-inherited
// trust, and cross-federation bridged trust, then checks the result against
// any policy rules registered for context.
func (e *Engine) ValidateTrust(trustor, trustee coordcore.DID, context Context) Outcome {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if rel, ok := e.relations[relKey{trustor, trustee, context}]; ok && rel.IsValid(e.now()) {
		return e.applyRules(rel.Level, context, rel.Federation != "", []string{"direct"})
	}

	if outcome, ok := e.inheritedTrust(trustor, trustee, context); ok {
		return outcome
	}

	if outcome, ok := e.bridgedTrust(trustor, trustee, context); ok {
		return outcome
	}

	return Outcome{Allowed: false, Reason: "no valid trust relationship found"}
}

func (e *Engine) inheritedTrust(trustor, trustee coordcore.DID, context Context) (Outcome, bool) {
	trustorFeds := e.memberships[trustor]
	trusteeFeds := e.memberships[trustee]
	if len(trustorFeds) == 0 || len(trusteeFeds) == 0 {
		return Outcome{}, false
	}

	for fed := range trustorFeds {
		if _, shared := trusteeFeds[fed]; !shared {
			continue
		}
		for key, rel := range e.relations {
			if key.context != context || rel.Federation != fed || !rel.Inheritance.Inheritable {
				continue
			}
			if !rel.IsValid(e.now()) {
				continue
			}
			level := inheritedLevel(rel.Level, rel.Inheritance, 1)
			path := []string{fmt.Sprintf("federation_inheritance:%s", fed)}
			return e.applyRules(level, context, true, path), true
		}
	}
	return Outcome{}, false
}

// inheritedLevel degrades base by inheritance.DegradationFactor^depth,
// clamped between the configured floor and the base level, and truncated to
// None beyond max_depth.
func inheritedLevel(base Level, inheritance Inheritance, depth uint32) Level {
	if inheritance.MaxDepth != nil && depth > *inheritance.MaxDepth {
		return LevelNone
	}
	degraded := base.Value()
	for i := uint32(0); i < depth; i++ {
		degraded *= inheritance.DegradationFactor
	}
	degraded = clamp(degraded, inheritance.MinInheritedLevel.Value(), base.Value())
	return levelFromValue(degraded)
}

func (e *Engine) bridgedTrust(trustor, trustee coordcore.DID, context Context) (Outcome, bool) {
	trustorFeds := e.memberships[trustor]
	trusteeFeds := e.memberships[trustee]
	for tf := range trustorFeds {
		for sf := range trusteeFeds {
			bridge, ok := e.bridges[bridgeKey{tf, sf}]
			reverse := false
			if !ok && e.bridges[bridgeKey{sf, tf}] != nil && e.bridges[bridgeKey{sf, tf}].Bidirectional {
				bridge = e.bridges[bridgeKey{sf, tf}]
				ok = true
				reverse = true
			}
			if !ok {
				continue
			}
			if _, allowed := bridge.AllowedContexts[context]; !allowed {
				continue
			}
			level := bridgedLevel(bridge.Level, bridge.BridgeDegradation, bridge.MaxBridgeTrust)
			dir := fmt.Sprintf("bridge:%s->%s", tf, sf)
			if reverse {
				dir = fmt.Sprintf("bridge:%s->%s(reverse)", sf, tf)
			}
			return e.applyRules(level, context, true, []string{dir}), true
		}
	}
	return Outcome{}, false
}

func bridgedLevel(base Level, degradation float64, maxLevel Level) Level {
	degraded := base.Value() * (1 - degradation)
	if degraded > maxLevel.Value() {
		degraded = maxLevel.Value()
	}
	return levelFromValue(degraded)
}

func (e *Engine) applyRules(level Level, context Context, hasFederation bool, path []string) Outcome {
	rules := e.rules[context]
	for _, rule := range rules {
		if level < rule.MinTrustLevel {
			return Outcome{Allowed: false, Reason: fmt.Sprintf("trust level %s below minimum %s for rule %q", level, rule.MinTrustLevel, rule.Name)}
		}
		if rule.RequireFederationMembership && !hasFederation {
			return Outcome{Allowed: false, Reason: fmt.Sprintf("rule %q requires federation membership", rule.Name)}
		}
		if !rule.AllowCrossFederation && len(path) > 0 && path[0] != "direct" {
			return Outcome{Allowed: false, Reason: fmt.Sprintf("rule %q does not allow cross-federation trust", rule.Name)}
		}
	}
	return Outcome{Allowed: true, EffectiveTrust: level, TrustPath: path}
}
