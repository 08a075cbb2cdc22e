// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package trust

import "math"

// DecayModel is the pluggable interface every time-decay strategy
// implements: given an age in seconds, return a multiplier in [0, 1].
type DecayModel interface {
	Factor(ageSeconds uint64) float64
}

// ExponentialDecay halves the trust factor every HalfLifeSeconds.
type ExponentialDecay struct {
	HalfLifeSeconds uint64
}

// Factor implements DecayModel.
func (d ExponentialDecay) Factor(ageSeconds uint64) float64 {
	if d.HalfLifeSeconds == 0 {
		return 0
	}
	halfLives := float64(ageSeconds) / float64(d.HalfLifeSeconds)
	return math.Pow(0.5, halfLives)
}

// LinearDecay falls linearly to 0 over PeriodSeconds.
type LinearDecay struct {
	PeriodSeconds uint64
}

// Factor implements DecayModel.
func (d LinearDecay) Factor(ageSeconds uint64) float64 {
	if ageSeconds >= d.PeriodSeconds {
		return 0
	}
	if d.PeriodSeconds == 0 {
		return 0
	}
	return 1 - float64(ageSeconds)/float64(d.PeriodSeconds)
}

// StepInterval is one discrete plateau of a StepDecay model.
type StepInterval struct {
	DurationSeconds uint64
	Multiplier      float64
}

// StepDecay returns the multiplier of the first interval whose cumulative
// duration has not yet elapsed, or the last interval's multiplier once age
// exceeds all of them.
type StepDecay struct {
	Intervals []StepInterval
}

// Factor implements DecayModel.
func (d StepDecay) Factor(ageSeconds uint64) float64 {
	var accumulated uint64
	for _, interval := range d.Intervals {
		accumulated += interval.DurationSeconds
		if ageSeconds <= accumulated {
			return interval.Multiplier
		}
	}
	if len(d.Intervals) == 0 {
		return 0
	}
	return d.Intervals[len(d.Intervals)-1].Multiplier
}

// SigmoidDecay produces a smooth S-curve falloff centered at
// MidpointSeconds, with Steepness controlling how sharp the transition is.
type SigmoidDecay struct {
	MidpointSeconds uint64
	Steepness       float64
}

// Factor implements DecayModel.
func (d SigmoidDecay) Factor(ageSeconds uint64) float64 {
	if d.MidpointSeconds == 0 {
		return 0
	}
	x := float64(ageSeconds)/float64(d.MidpointSeconds) - 1
	return 1 / (1 + math.Exp(d.Steepness*x))
}

// CompositeDecay blends several models by weighted average.
type CompositeDecay struct {
	Models  []DecayModel
	Weights []float64
}

// Factor implements DecayModel.
func (d CompositeDecay) Factor(ageSeconds uint64) float64 {
	var weightedSum, totalWeight float64
	for i, m := range d.Models {
		if i >= len(d.Weights) {
			break
		}
		weightedSum += m.Factor(ageSeconds) * d.Weights[i]
		totalWeight += d.Weights[i]
	}
	if totalWeight == 0 {
		return 1
	}
	return weightedSum / totalWeight
}

// DefaultTimeDecay mirrors the original's default: exponential decay with a
// 90-day half-life.
func DefaultTimeDecay() DecayModel {
	return ExponentialDecay{HalfLifeSeconds: 90 * 24 * 3600}
}

// DistanceDecayConfig controls how trust degrades per hop along a trust
// path.
type DistanceDecayConfig struct {
	DecayPerHop          float64
	MinTrustFloor        float64
	MaxEffectiveDistance int
	UseCumulativeDecay   bool
}

// DefaultDistanceDecayConfig mirrors the original's defaults.
func DefaultDistanceDecayConfig() DistanceDecayConfig {
	return DistanceDecayConfig{DecayPerHop: 0.1, MinTrustFloor: 0.01, MaxEffectiveDistance: 6, UseCumulativeDecay: true}
}

// Factor computes the distance decay factor for a path of the given
// length, clamped to MinTrustFloor.
func (c DistanceDecayConfig) Factor(pathLength int) float64 {
	if pathLength == 0 {
		return 1
	}
	effective := pathLength
	if effective > c.MaxEffectiveDistance {
		effective = c.MaxEffectiveDistance
	}
	var factor float64
	if c.UseCumulativeDecay {
		factor = math.Pow(1-c.DecayPerHop, float64(effective))
	} else {
		factor = 1 - c.DecayPerHop*float64(effective)
	}
	if factor < c.MinTrustFloor {
		return c.MinTrustFloor
	}
	return factor
}

// InteractionDecayConfig controls inactivity penalties and interaction
// boosts for a trust edge.
type InteractionDecayConfig struct {
	InteractionTimeoutSeconds uint64
	InactivityDecayRate      float64
	InteractionBoostFactor   float64
	MaxInteractionCount      uint64
}

// DefaultInteractionDecayConfig mirrors the original's defaults: a 30-day
// inactivity timeout.
func DefaultInteractionDecayConfig() InteractionDecayConfig {
	return InteractionDecayConfig{
		InteractionTimeoutSeconds: 30 * 24 * 3600,
		InactivityDecayRate:       0.1,
		InteractionBoostFactor:    0.05,
		MaxInteractionCount:       100,
	}
}

// Factor computes the combined inactivity/boost factor for an edge last
// updated timeSinceUpdate seconds ago with interactionCount recorded
// interactions.
func (c InteractionDecayConfig) Factor(timeSinceUpdate uint64, interactionCount uint64) float64 {
	inactivity := 1.0
	if timeSinceUpdate > c.InteractionTimeoutSeconds {
		excess := timeSinceUpdate - c.InteractionTimeoutSeconds
		periods := float64(excess) / float64(c.InteractionTimeoutSeconds)
		inactivity = math.Pow(1-c.InactivityDecayRate, periods)
	}

	boost := 1.0
	if interactionCount > 0 {
		effective := interactionCount
		if effective > c.MaxInteractionCount {
			effective = c.MaxInteractionCount
		}
		boost = 1 + c.InteractionBoostFactor*math.Log(float64(effective))
	}
	return inactivity * boost
}

// Calculator combines time, distance, and interaction decay into a single
// multiplicative factor, the value an edge's stored weight is scaled by.
type Calculator struct {
	Time        DecayModel
	Distance    DistanceDecayConfig
	Interaction InteractionDecayConfig
}

// NewCalculator returns a calculator using the package defaults.
func NewCalculator() Calculator {
	return Calculator{Time: DefaultTimeDecay(), Distance: DefaultDistanceDecayConfig(), Interaction: DefaultInteractionDecayConfig()}
}

// Combined multiplies the time, distance, and interaction decay factors.
func (c Calculator) Combined(ageSeconds uint64, pathLength int, interactionCount uint64) float64 {
	return c.Time.Factor(ageSeconds) * c.Distance.Factor(pathLength) * c.Interaction.Factor(ageSeconds, interactionCount)
}
