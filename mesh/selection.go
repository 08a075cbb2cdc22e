// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package mesh

import (
	"sort"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
	"github.com/InterCooperative-Network/icn-coord/ledger"
)

// SelectionWeights tunes the contribution of price, reputation, and
// resource fit to a bid's score. The ratio is configuration, not a
// constant; see DESIGN.md for the default's rationale.
type SelectionWeights struct {
	Price      float64
	Reputation float64
	Resources  float64
}

// DefaultSelectionWeights weighs price and reputation equally, with
// resource fit as a smaller tiebreak-adjacent signal.
func DefaultSelectionWeights() SelectionWeights {
	return SelectionWeights{Price: 0.4, Reputation: 0.4, Resources: 0.2}
}

// ReputationSource resolves an executor's current reputation score.
type ReputationSource interface {
	GetReputation(did coordcore.DID) uint64
}

// fit scores how closely offered matches required, in [0, 1]: 1.0 when
// offered exactly meets or modestly exceeds required on every axis,
// decaying as offered falls short or wildly overshoots.
func fit(offered, required RequiredResources) float64 {
	axis := func(o, r uint64) float64 {
		if r == 0 {
			return 1.0
		}
		ratio := float64(o) / float64(r)
		if ratio < 1.0 {
			return ratio // under-provisioned bids score worse
		}
		// Overshoot is penalized gently: doubling required resources
		// still scores reasonably, pure waste scores worse.
		return 1.0 / ratio * 2
	}
	scores := []float64{
		axis(uint64(offered.CPUCores), uint64(required.CPUCores)),
		axis(offered.MemoryMB, required.MemoryMB),
		axis(offered.StorageMB, required.StorageMB),
	}
	sum := 0.0
	for _, s := range scores {
		if s > 1.0 {
			s = 1.0
		}
		sum += s
	}
	return sum / float64(len(scores))
}

// normalizePrice maps price into [0, 1] where lower price scores higher,
// relative to the most expensive bid in the candidate set.
func normalizePrice(price, maxPrice uint64) float64 {
	if maxPrice == 0 {
		return 1.0
	}
	return 1.0 - float64(price)/float64(maxPrice)
}

// scoredBid pairs a bid with its computed score for sorting.
type scoredBid struct {
	bid   *Bid
	score float64
	rep   uint64
}

// SelectExecutor deterministically picks a winning bid: drop bids whose
// executor fails a live mana re-check, score the rest, and return the top
// scorer, breaking ties by (higher reputation, lower price, lexicographic
// executor DID). If the chosen executor's balance can no longer cover its
// own price at charge time, callers void the selection and call
// SelectExecutor again after removing that bid.
func SelectExecutor(bids []*Bid, weights SelectionWeights, reputation ReputationSource, manaLedger ledger.ManaLedger, manaReserve uint64, required RequiredResources) (*Bid, error) {
	var solvent []*Bid
	for _, b := range bids {
		if manaLedger.GetBalance(b.ExecutorDID) < manaReserve {
			continue
		}
		if manaLedger.GetBalance(b.ExecutorDID) < b.PriceMana {
			continue
		}
		solvent = append(solvent, b)
	}
	if len(solvent) == 0 {
		return nil, coordcore.New(coordcore.KindPolicyDenied, "mesh: no solvent bids")
	}

	var maxPrice, maxRep uint64
	for _, b := range solvent {
		if b.PriceMana > maxPrice {
			maxPrice = b.PriceMana
		}
		if r := reputation.GetReputation(b.ExecutorDID); r > maxRep {
			maxRep = r
		}
	}

	scored := make([]scoredBid, 0, len(solvent))
	for _, b := range solvent {
		rep := reputation.GetReputation(b.ExecutorDID)
		normRep := normalizeReputation(rep, maxRep)
		score := weights.Price*normalizePrice(b.PriceMana, maxPrice) +
			weights.Reputation*normRep +
			weights.Resources*fit(b.Resources, required)
		scored = append(scored, scoredBid{bid: b, score: score, rep: rep})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		if scored[i].rep != scored[j].rep {
			return scored[i].rep > scored[j].rep
		}
		if scored[i].bid.PriceMana != scored[j].bid.PriceMana {
			return scored[i].bid.PriceMana < scored[j].bid.PriceMana
		}
		return scored[i].bid.ExecutorDID < scored[j].bid.ExecutorDID
	})

	return scored[0].bid, nil
}

// normalizeReputation maps rep into [0, 1] relative to the highest
// reputation among the candidate bids, the same relative treatment
// normalizePrice gives price so neither signal's absolute scale (mana vs.
// reputation points) distorts the weighted sum.
func normalizeReputation(rep, maxRep uint64) float64 {
	if maxRep == 0 {
		return 1.0
	}
	return float64(rep) / float64(maxRep)
}
