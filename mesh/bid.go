// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package mesh

import (
	"sync"
	"time"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

// Bid is an executor's offer to run a job.
type Bid struct {
	JobID       coordcore.JobID     `json:"job_id"`
	ExecutorDID coordcore.DID       `json:"executor_did"`
	PriceMana   uint64              `json:"price_mana"`
	Resources   RequiredResources   `json:"resources"`
	Signature   coordcore.Signature `json:"signature,omitempty"`
}

// SignableBytes renders the fields an executor signs over.
func (b *Bid) SignableBytes() []byte {
	buf := append([]byte{}, b.JobID.Bytes()...)
	buf = append(buf, []byte(b.ExecutorDID)...)
	return buf
}

// BiddingWindow collects bids for one job over a fixed interval or until a
// quorum arrives, whichever comes first.
type BiddingWindow struct {
	mu       sync.Mutex
	jobID    coordcore.JobID
	bids     []*Bid
	quorum   int
	deadline time.Time
	done     chan struct{}
	closed   bool
}

// NewBiddingWindow opens a window for jobID that stays open until quorum
// bids have arrived or windowMS elapses, whichever is first.
func NewBiddingWindow(jobID coordcore.JobID, windowMS uint64, quorum int) *BiddingWindow {
	w := &BiddingWindow{
		jobID:    jobID,
		quorum:   quorum,
		deadline: time.Now().Add(time.Duration(windowMS) * time.Millisecond),
		done:     make(chan struct{}),
	}
	go func() {
		timer := time.NewTimer(time.Until(w.deadline))
		defer timer.Stop()
		<-timer.C
		w.close()
	}()
	return w
}

func (w *BiddingWindow) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.done)
	}
}

// Submit records a bid for this window. It is rejected once the window has
// closed.
func (w *BiddingWindow) Submit(bid *Bid) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return coordcore.New(coordcore.KindInvalidOperation, "mesh: bidding window closed")
	}
	if bid.JobID != w.jobID {
		return coordcore.New(coordcore.KindInvalidOperation, "mesh: bid targets a different job")
	}
	w.bids = append(w.bids, bid)
	if w.quorum > 0 && len(w.bids) >= w.quorum {
		w.mu.Unlock()
		w.close()
		w.mu.Lock()
	}
	return nil
}

// Wait blocks until the window closes (deadline elapsed or quorum met),
// then returns every bid collected. It cannot be canceled; callers that
// need cancellation select on Done first.
func (w *BiddingWindow) Wait() []*Bid {
	<-w.done
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*Bid, len(w.bids))
	copy(out, w.bids)
	return out
}

// Done exposes the window's closed signal for select-based callers.
func (w *BiddingWindow) Done() <-chan struct{} {
	return w.done
}
