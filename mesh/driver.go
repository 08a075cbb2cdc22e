// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package mesh

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

// DriverConfig controls a load-test run: how many jobs to submit, at what
// rate, and the job shape to repeat.
type DriverConfig struct {
	JobCount    int
	RatePerSec  float64 // 0 means fire all jobs back to back with no pacing
	CreatorDID  coordcore.DID
	CostMana    uint64
	JobTemplate Spec
}

// DriverStats summarizes one load-test run's latency distribution and
// outcome counts, the shape a bench-style CLI prints.
type DriverStats struct {
	Submitted int
	Settled   int
	TimedOut  int
	Failed    int
	Latencies []time.Duration
}

// P50 returns the median submit-to-completion latency, or 0 if no job
// completed.
func (s DriverStats) P50() time.Duration { return s.percentile(0.50) }

// P99 returns the tail submit-to-completion latency, or 0 if no job
// completed.
func (s DriverStats) P99() time.Duration { return s.percentile(0.99) }

func (s DriverStats) percentile(p float64) time.Duration {
	if len(s.Latencies) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), s.Latencies...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}

// Driver repeatedly submits jobs against a Manager at a target rate and
// records how long each took to reach a terminal state.
type Driver struct {
	Manager *Manager
}

// Run submits cfg.JobCount jobs, pacing submissions at cfg.RatePerSec, and
// waits for every job to settle or time out before returning.
func (d *Driver) Run(ctx context.Context, cfg DriverConfig) DriverStats {
	var interval time.Duration
	if cfg.RatePerSec > 0 {
		interval = time.Duration(float64(time.Second) / cfg.RatePerSec)
	}

	raw, _ := json.Marshal(Job{
		Spec:       cfg.JobTemplate,
		CreatorDID: cfg.CreatorDID,
		CostMana:   cfg.CostMana,
	})

	var (
		mu    sync.Mutex
		stats DriverStats
		wg    sync.WaitGroup
	)

	for i := 0; i < cfg.JobCount; i++ {
		if ctx.Err() != nil {
			break
		}
		start := time.Now()
		job, err := d.Manager.Submit(ctx, raw)
		mu.Lock()
		stats.Submitted++
		mu.Unlock()
		if err != nil {
			mu.Lock()
			stats.Failed++
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(jobID coordcore.JobID, start time.Time) {
			defer wg.Done()
			_, err := d.Manager.RunToCompletion(ctx, jobID)
			elapsed := time.Since(start)
			mu.Lock()
			defer mu.Unlock()
			stats.Latencies = append(stats.Latencies, elapsed)
			switch {
			case err == nil:
				stats.Settled++
			case coordcore.KindOf(err) == coordcore.KindTimeout:
				stats.TimedOut++
			default:
				stats.Failed++
			}
		}(job.ID, start)

		if interval > 0 {
			select {
			case <-time.After(interval):
			case <-ctx.Done():
			}
		}
	}

	wg.Wait()
	return stats
}
