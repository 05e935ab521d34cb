package jsa

import "github.com/virtengine/hpc-auction-sim/internal/jobtypes"

// JobRequestMsg carries a job into the auction. CanForward distinguishes the
// original submission (which triggers a broadcast to every other healthy
// peer) from a forwarded copy (which does not re-broadcast).
type JobRequestMsg struct {
	Job        jobtypes.JobDescription
	CanForward bool
	// SingleBidder marks a request routed by the centralized Workload
	// Submission Agent, which has already chosen the winning system: the
	// receiving JSA runs a one-bidder auction against itself rather than
	// consulting its own decentralized policy's peer set.
	SingleBidder bool
}

// BidOnJobMsg is one JSA's sealed bid for a job, broadcast to every peer it
// believes is healthy (including itself).
type BidOnJobMsg struct {
	JobID      int
	Bidder     string
	BidValue   float64
	TieBreaker float64
}

// bidTimerLabel identifies the deferred-broadcast timer armed after
// ComputeBid returns: the auction charges only the reported
// bid_generation_time_seconds, not real wall-clock time.
type bidTimerLabel struct {
	JobID int
}
