// Package policy implements the pluggable bid-computation contract every Job
// Scheduling Agent delegates to: PureLocal, RandomBidding, HeuristicBidding
// and PythonBidding satisfy the decentralized Policy interface below;
// Centralized is a distinct, single-shot selector used only by the
// centralized Workload Submission Agent (see internal/policy/centralized.go).
//
// Expressed as one interface with one concrete type per variant, not a
// class hierarchy: no shared base type.
package policy

import (
	"context"
	"sort"

	"github.com/virtengine/hpc-auction-sim/internal/jobtypes"
)

// Policy is the decentralized bid-computation contract.
type Policy interface {
	// Name identifies the variant for logging and CLI selection.
	Name() string

	// BroadcastTargets decides who a JobRequest should be forwarded to and
	// how many bids are needed before the auction for this job can be
	// decided. healthyPeers includes self. PureLocal forwards to nobody and
	// needs exactly one bid (its own).
	BroadcastTargets(self string, healthyPeers []string) (targets []string, numNeeded int)

	// ComputeBid is the pluggable scoring function: a pure computation (or,
	// for PythonBidding, a blocking subprocess call) returning a bid value
	// and the simulated seconds its computation is charged, which the
	// caller uses to defer the bid broadcast.
	ComputeBid(ctx context.Context, job jobtypes.JobDescription, desc jobtypes.HPCSystemDescription, status jobtypes.HPCSystemStatus, now float64) (bidValue float64, deltaT float64, err error)

	// BidTargets returns the peers a BidOnJob should be broadcast to once a
	// bid has been computed.
	BidTargets(self string, healthyPeers []string) []string
}

// DetermineWinner implements the one winner-election algorithm shared by
// every policy variant: highest bid wins, ties broken by
// higher tie-breaker, further ties broken by a stable lexical ordering on
// agent identity. Returns ok=false iff bids is empty.
func DetermineWinner(bids map[string]jobtypes.Bid) (winner string, ok bool) {
	if len(bids) == 0 {
		return "", false
	}
	identities := make([]string, 0, len(bids))
	for id := range bids {
		identities = append(identities, id)
	}
	sort.Strings(identities)

	best := identities[0]
	for _, id := range identities[1:] {
		if better(bids[id], bids[best], id, best) {
			best = id
		}
	}
	return best, true
}

func better(a, b jobtypes.Bid, aID, bID string) bool {
	if a.BidValue != b.BidValue {
		return a.BidValue > b.BidValue
	}
	if a.TieBreaker != b.TieBreaker {
		return a.TieBreaker > b.TieBreaker
	}
	return aID < bID
}

// otherHealthyPeers returns healthyPeers with self removed, preserving order.
func otherHealthyPeers(self string, healthyPeers []string) []string {
	out := make([]string, 0, len(healthyPeers))
	for _, id := range healthyPeers {
		if id != self {
			out = append(out, id)
		}
	}
	return out
}
