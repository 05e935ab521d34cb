package policy

import (
	"context"
	"math/rand" //nolint:gosec // G404: simulation bid sampling, not a security-sensitive value

	"github.com/virtengine/hpc-auction-sim/internal/jobtypes"
)

// RandomBidding bids uniformly in [0,1] regardless of fit, broadcasting to
// every healthy peer. Its source of randomness is nondeterministic by
// default; callers that need reproducible runs supply a
// seeded *rand.Rand via NewRandomBidding.
type RandomBidding struct {
	rng *rand.Rand
}

// NewRandomBidding builds a RandomBidding policy. Pass nil for rng to use an
// unseeded, time-derived source; pass a seeded rand.Rand for reproducible runs.
func NewRandomBidding(rng *rand.Rand) *RandomBidding {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63())) //nolint:gosec // G404: see type doc
	}
	return &RandomBidding{rng: rng}
}

func (*RandomBidding) Name() string { return "RandomBidding" }

func (*RandomBidding) BroadcastTargets(self string, healthyPeers []string) ([]string, int) {
	return otherHealthyPeers(self, healthyPeers), len(healthyPeers)
}

func (p *RandomBidding) ComputeBid(_ context.Context, _ jobtypes.JobDescription, _ jobtypes.HPCSystemDescription, _ jobtypes.HPCSystemStatus, _ float64) (float64, float64, error) {
	return p.rng.Float64(), 0, nil
}

func (*RandomBidding) BidTargets(_ string, healthyPeers []string) []string {
	return healthyPeers
}
