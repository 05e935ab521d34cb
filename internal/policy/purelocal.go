package policy

import (
	"context"

	"github.com/virtengine/hpc-auction-sim/internal/jobtypes"
)

// PureLocal never forwards a job request and never solicits peer bids: the
// site that first saw the job is the only bidder.
type PureLocal struct{}

func (PureLocal) Name() string { return "PureLocal" }

func (PureLocal) BroadcastTargets(self string, healthyPeers []string) ([]string, int) {
	return nil, 1
}

func (PureLocal) ComputeBid(_ context.Context, _ jobtypes.JobDescription, _ jobtypes.HPCSystemDescription, _ jobtypes.HPCSystemStatus, _ float64) (float64, float64, error) {
	return 1.0, 0, nil
}

func (PureLocal) BidTargets(self string, _ []string) []string {
	return []string{self}
}
