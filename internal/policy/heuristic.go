package policy

import (
	"context"
	"math"

	"github.com/virtengine/hpc-auction-sim/internal/jobtypes"
)

// HeuristicBidding scores a job against a system's static description and
// its momentary status using a fixed scoring formula. The queue-length
// penalty coefficient (0.1) is hard-coded rather than exposed as a tunable.
type HeuristicBidding struct{}

func (HeuristicBidding) Name() string { return "HeuristicBidding" }

func (HeuristicBidding) BroadcastTargets(self string, healthyPeers []string) ([]string, int) {
	return otherHealthyPeers(self, healthyPeers), len(healthyPeers)
}

func (HeuristicBidding) BidTargets(_ string, healthyPeers []string) []string {
	return healthyPeers
}

func (HeuristicBidding) ComputeBid(_ context.Context, job jobtypes.JobDescription, desc jobtypes.HPCSystemDescription, status jobtypes.HPCSystemStatus, now float64) (float64, float64, error) {
	if infeasible(job, desc) {
		return -1, 0, nil
	}

	totalNodes := float64(desc.NumNodes)
	used := totalNodes - float64(status.AvailableNodes)
	nodeUtil := used / totalNodes
	nodeScore := 1 - nodeUtil
	nodeCompat := math.Min(1, float64(status.AvailableNodes)/float64(job.Nodes))
	queueFactor := math.Max(0.1, 1-0.1*float64(status.QueueLength))

	resourceFactor := resourceFactor(desc.Type, job.JobType)
	siteFactor := siteFactor(job, desc)

	delay := status.EstimatedStartTime - now
	delayPenalty := math.Max(0.1, 1-delay/100)

	base := nodeScore * nodeCompat * resourceFactor * siteFactor * delayPenalty
	finalBid := math.Min(1, base*queueFactor)

	return math.Floor(finalBid*100) / 100, 0, nil
}

func infeasible(job jobtypes.JobDescription, desc jobtypes.HPCSystemDescription) bool {
	if job.RequestedGPU && !desc.HasGPU {
		return true
	}
	if job.Nodes > desc.NumNodes {
		return true
	}
	if job.MemoryGB > float64(desc.NumNodes)*desc.MemoryGBPerNode {
		return true
	}
	return false
}

func resourceFactor(systemType, jobType jobtypes.JobType) float64 {
	if systemType == jobType {
		return 1.0
	}
	switch jobType {
	case jobtypes.JobTypeHPC, jobtypes.JobTypeAI, jobtypes.JobTypeHybrid:
		return 0.8
	case jobtypes.JobTypeStorage:
		return 0.3
	}
	if systemType == jobtypes.JobTypeStorage {
		return 0.5
	}
	return 0.5
}

func siteFactor(job jobtypes.JobDescription, desc jobtypes.HPCSystemDescription) float64 {
	if job.HPCSite != desc.Site {
		return 0.7
	}
	if job.HPCSystem == desc.Name {
		return 1.0
	}
	return 0.9
}
