package jsa

import "github.com/virtengine/hpc-auction-sim/internal/jobtypes"

// acceptanceCode runs the three post-win, pre-submit feasibility checks, in
// GPU/nodes/memory precedence order.
func acceptanceCode(job jobtypes.JobDescription, desc jobtypes.HPCSystemDescription) int {
	switch {
	case job.RequestedGPU && !desc.HasGPU:
		return 1
	case job.Nodes > desc.NumNodes:
		return 2
	case job.MemoryGB > float64(desc.NumNodes)*desc.MemoryGBPerNode:
		return 3
	default:
		return 0
	}
}

func acceptanceCause(code int) string {
	switch code {
	case 1:
		return "Job requires GPU while System has none"
	case 2:
		return "Job requested more nodes than System has"
	case 3:
		return "Job requested more memory than System has"
	default:
		return ""
	}
}
