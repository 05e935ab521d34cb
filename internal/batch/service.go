// Package batch is a concrete, minimal stand-in for each site's batch
// compute service. The service's internals, conservative backfilling
// included, are out of scope — we only need to drive
// the "available nodes", "queue length" and "estimated start time" queries
// plus completion/failure events. Job states follow the familiar
// pending/running/completed/failed vocabulary; the scheduling algorithm
// itself is a simple FIFO-with-capacity loop, not a full backfilling
// implementation.
package batch

import (
	"math"
	"math/rand" //nolint:gosec // G404: simulated job failure sampling, not security sensitive

	"github.com/virtengine/hpc-auction-sim/internal/despool"
	"github.com/virtengine/hpc-auction-sim/internal/jobtypes"
)

// CompletedMsg is delivered to the owning JSA when a submitted job finishes
// successfully.
type CompletedMsg struct {
	JobID int
}

// FailedMsg is delivered to the owning JSA when a submitted job fails.
type FailedMsg struct {
	JobID int
	Cause string
}

// StartedMsg is delivered to the owning JSA the moment a job begins running
// (immediately on submission if capacity was free, or when it is promoted
// out of the pending queue).
type StartedMsg struct {
	JobID int
}

type runningJob struct {
	jobID     int
	nodesUsed int
}

type queuedJob struct {
	job       jobtypes.JobDescription
	nodesUsed int
	walltime  float64
}

// Service models one site's queue against its static HPCSystemDescription.
// It implements despool.Actor so the kernel can deliver its own completion
// timers back to it; Submit and Status are called synchronously by the
// owning JSA: the batch service is driven strictly single-threaded, with no
// concurrency of its own.
type Service struct {
	id       string // actor id, e.g. "Sys1-batch"
	jsaID    string // the JSA this service reports events to
	desc     jobtypes.HPCSystemDescription
	running  []runningJob
	pending  []queuedJob
	rng      *rand.Rand
	failRate float64 // probability a completed job instead fails
}

// NewService creates the batch service for one HPC system.
func NewService(desc jobtypes.HPCSystemDescription, jsaID string, rng *rand.Rand, failRate float64) *Service {
	return &Service{
		id:       desc.Name + "-batch",
		jsaID:    jsaID,
		desc:     desc,
		rng:      rng,
		failRate: failRate,
	}
}

// ID satisfies despool.Actor.
func (s *Service) ID() string { return s.id }

// NodesInUse returns the total node count currently occupied by running jobs.
func (s *Service) NodesInUse() int {
	used := 0
	for _, r := range s.running {
		used += r.nodesUsed
	}
	return used
}

// Status builds the throwaway HPCSystemStatus snapshot a policy's bid
// computation consumes.
func (s *Service) Status(now float64) jobtypes.HPCSystemStatus {
	available := s.desc.NumNodes - s.NodesInUse()
	if available < 0 {
		available = 0
	}
	return jobtypes.HPCSystemStatus{
		AvailableNodes:     available,
		EstimatedStartTime: s.estimatedStartTime(now),
		QueueLength:        len(s.pending),
	}
}

func (s *Service) estimatedStartTime(now float64) float64 {
	if s.NodesInUse()+0 <= s.desc.NumNodes && len(s.pending) == 0 {
		return now
	}
	// Naive estimate: now plus the remaining runtime of the soonest-ending
	// running job for each queue position ahead of a new arrival. Without a
	// backfilling model we approximate with a flat per-pending-job delay
	// proportional to the average queued walltime.
	if len(s.pending) == 0 {
		return now
	}
	total := 0.0
	for _, q := range s.pending {
		total += q.walltime
	}
	return now + total
}

// ScaledWalltime derives the simulated execution time for a job's requested
// walltime, scaled by the host-speed factor the original tracker uses to
// keep long HPC walltimes tractable in simulated time.
func ScaledWalltime(walltime int, nodeSpeed float64) float64 {
	scale := math.Max(50, nodeSpeed/1.5e12)
	return float64(walltime) / scale
}

// Submit admits job to the service. If capacity is immediately available it
// starts running and a completion (or failure) timer is armed on the
// kernel; otherwise the job is queued and will be started the next time
// capacity is released by a HandleEvent call.
func (s *Service) Submit(k *despool.Kernel, job jobtypes.JobDescription) {
	walltime := ScaledWalltime(job.Walltime, s.desc.NodeSpeed)
	if s.NodesInUse()+job.Nodes <= s.desc.NumNodes {
		s.start(k, job, walltime)
		return
	}
	s.pending = append(s.pending, queuedJob{job: job, nodesUsed: job.Nodes, walltime: walltime})
}

func (s *Service) start(k *despool.Kernel, job jobtypes.JobDescription, walltime float64) {
	s.running = append(s.running, runningJob{jobID: job.JobID, nodesUsed: job.Nodes})
	k.Send(s.id, s.jsaID, 0, StartedMsg{JobID: job.JobID})
	k.ScheduleTimer(s.id, walltime, job.JobID)
}

// HandleEvent satisfies despool.Actor: a timer firing here means the job
// named by its label has reached its scaled walltime.
func (s *Service) HandleEvent(k *despool.Kernel, ev despool.Event) {
	if ev.Kind != despool.EventTimer {
		return
	}
	jobID, ok := ev.Payload.(int)
	if !ok {
		return
	}
	s.finish(k, jobID)
}

func (s *Service) finish(k *despool.Kernel, jobID int) {
	for i, r := range s.running {
		if r.jobID != jobID {
			continue
		}
		s.running = append(s.running[:i], s.running[i+1:]...)
		break
	}

	if s.rng != nil && s.rng.Float64() < s.failRate {
		k.Send(s.id, s.jsaID, 0, FailedMsg{JobID: jobID, Cause: "batch execution failure"})
	} else {
		k.Send(s.id, s.jsaID, 0, CompletedMsg{JobID: jobID})
	}

	s.promoteQueued(k)
}

func (s *Service) promoteQueued(k *despool.Kernel) {
	remaining := s.pending[:0]
	for _, q := range s.pending {
		if s.NodesInUse()+q.nodesUsed <= s.desc.NumNodes {
			s.start(k, q.job, q.walltime)
		} else {
			remaining = append(remaining, q)
		}
	}
	s.pending = remaining
}
