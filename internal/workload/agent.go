package workload

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/virtengine/hpc-auction-sim/internal/despool"
	"github.com/virtengine/hpc-auction-sim/internal/jobtypes"
	"github.com/virtengine/hpc-auction-sim/internal/jsa"
	"github.com/virtengine/hpc-auction-sim/internal/policy"
	"github.com/virtengine/hpc-auction-sim/internal/tracker"
)

type releaseLabel struct{}

// StatusSource supplies the centralized policy with every system's current
// description and status snapshot, queried fresh for each job; the
// composer binds this to the live batch services.
type StatusSource func(now float64) []policy.SystemInfo

// Agent is the Workload Submission Agent. In decentralized
// mode it releases jobs to the JSA owning the job's target system; in
// centralized mode it consults a CentralizedPolicy first and routes (or
// rejects) accordingly.
type Agent struct {
	id            string
	trackerID     string
	jobs          []jobtypes.JobDescription
	next          int
	systemToJSA   map[string]string
	centralized   bool
	centralPolicy *policy.CentralizedPolicy
	statusSource  StatusSource
	log           zerolog.Logger
}

// NewDecentralized builds a submission agent that targets each job's
// HPCSystem directly.
func NewDecentralized(id, trackerID string, jobs []jobtypes.JobDescription, systemToJSA map[string]string, log zerolog.Logger) *Agent {
	return &Agent{
		id:          id,
		trackerID:   trackerID,
		jobs:        jobs,
		systemToJSA: systemToJSA,
		log:         log.With().Str("agent_id", id).Str("agent_type", "workload-submission").Logger(),
	}
}

// NewCentralized builds a submission agent that asks a CentralizedPolicy
// script to pick the system for each job before routing it.
func NewCentralized(id, trackerID string, jobs []jobtypes.JobDescription, systemToJSA map[string]string, centralPolicy *policy.CentralizedPolicy, statusSource StatusSource, log zerolog.Logger) *Agent {
	return &Agent{
		id:            id,
		trackerID:     trackerID,
		jobs:          jobs,
		systemToJSA:   systemToJSA,
		centralized:   true,
		centralPolicy: centralPolicy,
		statusSource:  statusSource,
		log:           log.With().Str("agent_id", id).Str("agent_type", "workload-submission").Logger(),
	}
}

// ID satisfies despool.Actor.
func (a *Agent) ID() string { return a.id }

// Start arms the first release timer. Composer calls this once after
// registering the agent with the kernel.
func (a *Agent) Start(k *despool.Kernel) {
	if len(a.jobs) == 0 {
		return
	}
	k.ScheduleTimer(a.id, a.jobs[0].SubmissionTime-k.Now(), releaseLabel{})
}

// HandleEvent satisfies despool.Actor.
func (a *Agent) HandleEvent(k *despool.Kernel, ev despool.Event) {
	if _, ok := ev.Payload.(releaseLabel); !ok {
		return
	}
	a.release(k)
}

func (a *Agent) release(k *despool.Kernel) {
	job := a.jobs[a.next]
	a.next++

	if a.centralized {
		a.releaseCentralized(k, job)
	} else {
		a.releaseDecentralized(k, job)
	}

	if a.next < len(a.jobs) {
		k.ScheduleTimer(a.id, a.jobs[a.next].SubmissionTime-k.Now(), releaseLabel{})
	}
}

func (a *Agent) releaseDecentralized(k *despool.Kernel, job jobtypes.JobDescription) {
	target, ok := a.systemToJSA[job.HPCSystem]
	if !ok {
		a.log.Error().Int("job_id", job.JobID).Str("system", job.HPCSystem).Msg("job targets an unknown system")
		return
	}
	k.Send(a.id, target, 0, jsa.JobRequestMsg{Job: job, CanForward: true})
	k.Send(a.id, a.trackerID, 0, tracker.Event{Kind: tracker.KindSubmission, JobID: job.JobID, Now: k.Now(), SubmittedTo: job.HPCSystem})
}

func (a *Agent) releaseCentralized(k *despool.Kernel, job jobtypes.JobDescription) {
	systems := a.statusSource(k.Now())
	name, ok, err := a.centralPolicy.SelectBestSystem(context.Background(), job, k.Now(), systems)
	if err != nil {
		a.log.Error().Err(err).Int("job_id", job.JobID).Msg("centralized policy script failed")
		ok = false
	}
	if !ok {
		k.Send(a.id, a.trackerID, 0, tracker.Event{
			Kind:         tracker.KindReject,
			JobID:        job.JobID,
			Now:          k.Now(),
			FailureCause: "No feasible HPC system",
		})
		return
	}

	target, known := a.systemToJSA[name]
	if !known {
		a.log.Error().Int("job_id", job.JobID).Str("system", name).Msg("centralized policy selected an unknown system")
		return
	}
	k.Send(a.id, target, 0, jsa.JobRequestMsg{Job: job, CanForward: false, SingleBidder: true})
	k.Send(a.id, a.trackerID, 0, tracker.Event{Kind: tracker.KindSubmission, JobID: job.JobID, Now: k.Now(), SubmittedTo: name})
}
