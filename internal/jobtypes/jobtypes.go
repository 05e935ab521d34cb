// Package jobtypes defines the data model shared by every component of the
// federation: job descriptions, HPC system descriptions and status
// snapshots, lifecycle records, bids and the agent network roster.
package jobtypes

import (
	"fmt"

	sdkerrors "cosmossdk.io/errors"
)

// JobType enumerates the workload categories a job may belong to.
type JobType string

const (
	JobTypeHPC     JobType = "HPC"
	JobTypeAI      JobType = "AI"
	JobTypeHybrid  JobType = "HYBRID"
	JobTypeGPU     JobType = "GPU"
	JobTypeMemory  JobType = "MEMORY"
	JobTypeStorage JobType = "STORAGE"
)

func (t JobType) valid() bool {
	switch t {
	case JobTypeHPC, JobTypeAI, JobTypeHybrid, JobTypeGPU, JobTypeMemory, JobTypeStorage:
		return true
	default:
		return false
	}
}

// JobDescription is immutable once loaded from the workload file.
type JobDescription struct {
	JobID                int     `json:"JobID"`
	UserID               int     `json:"UserID"`
	GroupID              int     `json:"GroupID"`
	JobType              JobType `json:"JobType"`
	SubmissionTime       float64 `json:"SubmissionTime"`
	Walltime             int     `json:"Walltime"`
	Nodes                int     `json:"Nodes"`
	RequestedGPU         bool    `json:"RequestedGPU"`
	MemoryGB             float64 `json:"MemoryGB"`
	RequestedStorageGB   float64 `json:"RequestedStorageGB"`
	HPCSite              string  `json:"HPCSite"`
	HPCSystem            string  `json:"HPCSystem"`
}

// Validate checks the invariants documented for JobDescription.
func (j JobDescription) Validate() error {
	if j.JobID < 1 {
		return sdkerrors.Wrapf(ErrInvalidJob, "job_id %d must be >= 1", j.JobID)
	}
	if !j.JobType.valid() {
		return sdkerrors.Wrapf(ErrInvalidJob, "job %d: unknown job type %q", j.JobID, j.JobType)
	}
	if j.SubmissionTime < 0 {
		return sdkerrors.Wrapf(ErrInvalidJob, "job %d: submission_time must be >= 0", j.JobID)
	}
	if j.Walltime <= 0 {
		return sdkerrors.Wrapf(ErrInvalidJob, "job %d: walltime must be > 0", j.JobID)
	}
	if j.Nodes < 1 {
		return sdkerrors.Wrapf(ErrInvalidJob, "job %d: nodes must be >= 1", j.JobID)
	}
	if j.MemoryGB < 0 {
		return sdkerrors.Wrapf(ErrInvalidJob, "job %d: requested memory must be >= 0", j.JobID)
	}
	if j.RequestedStorageGB < 0 {
		return sdkerrors.Wrapf(ErrInvalidJob, "job %d: requested storage must be >= 0", j.JobID)
	}
	if j.HPCSite == "" {
		return sdkerrors.Wrapf(ErrInvalidJob, "job %d: hpc_site is required", j.JobID)
	}
	if j.HPCSystem == "" {
		return sdkerrors.Wrapf(ErrInvalidJob, "job %d: hpc_system is required", j.JobID)
	}
	return nil
}

// HPCSystemDescription is the static, immutable profile of one HPC site's
// system, as read off the platform file at instantiation time.
type HPCSystemDescription struct {
	Name             string
	Site             string
	Type             JobType
	NumNodes         int
	NodeSpeed        float64
	MemoryGBPerNode  float64
	StorageGB        float64
	HasGPU           bool
	Interconnect     string
}

// Validate checks the invariants documented for HPCSystemDescription.
func (d HPCSystemDescription) Validate() error {
	if d.Name == "" {
		return sdkerrors.Wrap(ErrInvalidSystem, "system name is required")
	}
	if d.Site == "" {
		return sdkerrors.Wrapf(ErrInvalidSystem, "system %q: site is required", d.Name)
	}
	if d.NumNodes < 1 {
		return sdkerrors.Wrapf(ErrInvalidSystem, "system %q: num_nodes must be >= 1", d.Name)
	}
	if d.NodeSpeed <= 0 {
		return sdkerrors.Wrapf(ErrInvalidSystem, "system %q: node_speed must be > 0", d.Name)
	}
	return nil
}

// HPCSystemStatus is a throwaway snapshot taken for one bid computation.
type HPCSystemStatus struct {
	AvailableNodes     int
	EstimatedStartTime float64
	QueueLength        int
}

// FinalStatus is the terminal-or-pending classification of a JobLifecycle.
type FinalStatus string

const (
	StatusPending   FinalStatus = "PENDING"
	StatusScheduled FinalStatus = "SCHEDULED"
	StatusCompleted FinalStatus = "COMPLETED"
	StatusFailed    FinalStatus = "FAILED"
	StatusRejected  FinalStatus = "REJECTED"
)

// JobLifecycle is the per-job record exclusively owned and mutated by the
// tracker. Zero-valued time fields mean "not yet set".
type JobLifecycle struct {
	JobID          int
	SubmittedTo    string
	ScheduledOn    string
	SubmissionTime float64
	SchedulingTime float64
	StartTime      float64
	EndTime        float64
	DecisionTime   float64
	WaitingTime    float64
	ExecutionTime  float64
	Bids           string
	FinalStatus    FinalStatus
	FailureCause   string
}

// Bid is a single JSA's offer for a job, discarded once the auction for
// that job closes.
type Bid struct {
	AgentIdentity string
	BidValue      float64
	TieBreaker    float64
}

// Feasible reports whether the bid declares the bidder capable of running
// the job (a negative bid value means infeasible).
func (b Bid) Feasible() bool {
	return b.BidValue >= 0
}

var (
	// ErrInvalidJob is the sentinel wrapped by JobDescription validation failures.
	ErrInvalidJob = sdkerrors.Register("jobtypes", 1, "invalid job description")
	// ErrInvalidSystem is the sentinel wrapped by HPCSystemDescription validation failures.
	ErrInvalidSystem = sdkerrors.Register("jobtypes", 2, "invalid hpc system description")
)

// String renders a job identity as job#<id>(<site>-><system>).
func (j JobDescription) String() string {
	return fmt.Sprintf("job#%d(%s->%s)", j.JobID, j.HPCSite, j.HPCSystem)
}
