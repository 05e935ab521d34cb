// Package workload implements the JSON workload loader and the Workload
// Submission Agent, in both its decentralized and centralized modes.
package workload

import (
	"encoding/json"
	"os"
	"sort"

	sdkerrors "cosmossdk.io/errors"

	"github.com/virtengine/hpc-auction-sim/internal/jobtypes"
)

// ErrInvalidWorkload wraps any workload-file loading/validation error.
var ErrInvalidWorkload = sdkerrors.Register("workload", 1, "invalid workload description")

// Load reads, validates, and time-sorts a workload JSON file.
func Load(path string) ([]jobtypes.JobDescription, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // G304: operator-supplied experiment input
	if err != nil {
		return nil, sdkerrors.Wrapf(ErrInvalidWorkload, "reading %s: %v", path, err)
	}

	var jobs []jobtypes.JobDescription
	if err := json.Unmarshal(raw, &jobs); err != nil {
		return nil, sdkerrors.Wrapf(ErrInvalidWorkload, "parsing %s: %v", path, err)
	}
	if len(jobs) == 0 {
		return nil, sdkerrors.Wrapf(ErrInvalidWorkload, "%s: workload defines no jobs", path)
	}

	seen := make(map[int]bool, len(jobs))
	for _, j := range jobs {
		if err := j.Validate(); err != nil {
			return nil, sdkerrors.Wrapf(ErrInvalidWorkload, "%s: %v", path, err)
		}
		if seen[j.JobID] {
			return nil, sdkerrors.Wrapf(ErrInvalidWorkload, "%s: duplicate job_id %d", path, j.JobID)
		}
		seen[j.JobID] = true
	}

	sort.SliceStable(jobs, func(i, j int) bool { return jobs[i].SubmissionTime < jobs[j].SubmissionTime })
	return jobs, nil
}
