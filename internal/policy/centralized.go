package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"

	sdkerrors "cosmossdk.io/errors"

	"github.com/virtengine/hpc-auction-sim/internal/jobtypes"
)

// SystemInfo bundles one system's static description and current status,
// the unit the centralized selector scores a job against.
type SystemInfo struct {
	SystemName  string                         `json:"system_name"`
	Description jobtypes.HPCSystemDescription  `json:"description"`
	Status      jobtypes.HPCSystemStatus       `json:"status"`
}

type centralizedRequest struct {
	JobDescription       jobtypes.JobDescription `json:"job_description"`
	CurrentSimulatedTime float64                 `json:"current_simulated_time"`
	Systems              []SystemInfo            `json:"systems"`
}

type centralizedResponse struct {
	SelectedSystem *string `json:"selected_system"`
}

// CentralizedPolicy is used only by the centralized Workload Submission
// Agent: given every system's description and status for a
// job, it selects the single best system up front rather than running a
// per-agent auction. It is not part of the decentralized Policy interface.
type CentralizedPolicy struct {
	ScriptPath string
}

// SelectBestSystem asks the external script to pick a system for job. An
// empty name with ok=false and a nil error means "no feasible system".
func (c *CentralizedPolicy) SelectBestSystem(ctx context.Context, job jobtypes.JobDescription, now float64, systems []SystemInfo) (name string, ok bool, err error) {
	req := centralizedRequest{
		JobDescription:       job,
		CurrentSimulatedTime: now,
		Systems:              systems,
	}
	input, err := json.Marshal(req)
	if err != nil {
		return "", false, sdkerrors.Wrap(ErrExternalProcess, err.Error())
	}

	cmd := exec.CommandContext(ctx, c.ScriptPath) //nolint:gosec // G204: script path is an operator-supplied experiment input
	cmd.Stdin = bytes.NewReader(input)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return "", false, sdkerrors.Wrapf(ErrExternalProcess, "centralized policy script %s: %v", c.ScriptPath, err)
	}

	var resp centralizedResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return "", false, sdkerrors.Wrapf(ErrExternalProcess, "centralized policy script %s: malformed response: %v", c.ScriptPath, err)
	}
	if resp.SelectedSystem == nil {
		return "", false, nil
	}
	return *resp.SelectedSystem, true, nil
}
