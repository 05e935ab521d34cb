package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"

	sdkerrors "cosmossdk.io/errors"

	"github.com/virtengine/hpc-auction-sim/internal/jobtypes"
)

// ErrExternalProcess wraps any failure to run or parse an external bidding
// or centralized-selection script.
var ErrExternalProcess = sdkerrors.Register("policy", 1, "external process policy failure")

// pythonBidRequest is written to the child's stdin.
type pythonBidRequest struct {
	JobDescription        jobtypes.JobDescription        `json:"job_description"`
	HPCSystemDescription  jobtypes.HPCSystemDescription  `json:"hpc_system_description"`
	HPCSystemStatus       jobtypes.HPCSystemStatus       `json:"hpc_system_status"`
	CurrentSimulatedTime  float64                        `json:"current_simulated_time"`
}

// pythonBidResponse is read back from the child's stdout.
type pythonBidResponse struct {
	Bid                       float64 `json:"bid"`
	BidGenerationTimeSeconds  float64 `json:"bid_generation_time_seconds"`
}

// PythonBidding delegates bid computation to an external interpreter
// script, exchanging one JSON document each way over stdio. This blocks the
// calling goroutine in real time, but the cost charged to the simulation is
// only the reported bid_generation_time_seconds, applied by the caller as a
// deferred-send timer — not the real wall-clock spent waiting on the child.
type PythonBidding struct {
	ScriptPath string
}

func (p *PythonBidding) Name() string { return "PythonBidding" }

func (p *PythonBidding) BroadcastTargets(self string, healthyPeers []string) ([]string, int) {
	return otherHealthyPeers(self, healthyPeers), len(healthyPeers)
}

func (p *PythonBidding) BidTargets(_ string, healthyPeers []string) []string {
	return healthyPeers
}

func (p *PythonBidding) ComputeBid(ctx context.Context, job jobtypes.JobDescription, desc jobtypes.HPCSystemDescription, status jobtypes.HPCSystemStatus, now float64) (float64, float64, error) {
	req := pythonBidRequest{
		JobDescription:       job,
		HPCSystemDescription: desc,
		HPCSystemStatus:      status,
		CurrentSimulatedTime: now,
	}
	input, err := json.Marshal(req)
	if err != nil {
		return 0, 0, sdkerrors.Wrap(ErrExternalProcess, err.Error())
	}

	cmd := exec.CommandContext(ctx, p.ScriptPath) //nolint:gosec // G204: script path is an operator-supplied experiment input
	cmd.Stdin = bytes.NewReader(input)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return 0, 0, sdkerrors.Wrapf(ErrExternalProcess, "bidding script %s: %v", p.ScriptPath, err)
	}

	var resp pythonBidResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return 0, 0, sdkerrors.Wrapf(ErrExternalProcess, "bidding script %s: malformed response: %v", p.ScriptPath, err)
	}

	return resp.Bid, resp.BidGenerationTimeSeconds, nil
}
