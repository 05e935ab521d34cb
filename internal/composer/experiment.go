// Package composer wires an experiment description into a running
// simulation: it loads the platform, workload and (optional) failure
// profile, builds one Job Scheduling Agent and Heartbeat Monitor per site,
// a Workload Submission Agent, and the Job Lifecycle Tracker, then drives
// the despool kernel to completion.
package composer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	sdkerrors "cosmossdk.io/errors"
	"gopkg.in/yaml.v3"
)

// ErrConfig is the sentinel every composer configuration error wraps: a
// configuration error is fatal, aborting the run before the simulation
// starts.
var ErrConfig = sdkerrors.Register("composer", 1, "configuration error")

// Description is the experiment description that drives one simulation run.
// JSON is the canonical format; a YAML form is accepted too, detected by
// file extension.
type Description struct {
	Platform               string  `json:"platform" yaml:"platform"`
	Workload               string  `json:"workload" yaml:"workload"`
	CentralizedSubmission  bool    `json:"centralized_submission" yaml:"centralized_submission"`
	CentralizedPolicy      string  `json:"centralized_policy" yaml:"centralized_policy"`
	DecentralizedPolicy    string  `json:"decentralized_policy" yaml:"decentralized_policy"`
	DecentralizedBidder    string  `json:"decentralized_bidder" yaml:"decentralized_bidder"`
	HeartbeatPeriod        float64 `json:"heartbeat_period" yaml:"heartbeat_period"`
	HeartbeatExpiration    float64 `json:"heartbeat_expiration" yaml:"heartbeat_expiration"`
	HardwareFailureProfile string  `json:"hardware_failure_profile" yaml:"hardware_failure_profile"`

	// Seed and MetricsAddr are supplemented fields: Seed makes RandomBidding
	// and tie-breaker sampling reproducible across runs, MetricsAddr
	// optionally exposes the Prometheus listener.
	Seed        int64  `json:"seed" yaml:"seed"`
	MetricsAddr string `json:"metrics_addr" yaml:"metrics_addr"`
}

const (
	PolicyPureLocal       = "PureLocal"
	PolicyRandomBidding   = "RandomBidding"
	PolicyHeuristicBidding = "HeuristicBidding"
	PolicyPythonBidding   = "PythonBidding"
)

// LoadExperiment reads and validates an experiment description, accepting
// either JSON or (by .yaml/.yml extension) YAML.
func LoadExperiment(path string) (*Description, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // G304: operator-supplied CLI argument
	if err != nil {
		return nil, sdkerrors.Wrapf(ErrConfig, "reading %s: %v", path, err)
	}

	var d Description
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		err = yaml.Unmarshal(raw, &d)
	} else {
		err = json.Unmarshal(raw, &d)
	}
	if err != nil {
		return nil, sdkerrors.Wrapf(ErrConfig, "parsing %s: %v", path, err)
	}
	if d.Seed == 0 {
		d.Seed = 1
	}
	if d.DecentralizedPolicy == "" {
		d.DecentralizedPolicy = PolicyPureLocal
	}

	if err := d.validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (d *Description) validate() error {
	if d.Platform == "" {
		return sdkerrors.Wrap(ErrConfig, "platform is required")
	}
	if d.Workload == "" {
		return sdkerrors.Wrap(ErrConfig, "workload is required")
	}
	switch d.DecentralizedPolicy {
	case PolicyPureLocal, PolicyRandomBidding, PolicyHeuristicBidding, PolicyPythonBidding:
	default:
		return sdkerrors.Wrapf(ErrConfig, "unknown decentralized_policy %q", d.DecentralizedPolicy)
	}
	if d.DecentralizedPolicy == PolicyPythonBidding && d.DecentralizedBidder == "" {
		return sdkerrors.Wrap(ErrConfig, "decentralized_bidder is required when decentralized_policy is PythonBidding")
	}
	if d.CentralizedSubmission && d.CentralizedPolicy == "" {
		return sdkerrors.Wrap(ErrConfig, "centralized_policy is required when centralized_submission is true")
	}
	if d.HeartbeatPeriod <= 0 {
		return sdkerrors.Wrap(ErrConfig, "heartbeat_period must be > 0")
	}
	if d.HeartbeatExpiration <= 0 {
		return sdkerrors.Wrap(ErrConfig, "heartbeat_expiration must be > 0")
	}
	return nil
}
