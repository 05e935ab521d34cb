package composer_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/virtengine/hpc-auction-sim/internal/composer"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadExperimentDefaultsSeedAndPolicy(t *testing.T) {
	path := writeFile(t, "exp.json", `{
		"platform": "platform.json", "workload": "workload.json",
		"heartbeat_period": 10, "heartbeat_expiration": 30
	}`)
	exp, err := composer.LoadExperiment(path)
	require.NoError(t, err)
	require.Equal(t, int64(1), exp.Seed)
	require.Equal(t, composer.PolicyPureLocal, exp.DecentralizedPolicy)
}

func TestLoadExperimentAcceptsYAML(t *testing.T) {
	path := writeFile(t, "exp.yaml", "platform: platform.json\nworkload: workload.json\nheartbeat_period: 10\nheartbeat_expiration: 30\n")
	exp, err := composer.LoadExperiment(path)
	require.NoError(t, err)
	require.Equal(t, "platform.json", exp.Platform)
}

func TestLoadExperimentRejectsMissingPlatform(t *testing.T) {
	path := writeFile(t, "exp.json", `{"workload": "workload.json", "heartbeat_period": 10, "heartbeat_expiration": 30}`)
	_, err := composer.LoadExperiment(path)
	require.ErrorIs(t, err, composer.ErrConfig)
}

func TestLoadExperimentRejectsUnknownPolicy(t *testing.T) {
	path := writeFile(t, "exp.json", `{
		"platform": "platform.json", "workload": "workload.json",
		"decentralized_policy": "Magic", "heartbeat_period": 10, "heartbeat_expiration": 30
	}`)
	_, err := composer.LoadExperiment(path)
	require.ErrorIs(t, err, composer.ErrConfig)
}

func TestLoadExperimentRejectsPythonBiddingWithoutScript(t *testing.T) {
	path := writeFile(t, "exp.json", `{
		"platform": "platform.json", "workload": "workload.json",
		"decentralized_policy": "PythonBidding", "heartbeat_period": 10, "heartbeat_expiration": 30
	}`)
	_, err := composer.LoadExperiment(path)
	require.ErrorIs(t, err, composer.ErrConfig)
}

func TestLoadExperimentRejectsCentralizedSubmissionWithoutPolicy(t *testing.T) {
	path := writeFile(t, "exp.json", `{
		"platform": "platform.json", "workload": "workload.json",
		"centralized_submission": true, "heartbeat_period": 10, "heartbeat_expiration": 30
	}`)
	_, err := composer.LoadExperiment(path)
	require.ErrorIs(t, err, composer.ErrConfig)
}

func TestLoadExperimentRejectsNonPositiveHeartbeat(t *testing.T) {
	path := writeFile(t, "exp.json", `{"platform": "platform.json", "workload": "workload.json", "heartbeat_period": 0, "heartbeat_expiration": 30}`)
	_, err := composer.LoadExperiment(path)
	require.ErrorIs(t, err, composer.ErrConfig)
}
