package jobtypes_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/virtengine/hpc-auction-sim/internal/jobtypes"
)

func validJob() jobtypes.JobDescription {
	return jobtypes.JobDescription{
		JobID:          1,
		JobType:        jobtypes.JobTypeHPC,
		SubmissionTime: 0,
		Walltime:       3600,
		Nodes:          2,
		MemoryGB:       16,
		HPCSite:        "site-a",
		HPCSystem:      "Sys1",
	}
}

func TestJobDescriptionValidate(t *testing.T) {
	require.NoError(t, validJob().Validate())

	bad := validJob()
	bad.JobID = 0
	require.ErrorIs(t, bad.Validate(), jobtypes.ErrInvalidJob)

	bad = validJob()
	bad.JobType = "NOT_A_TYPE"
	require.Error(t, bad.Validate())

	bad = validJob()
	bad.Walltime = 0
	require.Error(t, bad.Validate())

	bad = validJob()
	bad.Nodes = 0
	require.Error(t, bad.Validate())

	bad = validJob()
	bad.HPCSystem = ""
	require.Error(t, bad.Validate())
}

func validSystem() jobtypes.HPCSystemDescription {
	return jobtypes.HPCSystemDescription{
		Name:      "Sys1",
		Site:      "site-a",
		Type:      jobtypes.JobTypeHPC,
		NumNodes:  10,
		NodeSpeed: 1.5e12,
	}
}

func TestHPCSystemDescriptionValidate(t *testing.T) {
	require.NoError(t, validSystem().Validate())

	bad := validSystem()
	bad.Name = ""
	require.ErrorIs(t, bad.Validate(), jobtypes.ErrInvalidSystem)

	bad = validSystem()
	bad.NumNodes = 0
	require.Error(t, bad.Validate())

	bad = validSystem()
	bad.NodeSpeed = 0
	require.Error(t, bad.Validate())
}

func TestBidFeasible(t *testing.T) {
	require.True(t, jobtypes.Bid{BidValue: 0}.Feasible())
	require.True(t, jobtypes.Bid{BidValue: 0.5}.Feasible())
	require.False(t, jobtypes.Bid{BidValue: -1}.Feasible())
}

func TestAgentNetwork(t *testing.T) {
	n := jobtypes.NewAgentNetwork([]string{"Sys1", "Sys2", "Sys3"})
	require.Equal(t, 3, n.Count())
	require.True(t, n.IsHealthy("Sys2"))

	n.MarkFailed("Sys2")
	require.False(t, n.IsHealthy("Sys2"))
	require.Equal(t, 2, n.Count())
	require.ElementsMatch(t, []string{"Sys1", "Sys3"}, n.Healthy())

	// idempotent
	n.MarkFailed("Sys2")
	require.Equal(t, 2, n.Count())
}
