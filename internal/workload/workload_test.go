package workload_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/virtengine/hpc-auction-sim/internal/despool"
	"github.com/virtengine/hpc-auction-sim/internal/jobtypes"
	"github.com/virtengine/hpc-auction-sim/internal/jsa"
	"github.com/virtengine/hpc-auction-sim/internal/policy"
	"github.com/virtengine/hpc-auction-sim/internal/tracker"
	"github.com/virtengine/hpc-auction-sim/internal/workload"
)

type recordingActor struct {
	id   string
	seen []despool.Event
}

func (a *recordingActor) ID() string { return a.id }
func (a *recordingActor) HandleEvent(_ *despool.Kernel, ev despool.Event) {
	a.seen = append(a.seen, ev)
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workload.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadSortsBySubmissionTime(t *testing.T) {
	path := writeFile(t, `[
		{"JobID": 2, "JobType": "HPC", "SubmissionTime": 50, "Walltime": 10, "Nodes": 1, "MemoryGB": 1, "HPCSite": "site-a", "HPCSystem": "Sys1"},
		{"JobID": 1, "JobType": "HPC", "SubmissionTime": 10, "Walltime": 10, "Nodes": 1, "MemoryGB": 1, "HPCSite": "site-a", "HPCSystem": "Sys1"}
	]`)

	jobs, err := workload.Load(path)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	require.Equal(t, 1, jobs[0].JobID)
	require.Equal(t, 2, jobs[1].JobID)
}

func TestLoadRejectsDuplicateJobIDs(t *testing.T) {
	path := writeFile(t, `[
		{"JobID": 1, "JobType": "HPC", "SubmissionTime": 0, "Walltime": 10, "Nodes": 1, "MemoryGB": 1, "HPCSite": "site-a", "HPCSystem": "Sys1"},
		{"JobID": 1, "JobType": "HPC", "SubmissionTime": 5, "Walltime": 10, "Nodes": 1, "MemoryGB": 1, "HPCSite": "site-a", "HPCSystem": "Sys1"}
	]`)
	_, err := workload.Load(path)
	require.ErrorIs(t, err, workload.ErrInvalidWorkload)
}

func TestLoadRejectsEmptyWorkload(t *testing.T) {
	path := writeFile(t, `[]`)
	_, err := workload.Load(path)
	require.ErrorIs(t, err, workload.ErrInvalidWorkload)
}

func TestDecentralizedAgentRoutesToTargetSystemAndNotifiesTracker(t *testing.T) {
	k := despool.New(zerolog.Nop())
	sys1 := &recordingActor{id: "Sys1-jsa"}
	k.Register(sys1)
	trk := &recordingActor{id: "tracker"}
	k.Register(trk)

	jobs := []jobtypes.JobDescription{{JobID: 1, SubmissionTime: 5, HPCSystem: "Sys1"}}
	agent := workload.NewDecentralized("workload", "tracker", jobs, map[string]string{"Sys1": "Sys1-jsa"}, zerolog.Nop())
	k.Register(agent)
	agent.Start(k)
	k.Run(nil)

	require.Len(t, sys1.seen, 1)
	req, ok := sys1.seen[0].Payload.(jsa.JobRequestMsg)
	require.True(t, ok)
	require.Equal(t, 1, req.Job.JobID)
	require.True(t, req.CanForward)

	require.Len(t, trk.seen, 1)
	ev, ok := trk.seen[0].Payload.(tracker.Event)
	require.True(t, ok)
	require.Equal(t, tracker.KindSubmission, ev.Kind)
	require.Equal(t, "Sys1", ev.SubmittedTo)
}

func TestCentralizedAgentRoutesAccordingToScriptSelection(t *testing.T) {
	script := filepath.Join(t.TempDir(), "select.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\ncat <<'EOF'\n{\"selected_system\": \"Sys1\"}\nEOF\n"), 0o700)) //nolint:gosec // G306: test fixture, intentionally executable

	k := despool.New(zerolog.Nop())
	sys1 := &recordingActor{id: "Sys1-jsa"}
	k.Register(sys1)
	trk := &recordingActor{id: "tracker"}
	k.Register(trk)

	jobs := []jobtypes.JobDescription{{JobID: 1, SubmissionTime: 0, HPCSystem: "Sys1"}}
	centralPolicy := &policy.CentralizedPolicy{ScriptPath: script}
	statusSource := func(_ float64) []policy.SystemInfo { return nil }

	agent := workload.NewCentralized("workload", "tracker", jobs, map[string]string{"Sys1": "Sys1-jsa"}, centralPolicy, statusSource, zerolog.Nop())
	k.Register(agent)
	agent.Start(k)
	k.Run(nil)

	require.Len(t, sys1.seen, 1)
	req, ok := sys1.seen[0].Payload.(jsa.JobRequestMsg)
	require.True(t, ok)
	require.True(t, req.SingleBidder)
	require.False(t, req.CanForward)

	require.Len(t, trk.seen, 1)
	ev, ok := trk.seen[0].Payload.(tracker.Event)
	require.True(t, ok)
	require.Equal(t, tracker.KindSubmission, ev.Kind)
}
