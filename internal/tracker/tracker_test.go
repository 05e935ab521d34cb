package tracker_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/virtengine/hpc-auction-sim/internal/despool"
	"github.com/virtengine/hpc-auction-sim/internal/tracker"
)

func send(k *despool.Kernel, trk *tracker.Tracker, ev tracker.Event) {
	k.Send("test", trk.ID(), 0, ev)
}

func TestFullLifecycleReachesCompletedAndIsDone(t *testing.T) {
	k := despool.New(zerolog.Nop())
	trk := tracker.New("tracker", "run-1", []int{1}, zerolog.Nop())
	k.Register(trk)

	send(k, trk, tracker.Event{Kind: tracker.KindSubmission, JobID: 1, Now: 0, SubmittedTo: "Sys1"})
	send(k, trk, tracker.Event{Kind: tracker.KindScheduling, JobID: 1, Now: 1, ScheduledOn: "Sys1", Bids: "Sys1:1.0"})
	send(k, trk, tracker.Event{Kind: tracker.KindStart, JobID: 1, Now: 2})
	send(k, trk, tracker.Event{Kind: tracker.KindCompletion, JobID: 1, Now: 10})
	k.Run(trk.Done)

	require.True(t, trk.Done())

	var buf bytes.Buffer
	require.NoError(t, trk.WriteCSV(&buf))
	out := buf.String()
	require.True(t, strings.HasPrefix(out, "# run_id,run-1\n"))
	require.Contains(t, out, "COMPLETED")
	require.Contains(t, out, "Sys1:1.0")
}

func TestDuplicateSubmissionIsIdempotent(t *testing.T) {
	k := despool.New(zerolog.Nop())
	trk := tracker.New("tracker", "run-1", []int{1}, zerolog.Nop())
	k.Register(trk)

	send(k, trk, tracker.Event{Kind: tracker.KindSubmission, JobID: 1, Now: 0, SubmittedTo: "Sys1"})
	send(k, trk, tracker.Event{Kind: tracker.KindScheduling, JobID: 1, Now: 1, ScheduledOn: "Sys1"})
	send(k, trk, tracker.Event{Kind: tracker.KindSubmission, JobID: 1, Now: 5, SubmittedTo: "Sys2"}) // stale duplicate, must be ignored
	send(k, trk, tracker.Event{Kind: tracker.KindStart, JobID: 1, Now: 2})
	send(k, trk, tracker.Event{Kind: tracker.KindCompletion, JobID: 1, Now: 10})
	k.Run(nil)

	var buf bytes.Buffer
	require.NoError(t, trk.WriteCSV(&buf))
	require.Contains(t, buf.String(), "Sys1") // still the original submission target
	require.NotContains(t, buf.String(), "Sys2")
}

func TestRejectBeforeSchedulingMarksRejected(t *testing.T) {
	k := despool.New(zerolog.Nop())
	trk := tracker.New("tracker", "run-1", []int{1}, zerolog.Nop())
	k.Register(trk)

	send(k, trk, tracker.Event{Kind: tracker.KindSubmission, JobID: 1, Now: 0, SubmittedTo: "Sys1"})
	send(k, trk, tracker.Event{Kind: tracker.KindReject, JobID: 1, Now: 3, FailureCause: "no feasible HPC system"})
	k.Run(trk.Done)

	require.True(t, trk.Done())

	var buf bytes.Buffer
	require.NoError(t, trk.WriteCSV(&buf))
	require.Contains(t, buf.String(), "REJECTED")
	require.Contains(t, buf.String(), "no feasible HPC system")
}

func TestUnknownJobIDEventIsDropped(t *testing.T) {
	k := despool.New(zerolog.Nop())
	trk := tracker.New("tracker", "run-1", []int{1}, zerolog.Nop())
	k.Register(trk)

	send(k, trk, tracker.Event{Kind: tracker.KindSubmission, JobID: 99, Now: 0})
	require.NotPanics(t, func() { k.Run(nil) })
	require.False(t, trk.Done()) // the one real job never progressed
}
