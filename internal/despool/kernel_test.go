package despool_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/virtengine/hpc-auction-sim/internal/despool"
)

type recordingActor struct {
	id   string
	seen []despool.Event
}

func (a *recordingActor) ID() string { return a.id }
func (a *recordingActor) HandleEvent(_ *despool.Kernel, ev despool.Event) {
	a.seen = append(a.seen, ev)
}

func TestKernelOrdersByTimeThenSendOrder(t *testing.T) {
	k := despool.New(zerolog.Nop())
	a := &recordingActor{id: "a"}
	k.Register(a)

	k.Send("x", "a", 5, "late")
	k.Send("x", "a", 1, "early")
	k.Send("x", "a", 1, "early-2") // same time, sent after "early": must follow it

	k.Run(nil)

	require.Len(t, a.seen, 3)
	require.Equal(t, "early", a.seen[0].Payload)
	require.Equal(t, "early-2", a.seen[1].Payload)
	require.Equal(t, "late", a.seen[2].Payload)
	require.InDelta(t, 1.0, a.seen[0].Time, 1e-9)
	require.InDelta(t, 5.0, a.seen[2].Time, 1e-9)
}

func TestKernelRunStopsOnDone(t *testing.T) {
	k := despool.New(zerolog.Nop())
	a := &recordingActor{id: "a"}
	k.Register(a)

	k.Send("x", "a", 1, "one")
	k.Send("x", "a", 2, "two")
	k.Send("x", "a", 3, "three")

	calls := 0
	k.Run(func() bool {
		calls++
		return calls == 1
	})

	require.Len(t, a.seen, 1)
}

func TestKernelDropsEventsForUnregisteredActors(t *testing.T) {
	k := despool.New(zerolog.Nop())
	k.Send("x", "ghost", 0, "nobody home")
	require.NotPanics(t, func() { k.Run(nil) })
}

func TestScheduleTimerUsesOwnerAsTarget(t *testing.T) {
	k := despool.New(zerolog.Nop())
	a := &recordingActor{id: "a"}
	k.Register(a)

	k.ScheduleTimer("a", 0, "tick")
	k.Run(nil)

	require.Len(t, a.seen, 1)
	require.Equal(t, despool.EventTimer, a.seen[0].Kind)
}

func TestHostRegistryTurnOffHostsRoundsUp(t *testing.T) {
	r := despool.NewHostRegistry(map[string][]string{
		"Sys1": {"head", "n1", "n2", "n3"},
	})
	require.Equal(t, 3, r.AvailableNodes("Sys1")) // head node not counted

	r.TurnOffHosts("Sys1", 0.5) // ceil(0.5*4) = 2
	require.Equal(t, 2, r.AvailableNodes("Sys1"))
	require.False(t, r.HeadNodeUp("Sys1")) // head is first in registration order

	r.TurnOnHosts("Sys1", 0.5)
	require.Equal(t, 3, r.AvailableNodes("Sys1"))
	require.True(t, r.HeadNodeUp("Sys1"))
}

func TestHostRegistryLinks(t *testing.T) {
	r := despool.NewHostRegistry(map[string][]string{"Sys1": {"head"}})
	require.True(t, r.LinkUp("Sys1-Sys2"))
	r.TurnOffLink("Sys1-Sys2")
	require.False(t, r.LinkUp("Sys1-Sys2"))
	r.TurnOnLink("Sys1-Sys2")
	require.True(t, r.LinkUp("Sys1-Sys2"))
}
