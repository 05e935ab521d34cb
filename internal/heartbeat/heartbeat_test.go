package heartbeat_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/virtengine/hpc-auction-sim/internal/despool"
	"github.com/virtengine/hpc-auction-sim/internal/heartbeat"
)

type recordingActor struct {
	id   string
	seen []despool.Event
}

func (a *recordingActor) ID() string { return a.id }
func (a *recordingActor) HandleEvent(_ *despool.Kernel, ev despool.Event) {
	a.seen = append(a.seen, ev)
}

func TestMonitorBroadcastsOnEveryTick(t *testing.T) {
	k := despool.New(zerolog.Nop())
	peer := &recordingActor{id: "Sys2-heartbeat"}
	k.Register(peer)

	m := heartbeat.NewMonitor("Sys1-heartbeat", "Sys1-jsa", []string{"Sys2-heartbeat"}, 10, 25, nil, nil, zerolog.Nop())
	k.Register(m)
	m.Start(k)

	k.Run(func() bool { return len(peer.seen) == 2 })

	require.Len(t, peer.seen, 2)
	for _, ev := range peer.seen {
		msg, ok := ev.Payload.(heartbeat.Msg)
		require.True(t, ok)
		require.Equal(t, "Sys1-heartbeat", msg.From)
	}
}

func TestMonitorNotifiesJSAOnExpiredPeer(t *testing.T) {
	k := despool.New(zerolog.Nop())
	jsa := &recordingActor{id: "Sys1-jsa"}
	k.Register(jsa)
	peer := &recordingActor{id: "Sys2-heartbeat"}
	k.Register(peer)

	// expiration (5) shorter than period (10): the peer is never heard from,
	// so the very first tick after the expiration window must notify.
	m := heartbeat.NewMonitor("Sys1-heartbeat", "Sys1-jsa", []string{"Sys2-heartbeat"}, 10, 5, nil, nil, zerolog.Nop())
	k.Register(m)
	m.Start(k)

	k.Run(func() bool { return len(jsa.seen) == 1 })

	require.Len(t, jsa.seen, 1)
	notif, ok := jsa.seen[0].Payload.(heartbeat.FailureNotificationMsg)
	require.True(t, ok)
	require.Equal(t, "Sys2", notif.Agent) // "-heartbeat" suffix stripped
}

func TestMonitorNotifiesAtMostOncePerPeer(t *testing.T) {
	k := despool.New(zerolog.Nop())
	jsa := &recordingActor{id: "Sys1-jsa"}
	k.Register(jsa)
	peer := &recordingActor{id: "Sys2-heartbeat"}
	k.Register(peer)

	m := heartbeat.NewMonitor("Sys1-heartbeat", "Sys1-jsa", []string{"Sys2-heartbeat"}, 10, 5, nil, nil, zerolog.Nop())
	k.Register(m)
	m.Start(k)

	calls := 0
	k.Run(func() bool {
		calls++
		return calls == 4 // two ticks processed: only the first notifies
	})

	require.Len(t, jsa.seen, 1) // still only the one, at-most-once notification
}

func TestMonitorSuppressesBroadcastWhenHeadNodeDown(t *testing.T) {
	k := despool.New(zerolog.Nop())
	peer := &recordingActor{id: "Sys2-heartbeat"}
	k.Register(peer)

	m := heartbeat.NewMonitor("Sys1-heartbeat", "Sys1-jsa", []string{"Sys2-heartbeat"}, 10, 100, func() bool { return false }, nil, zerolog.Nop())
	k.Register(m)
	m.Start(k)

	calls := 0
	k.Run(func() bool {
		calls++
		return calls == 1
	})

	require.Empty(t, peer.seen)
}
