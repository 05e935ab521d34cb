// Package heartbeat implements the Heartbeat Monitor Agent paired with each
// Job Scheduling Agent: periodic liveness broadcast and at-most-once
// failure notification on peer timeout, driven by the kernel's timer and
// mailbox rather than a wall-clock ticker.
package heartbeat

import (
	"github.com/rs/zerolog"

	"github.com/virtengine/hpc-auction-sim/internal/despool"
	"github.com/virtengine/hpc-auction-sim/internal/metrics"
)

// Msg is the periodic liveness broadcast exchanged between monitors.
type Msg struct {
	From string
}

// FailureNotificationMsg is sent at most once per peer to the paired JSA
// when that peer's heartbeat has not been seen within the expiration
// window.
type FailureNotificationMsg struct {
	Agent string
}

type tickLabel struct{}

// Monitor is one site's heartbeat agent. It shares nothing with its peers:
// each monitor owns its own lastSeen table and notified set, matching
// this module's no-cross-actor-sharing, no-locks rule.
type Monitor struct {
	id         string // actor id, e.g. "Sys1-heartbeat"
	jsaID      string // the paired JSA, notified on peer failure
	headNode   func() bool // reports whether this site's head node is up; nil means always up
	peers      []string    // other monitors' actor ids
	period     float64
	expiration float64
	lastSeen   map[string]float64
	notified   map[string]bool
	alive      bool
	log        zerolog.Logger
	metrics    *metrics.Metrics
}

// NewMonitor creates a heartbeat monitor for a JSA, paired with the given
// peer monitor ids (excluding self). m may be nil.
func NewMonitor(id, jsaID string, peers []string, period, expiration float64, headNode func() bool, m *metrics.Metrics, log zerolog.Logger) *Monitor {
	lastSeen := make(map[string]float64, len(peers))
	for _, p := range peers {
		lastSeen[p] = 0
	}
	return &Monitor{
		id:         id,
		jsaID:      jsaID,
		headNode:   headNode,
		peers:      peers,
		period:     period,
		expiration: expiration,
		lastSeen:   lastSeen,
		notified:   make(map[string]bool, len(peers)),
		alive:      true,
		log:        log.With().Str("agent_id", id).Str("agent_type", "heartbeat-monitor").Logger(),
		metrics:    m,
	}
}

// ID satisfies despool.Actor.
func (m *Monitor) ID() string { return m.id }

// Start arms the first periodic tick.
func (m *Monitor) Start(k *despool.Kernel) {
	k.ScheduleTimer(m.id, m.period, tickLabel{})
}

// Kill stops future ticks and broadcasts; called when the paired JSA dies
// (the monitor's cancellation rule). Not currently driven by any composer
// path since JSAs never die in this simulator's scope, but kept so the
// monitor's lifecycle matches the documented semantics exactly.
func (m *Monitor) Kill() {
	m.alive = false
}

// HandleEvent satisfies despool.Actor.
func (m *Monitor) HandleEvent(k *despool.Kernel, ev despool.Event) {
	if !m.alive {
		return
	}
	switch ev.Kind {
	case despool.EventTimer:
		m.onTick(k)
	case despool.EventMessage:
		if msg, ok := ev.Payload.(Msg); ok {
			m.lastSeen[msg.From] = k.Now()
		}
	}
}

func (m *Monitor) onTick(k *despool.Kernel) {
	now := k.Now()

	if m.headNode == nil || m.headNode() {
		for _, p := range m.peers {
			k.Send(m.id, p, 0, Msg{From: m.id})
		}
	}

	for _, p := range m.peers {
		if m.notified[p] {
			continue
		}
		if now-m.lastSeen[p] > m.expiration {
			m.notified[p] = true
			k.Send(m.id, m.jsaID, 0, FailureNotificationMsg{Agent: peerSystemName(p)})
			m.metrics.HeartbeatMissed()
			m.log.Info().Str("peer", p).Msg("peer heartbeat expired, notifying paired JSA")
		}
	}

	k.ScheduleTimer(m.id, m.period, tickLabel{})
}

// peerSystemName strips the "-heartbeat" actor-id suffix to recover the JSA
// identity the FailureNotificationMsg must carry.
func peerSystemName(monitorID string) string {
	const suffix = "-heartbeat"
	if len(monitorID) > len(suffix) && monitorID[len(monitorID)-len(suffix):] == suffix {
		return monitorID[:len(monitorID)-len(suffix)]
	}
	return monitorID
}
