// Package despool is the minimal discrete-event kernel the rest of the
// federation runs on: a virtual clock, a timer/message priority queue, and
// per-actor dispatch that serializes event handling per actor. Built around
// an arbitrary-time event queue, not periodic ticks, since the auction
// protocol needs per-pair FIFO delivery and timers that fire at arbitrary
// offsets.
package despool

import (
	"container/heap"
	"fmt"

	"github.com/rs/zerolog"
)

// EventKind distinguishes a timer firing from a message delivery.
type EventKind int

const (
	EventMessage EventKind = iota
	EventTimer
)

// Event is one entry in the kernel's priority queue.
type Event struct {
	Time    float64
	Kind    EventKind
	To      string
	From    string
	Payload any
	seq     int64 // tie-break: preserves send order for equal-time events
}

// Actor is anything the kernel can deliver events to. Implementations must
// not block or spawn goroutines of their own; HandleEvent runs to
// completion before the kernel looks at the next event, which is what
// "serialized per actor" means in this single-threaded kernel.
type Actor interface {
	ID() string
	HandleEvent(k *Kernel, ev Event)
}

// Kernel owns the virtual clock and the actor roster.
type Kernel struct {
	now    float64
	pq     eventHeap
	actors map[string]Actor
	seq    int64
	log    zerolog.Logger
}

// New creates an empty kernel bound to the given logger.
func New(log zerolog.Logger) *Kernel {
	return &Kernel{
		actors: make(map[string]Actor),
		log:    log.With().Str("component", "despool").Logger(),
	}
}

// Now returns the current virtual time.
func (k *Kernel) Now() float64 { return k.now }

// Register adds an actor to the roster. Actor IDs must be unique.
func (k *Kernel) Register(a Actor) {
	k.actors[a.ID()] = a
}

// Send schedules a message for delivery to `to` after `delay` virtual
// seconds (delay=0 for same-instant delivery). Ordering between a fixed
// sender/receiver pair is FIFO; the monotonically
// increasing sequence number we tie-break on achieves that since this
// kernel calls Send in program order.
func (k *Kernel) Send(from, to string, delay float64, payload any) {
	k.seq++
	heap.Push(&k.pq, &Event{
		Time:    k.now + delay,
		Kind:    EventMessage,
		To:      to,
		From:    from,
		Payload: payload,
		seq:     k.seq,
	})
}

// ScheduleTimer arms a timer for `owner`, firing after `delay` virtual
// seconds, carrying an arbitrary label.
func (k *Kernel) ScheduleTimer(owner string, delay float64, label any) {
	k.seq++
	heap.Push(&k.pq, &Event{
		Time:    k.now + delay,
		Kind:    EventTimer,
		To:      owner,
		Payload: label,
		seq:     k.seq,
	})
}

// Run drains the event queue, dispatching each event to its target actor in
// virtual-time order, until the queue is empty or `done` reports true.
// `done` is checked after every dispatched event so a component (typically
// the tracker) can end the run as soon as its own termination condition is
// reached.
func (k *Kernel) Run(done func() bool) {
	for k.pq.Len() > 0 {
		ev := heap.Pop(&k.pq).(*Event)
		k.now = ev.Time
		actor, ok := k.actors[ev.To]
		if !ok {
			k.log.Warn().Str("to", ev.To).Msg("event addressed to unregistered actor, dropped")
			continue
		}
		actor.HandleEvent(k, *ev)
		if done != nil && done() {
			return
		}
	}
}

// Logger returns a child logger tagged with the given actor id/type, the
// convention every agent in the federation uses.
func (k *Kernel) Logger(agentID, agentType string) zerolog.Logger {
	return k.log.With().Str("agent_id", agentID).Str("agent_type", agentType).Logger()
}

func (e Event) String() string {
	return fmt.Sprintf("Event{t=%.3f kind=%d to=%s from=%s}", e.Time, e.Kind, e.To, e.From)
}

// eventHeap implements container/heap.Interface ordered by (Time, seq).
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)   { *h = append(*h, x.(*Event)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
