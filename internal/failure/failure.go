// Package failure implements the Resource Switching Agent: the sole driver
// of induced infrastructure failures. It replays a JSON
// failure profile, scheduling a timer per turn_off/turn_on event and
// toggling hosts or links on the shared despool.HostRegistry when each
// fires.
package failure

import (
	"encoding/json"
	"math"
	"os"

	sdkerrors "cosmossdk.io/errors"
	"github.com/rs/zerolog"

	"github.com/virtengine/hpc-auction-sim/internal/despool"
)

// ErrInvalidProfile wraps any failure-profile loading/validation error.
var ErrInvalidProfile = sdkerrors.Register("failure", 1, "invalid failure profile")

// EventKind distinguishes the two resource kinds a profile entry can target.
type EventKind string

const (
	EventHost EventKind = "host"
	EventLink EventKind = "link"
)

// profileEntry is the on-disk JSON shape of one failure-profile item.
type profileEntry struct {
	Type         EventKind `json:"type"`
	Resource     string    `json:"resource"`
	Fraction     float64   `json:"fraction"`
	TurnOffTime  float64   `json:"turn_off_time"`
	TurnOnTime   *float64  `json:"turn_on_time"`
}

func (e profileEntry) validate() error {
	if e.Type != EventHost && e.Type != EventLink {
		return sdkerrors.Wrapf(ErrInvalidProfile, "unknown event type %q", e.Type)
	}
	if e.Resource == "" {
		return sdkerrors.Wrap(ErrInvalidProfile, "resource is required")
	}
	if e.Type == EventHost && (e.Fraction <= 0 || e.Fraction > 1) {
		return sdkerrors.Wrapf(ErrInvalidProfile, "resource %q: fraction must be in (0,1]", e.Resource)
	}
	return nil
}

// toggleLabel is the timer payload carrying the decoded resource and
// fraction so each fires independently without a lookup back to the
// original profile entry.
type toggleLabel struct {
	entry  profileEntry
	turnOn bool
}

// Agent is the Resource Switching Agent.
type Agent struct {
	id       string
	registry *despool.HostRegistry
	log      zerolog.Logger
}

// New creates a Resource Switching Agent bound to the federation's host
// registry.
func New(id string, registry *despool.HostRegistry, log zerolog.Logger) *Agent {
	return &Agent{id: id, registry: registry, log: log.With().Str("agent_id", id).Str("agent_type", "resource-switching").Logger()}
}

// ID satisfies despool.Actor.
func (a *Agent) ID() string { return a.id }

// Load parses a failure-profile JSON file.
func Load(path string) ([]profileEntry, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // G304: operator-supplied experiment input
	if err != nil {
		return nil, sdkerrors.Wrapf(ErrInvalidProfile, "reading %s: %v", path, err)
	}
	var entries []profileEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, sdkerrors.Wrapf(ErrInvalidProfile, "parsing %s: %v", path, err)
	}
	for _, e := range entries {
		if err := e.validate(); err != nil {
			return nil, sdkerrors.Wrapf(ErrInvalidProfile, "%s: %v", path, err)
		}
	}
	return entries, nil
}

// Schedule arms a turn-off timer (and a turn-on timer, if present) for every
// entry. Called once at composition time.
func (a *Agent) Schedule(k *despool.Kernel, entries []profileEntry) {
	for _, e := range entries {
		k.ScheduleTimer(a.id, e.TurnOffTime-k.Now(), toggleLabel{entry: e, turnOn: false})
		if e.TurnOnTime != nil {
			k.ScheduleTimer(a.id, *e.TurnOnTime-k.Now(), toggleLabel{entry: e, turnOn: true})
		}
	}
}

// HandleEvent satisfies despool.Actor.
func (a *Agent) HandleEvent(_ *despool.Kernel, ev despool.Event) {
	label, ok := ev.Payload.(toggleLabel)
	if !ok {
		return
	}
	a.toggle(label)
}

func (a *Agent) toggle(label toggleLabel) {
	e := label.entry
	switch e.Type {
	case EventLink:
		if label.turnOn {
			a.registry.TurnOnLink(e.Resource)
		} else {
			a.registry.TurnOffLink(e.Resource)
		}
	case EventHost:
		if label.turnOn {
			a.registry.TurnOnHosts(e.Resource, e.Fraction)
		} else {
			a.registry.TurnOffHosts(e.Resource, e.Fraction)
		}
	}
	a.log.Info().Str("resource", e.Resource).Bool("turn_on", label.turnOn).Msg("toggled resource")
}

// hostCount is a small helper kept for symmetry with pkg/chaos's
// ceil(fraction*replicas) rounding rule; despool.HostRegistry performs the
// same rounding internally, this is exposed for tests that want to assert
// the expected count without reaching into the registry.
func hostCount(total int, fraction float64) int {
	return int(math.Ceil(fraction * float64(total)))
}
