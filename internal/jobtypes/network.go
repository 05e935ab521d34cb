package jobtypes

// AgentNetwork partitions the initial set of JSA identities into healthy and
// failed sequences. Only healthy -> failed transitions are allowed; the two
// sets are always disjoint.
type AgentNetwork struct {
	healthy []string
	failed  map[string]bool
}

// NewAgentNetwork seeds the network with the full roster, all initially healthy.
func NewAgentNetwork(identities []string) *AgentNetwork {
	healthy := make([]string, len(identities))
	copy(healthy, identities)
	return &AgentNetwork{
		healthy: healthy,
		failed:  make(map[string]bool, len(identities)),
	}
}

// Healthy returns the ordered sequence of identities currently believed alive.
func (n *AgentNetwork) Healthy() []string {
	out := make([]string, len(n.healthy))
	copy(out, n.healthy)
	return out
}

// IsHealthy reports whether identity is currently in the healthy set.
func (n *AgentNetwork) IsHealthy(identity string) bool {
	return !n.failed[identity]
}

// MarkFailed moves identity from healthy to failed. Idempotent: marking an
// already-failed identity is a no-op.
func (n *AgentNetwork) MarkFailed(identity string) {
	if n.failed[identity] {
		return
	}
	n.failed[identity] = true
	for i, id := range n.healthy {
		if id == identity {
			n.healthy = append(n.healthy[:i], n.healthy[i+1:]...)
			break
		}
	}
}

// Count returns the number of currently healthy peers.
func (n *AgentNetwork) Count() int {
	return len(n.healthy)
}
