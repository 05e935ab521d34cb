// Package platform loads the federation's HPC systems. The real platform
// format (an XML description consumed by the simulation kernel) is out of
// scope; this module accepts the documented cluster shape (name, ordered
// host list with the head node first, and a handful of string-typed
// properties) as a JSON document instead of reimplementing an XML parser.
// This substitution is recorded as a REDESIGN in DESIGN.md.
package platform

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	sdkerrors "cosmossdk.io/errors"

	"github.com/virtengine/hpc-auction-sim/internal/despool"
	"github.com/virtengine/hpc-auction-sim/internal/jobtypes"
)

// ErrInvalidPlatform wraps any platform-file loading/validation failure.
var ErrInvalidPlatform = sdkerrors.Register("platform", 1, "invalid platform description")

// clusterFile is the on-disk JSON shape of one cluster entry.
type clusterFile struct {
	Name                string `json:"name"`
	Hosts               []string `json:"hosts"`
	Site                string `json:"site"`
	Type                string `json:"type"`
	NodeSpeed           float64 `json:"node_speed"`
	MemoryAmountInGB    string `json:"memory_amount_in_gb"`
	StorageAmountInGB   string `json:"storage_amount_in_gb"`
	HasGPU              string `json:"has_gpu"`
	NetworkInterconnect string `json:"network_interconnect"`
}

// Federation is the result of loading a platform file: the static system
// descriptions plus the host registry the Resource Switching Agent and
// Heartbeat Monitor Agent read and write.
type Federation struct {
	Systems  []jobtypes.HPCSystemDescription
	Registry *despool.HostRegistry
}

// Load reads and validates a platform JSON file.
func Load(path string) (*Federation, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // G304: operator-supplied experiment input
	if err != nil {
		return nil, sdkerrors.Wrapf(ErrInvalidPlatform, "reading %s: %v", path, err)
	}

	var clusters []clusterFile
	if err := json.Unmarshal(raw, &clusters); err != nil {
		return nil, sdkerrors.Wrapf(ErrInvalidPlatform, "parsing %s: %v", path, err)
	}
	if len(clusters) == 0 {
		return nil, sdkerrors.Wrapf(ErrInvalidPlatform, "%s: platform defines no clusters", path)
	}

	systems := make([]jobtypes.HPCSystemDescription, 0, len(clusters))
	hostMap := make(map[string][]string, len(clusters))
	seen := make(map[string]bool, len(clusters))

	for _, c := range clusters {
		if seen[c.Name] {
			return nil, sdkerrors.Wrapf(ErrInvalidPlatform, "%s: duplicate system name %q", path, c.Name)
		}
		seen[c.Name] = true

		memGB, err := strconv.ParseFloat(c.MemoryAmountInGB, 64)
		if err != nil {
			return nil, sdkerrors.Wrapf(ErrInvalidPlatform, "%s: system %q: bad memory_amount_in_gb %q", path, c.Name, c.MemoryAmountInGB)
		}
		storageGB, err := strconv.ParseFloat(c.StorageAmountInGB, 64)
		if err != nil {
			return nil, sdkerrors.Wrapf(ErrInvalidPlatform, "%s: system %q: bad storage_amount_in_gb %q", path, c.Name, c.StorageAmountInGB)
		}
		hasGPU := strings.EqualFold(c.HasGPU, "true")

		numNodes := len(c.Hosts) - 1 // first host is the head node
		if numNodes < 1 {
			return nil, sdkerrors.Wrapf(ErrInvalidPlatform, "%s: system %q needs at least a head node and one compute node", path, c.Name)
		}

		desc := jobtypes.HPCSystemDescription{
			Name:            c.Name,
			Site:            c.Site,
			Type:            jobtypes.JobType(c.Type),
			NumNodes:        numNodes,
			NodeSpeed:       c.NodeSpeed,
			MemoryGBPerNode: memGB,
			StorageGB:       storageGB,
			HasGPU:          hasGPU,
			Interconnect:    c.NetworkInterconnect,
		}
		if desc.NodeSpeed == 0 {
			desc.NodeSpeed = 1.5e12 // default matches the scaling factor's reference node speed
		}
		if err := desc.Validate(); err != nil {
			return nil, sdkerrors.Wrapf(ErrInvalidPlatform, "%s: %v", path, err)
		}

		systems = append(systems, desc)
		hostMap[c.Name] = c.Hosts
	}

	return &Federation{
		Systems:  systems,
		Registry: despool.NewHostRegistry(hostMap),
	}, nil
}
