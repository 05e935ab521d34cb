package composer

import (
	"context"
	"io"
	"math/rand" //nolint:gosec // G404: simulation RNG seeding, not security sensitive

	sdkerrors "cosmossdk.io/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/virtengine/hpc-auction-sim/internal/batch"
	"github.com/virtengine/hpc-auction-sim/internal/despool"
	"github.com/virtengine/hpc-auction-sim/internal/failure"
	"github.com/virtengine/hpc-auction-sim/internal/heartbeat"
	"github.com/virtengine/hpc-auction-sim/internal/jobtypes"
	"github.com/virtengine/hpc-auction-sim/internal/jsa"
	"github.com/virtengine/hpc-auction-sim/internal/metrics"
	"github.com/virtengine/hpc-auction-sim/internal/platform"
	"github.com/virtengine/hpc-auction-sim/internal/policy"
	"github.com/virtengine/hpc-auction-sim/internal/tracker"
	"github.com/virtengine/hpc-auction-sim/internal/workload"
)

// Run loads the experiment at path, wires every actor onto a fresh kernel,
// drives the simulation to completion, and writes the tracker's CSV report
// to out.
func Run(path string, out io.Writer, log zerolog.Logger) error {
	exp, err := LoadExperiment(path)
	if err != nil {
		return err
	}

	fed, err := platform.Load(exp.Platform)
	if err != nil {
		return err
	}

	jobs, err := workload.Load(exp.Workload)
	if err != nil {
		return err
	}

	m := metrics.New()
	if exp.MetricsAddr != "" {
		if err := m.Serve(exp.MetricsAddr); err != nil {
			return sdkerrors.Wrapf(ErrConfig, "starting metrics listener: %v", err)
		}
		defer func() { _ = m.Shutdown(context.Background()) }()
	}

	runID := uuid.NewString()
	log = log.With().Str("run_id", runID).Logger()

	k := despool.New(log)
	seedRNG := rand.New(rand.NewSource(exp.Seed)) //nolint:gosec // G404: deterministic simulation seeding

	names := make([]string, len(fed.Systems))
	for i, s := range fed.Systems {
		names[i] = s.Name
	}

	jobIDs := make([]int, len(jobs))
	for i, j := range jobs {
		jobIDs[i] = j.JobID
	}
	trk := tracker.New("tracker", runID, jobIDs, log)
	k.Register(trk)

	batchServices := make(map[string]*batch.Service, len(fed.Systems))
	systemToJSA := make(map[string]string, len(fed.Systems))

	for _, desc := range fed.Systems {
		pol, err := buildPolicy(exp, seedRNG)
		if err != nil {
			return err
		}

		svc := batch.NewService(desc, desc.Name, rand.New(rand.NewSource(seedRNG.Int63())), 0) //nolint:gosec // G404: deterministic simulation seeding
		k.Register(svc)
		batchServices[desc.Name] = svc

		network := jobtypes.NewAgentNetwork(names)
		agent := jsa.New(desc, pol, network, svc, trk.ID(), rand.New(rand.NewSource(seedRNG.Int63())), m, log) //nolint:gosec // G404: deterministic simulation seeding
		k.Register(agent)
		systemToJSA[desc.Name] = agent.ID()
	}

	for _, desc := range fed.Systems {
		peers := make([]string, 0, len(fed.Systems)-1)
		for _, other := range fed.Systems {
			if other.Name == desc.Name {
				continue
			}
			peers = append(peers, other.Name+"-heartbeat")
		}
		cluster := desc.Name
		monitor := heartbeat.NewMonitor(desc.Name+"-heartbeat", desc.Name, peers,
			exp.HeartbeatPeriod, exp.HeartbeatExpiration,
			func() bool { return fed.Registry.HeadNodeUp(cluster) }, m, log)
		k.Register(monitor)
		monitor.Start(k)
	}

	var wAgent *workload.Agent
	if exp.CentralizedSubmission {
		centralPolicy := &policy.CentralizedPolicy{ScriptPath: exp.CentralizedPolicy}
		statusSource := func(now float64) []policy.SystemInfo {
			infos := make([]policy.SystemInfo, 0, len(fed.Systems))
			for _, desc := range fed.Systems {
				infos = append(infos, policy.SystemInfo{
					SystemName:  desc.Name,
					Description: desc,
					Status:      batchServices[desc.Name].Status(now),
				})
			}
			return infos
		}
		wAgent = workload.NewCentralized("workload-agent", trk.ID(), jobs, systemToJSA, centralPolicy, statusSource, log)
	} else {
		wAgent = workload.NewDecentralized("workload-agent", trk.ID(), jobs, systemToJSA, log)
	}
	k.Register(wAgent)
	wAgent.Start(k)

	if exp.HardwareFailureProfile != "" {
		entries, err := failure.Load(exp.HardwareFailureProfile)
		if err != nil {
			return err
		}
		rsAgent := failure.New("resource-switching", fed.Registry, log)
		k.Register(rsAgent)
		rsAgent.Schedule(k, entries)
	}

	k.Run(trk.Done)

	return trk.WriteCSV(out)
}

func buildPolicy(exp *Description, seedRNG *rand.Rand) (policy.Policy, error) {
	switch exp.DecentralizedPolicy {
	case PolicyPureLocal:
		return policy.PureLocal{}, nil
	case PolicyRandomBidding:
		return policy.NewRandomBidding(rand.New(rand.NewSource(seedRNG.Int63()))), nil //nolint:gosec // G404: deterministic simulation seeding
	case PolicyHeuristicBidding:
		return policy.HeuristicBidding{}, nil
	case PolicyPythonBidding:
		return &policy.PythonBidding{ScriptPath: exp.DecentralizedBidder}, nil
	default:
		return nil, sdkerrors.Wrapf(ErrUnknownPolicy, "%q", exp.DecentralizedPolicy)
	}
}
