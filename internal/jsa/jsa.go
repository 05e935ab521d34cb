// Package jsa implements the Job Scheduling Agent: the per-site actor that
// runs the auction state machine. Event ordering is grounded
// directly on original_source/src/JobSchedulingAgent.cpp — broadcast, then
// sample system status, then compute a bid, then arm a deferred-broadcast
// timer; tally bids against a needed-count; elect a winner by comparing
// identity against the local name; run acceptance tests before submission;
// clear the bids table once a job reaches a decision.
package jsa

import (
	"context"
	"math/rand" //nolint:gosec // G404: tie-breaker sampling, not security sensitive
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/virtengine/hpc-auction-sim/internal/batch"
	"github.com/virtengine/hpc-auction-sim/internal/despool"
	"github.com/virtengine/hpc-auction-sim/internal/heartbeat"
	"github.com/virtengine/hpc-auction-sim/internal/jobtypes"
	"github.com/virtengine/hpc-auction-sim/internal/metrics"
	"github.com/virtengine/hpc-auction-sim/internal/policy"
	"github.com/virtengine/hpc-auction-sim/internal/tracker"
)

// state is the per-job phase: UNKNOWN -> BIDDING -> (WON | LOST) -> DONE.
// Entries are removed from Agent.auctions once DONE is reached, so UNKNOWN
// is implicit (absence of an entry).
type state int

const (
	stateBidding state = iota
	stateWon
	stateLost
	stateDone
)

type auction struct {
	job          jobtypes.JobDescription
	state        state
	bid          float64
	numNeeded    int
	singleBidder bool
	bids         map[string]jobtypes.Bid
}

// Agent is one site's Job Scheduling Agent.
type Agent struct {
	id        string
	desc      jobtypes.HPCSystemDescription
	pol       policy.Policy
	network   *jobtypes.AgentNetwork // exclusively owned; no cross-actor sharing
	batchSvc  *batch.Service
	trackerID string
	rng       *rand.Rand
	log       zerolog.Logger
	auctions  map[int]*auction
	metrics   *metrics.Metrics
}

// New creates a Job Scheduling Agent for one HPC system. m may be nil.
func New(desc jobtypes.HPCSystemDescription, pol policy.Policy, network *jobtypes.AgentNetwork, batchSvc *batch.Service, trackerID string, rng *rand.Rand, m *metrics.Metrics, log zerolog.Logger) *Agent {
	return &Agent{
		id:        desc.Name,
		desc:      desc,
		pol:       pol,
		network:   network,
		batchSvc:  batchSvc,
		trackerID: trackerID,
		rng:       rng,
		log:       log.With().Str("agent_id", desc.Name).Str("agent_type", "jsa").Logger(),
		auctions:  make(map[int]*auction),
		metrics:   m,
	}
}

// ID satisfies despool.Actor.
func (a *Agent) ID() string { return a.id }

// HandleEvent satisfies despool.Actor.
func (a *Agent) HandleEvent(k *despool.Kernel, ev despool.Event) {
	switch p := ev.Payload.(type) {
	case JobRequestMsg:
		a.onJobRequest(k, p)
	case BidOnJobMsg:
		a.onBidOnJob(k, p)
	case batch.StartedMsg:
		a.emitTracker(k, tracker.Event{Kind: tracker.KindStart, JobID: p.JobID, Now: k.Now()})
	case batch.CompletedMsg:
		a.onBatchDone(k, p.JobID, tracker.KindCompletion)
	case batch.FailedMsg:
		a.onBatchDone(k, p.JobID, tracker.KindFail)
	case heartbeat.FailureNotificationMsg:
		a.network.MarkFailed(p.Agent)
	case bidTimerLabel:
		a.onBidTimer(k, p.JobID)
	}
}

func (a *Agent) onJobRequest(k *despool.Kernel, msg JobRequestMsg) {
	job := msg.Job
	if _, exists := a.auctions[job.JobID]; exists {
		return // already bidding this job; duplicate delivery is a no-op
	}

	var targets []string
	var numNeeded int
	if msg.SingleBidder {
		numNeeded = 1
	} else {
		targets, numNeeded = a.pol.BroadcastTargets(a.id, a.network.Healthy())
	}
	a.auctions[job.JobID] = &auction{job: job, state: stateBidding, numNeeded: numNeeded, singleBidder: msg.SingleBidder, bids: make(map[string]jobtypes.Bid)}

	if msg.CanForward && !msg.SingleBidder {
		for _, t := range targets {
			k.Send(a.id, t, 0, JobRequestMsg{Job: job, CanForward: false})
		}
	}

	status := a.batchSvc.Status(k.Now())
	bid, deltaT, err := a.pol.ComputeBid(context.Background(), job, a.desc, status, k.Now())
	if err != nil {
		a.log.Error().Err(err).Int("job_id", job.JobID).Msg("bid computation failed")
		bid = -1
	}
	a.auctions[job.JobID].bid = bid

	k.ScheduleTimer(a.id, deltaT, bidTimerLabel{JobID: job.JobID})
}

func (a *Agent) onBidTimer(k *despool.Kernel, jobID int) {
	au, ok := a.auctions[jobID]
	if !ok || au.state != stateBidding {
		return
	}
	tieBreaker := a.rng.Float64() * 100
	targets := []string{a.id}
	if !au.singleBidder {
		targets = a.pol.BidTargets(a.id, a.network.Healthy())
	}
	for _, t := range targets {
		k.Send(a.id, t, 0, BidOnJobMsg{JobID: jobID, Bidder: a.id, BidValue: au.bid, TieBreaker: tieBreaker})
	}
	a.metrics.BidCast()
}

func (a *Agent) onBidOnJob(k *despool.Kernel, msg BidOnJobMsg) {
	au, ok := a.auctions[msg.JobID]
	if !ok || au.state != stateBidding {
		return
	}
	au.bids[msg.Bidder] = jobtypes.Bid{AgentIdentity: msg.Bidder, BidValue: msg.BidValue, TieBreaker: msg.TieBreaker}
	if len(au.bids) < au.numNeeded {
		return
	}

	winner, found := policy.DetermineWinner(au.bids)
	a.metrics.AuctionDecided()
	if found && winner == a.id {
		a.win(k, au)
	} else {
		au.state = stateLost
		delete(a.auctions, msg.JobID)
	}
}

func (a *Agent) win(k *despool.Kernel, au *auction) {
	au.state = stateWon
	code := acceptanceCode(au.job, a.desc)
	if code != 0 {
		a.emitTracker(k, tracker.Event{
			Kind:         tracker.KindReject,
			JobID:        au.job.JobID,
			Now:          k.Now(),
			ScheduledOn:  a.id,
			Bids:         formatBids(au.bids),
			FailureCause: acceptanceCause(code),
		})
		au.state = stateDone
		delete(a.auctions, au.job.JobID)
		return
	}

	a.emitTracker(k, tracker.Event{
		Kind:        tracker.KindScheduling,
		JobID:       au.job.JobID,
		Now:         k.Now(),
		ScheduledOn: a.id,
		Bids:        formatBids(au.bids),
	})
	a.batchSvc.Submit(k, au.job)
	a.metrics.ObserveDecisionLatency(k.Now() - au.job.SubmissionTime)
	// au.state stays Won: the job remains tracked locally until the batch
	// service reports completion or failure, at which point onBatchDone
	// deletes the auction entry.
}

func (a *Agent) onBatchDone(k *despool.Kernel, jobID int, kind tracker.Kind) {
	a.emitTracker(k, tracker.Event{Kind: kind, JobID: jobID, Now: k.Now()})
	delete(a.auctions, jobID)
}

func (a *Agent) emitTracker(k *despool.Kernel, ev tracker.Event) {
	k.Send(a.id, a.trackerID, 0, ev)
}

func formatBids(bids map[string]jobtypes.Bid) string {
	ids := make([]string, 0, len(bids))
	for id := range bids {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id+"="+strconv.FormatFloat(bids[id].BidValue, 'f', 2, 64))
	}
	return strings.Join(parts, ";")
}
