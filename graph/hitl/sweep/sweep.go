// Package sweep periodically scans a PendingStore for HITL requests whose
// bounded timeout has elapsed with nobody left polling them — typically
// because the process running the node crashed or its context was
// abandoned — and resolves them per a per-node-kind policy, so a later
// resumed workflow does not hang forever waiting on a request that will
// never be answered in-process.
package sweep

import (
	"context"
	"time"

	"github.com/mwillis/wfgraph/graph"
	"github.com/mwillis/wfgraph/graph/hitl/notify"
	"github.com/mwillis/wfgraph/graph/hitl/store"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Policy decides how a timed-out pending record is resolved.
type Policy string

const (
	// PolicyStrict resolves a timed-out approval/decision/input/review as a
	// failure the next poller will observe as a timeout: nothing changes in
	// the store beyond logging, since strict nodes already treat a Pending
	// record whose deadline has passed as failed once their own context
	// times out. PolicyStrict exists to make sweeping of strict requests
	// explicit and observable via notify events, not to mutate status.
	PolicyStrict Policy = "strict"

	// PolicyLenientReject resolves a timed-out approval as Rejected, for
	// ConditionalApprovalNode-style lenient gates whose owning process may
	// no longer be polling.
	PolicyLenientReject Policy = "lenient-reject"
)

// Sweeper owns a cron schedule that scans a PendingStore for stale Pending
// approval requests and resolves them per Policy. Only ApprovalStore is
// swept automatically (decisions/inputs/reviews have no single universal
// "resolve" outcome to apply without domain knowledge); Sweeper does not
// resolve those kinds.
type Sweeper[S any] struct {
	store interface {
		store.ApprovalStore[S]
		store.PendingScanner[S]
	}
	publisher notify.Publisher
	policy    Policy
	maxAge    time.Duration
	cron      *cron.Cron
	logger    zerolog.Logger

	// Metrics, if set, receives a SetHITLPending gauge update per HITL kind
	// ("approval", "decision", "input", "review") on every SweepOnce call.
	// Nil (the default) skips the scan those gauges require.
	Metrics *graph.Metrics
}

// New constructs a Sweeper. maxAge is how long a Pending approval may sit
// unresolved before it is considered abandoned. A nil publisher disables
// event emission; a nil logger falls back to the global zerolog logger.
func New[S any](approvalStore interface {
	store.ApprovalStore[S]
	store.PendingScanner[S]
}, publisher notify.Publisher, policy Policy, maxAge time.Duration, logger *zerolog.Logger) *Sweeper[S] {
	l := log.Logger
	if logger != nil {
		l = *logger
	}
	return &Sweeper[S]{
		store:     approvalStore,
		publisher: publisher,
		policy:    policy,
		maxAge:    maxAge,
		cron:      cron.New(cron.WithSeconds()),
		logger:    l,
	}
}

// Start schedules the sweep to run on every tick of schedule (a standard
// robfig/cron expression, e.g. "*/30 * * * * *" for every 30 seconds) and
// starts the cron scheduler's own goroutine.
func (s *Sweeper[S]) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := s.SweepOnce(ctx); err != nil {
			s.logger.Error().Err(err).Msg("hitl sweep failed")
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for any in-flight sweep to finish.
func (s *Sweeper[S]) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// SweepOnce scans for approvals requested before now-maxAge and resolves
// each one per Policy, emitting a notify.Event for every resolution.
func (s *Sweeper[S]) SweepOnce(ctx context.Context) error {
	cutoff := time.Now().Add(-s.maxAge)
	stale, err := s.store.ListPendingApprovals(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, record := range stale {
		switch s.policy {
		case PolicyLenientReject:
			if err := s.store.Reject(ctx, record.Key); err != nil {
				s.logger.Error().Err(err).Str("run_id", record.Key.RunID).Msg("sweeping approval")
				continue
			}
			s.emit(record.Key, store.StatusRejected)
		case PolicyStrict:
			s.logger.Warn().Str("run_id", record.Key.RunID).Str("node", record.Key.NodeName).
				Msg("hitl approval past timeout, awaiting node-side timeout to surface failure")
			s.emit(record.Key, store.StatusPending)
		}
	}

	s.recordPending(ctx)
	return nil
}

// recordPending reports the current outstanding count for every HITL kind
// to s.Metrics, scanning with a cutoff of now so every still-Pending record
// is counted regardless of age. A nil Metrics makes this a no-op scan.
func (s *Sweeper[S]) recordPending(ctx context.Context) {
	if s.Metrics == nil {
		return
	}
	now := time.Now()
	if approvals, err := s.store.ListPendingApprovals(ctx, now); err == nil {
		s.Metrics.SetHITLPending("approval", len(approvals))
	}
	if decisions, err := s.store.ListPendingDecisions(ctx, now); err == nil {
		s.Metrics.SetHITLPending("decision", len(decisions))
	}
	if inputs, err := s.store.ListPendingInputs(ctx, now); err == nil {
		s.Metrics.SetHITLPending("input", len(inputs))
	}
	if reviews, err := s.store.ListPendingReviews(ctx, now); err == nil {
		s.Metrics.SetHITLPending("review", len(reviews))
	}
}

func (s *Sweeper[S]) emit(key store.Key, status store.Status) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(notify.Event{
		Type: notify.EventResolved, Kind: notify.KindApproval,
		RunID: key.RunID, NodeName: key.NodeName, Status: status,
		Message: "resolved by sweep", Timestamp: time.Now(),
	})
}
