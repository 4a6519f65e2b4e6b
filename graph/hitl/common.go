// Package hitl implements the five human-in-the-loop node types:
// ApprovalNode, ConditionalApprovalNode, DecisionNode, InputNode, and
// ReviewNode, all sharing one suspend-poll-resume protocol against a
// graph/hitl/store.PendingStore.
package hitl

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mwillis/wfgraph/graph"
)

// unboundedPollInterval is the polling cadence when a node has no bounded
// timeout.
const unboundedPollInterval = 500 * time.Millisecond

// boundedPollInterval is the polling cadence when a node has a bounded
// timeout.
const boundedPollInterval = 100 * time.Millisecond

// runIDFor extracts the run identifier through the HasRunID capability on
// state. When state carries none, it generates a process-unique ID
// (fallback plus a UUID) so records from different untagged runs do not
// collide.
func runIDFor[S any](state S, fallback string) string {
	if id := graph.ExtractRunID(state, ""); id != "" {
		return id
	}
	return fallback + "-" + uuid.NewString()
}

// pollInterval picks the polling cadence: tighter once a bounded timeout
// is in play.
func pollInterval(hasTimeout bool) time.Duration {
	if hasTimeout {
		return boundedPollInterval
	}
	return unboundedPollInterval
}

// waitUntilResolved polls isResolved at interval until it reports true, ctx
// is done, or isResolved itself errors (a store access failure). ctx.Err()
// distinguishes an external cancellation (context.Canceled) from a
// node-local timeout (context.DeadlineExceeded), keeping a timeout
// distinguishable from an external cancellation at the failure site. isResolved is checked once immediately before the first
// tick so an already-resolved record returns without waiting a full
// interval.
func waitUntilResolved(ctx context.Context, interval time.Duration, isResolved func(ctx context.Context) (bool, error)) error {
	check := func() (bool, error) { return isResolved(ctx) }

	if resolved, err := check(); err != nil {
		return err
	} else if resolved {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			resolved, err := check()
			if err != nil {
				return err
			}
			if resolved {
				return nil
			}
		}
	}
}

// writeProperty writes a named property on state via the PropertyWriter
// capability, tolerating an unwritable state silently per the same
// contract DynamicBranchNode and ValidationNode use.
func writeProperty[S any](state S, name string, value any) S {
	next, _ := graph.WriteProperty(state, name, value)
	return next
}
