// Package notify is the external-notifier seam of the human-in-the-loop
// protocol: it fans out "pending request created"/"pending request
// resolved" events to subscribed dashboards over WebSocket, backed by
// Redis Pub/Sub as the cross-process broadcast bus. It observes the
// PendingStore from the outside; none of the hitl node types import it.
package notify

import (
	"time"

	"github.com/mwillis/wfgraph/graph/hitl/store"
)

// EventType names the kind of change an Event reports.
type EventType string

const (
	// EventRequested fires when a node creates a new pending request.
	EventRequested EventType = "requested"
	// EventResolved fires when a pending request's status stops being Pending.
	EventResolved EventType = "resolved"
)

// Event is the payload broadcast to subscribed dashboards, one per
// pending-request lifecycle transition.
type Event struct {
	Type         EventType    `json:"type"`
	Kind         RequestKind  `json:"kind"`
	RunID        string       `json:"run_id"`
	NodeName     string       `json:"node_name"`
	PropertyName string       `json:"property_name,omitempty"`
	Status       store.Status `json:"status,omitempty"`
	Message      string       `json:"message,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
}

// RequestKind distinguishes which of the four PendingStore shapes an Event
// describes.
type RequestKind string

const (
	KindApproval RequestKind = "approval"
	KindDecision RequestKind = "decision"
	KindInput    RequestKind = "input"
	KindReview   RequestKind = "review"
)
