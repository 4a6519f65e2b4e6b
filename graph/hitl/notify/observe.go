package notify

import (
	"context"
	"time"

	"github.com/mwillis/wfgraph/graph/hitl/store"
)

// ObservedStore wraps a store.PendingStore and publishes an Event to a
// Publisher on every request creation and resolution, without changing the
// store's own persistence semantics. It is the glue between the hitl node
// package (which only knows about store.PendingStore) and this package's
// Hub/RedisBridge fan-out.
type ObservedStore[S any] struct {
	store.PendingStore[S]
	publisher Publisher
}

// NewObservedStore wraps inner so every mutation also publishes to pub.
func NewObservedStore[S any](inner store.PendingStore[S], pub Publisher) *ObservedStore[S] {
	return &ObservedStore[S]{PendingStore: inner, publisher: pub}
}

func (o *ObservedStore[S]) publish(kind RequestKind, key store.Key, typ EventType, status store.Status, message string) {
	o.publisher.Publish(Event{
		Type: typ, Kind: kind, RunID: key.RunID, NodeName: key.NodeName,
		PropertyName: key.PropertyName, Status: status, Message: message,
		Timestamp: time.Now(),
	})
}

func (o *ObservedStore[S]) RequestApproval(ctx context.Context, key store.Key, state S, message string) (store.ApprovalRecord[S], error) {
	rec, err := o.PendingStore.RequestApproval(ctx, key, state, message)
	if err == nil {
		o.publish(KindApproval, key, EventRequested, rec.Status, message)
	}
	return rec, err
}

func (o *ObservedStore[S]) Approve(ctx context.Context, key store.Key) error {
	err := o.PendingStore.Approve(ctx, key)
	if err == nil {
		o.publish(KindApproval, key, EventResolved, store.StatusApproved, "")
	}
	return err
}

func (o *ObservedStore[S]) Reject(ctx context.Context, key store.Key) error {
	err := o.PendingStore.Reject(ctx, key)
	if err == nil {
		o.publish(KindApproval, key, EventResolved, store.StatusRejected, "")
	}
	return err
}

func (o *ObservedStore[S]) ApproveWithModification(ctx context.Context, key store.Key, newState S) error {
	err := o.PendingStore.ApproveWithModification(ctx, key, newState)
	if err == nil {
		o.publish(KindApproval, key, EventResolved, store.StatusModified, "")
	}
	return err
}

func (o *ObservedStore[S]) RequestDecision(ctx context.Context, key store.Key, state S, question string, options []string) (store.DecisionRecord[S], error) {
	rec, err := o.PendingStore.RequestDecision(ctx, key, state, question, options)
	if err == nil {
		o.publish(KindDecision, key, EventRequested, rec.Status, question)
	}
	return rec, err
}

func (o *ObservedStore[S]) SetDecision(ctx context.Context, key store.Key, option string) error {
	err := o.PendingStore.SetDecision(ctx, key, option)
	if err == nil {
		o.publish(KindDecision, key, EventResolved, "", option)
	}
	return err
}

func (o *ObservedStore[S]) RequestInput(ctx context.Context, key store.Key, state S, typ store.InputType, prompt string, defaultValue any, validationRule string) (store.InputRecord[S], error) {
	rec, err := o.PendingStore.RequestInput(ctx, key, state, typ, prompt, defaultValue, validationRule)
	if err == nil {
		o.publish(KindInput, key, EventRequested, rec.Status, prompt)
	}
	return rec, err
}

func (o *ObservedStore[S]) SetInput(ctx context.Context, key store.Key, value any) error {
	err := o.PendingStore.SetInput(ctx, key, value)
	if err == nil {
		o.publish(KindInput, key, EventResolved, "", "")
	}
	return err
}

func (o *ObservedStore[S]) RequestReview(ctx context.Context, key store.Key, state S, reviewContext string, allowModification bool) (store.ReviewRecord[S], error) {
	rec, err := o.PendingStore.RequestReview(ctx, key, state, reviewContext, allowModification)
	if err == nil {
		o.publish(KindReview, key, EventRequested, rec.Status, reviewContext)
	}
	return rec, err
}

func (o *ObservedStore[S]) SetReviewedState(ctx context.Context, key store.Key, newState S) error {
	err := o.PendingStore.SetReviewedState(ctx, key, newState)
	if err == nil {
		o.publish(KindReview, key, EventResolved, "", "")
	}
	return err
}
