package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/mwillis/wfgraph/graph/hitl/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type caseState struct {
	Value int
}

func TestMemoryStore_ApprovalRoundTrip(t *testing.T) {
	s := store.NewMemoryStore[caseState]()
	key := store.Key{RunID: "run-1", NodeName: "gate"}
	ctx := context.Background()

	_, err := s.RequestApproval(ctx, key, caseState{Value: 1}, "please approve")
	require.NoError(t, err)

	approved, err := s.IsApproved(ctx, key)
	require.NoError(t, err)
	assert.False(t, approved)

	require.NoError(t, s.Approve(ctx, key))

	approved, err = s.IsApproved(ctx, key)
	require.NoError(t, err)
	assert.True(t, approved)

	record, err := s.GetApproval(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, store.StatusApproved, record.Status)
}

func TestMemoryStore_ApprovalRequestIsIdempotent(t *testing.T) {
	s := store.NewMemoryStore[caseState]()
	key := store.Key{RunID: "run-1", NodeName: "gate"}
	ctx := context.Background()

	first, err := s.RequestApproval(ctx, key, caseState{Value: 1}, "msg-1")
	require.NoError(t, err)
	second, err := s.RequestApproval(ctx, key, caseState{Value: 2}, "msg-2")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMemoryStore_ApproveWithModification(t *testing.T) {
	s := store.NewMemoryStore[caseState]()
	key := store.Key{RunID: "run-1", NodeName: "gate"}
	ctx := context.Background()

	_, err := s.RequestApproval(ctx, key, caseState{Value: 1}, "please approve")
	require.NoError(t, err)
	require.NoError(t, s.ApproveWithModification(ctx, key, caseState{Value: 9}))

	record, err := s.GetApproval(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, store.StatusModified, record.Status)
	assert.Equal(t, 9, record.State.Value)

	// IsApproved reports plain approval only; Modified is its own status.
	approved, err := s.IsApproved(ctx, key)
	require.NoError(t, err)
	assert.False(t, approved)
}

func TestMemoryStore_DecisionRejectsUnknownOption(t *testing.T) {
	s := store.NewMemoryStore[caseState]()
	key := store.Key{RunID: "run-2", NodeName: "route"}
	ctx := context.Background()

	_, err := s.RequestDecision(ctx, key, caseState{}, "ship?", []string{"ship", "hold", "cancel"})
	require.NoError(t, err)

	require.NoError(t, s.SetDecision(ctx, key, "hold"))
	record, err := s.GetDecision(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "hold", record.Option)

	err = s.SetDecision(ctx, key, "hold2")
	require.ErrorIs(t, err, store.ErrInvalidOption)
}

func TestMemoryStore_InputRoundTrip(t *testing.T) {
	s := store.NewMemoryStore[caseState]()
	key := store.Key{RunID: "run-3", NodeName: "ask", PropertyName: "Age"}
	ctx := context.Background()

	_, err := s.RequestInput(ctx, key, caseState{}, store.InputNumber, "your age?", nil, "")
	require.NoError(t, err)
	require.NoError(t, s.SetInput(ctx, key, 42))

	record, err := s.GetInput(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 42, record.Value)
}

func TestMemoryStore_ReviewRoundTrip(t *testing.T) {
	s := store.NewMemoryStore[caseState]()
	key := store.Key{RunID: "run-4", NodeName: "review"}
	ctx := context.Background()

	_, err := s.RequestReview(ctx, key, caseState{Value: 1}, "please check", true)
	require.NoError(t, err)
	require.NoError(t, s.SetReviewedState(ctx, key, caseState{Value: 99}))

	record, err := s.GetReview(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 99, record.ReviewedState.Value)
}

func TestMemoryStore_GetMissingReturnsNotFound(t *testing.T) {
	s := store.NewMemoryStore[caseState]()
	_, err := s.GetApproval(context.Background(), store.Key{RunID: "nope", NodeName: "nope"})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemoryStore_ResolvedApprovalChannelClosesOnApprove(t *testing.T) {
	s := store.NewMemoryStore[caseState]()
	key := store.Key{RunID: "run-5", NodeName: "gate"}
	ctx := context.Background()

	_, err := s.RequestApproval(ctx, key, caseState{}, "")
	require.NoError(t, err)
	resolved := s.ResolvedApproval(key)

	select {
	case <-resolved:
		t.Fatal("resolved channel closed before Approve")
	default:
	}

	require.NoError(t, s.Approve(ctx, key))

	select {
	case <-resolved:
	default:
		t.Fatal("resolved channel did not close after Approve")
	}
}

func TestMemoryStore_RemoveApprovalDeletesRecord(t *testing.T) {
	s := store.NewMemoryStore[caseState]()
	key := store.Key{RunID: "run-6", NodeName: "gate"}
	ctx := context.Background()

	_, err := s.RequestApproval(ctx, key, caseState{}, "")
	require.NoError(t, err)
	require.NoError(t, s.RemoveApproval(ctx, key))

	_, err = s.GetApproval(ctx, key)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemoryStore_ListPendingApprovalsFindsStaleRequests(t *testing.T) {
	s := store.NewMemoryStore[caseState]()
	ctx := context.Background()

	_, err := s.RequestApproval(ctx, store.Key{RunID: "stale", NodeName: "gate"}, caseState{}, "")
	require.NoError(t, err)
	_, err = s.RequestApproval(ctx, store.Key{RunID: "fresh", NodeName: "gate"}, caseState{}, "")
	require.NoError(t, err)
	require.NoError(t, s.Approve(ctx, store.Key{RunID: "fresh", NodeName: "gate"}))

	stale, err := s.ListPendingApprovals(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "stale", stale[0].Key.RunID)
}
