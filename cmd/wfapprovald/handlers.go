package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/mwillis/wfgraph/graph/hitl/notify"
	"github.com/mwillis/wfgraph/graph/hitl/store"
	"github.com/rs/zerolog"
)

// server holds the shared dependencies every resolution handler needs.
// resolve is the (possibly notify-observed) store used for mutating calls;
// scan is the underlying concrete store used for listing/sweeping, kept
// separate because notify.ObservedStore only promotes the PendingStore
// methods it decorates, not the concrete store's PendingScanner methods.
//
// redisBridge is nil unless multi-instance fan-out is configured. A run's
// Redis channel is only subscribed to lazily, the first time a local
// websocket client connects for that run id, since RedisBridge.Subscribe
// is scoped per run rather than global.
type server struct {
	resolve store.PendingStore[map[string]any]
	scan    store.PendingScanner[map[string]any]
	auth    Authenticator
	logger  zerolog.Logger

	redisBridge *notify.RedisBridge
	subscribed  sync.Map
	bgCtx       context.Context
}

// ensureRedisSubscription relays runID's Redis channel into the local hub
// the first time a client connects for it. Idempotent per run id for the
// life of the process.
func (s *server) ensureRedisSubscription(runID string) {
	if s.redisBridge == nil || runID == "" {
		return
	}
	if _, already := s.subscribed.LoadOrStore(runID, struct{}{}); already {
		return
	}
	if err := s.redisBridge.Subscribe(s.bgCtx, runID); err != nil {
		s.subscribed.Delete(runID)
		s.logger.Error().Err(err).Str("run_id", runID).Msg("subscribing redis notify bridge")
	}
}

func keyFromRequest(r *http.Request) store.Key {
	vars := mux.Vars(r)
	return store.Key{RunID: vars["runID"], NodeName: vars["node"]}
}

func (s *server) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func (s *server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("encoding response")
	}
}

// handleApprove resolves POST /runs/{runID}/nodes/{node}/approve.
func (s *server) handleApprove(w http.ResponseWriter, r *http.Request) {
	key := keyFromRequest(r)
	if err := s.resolve.Approve(r.Context(), key); err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, map[string]string{"status": string(store.StatusApproved)})
}

// handleReject resolves POST /runs/{runID}/nodes/{node}/reject.
func (s *server) handleReject(w http.ResponseWriter, r *http.Request) {
	key := keyFromRequest(r)
	if err := s.resolve.Reject(r.Context(), key); err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, map[string]string{"status": string(store.StatusRejected)})
}

type approveWithChangesBody struct {
	State map[string]any `json:"state"`
}

// handleApproveWithChanges resolves POST
// /runs/{runID}/nodes/{node}/approve-with-changes: an approval whose
// approver amends the captured state as a condition of approving.
func (s *server) handleApproveWithChanges(w http.ResponseWriter, r *http.Request) {
	var body approveWithChangesBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	key := keyFromRequest(r)
	if err := s.resolve.ApproveWithModification(r.Context(), key, body.State); err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, map[string]any{"status": string(store.StatusModified), "state": body.State})
}

type decisionBody struct {
	Option string `json:"option"`
}

// handleDecision resolves POST /runs/{runID}/nodes/{node}/decision.
func (s *server) handleDecision(w http.ResponseWriter, r *http.Request) {
	var body decisionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	key := keyFromRequest(r)
	if err := s.resolve.SetDecision(r.Context(), key, body.Option); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, map[string]string{"option": body.Option})
}

type inputBody struct {
	Property string `json:"property"`
	Value    any    `json:"value"`
}

// handleInput resolves POST /runs/{runID}/nodes/{node}/input. Input
// records are keyed by property name on top of (runID, node), so the body
// must name the property being answered.
func (s *server) handleInput(w http.ResponseWriter, r *http.Request) {
	var body inputBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	key := keyFromRequest(r)
	key.PropertyName = body.Property
	if err := s.resolve.SetInput(r.Context(), key, body.Value); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, map[string]any{"value": body.Value})
}

type reviewBody struct {
	State map[string]any `json:"state"`
}

// handleReview resolves POST /runs/{runID}/nodes/{node}/review.
func (s *server) handleReview(w http.ResponseWriter, r *http.Request) {
	var body reviewBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	key := keyFromRequest(r)
	if err := s.resolve.SetReviewedState(r.Context(), key, body.State); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, map[string]any{"state": body.State})
}

// pendingSnapshot is the JSON shape of GET /runs/{runID}/pending.json, a
// point-in-time REST listing alongside the websocket event stream.
type pendingSnapshot struct {
	Approvals []store.ApprovalRecord[map[string]any] `json:"approvals"`
	Decisions []store.DecisionRecord[map[string]any] `json:"decisions"`
	Inputs    []store.InputRecord[map[string]any]    `json:"inputs"`
	Reviews   []store.ReviewRecord[map[string]any]   `json:"reviews"`
}

// handleListPending resolves GET /runs/{runID}/pending.json, listing every
// still-Pending record for runID regardless of age (PendingScanner's
// olderThan cutoff set far in the future matches everything requested so
// far).
func (s *server) handleListPending(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["runID"]
	cutoff := time.Now().Add(24 * 365 * time.Hour)

	approvals, err := s.scan.ListPendingApprovals(r.Context(), cutoff)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	decisions, err := s.scan.ListPendingDecisions(r.Context(), cutoff)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	inputs, err := s.scan.ListPendingInputs(r.Context(), cutoff)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	reviews, err := s.scan.ListPendingReviews(r.Context(), cutoff)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	snap := pendingSnapshot{}
	for _, a := range approvals {
		if a.Key.RunID == runID {
			snap.Approvals = append(snap.Approvals, a)
		}
	}
	for _, d := range decisions {
		if d.Key.RunID == runID {
			snap.Decisions = append(snap.Decisions, d)
		}
	}
	for _, in := range inputs {
		if in.Key.RunID == runID {
			snap.Inputs = append(snap.Inputs, in)
		}
	}
	for _, rv := range reviews {
		if rv.Key.RunID == runID {
			snap.Reviews = append(snap.Reviews, rv)
		}
	}
	s.writeJSON(w, snap)
}
