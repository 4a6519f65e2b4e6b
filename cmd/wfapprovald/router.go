package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mwillis/wfgraph/graph/hitl/notify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// newRouter wires the external-actor endpoints:
// approve/reject/decision/input/review resolution, a REST pending listing,
// and the websocket pending-event stream. Authenticated routes run auth
// as middleware so a 401 never reaches the store. registry is exposed at
// /metrics for Prometheus scraping; a nil registry omits the endpoint.
func newRouter(s *server, hub *notify.Hub, registry *prometheus.Registry) http.Handler {
	r := mux.NewRouter()

	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	authed := r.PathPrefix("/runs/{runID}/nodes/{node}").Subrouter()
	authed.Use(s.authMiddleware)
	authed.HandleFunc("/approve", s.handleApprove).Methods(http.MethodPost)
	authed.HandleFunc("/reject", s.handleReject).Methods(http.MethodPost)
	authed.HandleFunc("/approve-with-changes", s.handleApproveWithChanges).Methods(http.MethodPost)
	authed.HandleFunc("/decision", s.handleDecision).Methods(http.MethodPost)
	authed.HandleFunc("/input", s.handleInput).Methods(http.MethodPost)
	authed.HandleFunc("/review", s.handleReview).Methods(http.MethodPost)

	r.HandleFunc("/runs/{runID}/pending.json", s.handleListPending).Methods(http.MethodGet)

	wsHandler := notify.NewHandler(hub, func(req *http.Request) string {
		return mux.Vars(req)["runID"]
	}, &s.logger)
	r.HandleFunc("/runs/{runID}/pending", func(w http.ResponseWriter, req *http.Request) {
		s.ensureRedisSubscription(mux.Vars(req)["runID"])
		wsHandler.ServeHTTP(w, req)
	}).Methods(http.MethodGet)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	return corsMiddleware.Handler(r)
}

// authMiddleware rejects a request with 401 before it reaches a resolution
// handler when s.auth fails to authenticate it. The authenticated actor
// name is attached to the request log but not currently persisted on the
// record — a future audit-log addition would thread it through to the
// store instead.
func (s *server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := s.auth.Authenticate(r)
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, err)
			return
		}
		s.logger.Debug().Str("actor", actor).Str("path", r.URL.Path).Msg("authenticated request")
		next.ServeHTTP(w, r)
	})
}
