package notify

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades GET /runs/{runID}/pending requests to a WebSocket feed
// of Events scoped to that run. Wire it under a route that supplies runID,
// e.g. via gorilla/mux's mux.Vars.
type Handler struct {
	hub        *Hub
	runIDParam func(*http.Request) string
	logger     zerolog.Logger
}

// NewHandler constructs a Handler. runIDParam extracts the run ID from the
// incoming request (typically a router's path-variable lookup).
func NewHandler(hub *Hub, runIDParam func(*http.Request) string, logger *zerolog.Logger) *Handler {
	l := log.Logger
	if logger != nil {
		l = *logger
	}
	return &Handler{hub: hub, runIDParam: runIDParam, logger: l}
}

// ServeHTTP upgrades the connection and starts its read/write pumps.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	runID := h.runIDParam(r)
	if runID == "" {
		http.Error(w, "run id required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("notify websocket upgrade failed")
		return
	}

	c := NewClient(h.hub, conn, runID)
	go c.writePump()
	go c.readPump()
}
