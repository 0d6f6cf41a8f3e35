package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter returns the HTTP side of the server: the spectator websocket and
// a health check.
//
//	GET /ws?session=<id>  spectate a session
//	GET /healthz          {"status":"ok","sessions":<open sessions>}
func NewRouter(s *Server, hub *Hub) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", hub.ServeWS).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	return r
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": s.Sessions(),
	})
	if err != nil {
		s.logger.Error("unable to write health check", slog.String("error", err.Error()))
	}
}
