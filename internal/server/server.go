package server

import (
	"encoding/json"
	"net/http"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
)

// Server translates core results into HTTP responses. It holds no state of
// its own; all operations delegate to the injected collaborators.
type Server struct {
	gw         interfaces.Gateway
	gen        interfaces.SignalGenerator
	loop       interfaces.Loop
	corsOrigin string
}

func New(gw interfaces.Gateway, gen interfaces.SignalGenerator, loop interfaces.Loop, corsOrigin string) *Server {
	if corsOrigin == "" {
		corsOrigin = "*"
	}
	return &Server{gw: gw, gen: gen, loop: loop, corsOrigin: corsOrigin}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /api/account", s.handleAccount)
	mux.HandleFunc("GET /api/positions", s.handlePositions)
	mux.HandleFunc("GET /api/orders", s.handleListOrders)
	mux.HandleFunc("POST /api/orders", s.handleCreateOrder)
	mux.HandleFunc("DELETE /api/orders/{id}", s.handleCancelOrder)

	mux.HandleFunc("POST /api/automation/start", s.handleStart)
	mux.HandleFunc("POST /api/automation/stop", s.handleStop)
	mux.HandleFunc("GET /api/automation/status", s.handleStatus)
	mux.HandleFunc("PATCH /api/automation/parameters", s.handleUpdateParameters)
	mux.HandleFunc("POST /api/automation/run", s.handleRunCycle)

	mux.HandleFunc("GET /api/signals/{symbol}", s.handleSignal)
	mux.HandleFunc("POST /api/signals", s.handleSignalBatch)

	return s.cors(mux)
}

// cors allows the dashboard origin to reach the API. Preflight requests are
// answered here and never reach the handlers.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func upstreamError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logger.ErrorWithErr(r.Context(), "Upstream call failed", err, "op", op)
	writeError(w, http.StatusBadGateway, op+": "+err.Error())
}
