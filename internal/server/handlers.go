package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"signal-trader/internal/types"
)

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := s.gw.Account(r.Context())
	if err != nil {
		upstreamError(w, r, "fetch account", err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.gw.Positions(r.Context())
	if err != nil {
		upstreamError(w, r, "fetch positions", err)
		return
	}
	writeJSON(w, http.StatusOK, positions)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.gw.OpenOrders(r.Context(), r.URL.Query().Get("symbol"))
	if err != nil {
		upstreamError(w, r, "fetch open orders", err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

type createOrderRequest struct {
	Symbol      string `json:"symbol"`
	Qty         int    `json:"qty"`
	Side        string `json:"side"`
	Type        string `json:"type"`
	TimeInForce string `json:"time_in_force"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	if req.Qty <= 0 {
		writeError(w, http.StatusBadRequest, "qty must be positive")
		return
	}
	side := types.Side(req.Side)
	if side != types.SideBuy && side != types.SideSell {
		writeError(w, http.StatusBadRequest, "side must be 'buy' or 'sell'")
		return
	}

	order, err := s.gw.SubmitOrder(r.Context(), types.OrderRequest{
		Symbol:      req.Symbol,
		Qty:         req.Qty,
		Side:        side,
		Type:        req.Type,
		TimeInForce: req.TimeInForce,
		Origin:      types.OriginManual,
	})
	if err != nil {
		upstreamError(w, r, "submit order", err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.gw.CancelOrder(r.Context(), id); err != nil {
		upstreamError(w, r, "cancel order", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type startRequest struct {
	Symbols         []string `json:"symbols,omitempty"`
	IntervalMinutes int      `json:"interval_minutes"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	// The body is optional. ContentLength is unreliable for chunked
	// requests, so decode whatever is there and treat EOF as no body.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.IntervalMinutes == 0 {
		req.IntervalMinutes = s.loop.Status().IntervalMinutes
	}
	status, err := s.loop.Start(r.Context(), req.Symbols, req.IntervalMinutes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.loop.Stop(r.Context())
	writeJSON(w, http.StatusOK, s.loop.Status())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.loop.Status())
}

func (s *Server) handleUpdateParameters(w http.ResponseWriter, r *http.Request) {
	var upd types.ParameterUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}
	status, err := s.loop.UpdateParameters(r.Context(), upd)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleRunCycle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.loop.RunCycle(r.Context()))
}

func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	writeJSON(w, http.StatusOK, s.gen.Generate(r.Context(), symbol))
}

type signalBatchRequest struct {
	Symbols []string `json:"symbols"`
}

func (s *Server) handleSignalBatch(w http.ResponseWriter, r *http.Request) {
	var req signalBatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Symbols) == 0 {
		writeError(w, http.StatusBadRequest, "symbols is required")
		return
	}
	writeJSON(w, http.StatusOK, s.gen.GenerateBatch(r.Context(), req.Symbols))
}
