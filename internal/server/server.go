package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/web3guy0/chainpool/internal/metrics"
	"github.com/web3guy0/chainpool/internal/rpcpool"
	"github.com/web3guy0/chainpool/internal/storage"
)

// Server is the admin/observability HTTP API: pool snapshots, runtime
// endpoint management, Prometheus scrape and a live status stream.
type Server struct {
	addr    string
	manager *rpcpool.Manager
	store   *storage.Store // optional
	hub     *Hub
	srv     *http.Server
}

func New(addr string, m *rpcpool.Manager, store *storage.Store) *Server {
	s := &Server{
		addr:    addr,
		manager: m,
		store:   store,
		hub:     NewHub(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /chains/{chain}", s.handleChain)
	mux.HandleFunc("POST /rpc", s.handleAddRPC)
	mux.HandleFunc("DELETE /rpc", s.handleRemoveRPC)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /ws", s.hub.HandleWS)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start launches the listener and the status broadcast loop.
func (s *Server) Start(ctx context.Context) {
	go s.hub.Run(ctx, 5*time.Second, s.manager.Status)
	go func() {
		log.Info().Str("addr", s.addr).Msg("🚀 Admin API listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Admin API failed")
		}
	}()
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// ─── Handlers ───

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Status())
}

type chainResponse struct {
	rpcpool.ChainStatus
	RecentProbes []storage.ProbeResult `json:"recentProbes,omitempty"`
}

func (s *Server) handleChain(w http.ResponseWriter, r *http.Request) {
	chain := r.PathValue("chain")
	stats, err := s.manager.ChainStats(chain)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := chainResponse{ChainStatus: stats}
	if s.store != nil {
		if probes, perr := s.store.RecentProbes(chain, 20); perr == nil {
			resp.RecentProbes = probes
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type addRPCRequest struct {
	Chain    string `json:"chain"`
	URL      string `json:"url"`
	Priority int    `json:"priority"`
}

func (s *Server) handleAddRPC(w http.ResponseWriter, r *http.Request) {
	var req addRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Chain == "" || req.URL == "" {
		http.Error(w, "chain and url are required", http.StatusBadRequest)
		return
	}
	if err := s.manager.AddRPC(req.Chain, req.URL, req.Priority); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

func (s *Server) handleRemoveRPC(w http.ResponseWriter, r *http.Request) {
	chain := r.URL.Query().Get("chain")
	url := r.URL.Query().Get("url")
	if chain == "" || url == "" {
		http.Error(w, "chain and url query parameters are required", http.StatusBadRequest)
		return
	}
	if err := s.manager.RemoveRPC(chain, url); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	st := s.manager.Status()
	for _, cs := range st.Chains {
		if cs.Healthy > 0 {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rpcpool.ErrUnknownChain), errors.Is(err, rpcpool.ErrEndpointNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, rpcpool.ErrEndpointExists):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
