// Package httpapi exposes the message router over HTTP so that scripts and
// other processes can drive transfers the way the extension popup did.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driving"
	"github.com/custodia-labs/chatrelay/internal/logger"
)

var log = logger.Scope("http")

// defaultHistoryLimit applies when ?limit is absent.
const defaultHistoryLimit = 20

// Server routes HTTP requests to the driving ports.
type Server struct {
	router       *chi.Mux
	messages     driving.MessageHandler
	transfer     driving.TransferService
	orchestrator driving.TransferOrchestrator
}

// NewServer creates a server. transfer and orchestrator may be nil; the
// endpoints that need them then answer 404.
func NewServer(messages driving.MessageHandler, transfer driving.TransferService, orchestrator driving.TransferOrchestrator) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(requestLogger)

	s := &Server{
		router:       router,
		messages:     messages,
		transfer:     transfer,
		orchestrator: orchestrator,
	}

	router.Get("/health", s.health)
	router.Route("/v1", func(r chi.Router) {
		r.Post("/messages", s.postMessage)
		r.Get("/sites", s.listSites)
		r.Get("/transfers", s.listTransfers)
		r.Get("/transfers/current", s.currentTransfer)
	})

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	log.Info("listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// postMessage handles POST /v1/messages. Failures of the action itself
// are reported in the body with status 200, as the page messages are.
func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	var req domain.PageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, domain.PageResponse{Error: "invalid JSON: " + err.Error()})
		return
	}
	if !req.Action.IsValid() {
		writeJSON(w, http.StatusBadRequest, domain.PageResponse{Error: "unknown action"})
		return
	}

	writeJSON(w, http.StatusOK, s.messages.Handle(r.Context(), req))
}

type siteInfo struct {
	ID      domain.SiteID `json:"id"`
	Name    string        `json:"name"`
	BaseURL string        `json:"base_url"`
}

func (s *Server) listSites(w http.ResponseWriter, _ *http.Request) {
	sites := domain.Sites()
	infos := make([]siteInfo, len(sites))
	for i, d := range sites {
		infos[i] = siteInfo{ID: d.ID, Name: d.DisplayName, BaseURL: d.BaseURL}
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) listTransfers(w http.ResponseWriter, r *http.Request) {
	if s.transfer == nil {
		http.NotFound(w, r)
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	history, err := s.transfer.History(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if history == nil {
		history = []domain.TransferStatus{}
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) currentTransfer(w http.ResponseWriter, r *http.Request) {
	if s.orchestrator == nil {
		http.NotFound(w, r)
		return
	}

	status, err := s.orchestrator.Status(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("failed to write response: %v", err)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug("%s %s %d %s [%s]", r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Millisecond), middleware.GetReqID(r.Context()))
	})
}
