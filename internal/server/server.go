// internal/server/server.go
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"meal-assistant/internal/common/config"
	"meal-assistant/internal/common/logger"
	"meal-assistant/internal/common/observability"
	"meal-assistant/internal/conversation"
	"meal-assistant/internal/models"
	"meal-assistant/internal/session"
)

// Pinger is the health-check contract of the backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the conversation processor over HTTP. Turns for the same
// session are strictly serialized: a concurrent turn is rejected with 409
// instead of queueing, because a second message while the first is still
// being analyzed would race on the conversation context.
type Server struct {
	orchestrator *conversation.Orchestrator
	store        *session.Store
	pinger       Pinger
	obs          *observability.Observability
	logger       logger.Logger
	httpServer   *http.Server

	mu       sync.Mutex
	sessions map[string]*sync.Mutex
}

func New(cfg config.ServerConfig, orch *conversation.Orchestrator, store *session.Store, pinger Pinger, obs *observability.Observability, log logger.Logger) *Server {
	s := &Server{
		orchestrator: orch,
		store:        store,
		pinger:       pinger,
		obs:          obs,
		logger:       log.WithFields(map[string]interface{}{"component": "http_server"}),
		sessions:     make(map[string]*sync.Mutex),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/turns", s.handleTurn)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         cfg.GetAddress(),
		Handler:      mux,
		ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.WriteTimeout),
	}
	return s
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", map[string]interface{}{"address": s.httpServer.Addr})
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// turnRequest is the wire shape of one conversation turn.
type turnRequest struct {
	SessionID   string `json:"session_id"`
	Kind        string `json:"kind"`
	Input       string `json:"input"`
	Attachments struct {
		Photo      string `json:"photo,omitempty"` // base64
		Transcript string `json:"transcript,omitempty"`
		Barcode    string `json:"barcode,omitempty"`
	} `json:"attachments"`
}

type turnResponse struct {
	SessionID        string                      `json:"session_id"`
	Message          string                      `json:"message"`
	AwaitingQuantity bool                        `json:"awaiting_quantity"`
	Normalized       *models.NormalizedNutrition `json:"normalized,omitempty"`
	Suggestions      []models.QuantitySuggestion `json:"suggestions,omitempty"`
	State            models.ConversationState    `json:"state"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var raw map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if err := validateTurnRequest(raw); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	payload, _ := json.Marshal(raw)
	var req turnRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request shape"})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	lock := s.sessionLock(sessionID)
	if !lock.TryLock() {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "a turn is already in progress for this session"})
		return
	}
	defer lock.Unlock()

	att := models.Attachments{
		Transcript: req.Attachments.Transcript,
		Barcode:    req.Attachments.Barcode,
	}
	if req.Attachments.Photo != "" {
		photo, err := base64.StdEncoding.DecodeString(req.Attachments.Photo)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "attachments.photo is not valid base64"})
			return
		}
		att.Photo = photo
	}

	ctx := r.Context()
	convCtx, err := s.store.Get(ctx, sessionID)
	if err != nil {
		// The store already fell back to a fresh context; log and continue so
		// a Redis hiccup costs one conversation, not the turn.
		s.logger.Warn("session load failed, starting fresh", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}

	start := time.Now()
	resp := s.orchestrator.ProcessInput(ctx, req.Input, models.InputKind(req.Kind), convCtx, att)
	status := "resolved"
	if resp.AwaitingQuantity {
		status = "awaiting_quantity"
	}
	s.obs.RecordTurnProcessed(ctx, status)
	s.obs.RecordTurnDuration(ctx, time.Since(start), status)

	updated := convCtx.Apply(resp.ContextUpdate)
	if err := s.store.Save(ctx, sessionID, updated); err != nil {
		s.logger.Error("session save failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to persist session"})
		return
	}

	writeJSON(w, http.StatusOK, turnResponse{
		SessionID:        sessionID,
		Message:          resp.Message,
		AwaitingQuantity: resp.AwaitingQuantity,
		Normalized:       resp.Normalized,
		Suggestions:      resp.Suggestions,
		State:            updated.State,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.pinger.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "redis": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.sessions[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.sessions[sessionID] = lock
	}
	return lock
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
