package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/emberdb/emberdb/pkg/store"
)

// Server wires an open Engine and an optional SystemService to the
// router built by StartServer.
type Server struct {
	engine        *store.Engine
	systemService *SystemService
	config        ServerConfig
	metrics       *Metrics
}

// NewServer constructs a Server around an already-open engine.
func NewServer(engine *store.Engine, systemService *SystemService, config ServerConfig, metrics *Metrics) *Server {
	return &Server{engine: engine, systemService: systemService, config: config, metrics: metrics}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	_ = json.NewEncoder(w).Encode(v)
}

// handleHealth godoc
//
//	@Summary	Health check
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	Response
//	@Router		/health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.metrics != nil {
		s.metrics.RecordHealthCheck()
	}
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handlePut godoc
//
//	@Summary	Store a key-value pair
//	@Tags		kv
//	@Accept		octet-stream
//	@Produce	json
//	@Param		key	path		string	true	"Key"
//	@Success	200	{object}	Response
//	@Failure	400	{object}	Response
//	@Failure	413	{object}	Response
//	@Failure	500	{object}	Response
//	@Security	ApiKeyAuth
//	@Router		/kv/{key} [put]
func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	key, err := url.QueryUnescape(chi.URLParam(r, "key"))
	if err != nil || key == "" {
		s.recordDB("put", false, start)
		sendError(w, "Key is required", http.StatusBadRequest)
		return
	}

	value, err := io.ReadAll(r.Body)
	if err != nil {
		s.recordDB("put", false, start)
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	if s.config.MaxRecordSize > 0 && len(value) > s.config.MaxRecordSize {
		s.recordDB("put", false, start)
		sendError(w, fmt.Sprintf("value exceeds maximum record size of %d bytes", s.config.MaxRecordSize), http.StatusRequestEntityTooLarge)
		return
	}

	if err := s.engine.Set([]byte(key), value); err != nil {
		s.recordDB("put", false, start)
		sendError(w, fmt.Sprintf("Failed to put key-value: %v", err), http.StatusInternalServerError)
		return
	}

	s.recordDB("put", true, start)
	sendSuccess(w, map[string]string{"message": "Key-value pair stored successfully"})
}

// handleGet godoc
//
//	@Summary	Get a value by key
//	@Tags		kv
//	@Produce	octet-stream
//	@Param		key	path	string	true	"Key"
//	@Success	200	{string}	byte
//	@Failure	400	{object}	Response
//	@Failure	404	{object}	Response
//	@Failure	500	{object}	Response
//	@Security	ApiKeyAuth
//	@Router		/kv/{key} [get]
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	key, err := url.QueryUnescape(chi.URLParam(r, "key"))
	if err != nil || key == "" {
		s.recordDB("get", false, start)
		sendError(w, "Key is required", http.StatusBadRequest)
		return
	}

	value, err := s.engine.Get([]byte(key))
	if err != nil {
		s.recordDB("get", false, start)
		var notFound *store.KeyNotFoundError
		if errors.As(err, &notFound) {
			sendError(w, "Key not found", http.StatusNotFound)
			return
		}
		sendError(w, fmt.Sprintf("Failed to get value: %v", err), http.StatusInternalServerError)
		return
	}

	s.recordDB("get", true, start)
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(value)
}

// handleDelete godoc
//
//	@Summary	Delete a key-value pair
//	@Tags		kv
//	@Produce	json
//	@Param		key	path		string	true	"Key"
//	@Success	200	{object}	Response
//	@Failure	400	{object}	Response
//	@Failure	500	{object}	Response
//	@Security	ApiKeyAuth
//	@Router		/kv/{key} [delete]
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	key, err := url.QueryUnescape(chi.URLParam(r, "key"))
	if err != nil || key == "" {
		s.recordDB("delete", false, start)
		sendError(w, "Key is required", http.StatusBadRequest)
		return
	}

	if err := s.engine.Delete([]byte(key)); err != nil {
		s.recordDB("delete", false, start)
		sendError(w, fmt.Sprintf("Failed to delete key: %v", err), http.StatusInternalServerError)
		return
	}

	s.recordDB("delete", true, start)
	sendSuccess(w, map[string]string{"message": "Key deleted successfully"})
}

// handleListKeys godoc
//
//	@Summary	List keys
//	@Tags		kv
//	@Produce	json
//	@Param		prefix	query		string	false	"Key prefix"
//	@Success	200		{object}	Response
//	@Security	ApiKeyAuth
//	@Router		/kv [get]
func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	keys := s.engine.ListKeys([]byte(prefix))
	sendSuccess(w, map[string]interface{}{"keys": keys})
}

// handleStats godoc
//
//	@Summary	Get database statistics
//	@Tags		diagnostics
//	@Produce	json
//	@Success	200	{object}	Response
//	@Security	ApiKeyAuth
//	@Router		/stats [get]
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.engine.Stats()
	if s.metrics != nil {
		s.metrics.UpdateDBStats(stats.Keys, stats.DataSize)
	}
	sendSuccess(w, stats)
}

// System API handlers operate on SystemService, never the user
// keyspace.

func (s *Server) handleCreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var apiKey APIKey
	if err := json.NewDecoder(r.Body).Decode(&apiKey); err != nil {
		sendError(w, "Invalid JSON request", http.StatusBadRequest)
		return
	}
	if apiKey.ID == "" || apiKey.Key == "" {
		sendError(w, "id and key are required", http.StatusBadRequest)
		return
	}
	if apiKey.CreatedAt.IsZero() {
		apiKey.CreatedAt = time.Now()
	}
	apiKey.IsActive = true

	if err := s.systemService.StoreAPIKey(apiKey); err != nil {
		sendError(w, fmt.Sprintf("Failed to create API key: %v", err), http.StatusInternalServerError)
		return
	}

	sendSuccess(w, map[string]interface{}{"message": "API key created successfully", "id": apiKey.ID})
}

func (s *Server) handleListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.systemService.ListAPIKeys()
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to list API keys: %v", err), http.StatusInternalServerError)
		return
	}
	sendSuccess(w, map[string]interface{}{"api_keys": keys})
}

func (s *Server) handleGetAPIKey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		sendError(w, "API key ID is required", http.StatusBadRequest)
		return
	}
	apiKey, err := s.systemService.GetAPIKey(id)
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to get API key: %v", err), http.StatusInternalServerError)
		return
	}
	sendSuccess(w, apiKey)
}

func (s *Server) handleDeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		sendError(w, "API key ID is required", http.StatusBadRequest)
		return
	}
	if err := s.systemService.DeleteAPIKey(id); err != nil {
		sendError(w, fmt.Sprintf("Failed to delete API key: %v", err), http.StatusInternalServerError)
		return
	}
	sendSuccess(w, map[string]string{"message": "API key deleted successfully"})
}

func (s *Server) recordDB(op string, success bool, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordDBOperation(op, success, time.Since(start))
	}
}

// startMetricsUpdater refreshes the point-in-time engine gauges every
// 30 seconds so Stats-derived metrics stay current between requests.
func (s *Server) startMetricsUpdater() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		stats := s.engine.Stats()
		s.metrics.UpdateDBStats(stats.Keys, stats.DataSize)
	}
}
