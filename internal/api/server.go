// Package api provides the HTTP server and handlers.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/cloudflow/cloudflow/internal/assist"
	"github.com/cloudflow/cloudflow/internal/auth"
	"github.com/cloudflow/cloudflow/internal/drive"
	"github.com/cloudflow/cloudflow/internal/events"
	"github.com/cloudflow/cloudflow/internal/logging"
	"github.com/cloudflow/cloudflow/internal/metrics"
	"github.com/cloudflow/cloudflow/internal/storage"
	"github.com/cloudflow/cloudflow/pkg/protocol"
)

// Server is the HTTP server over the drive engine.
type Server struct {
	drive       *drive.Drive
	auth        *auth.Auth
	broadcaster *events.Broadcaster
	blobs       storage.Backend
	assist      *assist.Client
	searcher    *assist.Searcher
	executor    *assist.Executor

	maxUploadSize int64
	storeType     string
}

// Options carries the server's collaborators.
type Options struct {
	Drive         *drive.Drive
	Auth          *auth.Auth
	Broadcaster   *events.Broadcaster
	Blobs         storage.Backend
	Assist        *assist.Client
	MaxUploadSize int64
	StoreType     string
}

// NewServer creates the API server.
func NewServer(opts Options) *Server {
	return &Server{
		drive:         opts.Drive,
		auth:          opts.Auth,
		broadcaster:   opts.Broadcaster,
		blobs:         opts.Blobs,
		assist:        opts.Assist,
		searcher:      assist.NewSearcher(opts.Assist),
		executor:      assist.NewExecutor(opts.Drive, opts.Assist),
		maxUploadSize: opts.MaxUploadSize,
		storeType:     opts.StoreType,
	}
}

// Handler returns the HTTP handler with auth middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Public endpoints (no auth required)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/v1/auth/login", s.auth.HandleLogin)

	// Protected endpoints
	protected := http.NewServeMux()
	protected.HandleFunc("GET /api/v1/entities", s.handleList)
	protected.HandleFunc("POST /api/v1/entities", s.handleCreate)
	protected.HandleFunc("GET /api/v1/entities/{id}", s.handleGet)
	protected.HandleFunc("GET /api/v1/entities/{id}/path", s.handlePath)
	protected.HandleFunc("POST /api/v1/entities/{id}/rename", s.handleRename)
	protected.HandleFunc("POST /api/v1/entities/{id}/open", s.handleOpen)
	protected.HandleFunc("GET /api/v1/entities/{id}/content", s.handleGetContent)
	protected.HandleFunc("PUT /api/v1/entities/{id}/content", s.handlePutContent)
	protected.HandleFunc("PUT /api/v1/entities/{id}/tags", s.handleSetTags)
	protected.HandleFunc("POST /api/v1/entities/move", s.handleMove)
	protected.HandleFunc("POST /api/v1/entities/duplicate", s.handleDuplicate)
	protected.HandleFunc("POST /api/v1/entities/trash", s.handleTrash)
	protected.HandleFunc("POST /api/v1/entities/restore", s.handleRestore)
	protected.HandleFunc("POST /api/v1/entities/delete", s.handlePermanentDelete)
	protected.HandleFunc("POST /api/v1/entities/favorite", s.handleFavorite)
	protected.HandleFunc("POST /api/v1/trash/empty", s.handleEmptyTrash)

	protected.HandleFunc("GET /api/v1/sortconfig", s.handleGetSortConfig)
	protected.HandleFunc("PUT /api/v1/sortconfig", s.handlePutSortConfig)

	protected.HandleFunc("GET /api/v1/selection", s.handleGetSelection)
	protected.HandleFunc("PUT /api/v1/selection", s.handlePutSelection)
	protected.HandleFunc("POST /api/v1/clipboard/cut", s.handleCut)
	protected.HandleFunc("POST /api/v1/clipboard/copy", s.handleCopy)
	protected.HandleFunc("POST /api/v1/clipboard/paste", s.handlePaste)

	protected.HandleFunc("POST /api/v1/upload", s.handleUpload)
	protected.HandleFunc("GET /api/v1/blobs/{id}", s.handleGetBlob)

	protected.HandleFunc("POST /api/v1/search", s.handleSearch)
	protected.HandleFunc("POST /api/v1/assist/summarize", s.handleSummarize)
	protected.HandleFunc("POST /api/v1/assist/tags", s.handleSuggestTags)
	protected.HandleFunc("POST /api/v1/assist/chat", s.handleChat)
	protected.HandleFunc("POST /api/v1/assist/command", s.handleCommand)

	protected.HandleFunc("GET /api/v1/events", s.handleEvents)

	mux.Handle("/api/v1/", s.auth.Middleware(protected))

	return logging.Middleware(metrics.Middleware(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, protocol.HealthResponse{
		Status:   "ok",
		Entities: len(s.drive.Snapshot()),
		Store:    s.storeType,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.sendError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			data, err := events.MarshalEvent(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		}
	}
}

func (s *Server) sendJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) sendError(w http.ResponseWriter, code int, message string) {
	s.sendJSON(w, code, protocol.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// sendDriveError maps engine errors onto HTTP statuses: collisions and
// cycles are conflicts, missing targets are 404, a cancelled edit is
// simply no content.
func (s *Server) sendDriveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, drive.ErrNoChange):
		w.WriteHeader(http.StatusNoContent)
	case drive.IsCollision(err):
		s.sendError(w, http.StatusConflict, err.Error())
	case drive.IsCycle(err):
		s.sendError(w, http.StatusConflict, err.Error())
	case drive.IsNotFound(err):
		s.sendError(w, http.StatusNotFound, err.Error())
	default:
		s.sendError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
