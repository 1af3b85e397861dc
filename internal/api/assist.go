package api

import (
	"errors"
	"net/http"

	"github.com/cloudflow/cloudflow/internal/assist"
	"github.com/cloudflow/cloudflow/internal/drive"
	"github.com/cloudflow/cloudflow/pkg/protocol"
)

// handleSearch runs a sidecar content search over every live file.
// A search that was superseded or abandoned mid-flight answers 204:
// there is deliberately nothing to show for it.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req protocol.SearchRequest
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.sendError(w, http.StatusBadRequest, "query is required")
		return
	}

	files := make(map[string]string)
	for _, e := range s.drive.Snapshot() {
		if !e.IsFolder() && !e.IsTrashed() {
			files[e.ID] = e.Content()
		}
	}

	out, err := s.searcher.Run(r.Context(), req.Query, files)
	if err != nil {
		s.sendAssistError(w, err)
		return
	}
	if out.State != assist.StateDone {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	matches := make([]protocol.SearchMatch, len(out.Matches))
	for i, m := range out.Matches {
		matches[i] = protocol.SearchMatch{ID: m.ID, Snippet: m.Snippet}
	}
	s.sendJSON(w, http.StatusOK, protocol.SearchResponse{
		Generation: out.Generation,
		Matches:    matches,
	})
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req protocol.SummarizeRequest
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if s.assist == nil {
		s.sendAssistError(w, assist.ErrUnavailable)
		return
	}

	e, err := s.drive.Get(req.ID)
	if err != nil {
		s.sendDriveError(w, err)
		return
	}
	summary, err := s.assist.Summarize(r.Context(), e.Name, e.Content())
	if err != nil {
		s.sendAssistError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, protocol.SummarizeResponse{Summary: summary})
}

// handleSuggestTags asks the sidecar for tags and stores them on the
// entity in one step.
func (s *Server) handleSuggestTags(w http.ResponseWriter, r *http.Request) {
	var req protocol.TagSuggestRequest
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if s.assist == nil {
		s.sendAssistError(w, assist.ErrUnavailable)
		return
	}

	e, err := s.drive.Get(req.ID)
	if err != nil {
		s.sendDriveError(w, err)
		return
	}
	tags, err := s.assist.GenerateTags(r.Context(), e.Name, e.Content())
	if err != nil {
		s.sendAssistError(w, err)
		return
	}
	if err := s.drive.SetTags(r.Context(), req.ID, tags); err != nil {
		s.sendDriveError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, protocol.TagSuggestResponse{Tags: tags})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req protocol.ChatRequest
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		s.sendError(w, http.StatusBadRequest, "question is required")
		return
	}
	if s.assist == nil {
		s.sendAssistError(w, assist.ErrUnavailable)
		return
	}

	e, err := s.drive.Get(req.ID)
	if err != nil {
		s.sendDriveError(w, err)
		return
	}
	answer, err := s.assist.Chat(r.Context(), e.Name, e.Content(), req.Question)
	if err != nil {
		s.sendAssistError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, protocol.ChatResponse{Answer: answer})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req protocol.AssistantRequest
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Command == "" {
		s.sendError(w, http.StatusBadRequest, "command is required")
		return
	}

	res, err := s.executor.Execute(r.Context(), req.Command, req.CurrentFolderID)
	if err != nil {
		if drive.IsCollision(err) || drive.IsCycle(err) || drive.IsNotFound(err) {
			s.sendDriveError(w, err)
			return
		}
		s.sendAssistError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, protocol.AssistantResponse{
		Action:     res.Action,
		Message:    res.Message,
		AffectedID: res.Affected,
		Unresolved: res.Unresolved,
	})
}

func (s *Server) sendAssistError(w http.ResponseWriter, err error) {
	if errors.Is(err, assist.ErrUnavailable) {
		s.sendError(w, http.StatusNotImplemented, err.Error())
		return
	}
	s.sendError(w, http.StatusBadGateway, err.Error())
}
