package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cloudflow/cloudflow/internal/drive"
	"github.com/cloudflow/cloudflow/internal/logging"
	"github.com/cloudflow/cloudflow/pkg/models"
	"github.com/cloudflow/cloudflow/pkg/protocol"
)

// queryFromRequest builds a composer query from URL parameters:
// location, folder, search, mode, matches (comma-separated IDs from a
// prior content search), sort_key, sort_dir.
func queryFromRequest(r *http.Request) drive.Query {
	q := drive.Query{
		Location:   models.Location(r.URL.Query().Get("location")),
		Search:     r.URL.Query().Get("search"),
		SearchMode: models.SearchMode(r.URL.Query().Get("mode")),
	}
	if q.Location == "" {
		q.Location = models.LocationBrowser
	}
	if folder := r.URL.Query().Get("folder"); folder != "" {
		q.CurrentFolderID = &folder
	}
	if matches := r.URL.Query().Get("matches"); matches != "" {
		q.ContentMatches = make(map[string]struct{})
		for _, id := range strings.Split(matches, ",") {
			q.ContentMatches[id] = struct{}{}
		}
	}
	if key := r.URL.Query().Get("sort_key"); key != "" {
		q.Sort = models.SortConfig{
			Field:     models.SortField(key),
			Direction: models.SortDirection(r.URL.Query().Get("sort_dir")),
		}
	}
	return q
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	entities := s.drive.Compose(queryFromRequest(r))
	s.sendJSON(w, http.StatusOK, protocol.ListResponse{
		Entities: entities,
		Total:    len(entities),
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	e, err := s.drive.Get(r.PathValue("id"))
	if err != nil {
		s.sendDriveError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, e)
}

func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	chain := s.drive.Path(r.PathValue("id"))
	if len(chain) == 0 {
		s.sendError(w, http.StatusNotFound, "entity not found")
		return
	}
	s.sendJSON(w, http.StatusOK, protocol.PathResponse{Path: chain})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req protocol.CreateRequest
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	kind := models.Kind(req.Kind)
	if kind != models.KindFile && kind != models.KindFolder {
		s.sendError(w, http.StatusBadRequest, "kind must be file or folder")
		return
	}

	e, err := s.drive.Create(r.Context(), kind, req.Name, req.ParentID)
	if err != nil {
		s.sendDriveError(w, err)
		return
	}
	s.sendJSON(w, http.StatusCreated, e)
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req protocol.RenameRequest
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.drive.Rename(r.Context(), r.PathValue("id"), req.Name); err != nil {
		s.sendDriveError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req protocol.MoveRequest
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.drive.Move(r.Context(), req.IDs, req.TargetParentID); err != nil {
		s.sendDriveError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDuplicate(w http.ResponseWriter, r *http.Request) {
	var req protocol.DuplicateRequest
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := s.drive.Duplicate(r.Context(), req.IDs, req.TargetParentID)
	if err != nil {
		s.sendDriveError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, protocol.DuplicateResponse{CreatedIDs: created})
}

func (s *Server) handleTrash(w http.ResponseWriter, r *http.Request) {
	var req protocol.IDsRequest
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.drive.Trash(r.Context(), req.IDs)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	var req protocol.IDsRequest
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.drive.Restore(r.Context(), req.IDs)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePermanentDelete(w http.ResponseWriter, r *http.Request) {
	var req protocol.IDsRequest
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.deleteBlobs(r, req.IDs)
	s.drive.PermanentDelete(r.Context(), req.IDs)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEmptyTrash(w http.ResponseWriter, r *http.Request) {
	var trashed []string
	for _, e := range s.drive.Snapshot() {
		if e.IsTrashed() {
			trashed = append(trashed, e.ID)
		}
	}
	s.deleteBlobs(r, trashed)
	s.drive.EmptyTrash(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// deleteBlobs drops stored payloads for ids and everything under them.
// Blob deletion is best-effort: a leaked blob is preferable to a failed
// tree delete.
func (s *Server) deleteBlobs(r *http.Request, ids []string) {
	if s.blobs == nil {
		return
	}
	snap := s.drive.Snapshot()
	doomed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		doomed[id] = struct{}{}
		for did := range snap.DescendantsOf(id) {
			doomed[did] = struct{}{}
		}
	}
	for id := range doomed {
		e := snap.Find(id)
		if e == nil || e.RemoteURL == "" {
			continue
		}
		if err := s.blobs.Delete(r.Context(), id); err != nil {
			logging.Warn("blob not deleted", zap.String("id", id), zap.Error(err))
		}
	}
}

func (s *Server) handleFavorite(w http.ResponseWriter, r *http.Request) {
	var req protocol.IDsRequest
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.drive.ToggleFavorite(r.Context(), req.IDs)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	if err := s.drive.Touch(r.Context(), r.PathValue("id")); err != nil {
		s.sendDriveError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request) {
	e, err := s.drive.Get(r.PathValue("id"))
	if err != nil {
		s.sendDriveError(w, err)
		return
	}
	if e.IsFolder() {
		s.sendError(w, http.StatusBadRequest, "folders have no content")
		return
	}
	s.sendJSON(w, http.StatusOK, protocol.ContentResponse{
		Content:  e.Content(),
		Versions: e.Versions,
	})
}

func (s *Server) handlePutContent(w http.ResponseWriter, r *http.Request) {
	var req protocol.ContentRequest
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.drive.SaveContent(r.Context(), r.PathValue("id"), req.Content); err != nil {
		s.sendDriveError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetTags(w http.ResponseWriter, r *http.Request) {
	var req protocol.TagsRequest
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.drive.SetTags(r.Context(), r.PathValue("id"), req.Tags); err != nil {
		s.sendDriveError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSortConfig(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, s.drive.SortConfig())
}

func (s *Server) handlePutSortConfig(w http.ResponseWriter, r *http.Request) {
	var cfg models.SortConfig
	if err := decodeBody(r, &cfg); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.drive.SetSortConfig(r.Context(), cfg)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	displayed := s.drive.Compose(queryFromRequest(r))
	s.sendJSON(w, http.StatusOK, protocol.IDsRequest{
		IDs: s.drive.Selection().IDs(displayed),
	})
}

func (s *Server) handlePutSelection(w http.ResponseWriter, r *http.Request) {
	var req protocol.IDsRequest
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.drive.Selection().Set(req.IDs)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCut(w http.ResponseWriter, r *http.Request) {
	var req protocol.IDsRequest
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.drive.CutToClipboard(req.IDs)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	var req protocol.IDsRequest
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.drive.CopyToClipboard(req.IDs)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePaste(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetParentID *string `json:"target_parent_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.drive.Paste(r.Context(), req.TargetParentID); err != nil {
		s.sendDriveError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.blobs == nil {
		s.sendError(w, http.StatusNotImplemented, "blob storage is not configured")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.sendError(w, http.StatusRequestEntityTooLarge, "upload too large")
		return
	}

	var parentID *string
	if folder := r.FormValue("folder"); folder != "" {
		parentID = &folder
	}

	var incoming []models.Entity
	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			s.sendError(w, http.StatusBadRequest, "unreadable upload part")
			return
		}

		id := drive.NextID()
		err = s.blobs.Put(r.Context(), id, f, fh.Size)
		f.Close()
		if err != nil {
			logging.Error("blob upload failed", zap.String("name", fh.Filename), zap.Error(err))
			s.sendError(w, http.StatusInternalServerError, "blob storage failed")
			return
		}

		incoming = append(incoming, models.Entity{
			ID:        id,
			Name:      fh.Filename,
			Kind:      models.KindFile,
			ParentID:  parentID,
			Size:      fh.Size,
			RemoteURL: "/api/v1/blobs/" + id,
		})
	}

	added := s.drive.Append(r.Context(), incoming)
	s.sendJSON(w, http.StatusCreated, protocol.UploadResponse{Entities: added})
}

func (s *Server) handleGetBlob(w http.ResponseWriter, r *http.Request) {
	if s.blobs == nil {
		s.sendError(w, http.StatusNotImplemented, "blob storage is not configured")
		return
	}
	id := r.PathValue("id")
	e, err := s.drive.Get(id)
	if err != nil {
		s.sendDriveError(w, err)
		return
	}
	if e.RemoteURL == "" {
		s.sendError(w, http.StatusNotFound, "entity has no stored blob")
		return
	}

	rc, size, err := s.blobs.Get(r.Context(), id)
	if err != nil {
		s.sendError(w, http.StatusNotFound, "blob unavailable")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", e.Name))
	io.Copy(w, rc)
}
