// Package protocol defines the API request/response types.
package protocol

import (
	"github.com/cloudflow/cloudflow/pkg/models"
)

// ListResponse is returned by GET /api/v1/entities
type ListResponse struct {
	Entities []models.Entity `json:"entities"`
	Total    int             `json:"total"`
}

// PathResponse is returned by GET /api/v1/entities/{id}/path
type PathResponse struct {
	Path []models.Entity `json:"path"`
}

// ErrorResponse is returned on API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Details string `json:"details,omitempty"`
}

// CreateRequest is the body for POST /api/v1/entities
type CreateRequest struct {
	Name     string  `json:"name"`
	Kind     string  `json:"kind"`
	ParentID *string `json:"parent_id"`
}

// RenameRequest is the body for POST /api/v1/entities/{id}/rename
type RenameRequest struct {
	Name string `json:"name"`
}

// MoveRequest is the body for POST /api/v1/entities/move
type MoveRequest struct {
	IDs            []string `json:"ids"`
	TargetParentID *string  `json:"target_parent_id"`
}

// DuplicateRequest is the body for POST /api/v1/entities/duplicate
type DuplicateRequest struct {
	IDs            []string `json:"ids"`
	TargetParentID *string  `json:"target_parent_id"`
}

// DuplicateResponse lists the IDs of the top-level copies.
type DuplicateResponse struct {
	CreatedIDs []string `json:"created_ids"`
}

// IDsRequest is the shared body for bulk operations: trash, restore,
// permanent delete, favorite.
type IDsRequest struct {
	IDs []string `json:"ids"`
}

// ContentResponse is returned by GET /api/v1/entities/{id}/content
type ContentResponse struct {
	Content  string           `json:"content"`
	Versions []models.Version `json:"versions,omitempty"`
}

// ContentRequest is the body for PUT /api/v1/entities/{id}/content
type ContentRequest struct {
	Content string `json:"content"`
}

// TagsRequest is the body for PUT /api/v1/entities/{id}/tags
type TagsRequest struct {
	Tags []string `json:"tags"`
}

// UploadResponse is returned by POST /api/v1/upload
type UploadResponse struct {
	Entities []models.Entity `json:"entities"`
}

// LoginRequest is the body for POST /api/v1/auth/login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token on successful login.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// SearchRequest is the body for POST /api/v1/search
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchMatch is one content-search hit.
type SearchMatch struct {
	ID      string `json:"id"`
	Snippet string `json:"snippet,omitempty"`
}

// SearchResponse is returned by POST /api/v1/search
type SearchResponse struct {
	Generation uint64        `json:"generation"`
	Matches    []SearchMatch `json:"matches"`
}

// SummarizeRequest is the body for POST /api/v1/assist/summarize
type SummarizeRequest struct {
	ID string `json:"id"`
}

// SummarizeResponse carries the generated summary text.
type SummarizeResponse struct {
	Summary string `json:"summary"`
}

// TagSuggestRequest is the body for POST /api/v1/assist/tags
type TagSuggestRequest struct {
	ID string `json:"id"`
}

// TagSuggestResponse carries suggested tags for a file.
type TagSuggestResponse struct {
	Tags []string `json:"tags"`
}

// ChatRequest is the body for POST /api/v1/assist/chat
type ChatRequest struct {
	ID       string `json:"id"`
	Question string `json:"question"`
}

// ChatResponse carries the answer grounded on a document.
type ChatResponse struct {
	Answer string `json:"answer"`
}

// AssistantRequest is the body for POST /api/v1/assist/command
type AssistantRequest struct {
	Command         string  `json:"command"`
	CurrentFolderID *string `json:"current_folder_id"`
}

// AssistantResponse reports what the assistant did.
type AssistantResponse struct {
	Action     string   `json:"action"`
	Message    string   `json:"message"`
	AffectedID []string `json:"affected_ids,omitempty"`
	Unresolved []string `json:"unresolved,omitempty"`
}

// HealthResponse is returned by GET /healthz
type HealthResponse struct {
	Status   string `json:"status"`
	Entities int    `json:"entities"`
	Store    string `json:"store"`
}
