// Package models contains the shared data types for the virtual drive.
package models

import "time"

// Kind distinguishes files from folders. It is immutable once assigned.
type Kind string

const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// MaxVersions bounds the version history kept on an editable file.
const MaxVersions = 10

// Version is one saved revision of a file's content. Index 0 of
// Entity.Versions is the current revision.
type Version struct {
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`
}

// Entity represents a file or folder in the virtual tree. The tree is a
// flat collection linked by ParentID; a nil ParentID means the entity
// sits at the root.
type Entity struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Kind         Kind       `json:"kind"`
	ParentID     *string    `json:"parent_id,omitempty"`
	Size         int64      `json:"size"`
	LastModified time.Time  `json:"last_modified"`
	LastOpenedAt *time.Time `json:"last_opened_at,omitempty"`
	IsFavorite   bool       `json:"is_favorite,omitempty"`
	TrashedAt    *time.Time `json:"trashed_at,omitempty"`
	Versions     []Version  `json:"versions,omitempty"`
	RemoteURL    string     `json:"remote_url,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
}

// IsFolder reports whether the entity is a folder.
func (e *Entity) IsFolder() bool {
	return e.Kind == KindFolder
}

// IsTrashed reports whether the entity is in the trash.
func (e *Entity) IsTrashed() bool {
	return e.TrashedAt != nil
}

// IsRoot reports whether the entity sits at the root level.
func (e *Entity) IsRoot() bool {
	return e.ParentID == nil
}

// Content returns the current revision's content, or "" when the entity
// carries no versions.
func (e *Entity) Content() string {
	if len(e.Versions) == 0 {
		return ""
	}
	return e.Versions[0].Content
}

// Clone returns a deep copy of the entity. Mutations always operate on
// clones so a snapshot handed out earlier is never edited in place.
func (e Entity) Clone() Entity {
	c := e
	if e.ParentID != nil {
		p := *e.ParentID
		c.ParentID = &p
	}
	if e.LastOpenedAt != nil {
		t := *e.LastOpenedAt
		c.LastOpenedAt = &t
	}
	if e.TrashedAt != nil {
		t := *e.TrashedAt
		c.TrashedAt = &t
	}
	if e.Versions != nil {
		c.Versions = append([]Version(nil), e.Versions...)
	}
	if e.Tags != nil {
		c.Tags = append([]string(nil), e.Tags...)
	}
	return c
}

// Location is one of the four logical views the composer filters against.
type Location string

const (
	LocationBrowser   Location = "browser"
	LocationTrash     Location = "trash"
	LocationFavorites Location = "favorites"
	LocationRecents   Location = "recents"
)

// SearchMode selects how a search query is matched.
type SearchMode string

const (
	SearchFilename SearchMode = "filename"
	SearchContent  SearchMode = "content"
)

// SortField names a sortable entity field.
type SortField string

const (
	SortByName         SortField = "name"
	SortBySize         SortField = "size"
	SortByLastModified SortField = "lastModified"
)

// SortDirection is the sort order within a kind. Folders always sort
// before files regardless of direction.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortConfig is the persisted sort preference.
type SortConfig struct {
	Field     SortField     `json:"key"`
	Direction SortDirection `json:"direction"`

	// ViewMode is an opaque display preference (grid or list) persisted
	// alongside the sort choice. The server never interprets it.
	ViewMode string `json:"view_mode,omitempty"`
}

// DefaultSortConfig is used when no preference has been persisted.
func DefaultSortConfig() SortConfig {
	return SortConfig{Field: SortByName, Direction: SortAsc, ViewMode: "grid"}
}
