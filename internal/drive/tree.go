// Package drive implements the in-memory file tree: its queries, its
// invariant-preserving mutations, the view composer, and the selection
// and clipboard state that operates over composed views.
//
// The tree is a flat snapshot ([]models.Entity) linked by parent IDs.
// Every mutation is a pure transform from one snapshot to the next; the
// Drive engine owns the current snapshot and serializes replacement.
package drive

import (
	"strings"

	"github.com/cloudflow/cloudflow/pkg/models"
)

// Snapshot is the complete ordered entity collection at a point in time.
// It is the unit of replacement for all mutations.
type Snapshot []models.Entity

// Find returns the entity with the given ID, or nil.
func (s Snapshot) Find(id string) *models.Entity {
	for i := range s {
		if s[i].ID == id {
			return &s[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for i := range s {
		out[i] = s[i].Clone()
	}
	return out
}

// AncestorsOf walks the parent chain of id and returns the breadcrumb
// path ordered root-first, ending with the entity itself. A broken link
// mid-walk truncates the path: the entity is treated as orphaned under
// the root rather than an error.
func (s Snapshot) AncestorsOf(id string) []models.Entity {
	e := s.Find(id)
	if e == nil {
		return nil
	}
	chain := []models.Entity{e.Clone()}
	seen := map[string]bool{id: true}
	parentID := e.ParentID
	for parentID != nil {
		parent := s.Find(*parentID)
		if parent == nil || !parent.IsFolder() || seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		chain = append([]models.Entity{parent.Clone()}, chain...)
		parentID = parent.ParentID
	}
	return chain
}

// DescendantsOf collects the IDs of all transitive children of id.
// The entity itself is not included.
func (s Snapshot) DescendantsOf(id string) map[string]struct{} {
	out := make(map[string]struct{})
	s.collectDescendants(id, out)
	return out
}

func (s Snapshot) collectDescendants(id string, out map[string]struct{}) {
	for i := range s {
		e := &s[i]
		if e.ParentID == nil || *e.ParentID != id {
			continue
		}
		if _, ok := out[e.ID]; ok {
			continue
		}
		out[e.ID] = struct{}{}
		if e.IsFolder() {
			s.collectDescendants(e.ID, out)
		}
	}
}

// IsAncestor reports whether candidate appears on target's ancestor
// chain. Used to block moving a folder into its own subtree.
func (s Snapshot) IsAncestor(candidate, target string) bool {
	e := s.Find(target)
	if e == nil {
		return false
	}
	seen := map[string]bool{target: true}
	parentID := e.ParentID
	for parentID != nil {
		if *parentID == candidate {
			return true
		}
		parent := s.Find(*parentID)
		if parent == nil || seen[parent.ID] {
			return false
		}
		seen[parent.ID] = true
		parentID = parent.ParentID
	}
	return false
}

// SiblingNameCollision reports whether a non-trashed sibling of parentID
// already carries name (case-insensitive). excludeID is skipped so a
// rename does not collide with itself; pass "" to exclude nothing.
func (s Snapshot) SiblingNameCollision(name string, parentID *string, excludeID string) bool {
	for i := range s {
		e := &s[i]
		if e.ID == excludeID || e.IsTrashed() {
			continue
		}
		if !sameParent(e.ParentID, parentID) {
			continue
		}
		if strings.EqualFold(e.Name, name) {
			return true
		}
	}
	return false
}

// SubtreeSize computes the total byte size under id on demand: a file
// answers its own size, a folder sums its descendant files. Folder
// entities themselves always carry size 0.
func (s Snapshot) SubtreeSize(id string) int64 {
	var total int64
	if e := s.Find(id); e != nil && !e.IsFolder() {
		total += e.Size
	}
	for did := range s.DescendantsOf(id) {
		if e := s.Find(did); e != nil && !e.IsFolder() {
			total += e.Size
		}
	}
	return total
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
