package drive

import (
	"strings"
	"time"

	"github.com/cloudflow/cloudflow/pkg/models"
)

// Mutations are pure transforms: they take the current snapshot plus
// arguments and return a new snapshot, or an error and the input
// unchanged. No operation ever leaves a half-applied snapshot behind.

// Create appends a new entity of the given kind under parentID.
// Returns the created entity alongside the new snapshot.
func Create(s Snapshot, kind models.Kind, name string, parentID *string) (Snapshot, models.Entity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return s, models.Entity{}, ErrNoChange
	}
	if parentID != nil {
		parent := s.Find(*parentID)
		if parent == nil || !parent.IsFolder() {
			return s, models.Entity{}, &NotFoundError{ID: *parentID}
		}
	}
	if s.SiblingNameCollision(name, parentID, "") {
		return s, models.Entity{}, &CollisionError{Name: name, ParentID: parentID}
	}

	e := models.Entity{
		ID:           NextID(),
		Name:         name,
		Kind:         kind,
		ParentID:     clonePtr(parentID),
		LastModified: time.Now(),
	}
	out := s.Clone()
	return append(out, e), e, nil
}

// Rename changes an entity's name. An empty or unchanged name is a
// cancelled edit (ErrNoChange); a sibling clash is a CollisionError.
func Rename(s Snapshot, id, newName string) (Snapshot, error) {
	newName = strings.TrimSpace(newName)
	e := s.Find(id)
	if e == nil {
		return s, &NotFoundError{ID: id}
	}
	if newName == "" || newName == e.Name {
		return s, ErrNoChange
	}
	if s.SiblingNameCollision(newName, e.ParentID, id) {
		return s, &CollisionError{Name: newName, ParentID: e.ParentID}
	}

	out := s.Clone()
	t := out.Find(id)
	t.Name = newName
	t.LastModified = time.Now()
	return out, nil
}

// Move reparents ids under targetParentID. The move is all-or-nothing:
// if the target is one of the moved entities, sits inside the subtree of
// any moved folder, or any moved name clashes with a sibling already at
// the destination, the whole move is rejected and the snapshot is left
// untouched. IDs that no longer exist are skipped.
func Move(s Snapshot, ids []string, targetParentID *string) (Snapshot, error) {
	if targetParentID != nil {
		target := s.Find(*targetParentID)
		if target == nil || !target.IsFolder() {
			return s, &NotFoundError{ID: *targetParentID}
		}
		for _, id := range ids {
			if id == *targetParentID {
				return s, &CycleError{ID: id, Target: *targetParentID}
			}
			if e := s.Find(id); e != nil && e.IsFolder() && s.IsAncestor(id, *targetParentID) {
				return s, &CycleError{ID: id, Target: *targetParentID}
			}
		}
	}
	moving := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		moving[id] = struct{}{}
	}
	// Names landing at the destination must be unique against the
	// existing siblings and against each other within the batch.
	claimed := make(map[string]struct{}, len(ids))
	checked := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := checked[id]; dup {
			continue
		}
		checked[id] = struct{}{}
		e := s.Find(id)
		if e == nil || e.IsTrashed() {
			continue
		}
		folded := strings.ToLower(e.Name)
		if _, dup := claimed[folded]; dup {
			return s, &CollisionError{Name: e.Name, ParentID: targetParentID}
		}
		claimed[folded] = struct{}{}
		if sameParent(e.ParentID, targetParentID) {
			continue
		}
		for i := range s {
			sib := &s[i]
			if _, inBatch := moving[sib.ID]; inBatch || sib.IsTrashed() {
				continue
			}
			if sameParent(sib.ParentID, targetParentID) && strings.EqualFold(sib.Name, e.Name) {
				return s, &CollisionError{Name: e.Name, ParentID: targetParentID}
			}
		}
	}

	out := s.Clone()
	now := time.Now()
	for _, id := range ids {
		if e := out.Find(id); e != nil {
			e.ParentID = clonePtr(targetParentID)
			e.LastModified = now
		}
	}
	return out, nil
}

// Trash marks ids as logically deleted and clears their favorite flag.
// Trashing is idempotent and never fails; unknown ids are skipped.
func Trash(s Snapshot, ids []string) Snapshot {
	out := s.Clone()
	now := time.Now()
	for _, id := range ids {
		if e := out.Find(id); e != nil && !e.IsTrashed() {
			t := now
			e.TrashedAt = &t
			e.IsFavorite = false
		}
	}
	return out
}

// Restore brings trashed ids back. When the original parent is missing
// or itself trashed, the entity is reparented to the root.
func Restore(s Snapshot, ids []string) Snapshot {
	out := s.Clone()
	for _, id := range ids {
		e := out.Find(id)
		if e == nil {
			continue
		}
		e.TrashedAt = nil
		e.ParentID = out.findRestorationParent(e.ParentID)
	}
	return out
}

// findRestorationParent keeps the original parent if it still exists as
// an active folder, otherwise falls back to the root.
func (s Snapshot) findRestorationParent(parentID *string) *string {
	if parentID == nil {
		return nil
	}
	parent := s.Find(*parentID)
	if parent == nil || !parent.IsFolder() || parent.IsTrashed() {
		return nil
	}
	return clonePtr(parentID)
}

// PermanentDelete removes ids and, for folders, their entire subtree.
// Irreversible; unknown ids are skipped.
func PermanentDelete(s Snapshot, ids []string) Snapshot {
	doomed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		e := s.Find(id)
		if e == nil {
			continue
		}
		doomed[id] = struct{}{}
		if e.IsFolder() {
			for did := range s.DescendantsOf(id) {
				doomed[did] = struct{}{}
			}
		}
	}

	out := make(Snapshot, 0, len(s))
	for i := range s {
		if _, dead := doomed[s[i].ID]; !dead {
			out = append(out, s[i].Clone())
		}
	}
	return out
}

// EmptyTrash permanently removes every trashed entity. The removal
// cascades over trashed folders' subtrees so no surviving entity is left
// pointing at a deleted parent.
func EmptyTrash(s Snapshot) Snapshot {
	var trashed []string
	for i := range s {
		if s[i].IsTrashed() {
			trashed = append(trashed, s[i].ID)
		}
	}
	return PermanentDelete(s, trashed)
}

// ToggleFavorite is a bulk set: when every target is already a favorite
// the flag is cleared on all of them, otherwise it is set on all of
// them. A mixed selection therefore converges to all-favorite.
func ToggleFavorite(s Snapshot, ids []string) Snapshot {
	all := true
	found := false
	for _, id := range ids {
		if e := s.Find(id); e != nil {
			found = true
			if !e.IsFavorite {
				all = false
			}
		}
	}
	if !found {
		return s.Clone()
	}

	out := s.Clone()
	for _, id := range ids {
		if e := out.Find(id); e != nil {
			e.IsFavorite = !all
		}
	}
	return out
}

// Touch records that a file was opened, feeding the recents view.
// Folders are never touched.
func Touch(s Snapshot, id string) (Snapshot, error) {
	e := s.Find(id)
	if e == nil {
		return s, &NotFoundError{ID: id}
	}
	if e.IsFolder() {
		return s, ErrNoChange
	}
	out := s.Clone()
	t := time.Now()
	out.Find(id).LastOpenedAt = &t
	return out, nil
}

// SaveContent prepends a new current version to a file, keeping at most
// models.MaxVersions revisions, and refreshes size and modification time.
func SaveContent(s Snapshot, id, content string) (Snapshot, error) {
	e := s.Find(id)
	if e == nil {
		return s, &NotFoundError{ID: id}
	}
	if e.IsFolder() {
		return s, ErrNoChange
	}

	out := s.Clone()
	t := out.Find(id)
	now := time.Now()
	t.Versions = append([]models.Version{{Timestamp: now, Content: content}}, t.Versions...)
	if len(t.Versions) > models.MaxVersions {
		t.Versions = t.Versions[:models.MaxVersions]
	}
	t.Size = int64(len(content))
	t.LastModified = now
	return out, nil
}

// SetTags replaces the opaque tag set attached by external tagging.
func SetTags(s Snapshot, id string, tags []string) (Snapshot, error) {
	e := s.Find(id)
	if e == nil {
		return s, &NotFoundError{ID: id}
	}
	out := s.Clone()
	out.Find(id).Tags = append([]string(nil), tags...)
	return out, nil
}

// Duplicate deep-copies ids (and, for folders, their whole subtree) with
// fresh IDs under targetParentID. Top-level copies pass through name
// collision avoidance: a same-parent duplicate is prefixed "Copy of"
// first, then numbered " (1)", " (2)", ... until unique against both
// pre-existing siblings and copies made earlier in the same batch.
// Returns the IDs of the top-level copies.
func Duplicate(s Snapshot, ids []string, targetParentID *string) (Snapshot, []string, error) {
	if targetParentID != nil {
		target := s.Find(*targetParentID)
		if target == nil || !target.IsFolder() {
			return s, nil, &NotFoundError{ID: *targetParentID}
		}
	}

	out := s.Clone()
	taken := out.takenNames(targetParentID)
	now := time.Now()
	var created []string

	for _, id := range ids {
		src := s.Find(id)
		if src == nil {
			continue
		}
		inPlace := sameParent(src.ParentID, targetParentID)
		name := uniqueName(taken, copyName(src.Name, inPlace))
		taken[strings.ToLower(name)] = true

		copyID := out.copySubtree(s, src, name, targetParentID, now)
		created = append(created, copyID)
	}
	return out, created, nil
}

// copySubtree appends a copy of src (renamed, reparented) plus recursive
// copies of its children, and returns the copy's ID. Child names are
// carried over as-is: they were unique inside the source folder and the
// destination folder is brand new.
func (out *Snapshot) copySubtree(s Snapshot, src *models.Entity, name string, parentID *string, now time.Time) string {
	c := src.Clone()
	c.ID = NextID()
	c.Name = name
	c.ParentID = clonePtr(parentID)
	c.LastModified = now
	c.LastOpenedAt = nil
	c.IsFavorite = false
	c.TrashedAt = nil
	*out = append(*out, c)

	if src.IsFolder() {
		for i := range s {
			child := &s[i]
			if child.ParentID != nil && *child.ParentID == src.ID && !child.IsTrashed() {
				out.copySubtree(s, child, child.Name, &c.ID, now)
			}
		}
	}
	return c.ID
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
