package drive

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cloudflow/cloudflow/internal/events"
	"github.com/cloudflow/cloudflow/internal/logging"
	"github.com/cloudflow/cloudflow/internal/metrics"
	"github.com/cloudflow/cloudflow/internal/store"
	"github.com/cloudflow/cloudflow/pkg/models"
)

// Drive owns the canonical snapshot and serializes every mutation. Each
// operation runs synchronously to completion: the pure transform is
// computed and the snapshot swapped wholesale under one lock, so two
// mutations can never interleave and a reader never observes a
// half-applied operation. The new snapshot is persisted write-through;
// a persist failure keeps the in-memory state authoritative and is
// logged as "changes not saved" rather than rolled back.
type Drive struct {
	mu          sync.RWMutex
	snapshot    Snapshot
	sortConfig  models.SortConfig
	store       store.Store
	broadcaster *events.Broadcaster

	selection *Selection
	clipboard *Clipboard
}

// Open loads the persisted snapshot and sort preference from st.
func Open(ctx context.Context, st store.Store, broadcaster *events.Broadcaster) (*Drive, error) {
	snapshot, err := st.Load(ctx)
	if err != nil {
		return nil, err
	}
	sortCfg, err := st.LoadSortConfig(ctx)
	if err != nil {
		sortCfg = models.DefaultSortConfig()
	}

	d := &Drive{
		snapshot:    snapshot,
		sortConfig:  sortCfg,
		store:       st,
		broadcaster: broadcaster,
		selection:   NewSelection(),
		clipboard:   &Clipboard{},
	}
	metrics.SetSnapshotSize(len(snapshot))
	logging.Info("drive opened", zap.Int("entities", len(snapshot)))
	return d, nil
}

// Snapshot returns a deep copy of the current snapshot.
func (d *Drive) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snapshot.Clone()
}

// Get returns a copy of one entity.
func (d *Drive) Get(id string) (models.Entity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e := d.snapshot.Find(id)
	if e == nil {
		return models.Entity{}, &NotFoundError{ID: id}
	}
	return e.Clone(), nil
}

// Compose derives the displayed list for q, filling in the persisted
// sort preference when q carries none.
func (d *Drive) Compose(q Query) []models.Entity {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if q.Sort.Field == "" {
		q.Sort = d.sortConfig
	}
	return Compose(d.snapshot, q)
}

// Path returns the breadcrumb chain for id, root-first.
func (d *Drive) Path(id string) []models.Entity {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snapshot.AncestorsOf(id)
}

// SortConfig returns the persisted sort preference.
func (d *Drive) SortConfig() models.SortConfig {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sortConfig
}

// SetSortConfig updates and persists the sort preference.
func (d *Drive) SetSortConfig(ctx context.Context, cfg models.SortConfig) {
	d.mu.Lock()
	d.sortConfig = cfg
	d.mu.Unlock()
	if err := d.store.SaveSortConfig(ctx, cfg); err != nil {
		logging.Warn("sort config not saved", zap.Error(err))
	}
}

// Selection returns the selection controller. Selection state is
// ephemeral: it is never persisted and resets on reload.
func (d *Drive) Selection() *Selection {
	return d.selection
}

// mutate runs a pure snapshot transform under the write lock, then
// persists and broadcasts. The event is built after the transform so it
// can carry IDs the transform created.
func (d *Drive) mutate(ctx context.Context, op string, fn func(Snapshot) (Snapshot, *events.Event, error)) error {
	d.mu.Lock()
	next, ev, err := fn(d.snapshot)
	if err != nil {
		d.mu.Unlock()
		if err != ErrNoChange {
			metrics.RecordMutation(op, "error")
		}
		return err
	}
	d.snapshot = next
	d.mu.Unlock()

	metrics.RecordMutation(op, "ok")
	metrics.SetSnapshotSize(len(next))

	start := time.Now()
	perr := d.store.Replace(ctx, next)
	metrics.RecordPersist(time.Since(start), perr)
	if perr != nil {
		// Only durability is lost; the working tree stays intact.
		logging.Error("changes not saved", zap.String("op", op), zap.Error(perr))
	}

	if d.broadcaster != nil && ev != nil {
		d.broadcaster.Publish(*ev)
	}
	return nil
}

// Create adds a file or folder under parentID.
func (d *Drive) Create(ctx context.Context, kind models.Kind, name string, parentID *string) (models.Entity, error) {
	var created models.Entity
	err := d.mutate(ctx, "create", func(s Snapshot) (Snapshot, *events.Event, error) {
		next, e, err := Create(s, kind, name, parentID)
		if err != nil {
			return s, nil, err
		}
		created = e
		return next, &events.Event{Type: events.EventCreate, IDs: []string{e.ID}, Name: e.Name}, nil
	})
	return created, err
}

// Rename changes an entity's name.
func (d *Drive) Rename(ctx context.Context, id, newName string) error {
	return d.mutate(ctx, "rename", func(s Snapshot) (Snapshot, *events.Event, error) {
		next, err := Rename(s, id, newName)
		if err != nil {
			return s, nil, err
		}
		return next, &events.Event{Type: events.EventRename, IDs: []string{id}, Name: newName}, nil
	})
}

// Move reparents ids under targetParentID, all-or-nothing.
func (d *Drive) Move(ctx context.Context, ids []string, targetParentID *string) error {
	return d.mutate(ctx, "move", func(s Snapshot) (Snapshot, *events.Event, error) {
		next, err := Move(s, ids, targetParentID)
		if err != nil {
			return s, nil, err
		}
		return next, &events.Event{Type: events.EventMove, IDs: ids}, nil
	})
}

// Trash soft-deletes ids.
func (d *Drive) Trash(ctx context.Context, ids []string) {
	d.mutate(ctx, "trash", func(s Snapshot) (Snapshot, *events.Event, error) {
		return Trash(s, ids), &events.Event{Type: events.EventTrash, IDs: ids}, nil
	})
}

// Restore brings trashed ids back.
func (d *Drive) Restore(ctx context.Context, ids []string) {
	d.mutate(ctx, "restore", func(s Snapshot) (Snapshot, *events.Event, error) {
		return Restore(s, ids), &events.Event{Type: events.EventRestore, IDs: ids}, nil
	})
}

// PermanentDelete removes ids and their subtrees forever.
func (d *Drive) PermanentDelete(ctx context.Context, ids []string) {
	d.mutate(ctx, "permanent_delete", func(s Snapshot) (Snapshot, *events.Event, error) {
		return PermanentDelete(s, ids), &events.Event{Type: events.EventDelete, IDs: ids}, nil
	})
}

// EmptyTrash removes every trashed entity.
func (d *Drive) EmptyTrash(ctx context.Context) {
	d.mutate(ctx, "empty_trash", func(s Snapshot) (Snapshot, *events.Event, error) {
		return EmptyTrash(s), &events.Event{Type: events.EventDelete}, nil
	})
}

// ToggleFavorite bulk-toggles the favorite flag on ids.
func (d *Drive) ToggleFavorite(ctx context.Context, ids []string) {
	d.mutate(ctx, "favorite", func(s Snapshot) (Snapshot, *events.Event, error) {
		return ToggleFavorite(s, ids), &events.Event{Type: events.EventFavorite, IDs: ids}, nil
	})
}

// Duplicate deep-copies ids under targetParentID and returns the new
// top-level IDs.
func (d *Drive) Duplicate(ctx context.Context, ids []string, targetParentID *string) ([]string, error) {
	var created []string
	err := d.mutate(ctx, "duplicate", func(s Snapshot) (Snapshot, *events.Event, error) {
		next, newIDs, err := Duplicate(s, ids, targetParentID)
		if err != nil {
			return s, nil, err
		}
		created = newIDs
		return next, &events.Event{Type: events.EventDuplicate, IDs: newIDs}, nil
	})
	return created, err
}

// Touch records that a file was opened.
func (d *Drive) Touch(ctx context.Context, id string) error {
	return d.mutate(ctx, "touch", func(s Snapshot) (Snapshot, *events.Event, error) {
		next, err := Touch(s, id)
		if err != nil {
			return s, nil, err
		}
		return next, &events.Event{Type: events.EventContent, IDs: []string{id}}, nil
	})
}

// SaveContent writes a new version of a file's content.
func (d *Drive) SaveContent(ctx context.Context, id, content string) error {
	return d.mutate(ctx, "save_content", func(s Snapshot) (Snapshot, *events.Event, error) {
		next, err := SaveContent(s, id, content)
		if err != nil {
			return s, nil, err
		}
		return next, &events.Event{Type: events.EventContent, IDs: []string{id}}, nil
	})
}

// SetTags replaces an entity's tag set.
func (d *Drive) SetTags(ctx context.Context, id string, tags []string) error {
	return d.mutate(ctx, "set_tags", func(s Snapshot) (Snapshot, *events.Event, error) {
		next, err := SetTags(s, id, tags)
		if err != nil {
			return s, nil, err
		}
		return next, &events.Event{Type: events.EventContent, IDs: []string{id}}, nil
	})
}

// Append adds completed entities from the upload pipeline. Names pass
// through collision avoidance against their destination folders.
func (d *Drive) Append(ctx context.Context, incoming []models.Entity) []models.Entity {
	added := make([]models.Entity, 0, len(incoming))
	d.mutate(ctx, "upload", func(s Snapshot) (Snapshot, *events.Event, error) {
		next := s.Clone()
		var ids []string
		for _, e := range incoming {
			if e.ID == "" {
				e.ID = NextID()
			}
			if e.LastModified.IsZero() {
				e.LastModified = time.Now()
			}
			e.Name = uniqueName(next.takenNames(e.ParentID), e.Name)
			next = append(next, e.Clone())
			added = append(added, e)
			ids = append(ids, e.ID)
		}
		return next, &events.Event{Type: events.EventUpload, IDs: ids}, nil
	})
	return added
}

// CutToClipboard records a pending cut.
func (d *Drive) CutToClipboard(ids []string) {
	d.clipboard.Set(ClipCut, ids)
}

// CopyToClipboard records a pending copy.
func (d *Drive) CopyToClipboard(ids []string) {
	d.clipboard.Set(ClipCopy, ids)
}

// ClipboardPending exposes the pending clipboard intent.
func (d *Drive) ClipboardPending() (ClipAction, []string) {
	return d.clipboard.Pending()
}

// Paste applies the pending clipboard intent into targetParentID: a
// copy duplicates, a cut moves. Cutting and pasting back into the
// items' current location is a silent cancel, not an error. The
// clipboard is cleared once the paste resolves.
func (d *Drive) Paste(ctx context.Context, targetParentID *string) error {
	action, ids := d.clipboard.Pending()
	if len(ids) == 0 {
		return nil
	}

	switch action {
	case ClipCut:
		d.mu.RLock()
		first := d.snapshot.Find(ids[0])
		d.mu.RUnlock()
		if first != nil && sameParent(first.ParentID, targetParentID) {
			d.clipboard.Clear()
			return nil
		}
		if err := d.Move(ctx, ids, targetParentID); err != nil {
			return err
		}
	case ClipCopy:
		if _, err := d.Duplicate(ctx, ids, targetParentID); err != nil {
			return err
		}
	}
	d.clipboard.Clear()
	return nil
}
