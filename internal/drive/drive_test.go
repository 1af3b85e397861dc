package drive

import (
	"context"
	"testing"
	"time"

	"github.com/cloudflow/cloudflow/internal/events"
	"github.com/cloudflow/cloudflow/internal/store"
	"github.com/cloudflow/cloudflow/pkg/models"
)

func testDrive(t *testing.T) *Drive {
	t.Helper()
	st := store.NewMemory(testSnapshot())
	d, err := Open(context.Background(), st, events.NewBroadcaster())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return d
}

func TestDriveCreatePersists(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory(testSnapshot())
	d, err := Open(ctx, st, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	e, err := d.Create(ctx, models.KindFile, "new.txt", sp("docs"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	persisted, _ := st.Load(ctx)
	found := false
	for _, p := range persisted {
		if p.ID == e.ID {
			found = true
		}
	}
	if !found {
		t.Error("created entity not written through to the store")
	}
}

func TestDriveMutationPublishesEvent(t *testing.T) {
	ctx := context.Background()
	b := events.NewBroadcaster()
	st := store.NewMemory(testSnapshot())
	d, err := Open(ctx, st, b)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	if err := d.Rename(ctx, "notes", "renamed.txt"); err != nil {
		t.Fatalf("Rename: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.Type != events.EventRename {
			t.Errorf("event type = %q", ev.Type)
		}
		if len(ev.IDs) != 1 || ev.IDs[0] != "notes" {
			t.Errorf("event ids = %v", ev.IDs)
		}
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestDriveFailedMutationLeavesStateAlone(t *testing.T) {
	ctx := context.Background()
	d := testDrive(t)

	before := d.Snapshot()
	if _, err := d.Create(ctx, models.KindFile, "notes.txt", sp("docs")); !IsCollision(err) {
		t.Fatalf("want collision, got %v", err)
	}
	after := d.Snapshot()
	if len(before) != len(after) {
		t.Error("rejected mutation changed the snapshot")
	}
}

func TestDriveComposeUsesPersistedSort(t *testing.T) {
	ctx := context.Background()
	d := testDrive(t)
	d.SetSortConfig(ctx, models.SortConfig{Field: models.SortByName, Direction: models.SortDesc})

	got := d.Compose(Query{Location: models.LocationBrowser, CurrentFolderID: sp("docs")})
	// Folder still first, files in descending name order after it.
	if got[0].Name != "Reports" {
		t.Fatalf("compose[0] = %q", got[0].Name)
	}
}

func TestDrivePath(t *testing.T) {
	d := testDrive(t)
	chain := d.Path("q1")
	if len(chain) != 3 || chain[0].ID != "docs" || chain[2].ID != "q1" {
		t.Fatalf("Path(q1) = %d entries", len(chain))
	}
}

func TestPasteCopy(t *testing.T) {
	ctx := context.Background()
	d := testDrive(t)

	d.CopyToClipboard([]string{"notes"})
	if err := d.Paste(ctx, sp("pics")); err != nil {
		t.Fatalf("Paste: %v", err)
	}

	snap := d.Snapshot()
	var inPics []string
	for _, e := range snap {
		if e.ParentID != nil && *e.ParentID == "pics" {
			inPics = append(inPics, e.Name)
		}
	}
	if len(inPics) != 1 || inPics[0] != "notes.txt" {
		t.Fatalf("pics children after paste = %v", inPics)
	}
	// Original stays where it was.
	if e, _ := d.Get("notes"); *e.ParentID != "docs" {
		t.Error("copy paste moved the original")
	}
	if _, ids := d.ClipboardPending(); ids != nil {
		t.Error("clipboard not cleared after paste")
	}
}

func TestPasteCutMoves(t *testing.T) {
	ctx := context.Background()
	d := testDrive(t)

	d.CutToClipboard([]string{"notes"})
	if err := d.Paste(ctx, sp("pics")); err != nil {
		t.Fatalf("Paste: %v", err)
	}
	if e, _ := d.Get("notes"); *e.ParentID != "pics" {
		t.Error("cut paste did not move")
	}
}

func TestPasteCutSameParentIsSilentCancel(t *testing.T) {
	ctx := context.Background()
	d := testDrive(t)

	d.CutToClipboard([]string{"notes"})
	if err := d.Paste(ctx, sp("docs")); err != nil {
		t.Fatalf("Paste into current parent: %v", err)
	}
	if e, _ := d.Get("notes"); *e.ParentID != "docs" {
		t.Error("silent cancel still moved the entity")
	}
	if _, ids := d.ClipboardPending(); ids != nil {
		t.Error("cancelled cut should clear the clipboard")
	}
	// No duplicate appeared either.
	if len(d.Snapshot()) != len(testSnapshot()) {
		t.Error("silent cancel changed the snapshot")
	}
}

func TestAppendAvoidsNameClashes(t *testing.T) {
	ctx := context.Background()
	d := testDrive(t)

	added := d.Append(ctx, []models.Entity{
		{Name: "notes.txt", Kind: models.KindFile, ParentID: sp("docs"), Size: 5},
	})
	if len(added) != 1 {
		t.Fatalf("added = %d", len(added))
	}
	if added[0].Name != "notes (1).txt" {
		t.Errorf("upload name = %q", added[0].Name)
	}
	if added[0].ID == "" {
		t.Error("upload got no ID")
	}
}
